package models

import "time"

// Match lifecycle statuses. A match reaches MatchStatusCompleted only
// through the finalize flow once a winner has been resolved.
const (
	MatchStatusScheduled  = "scheduled"
	MatchStatusInProgress = "in_progress"
	MatchStatusCompleted  = "completed"
)

// Match is one Kumite contest between the red (AKA) and blue (AO) corners.
type Match struct {
	ID           string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TournamentID string `gorm:"index;not null" json:"tournament_id"`
	Name         string `json:"name"`
	Tatami       string `json:"tatami,omitempty"` // mat/area label
	Division     string `json:"division,omitempty"`

	// Participant ids are opaque (player or team) and immutable for the
	// scoring session; names are denormalized for display.
	RedID    string `gorm:"index;not null" json:"red_id"`
	RedName  string `json:"red_name"`
	BlueID   string `gorm:"index;not null" json:"blue_id"`
	BlueName string `json:"blue_name"`

	Status      string     `gorm:"type:varchar(16);default:'scheduled'" json:"status"`
	WinnerID    string     `json:"winner_id,omitempty"`
	ScheduledAt time.Time  `gorm:"not null" json:"scheduled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Judges []MatchJudge `json:"judges,omitempty" gorm:"foreignKey:MatchID"`

	Timestamps
}

// MatchJudge assigns an official to a match. Each assigned judge scores
// independently; Role is a cosmetic label (referee, judge, kansa).
type MatchJudge struct {
	ID      string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MatchID string `gorm:"not null;uniqueIndex:idx_match_judge" json:"match_id"`
	JudgeID string `gorm:"not null;uniqueIndex:idx_match_judge" json:"judge_id"`
	Name    string `json:"name"`
	Role    string `gorm:"type:varchar(32);default:'judge'" json:"role"`

	Timestamps
}
