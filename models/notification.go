package models

import "time"

// Notification is one item of a user's in-app feed. Rows are written when
// matches are finalized (winner, both corners, and organizers get one) and
// consumed by the notification endpoints.
type Notification struct {
	ID     string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID string `gorm:"index;not null" json:"user_id"`

	Type  string `gorm:"type:varchar(32);not null" json:"type"` // match_result, match_scheduled, ...
	Title string `gorm:"not null" json:"title"`
	Body  string `json:"body"`

	TournamentID string `gorm:"index" json:"tournament_id,omitempty"`
	MatchID      string `gorm:"index" json:"match_id,omitempty"`

	ReadAt *time.Time `json:"read_at,omitempty"`

	Timestamps
}
