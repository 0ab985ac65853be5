package models

import "time"

// ScoreRecord is one judge's persisted tallies for one participant in one
// match. The scoring UI tracks penalties in two category tracks; those are
// summed before they reach this table, so each penalty column here is the
// combined count.
type ScoreRecord struct {
	ID            string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	MatchID       string `gorm:"not null;uniqueIndex:idx_score_entry" json:"match_id"`
	JudgeID       string `gorm:"not null;uniqueIndex:idx_score_entry" json:"judge_id"`
	ParticipantID string `gorm:"not null;uniqueIndex:idx_score_entry" json:"participant_id"`

	Yuko    int `gorm:"default:0" json:"yuko"`
	WazaAri int `gorm:"default:0" json:"waza_ari"`
	Ippon   int `gorm:"default:0" json:"ippon"`

	Chukoku     int `gorm:"default:0" json:"chukoku"`
	Keikoku     int `gorm:"default:0" json:"keikoku"`
	HansokuChui int `gorm:"default:0" json:"hansoku_chui"`
	Hansoku     int `gorm:"default:0" json:"hansoku"`

	// Timestamp of the judge's first point-scoring action; set once.
	FirstScoreAt *time.Time `json:"first_score_at,omitempty"`

	Timestamps
}
