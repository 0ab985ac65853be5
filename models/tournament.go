package models

import "time"

// Tournament represents a karate competition event.
type Tournament struct {
	ID             string     `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Slug           string     `gorm:"uniqueIndex;not null" json:"slug"`
	Name           string     `gorm:"not null" json:"name"`
	Description    string     `json:"description"`
	Rules          string     `json:"rules"`
	Venue          string     `json:"venue"`
	MainPhotoURL   string     `json:"main_photo_url"`
	MaxEntries     int        `gorm:"default:0" json:"max_entries"` // 0 = unlimited
	EntryFee       float64    `gorm:"default:0" json:"entry_fee"`
	Status         string     `gorm:"type:varchar(16);default:'draft'" json:"status"` // draft/published/active/completed/cancelled
	StartTime      time.Time  `gorm:"not null" json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	PublishedAt    *time.Time `gorm:"index" json:"published_at,omitempty"`
	RegistrationBy *time.Time `json:"registration_by,omitempty"` // entries close after this

	Entries []TournamentEntry `json:"entries,omitempty" gorm:"foreignKey:TournamentID"`
	Matches []Match           `json:"matches,omitempty" gorm:"foreignKey:TournamentID"`

	// Calculated, not stored
	EntriesCount   int64 `json:"entries_count,omitempty" gorm:"-"`
	AvailableSlots int64 `json:"available_slots,omitempty" gorm:"-"`

	Timestamps
}

// TournamentEntry registers a player or team into a tournament division.
type TournamentEntry struct {
	ID           string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	TournamentID string `gorm:"not null;uniqueIndex:idx_tournament_entry" json:"tournament_id"`

	// ExternalUserID is the profile service's id for the registering player
	// (or team captain). It doubles as the participant id in matches.
	ExternalUserID string  `gorm:"not null;uniqueIndex:idx_tournament_entry" json:"external_user_id"`
	DisplayName    string  `json:"display_name"`
	TeamName       string  `json:"team_name,omitempty"`
	Division       string  `json:"division,omitempty"` // weight/belt class label
	AvatarURL      *string `json:"avatar_url,omitempty"`

	Status   string    `gorm:"type:varchar(16);default:'registered'" json:"status"` // registered/withdrawn/disqualified
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	Timestamps
}
