package models

import (
	"time"

	"gorm.io/gorm"
)

// OfficialProfile is a local snapshot of judge/coach/player identity data
// needed for dashboards and match assignment. Owned solely by this
// service; populated via the official sync worker from the profile
// service.
type OfficialProfile struct {
	ID             string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	ExternalUserID string  `gorm:"uniqueIndex;not null" json:"external_user_id"`
	Username       string  `gorm:"index;not null" json:"username"`
	DisplayName    string  `json:"display_name"`
	Role           string  `gorm:"type:varchar(16);default:'player'" json:"role"` // player/judge/coach/organizer/admin
	AvatarURL      *string `json:"avatar_url,omitempty"`
	Dojo           *string `json:"dojo,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
