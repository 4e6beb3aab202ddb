// Package domain contains the collaborator profile model. Profiles mirror
// identity data owned by the external session provider; nothing here feeds
// permission decisions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Profile struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	FullName  string       `gorm:"column:full_name;type:text;not null" json:"full_name"`
	AvatarURL string       `gorm:"column:avatar_url;type:text" json:"avatar_url"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Profile) TableName() string { return "profiles" }
