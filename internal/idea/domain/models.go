// Package domain contains the idea board model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Idea statuses are free-moving columns, not a state machine. Any recognized
// status may follow any other.
const (
	StatusProposed   = "proposed"
	StatusInProgress = "in_progress"
	StatusFinalized  = "finalized"
)

// ValidStatus reports whether s is a recognized idea status.
func ValidStatus(s string) bool {
	switch s {
	case StatusProposed, StatusInProgress, StatusFinalized:
		return true
	default:
		return false
	}
}

type Idea struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;index" json:"workspace_id"`
	Title       string       `gorm:"type:text;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Status      string       `gorm:"type:text;not null" json:"status"`
	CreatedBy   snowflake.ID `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Idea) TableName() string { return "ideas" }
