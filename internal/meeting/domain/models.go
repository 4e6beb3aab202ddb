// Package domain contains the meeting model and its time-derived status.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Meeting statuses are never stored; they are derived from the clock at read
// time over the half-open interval [StartTime, EndTime).
const (
	StatusUpcoming = "upcoming"
	StatusOngoing  = "ongoing"
	StatusEnded    = "ended"
)

type Meeting struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID `gorm:"not null;index" json:"workspace_id"`
	Title       string       `gorm:"type:text;not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Agenda      string       `gorm:"type:text" json:"agenda"`
	Location    string       `gorm:"type:text" json:"location"`
	MeetingLink string       `gorm:"column:meeting_link;type:text" json:"meeting_link"`
	StartTime   time.Time    `gorm:"column:start_time;not null;index" json:"start_time"`
	EndTime     time.Time    `gorm:"column:end_time;not null" json:"end_time"`
	CreatedBy   snowflake.ID `gorm:"column:created_by;not null" json:"created_by"`
	Version     int64        `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Meeting) TableName() string { return "meetings" }

type Participant struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	MeetingID snowflake.ID `gorm:"column:meeting_id;not null;uniqueIndex:ux_meeting_user" json:"meeting_id"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;uniqueIndex:ux_meeting_user" json:"user_id"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Participant) TableName() string { return "meeting_participants" }

// StatusAt derives the meeting status for the given instant.
func (m Meeting) StatusAt(now time.Time) string {
	if now.Before(m.StartTime) {
		return StatusUpcoming
	}
	if now.Before(m.EndTime) {
		return StatusOngoing
	}
	return StatusEnded
}
