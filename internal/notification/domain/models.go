// Package domain contains persistence models for the notification inbox.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Event types emitted by the task and meeting services.
const (
	EventTaskAssigned            = "task.assigned"
	EventTaskCompletionRequested = "task.completion_requested"
	EventTaskApproved            = "task.approved"
	EventTaskRejected            = "task.rejected"
	EventMeetingScheduled        = "meeting.scheduled"
	EventMeetingUpdated          = "meeting.updated"
)

// Notification is a single inbox entry. Produced once, never mutated except
// for the read marker.
type Notification struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	WorkspaceID  snowflake.ID  `gorm:"not null;index" json:"workspace_id"`
	UserID       snowflake.ID  `gorm:"not null;index" json:"user_id"`
	ActorID      *snowflake.ID `gorm:"column:actor_id" json:"actor_id"`
	EventType    string        `gorm:"type:text;not null" json:"event_type"`
	ResourceType string        `gorm:"type:text;not null" json:"resource_type"`
	ResourceID   *snowflake.ID `gorm:"column:resource_id" json:"resource_id"`
	Message      string        `gorm:"type:text;not null" json:"message"`
	IsRead       bool          `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName sets the database table name.
func (Notification) TableName() string { return "notifications" }
