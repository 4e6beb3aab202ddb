// Package domain contains the task state machine and persistence model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPending         = "pending"
	StatusOngoing         = "ongoing"
	StatusPendingApproval = "pending_approval"
	StatusCompleted       = "completed"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidPriority reports whether p is a recognized task priority.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Transition is a single edge of the task state machine. No other edges
// exist; anything else is an invalid transition regardless of version.
type Transition struct {
	Name string
	From string
	To   string
}

var (
	TransitionStart             = Transition{Name: "start", From: StatusPending, To: StatusOngoing}
	TransitionRequestCompletion = Transition{Name: "request_completion", From: StatusOngoing, To: StatusPendingApproval}
	TransitionApprove           = Transition{Name: "approve", From: StatusPendingApproval, To: StatusCompleted}
	TransitionReject            = Transition{Name: "reject", From: StatusPendingApproval, To: StatusOngoing}
)

// Task is a unit of work inside a workspace. Version advances by one on
// every accepted write and backs the optimistic concurrency check.
type Task struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	WorkspaceID snowflake.ID  `gorm:"not null;index" json:"workspace_id"`
	Title       string        `gorm:"type:text;not null" json:"title"`
	Description string        `gorm:"type:text" json:"description"`
	Priority    string        `gorm:"type:text;not null" json:"priority"`
	Status      string        `gorm:"type:text;not null" json:"status"`
	AssigneeID  *snowflake.ID `gorm:"column:assignee_id;index" json:"assignee_id"`
	CreatedBy   snowflake.ID  `gorm:"column:created_by;not null" json:"created_by"`
	Deadline    *time.Time    `gorm:"column:deadline" json:"deadline"`
	Version     int64         `gorm:"not null;default:1" json:"version"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Task) TableName() string { return "tasks" }
