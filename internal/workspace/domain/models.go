// Package domain contains persistence models for the workspace directory.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Workspace represents a tenant.
type Workspace struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Name       string       `gorm:"type:text;not null" json:"name"`
	Slug       string       `gorm:"type:text;not null" json:"slug"`
	InviteCode string       `gorm:"type:text;not null;uniqueIndex:ux_workspaces_invite_code" json:"invite_code"`
	CreatedBy  snowflake.ID `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Workspace) TableName() string { return "workspaces" }

// WorkspaceMember represents membership of a user in a workspace. Capability
// flags are ignored for admins; their capabilities are implicit.
type WorkspaceMember struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	WorkspaceID       snowflake.ID `gorm:"not null;index;uniqueIndex:ux_workspace_user,priority:1" json:"workspace_id"`
	UserID            snowflake.ID `gorm:"not null;index;uniqueIndex:ux_workspace_user,priority:2" json:"user_id"`
	Role              string       `gorm:"type:text;not null" json:"role"`
	CanCreateTasks    bool         `gorm:"column:can_create_tasks;not null" json:"can_create_tasks"`
	CanCreateMeetings bool         `gorm:"column:can_create_meetings;not null" json:"can_create_meetings"`
	JoinedAt          time.Time    `gorm:"column:joined_at;not null;default:CURRENT_TIMESTAMP" json:"joined_at"`
}

// TableName sets the database table name.
func (WorkspaceMember) TableName() string { return "workspace_members" }
