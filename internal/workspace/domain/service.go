package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// ValidRole reports whether role is a recognized workspace role.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleMember
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateWorkspaceRequest) (*WorkspaceResponse, error)
	Join(ctx context.Context, userID snowflake.ID, inviteCode string) (*WorkspaceResponse, error)
	ResolveMembership(ctx context.Context, workspaceID, userID snowflake.ID) (*WorkspaceMember, error)
	GetByID(ctx context.Context, actorID, workspaceID snowflake.ID) (*WorkspaceResponse, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]WorkspaceListResponseItem, error)
	ListMembers(ctx context.Context, actorID, workspaceID snowflake.ID) ([]MemberResponse, error)
	Rename(ctx context.Context, actorID, workspaceID snowflake.ID, name string) (*WorkspaceResponse, error)
	UpdateMemberFlags(ctx context.Context, actorID, workspaceID, userID snowflake.ID, req UpdateMemberFlagsRequest) (*MemberResponse, error)
	UpdateMemberRole(ctx context.Context, actorID, workspaceID, userID snowflake.ID, role string) (*MemberResponse, error)
	RemoveMember(ctx context.Context, actorID, workspaceID, userID snowflake.ID) error
}

type CreateWorkspaceRequest struct {
	Name string
}

type UpdateMemberFlagsRequest struct {
	CanCreateTasks    *bool
	CanCreateMeetings *bool
}

type WorkspaceResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	InviteCode string `json:"invite_code,omitempty"`
	Role       string `json:"role,omitempty"`
}

type WorkspaceListResponseItem struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type MemberResponse struct {
	UserID            string    `json:"user_id"`
	Role              string    `json:"role"`
	CanCreateTasks    bool      `json:"can_create_tasks"`
	CanCreateMeetings bool      `json:"can_create_meetings"`
	JoinedAt          time.Time `json:"joined_at"`
}

var (
	ErrInvalidName        = errors.New("invalid_name")
	ErrInvalidUser        = errors.New("invalid_user")
	ErrInvalidWorkspace   = errors.New("invalid_workspace")
	ErrInvalidRole        = errors.New("invalid_role")
	ErrWorkspaceNotFound  = errors.New("workspace_not_found")
	ErrInviteCodeNotFound = errors.New("invite_code_not_found")
	ErrInviteCodeConflict = errors.New("invite_code_already_exists")
	ErrNotAMember         = errors.New("not_a_member")
	ErrAlreadyMember      = errors.New("already_member")
	ErrLastAdminProtected = errors.New("last_admin_protected")
	ErrForbidden          = errors.New("forbidden")
	ErrRateLimited        = errors.New("join_rate_limited")
)
