package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type WorkspaceListItem struct {
	ID        snowflake.ID
	Name      string
	Slug      string
	Role      string
	JoinedAt  time.Time
	CreatedAt time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateWorkspace(ctx context.Context, ws Workspace) error
	GetWorkspace(ctx context.Context, id snowflake.ID) (*Workspace, error)
	GetWorkspaceByInviteCode(ctx context.Context, code string) (*Workspace, error)
	UpdateWorkspaceName(ctx context.Context, id snowflake.ID, name, slug string) error
	AddMember(ctx context.Context, member WorkspaceMember) error
	GetMember(ctx context.Context, workspaceID, userID snowflake.ID) (*WorkspaceMember, error)
	ListMembers(ctx context.Context, workspaceID snowflake.ID) ([]WorkspaceMember, error)
	ListWorkspacesByUser(ctx context.Context, userID snowflake.ID) ([]WorkspaceListItem, error)
	UpdateMember(ctx context.Context, member WorkspaceMember) error
	RemoveMember(ctx context.Context, workspaceID, userID snowflake.ID) error
	CountAdmins(ctx context.Context, workspaceID snowflake.ID) (int64, error)
}
