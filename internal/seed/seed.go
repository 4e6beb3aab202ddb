package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	workspacedomain "github.com/syncspace/syncspace/internal/workspace/domain"
	"gorm.io/gorm"
)

const (
	demoWorkspaceName = "Demo Workspace"
	demoWorkspaceSlug = "demo-workspace"
	demoInviteCode    = "DEMO-WORKSPACE"
	demoAdminUserID   = snowflake.ID(1)
)

// EnsureDemoWorkspace seeds a workspace with one admin member so a fresh
// local install has something to poke at. Idempotent across restarts.
func EnsureDemoWorkspace(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ws, err := ensureWorkspaceTx(ctx, tx, node)
		if err != nil {
			return err
		}
		return ensureAdminMemberTx(ctx, tx, node, ws.ID)
	})
}

func ensureWorkspaceTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node) (workspacedomain.Workspace, error) {
	var ws workspacedomain.Workspace
	err := tx.WithContext(ctx).Where("slug = ?", demoWorkspaceSlug).First(&ws).Error
	if err == nil {
		return ws, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ws, err
	}

	now := time.Now().UTC()
	ws = workspacedomain.Workspace{
		ID:         node.Generate(),
		Name:       demoWorkspaceName,
		Slug:       slug.Make(demoWorkspaceName),
		InviteCode: demoInviteCode,
		CreatedBy:  demoAdminUserID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(&ws).Error; err != nil {
		return ws, err
	}
	return ws, nil
}

func ensureAdminMemberTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, workspaceID snowflake.ID) error {
	var member workspacedomain.WorkspaceMember
	err := tx.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, demoAdminUserID).
		First(&member).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	member = workspacedomain.WorkspaceMember{
		ID:                node.Generate(),
		WorkspaceID:       workspaceID,
		UserID:            demoAdminUserID,
		Role:              workspacedomain.RoleAdmin,
		CanCreateTasks:    true,
		CanCreateMeetings: true,
		JoinedAt:          time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&member).Error
}
