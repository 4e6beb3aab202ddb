package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/syncspace/syncspace/internal/workspace/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateWorkspace(ctx context.Context, ws domain.Workspace) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO workspaces (id, name, slug, invite_code, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ws.ID,
		ws.Name,
		ws.Slug,
		ws.InviteCode,
		ws.CreatedBy,
		ws.CreatedAt,
		ws.UpdatedAt,
	).Error
}

func (r *repository) GetWorkspace(ctx context.Context, id snowflake.ID) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := r.db.WithContext(ctx).First(&ws, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ws, nil
}

func (r *repository) GetWorkspaceByInviteCode(ctx context.Context, code string) (*domain.Workspace, error) {
	var ws domain.Workspace
	err := r.db.WithContext(ctx).First(&ws, "invite_code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ws, nil
}

func (r *repository) UpdateWorkspaceName(ctx context.Context, id snowflake.ID, name, slug string) error {
	return r.db.WithContext(ctx).Model(&domain.Workspace{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":       name,
			"slug":       slug,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}).Error
}

func (r *repository) AddMember(ctx context.Context, member domain.WorkspaceMember) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO workspace_members (id, workspace_id, user_id, role, can_create_tasks, can_create_meetings, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		member.ID,
		member.WorkspaceID,
		member.UserID,
		member.Role,
		member.CanCreateTasks,
		member.CanCreateMeetings,
		member.JoinedAt,
	).Error
}

func (r *repository) GetMember(ctx context.Context, workspaceID, userID snowflake.ID) (*domain.WorkspaceMember, error) {
	var member domain.WorkspaceMember
	err := r.db.WithContext(ctx).
		First(&member, "workspace_id = ? AND user_id = ?", workspaceID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *repository) ListMembers(ctx context.Context, workspaceID snowflake.ID) ([]domain.WorkspaceMember, error) {
	var members []domain.WorkspaceMember
	err := r.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		Order("joined_at asc, id asc").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) ListWorkspacesByUser(ctx context.Context, userID snowflake.ID) ([]domain.WorkspaceListItem, error) {
	var items []domain.WorkspaceListItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT w.id, w.name, w.slug, m.role, m.joined_at, w.created_at
		 FROM workspaces w
		 JOIN workspace_members m ON m.workspace_id = w.id
		 WHERE m.user_id = ?
		 ORDER BY w.created_at ASC`,
		userID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) UpdateMember(ctx context.Context, member domain.WorkspaceMember) error {
	return r.db.WithContext(ctx).Model(&domain.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", member.WorkspaceID, member.UserID).
		Updates(map[string]any{
			"role":                member.Role,
			"can_create_tasks":    member.CanCreateTasks,
			"can_create_meetings": member.CanCreateMeetings,
		}).Error
}

func (r *repository) RemoveMember(ctx context.Context, workspaceID, userID snowflake.ID) error {
	return r.db.WithContext(ctx).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Delete(&domain.WorkspaceMember{}).Error
}

func (r *repository) CountAdmins(ctx context.Context, workspaceID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.WorkspaceMember{}).
		Where("workspace_id = ? AND role = ?", workspaceID, domain.RoleAdmin).
		Count(&count).Error
	return count, err
}
