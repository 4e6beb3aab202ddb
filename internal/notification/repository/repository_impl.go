package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/syncspace/syncspace/internal/notification/domain"
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

func (r *repository) Insert(ctx context.Context, n domain.Notification) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO notifications (
			id, workspace_id, user_id, actor_id, event_type, resource_type,
			resource_id, message, is_read, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.WorkspaceID,
		n.UserID,
		n.ActorID,
		n.EventType,
		n.ResourceType,
		n.ResourceID,
		n.Message,
		n.IsRead,
		n.CreatedAt,
	).Error
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Notification, error) {
	var items []*domain.Notification
	stmt := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ?", filter.UserID)

	if filter.WorkspaceID != 0 {
		stmt = stmt.Where("workspace_id = ?", filter.WorkspaceID)
	}
	if filter.UnreadOnly {
		stmt = stmt.Where("is_read = ?", false)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) MarkRead(ctx context.Context, userID, notificationID snowflake.ID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *repository) MarkAllRead(ctx context.Context, userID, workspaceID snowflake.ID) error {
	stmt := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false)
	if workspaceID != 0 {
		stmt = stmt.Where("workspace_id = ?", workspaceID)
	}
	return stmt.Update("is_read", true).Error
}

func (r *repository) CountUnread(ctx context.Context, userID, workspaceID snowflake.ID) (int64, error) {
	var count int64
	stmt := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false)
	if workspaceID != 0 {
		stmt = stmt.Where("workspace_id = ?", workspaceID)
	}
	err := stmt.Count(&count).Error
	return count, err
}
