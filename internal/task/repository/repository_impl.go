package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/syncspace/syncspace/internal/task/domain"
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

func (r *repository) Create(ctx context.Context, task domain.Task) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO tasks (
			id, workspace_id, title, description, priority, status, assignee_id,
			created_by, deadline, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.WorkspaceID,
		task.Title,
		task.Description,
		task.Priority,
		task.Status,
		task.AssigneeID,
		task.CreatedBy,
		task.Deadline,
		task.Version,
		task.CreatedAt,
		task.UpdatedAt,
	).Error
}

func (r *repository) Get(ctx context.Context, workspaceID, taskID snowflake.ID) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).
		First(&task, "id = ? AND workspace_id = ?", taskID, workspaceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Task, error) {
	var tasks []*domain.Task
	stmt := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("workspace_id = ?", filter.WorkspaceID)

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.AssigneeID != 0 {
		stmt = stmt.Where("assignee_id = ?", filter.AssigneeID)
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

	if err := stmt.Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// UpdateWithVersion is the single compare-and-swap write path for tasks.
func (r *repository) UpdateWithVersion(ctx context.Context, taskID snowflake.ID, observedVersion int64, updates map[string]any) (int64, error) {
	assignments := make(map[string]any, len(updates)+2)
	for key, value := range updates {
		assignments[key] = value
	}
	assignments["version"] = observedVersion + 1
	assignments["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND version = ?", taskID, observedVersion).
		Updates(assignments)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteWithVersion(ctx context.Context, taskID snowflake.ID, observedVersion int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND version = ?", taskID, observedVersion).
		Delete(&domain.Task{})
	return res.RowsAffected, res.Error
}
