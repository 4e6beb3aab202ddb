package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/syncspace/syncspace/internal/idea/domain"
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

func (r *repository) Create(ctx context.Context, idea domain.Idea) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO ideas (
			id, workspace_id, title, description, status, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		idea.ID,
		idea.WorkspaceID,
		idea.Title,
		idea.Description,
		idea.Status,
		idea.CreatedBy,
		idea.CreatedAt,
		idea.UpdatedAt,
	).Error
}

func (r *repository) Get(ctx context.Context, workspaceID, ideaID snowflake.ID) (*domain.Idea, error) {
	var idea domain.Idea
	err := r.db.WithContext(ctx).
		First(&idea, "id = ? AND workspace_id = ?", ideaID, workspaceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &idea, nil
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Idea, error) {
	var ideas []*domain.Idea
	stmt := r.db.WithContext(ctx).Model(&domain.Idea{}).
		Where("workspace_id = ?", filter.WorkspaceID)

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
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

	if err := stmt.Find(&ideas).Error; err != nil {
		return nil, err
	}
	return ideas, nil
}

func (r *repository) Update(ctx context.Context, ideaID snowflake.ID, updates map[string]any) error {
	assignments := make(map[string]any, len(updates)+1)
	for key, value := range updates {
		assignments[key] = value
	}
	assignments["updated_at"] = time.Now().UTC()

	return r.db.WithContext(ctx).Model(&domain.Idea{}).
		Where("id = ?", ideaID).
		Updates(assignments).Error
}

func (r *repository) Delete(ctx context.Context, ideaID snowflake.ID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", ideaID).
		Delete(&domain.Idea{}).Error
}
