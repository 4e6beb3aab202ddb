package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	WorkspaceID snowflake.ID
	Status      string
	AssigneeID  snowflake.ID
	Cursor      *Cursor
	Limit       int
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, task Task) error
	Get(ctx context.Context, workspaceID, taskID snowflake.ID) (*Task, error)
	List(ctx context.Context, filter ListFilter) ([]*Task, error)
	// UpdateWithVersion applies updates iff the stored version still equals
	// observedVersion, advancing the version by one. Returns rows affected.
	UpdateWithVersion(ctx context.Context, taskID snowflake.ID, observedVersion int64, updates map[string]any) (int64, error)
	// DeleteWithVersion removes the row iff the stored version still equals
	// observedVersion. Returns rows affected.
	DeleteWithVersion(ctx context.Context, taskID snowflake.ID, observedVersion int64) (int64, error)
}
