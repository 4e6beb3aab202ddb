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
	Cursor      *Cursor
	Limit       int
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, idea Idea) error
	Get(ctx context.Context, workspaceID, ideaID snowflake.ID) (*Idea, error)
	List(ctx context.Context, filter ListFilter) ([]*Idea, error)
	Update(ctx context.Context, ideaID snowflake.ID, updates map[string]any) error
	Delete(ctx context.Context, ideaID snowflake.ID) error
}
