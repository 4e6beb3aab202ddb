package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	UserID      snowflake.ID
	WorkspaceID snowflake.ID
	UnreadOnly  bool
	Cursor      *Cursor
	Limit       int
}

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, n Notification) error
	List(ctx context.Context, filter ListFilter) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, notificationID snowflake.ID) (int64, error)
	MarkAllRead(ctx context.Context, userID, workspaceID snowflake.ID) error
	CountUnread(ctx context.Context, userID, workspaceID snowflake.ID) (int64, error)
}
