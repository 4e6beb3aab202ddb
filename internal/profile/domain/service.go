package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, profile Profile) error
	Get(ctx context.Context, userID snowflake.ID) (*Profile, error)
	GetMany(ctx context.Context, userIDs []snowflake.ID) (map[snowflake.ID]Profile, error)
}

type Service interface {
	Upsert(ctx context.Context, userID snowflake.ID, req UpsertProfileRequest) (*Profile, error)
	Get(ctx context.Context, userID snowflake.ID) (*Profile, error)
	// DisplayNames resolves user IDs to full names, falling back to the raw
	// ID string for unknown users.
	DisplayNames(ctx context.Context, userIDs []snowflake.ID) (map[snowflake.ID]string, error)
}

type UpsertProfileRequest struct {
	FullName  string
	AvatarURL string
}

var (
	ErrInvalidName     = errors.New("invalid_full_name")
	ErrProfileNotFound = errors.New("profile_not_found")
)
