package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/syncspace/syncspace/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, actorID, workspaceID snowflake.ID, req CreateIdeaRequest) (*IdeaResponse, error)
	Get(ctx context.Context, actorID, workspaceID, ideaID snowflake.ID) (*IdeaResponse, error)
	List(ctx context.Context, actorID, workspaceID snowflake.ID, req ListIdeasRequest) (ListIdeasResponse, error)
	Update(ctx context.Context, actorID, workspaceID, ideaID snowflake.ID, req UpdateIdeaRequest) (*IdeaResponse, error)
	Delete(ctx context.Context, actorID, workspaceID, ideaID snowflake.ID) error
}

type CreateIdeaRequest struct {
	Title       string
	Description string
}

type UpdateIdeaRequest struct {
	Title       *string
	Description *string
	Status      *string
}

type ListIdeasRequest struct {
	pagination.Pagination
	Status string
}

type ListIdeasResponse struct {
	pagination.PageInfo
	Ideas []IdeaResponse `json:"ideas"`
}

type IdeaResponse struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrInvalidTitle     = errors.New("invalid_title")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrIdeaNotFound     = errors.New("idea_not_found")
	ErrForbidden        = errors.New("forbidden")
)
