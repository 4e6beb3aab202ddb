package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/syncspace/syncspace/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, actorID, workspaceID snowflake.ID, req CreateTaskRequest) (*TaskResponse, error)
	Get(ctx context.Context, actorID, workspaceID, taskID snowflake.ID) (*TaskResponse, error)
	List(ctx context.Context, actorID, workspaceID snowflake.ID, req ListTasksRequest) (ListTasksResponse, error)

	// The four state-machine edges. Every call carries the version the
	// caller last observed; a mismatch yields ErrStaleWrite.
	Start(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64) (*TaskResponse, error)
	RequestCompletion(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64) (*TaskResponse, error)
	Approve(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64) (*TaskResponse, error)
	Reject(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64) (*TaskResponse, error)

	Reassign(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64, assigneeID *snowflake.ID) (*TaskResponse, error)
	UpdateDetails(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64, req UpdateTaskRequest) (*TaskResponse, error)
	Delete(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64) error
}

type CreateTaskRequest struct {
	Title       string
	Description string
	Priority    string
	AssigneeID  *snowflake.ID
	Deadline    *time.Time
}

type UpdateTaskRequest struct {
	Title       *string
	Description *string
	Priority    *string
	Deadline    *time.Time
	// ClearDeadline removes the deadline; Deadline takes precedence when both set.
	ClearDeadline bool
}

type ListTasksRequest struct {
	pagination.Pagination
	Status     string
	AssigneeID snowflake.ID
}

type ListTasksResponse struct {
	pagination.PageInfo
	Tasks []TaskResponse `json:"tasks"`
}

type TaskResponse struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	AssigneeID  *string    `json:"assignee_id"`
	CreatedBy   string     `json:"created_by"`
	Deadline    *time.Time `json:"deadline"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

var (
	ErrInvalidTitle      = errors.New("invalid_title")
	ErrInvalidPriority   = errors.New("invalid_priority")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
	ErrTaskNotFound      = errors.New("task_not_found")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrTaskLocked        = errors.New("task_locked")
	ErrStaleWrite        = errors.New("stale_write")
	ErrForbidden         = errors.New("forbidden")
	ErrAssigneeNotMember = errors.New("assignee_not_a_member")
)
