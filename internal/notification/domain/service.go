package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/syncspace/syncspace/pkg/db/pagination"
)

// Event is the emission contract consumed by the inbox. Delivery and read
// state are this subsystem's concern alone; producers fire and forget.
type Event struct {
	Type         string
	WorkspaceID  snowflake.ID
	TargetUserID snowflake.ID
	ActorID      snowflake.ID
	ResourceType string
	ResourceID   snowflake.ID
	Message      string
}

// Emitter is implemented by the notification service and consumed by the
// task and meeting services. Emission failures are logged, never surfaced.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

type ListNotificationsRequest struct {
	pagination.Pagination
	WorkspaceID snowflake.ID
	UnreadOnly  bool
}

type ListNotificationsResponse struct {
	pagination.PageInfo
	Notifications []Notification `json:"notifications"`
	UnreadCount   int64          `json:"unread_count"`
}

type Service interface {
	Emitter
	List(ctx context.Context, userID snowflake.ID, req ListNotificationsRequest) (ListNotificationsResponse, error)
	MarkRead(ctx context.Context, userID, notificationID snowflake.ID) error
	MarkAllRead(ctx context.Context, userID, workspaceID snowflake.ID) error
}

var (
	ErrInvalidUser          = errors.New("invalid_user")
	ErrInvalidPageToken     = errors.New("invalid_page_token")
	ErrNotificationNotFound = errors.New("notification_not_found")
)
