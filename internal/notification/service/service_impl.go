package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/syncspace/syncspace/internal/notification/domain"
	obsmetrics "github.com/syncspace/syncspace/internal/observability/metrics"
	"github.com/syncspace/syncspace/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	repo    domain.Repository
	metrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		log:     p.Log.Named("notification.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// Emit persists an inbox entry for the target user. Producers never fail on
// emission problems; a lost notification must not abort the mutation that
// triggered it.
func (s *service) Emit(ctx context.Context, event domain.Event) {
	if event.TargetUserID == 0 || event.WorkspaceID == 0 {
		return
	}
	if event.TargetUserID == event.ActorID {
		return
	}

	n := domain.Notification{
		ID:           s.genID.Generate(),
		WorkspaceID:  event.WorkspaceID,
		UserID:       event.TargetUserID,
		EventType:    strings.TrimSpace(event.Type),
		ResourceType: strings.TrimSpace(event.ResourceType),
		Message:      strings.TrimSpace(event.Message),
		CreatedAt:    time.Now().UTC(),
	}
	if event.ActorID != 0 {
		actorID := event.ActorID
		n.ActorID = &actorID
	}
	if event.ResourceID != 0 {
		resourceID := event.ResourceID
		n.ResourceID = &resourceID
	}

	if err := s.repo.Insert(ctx, n); err != nil {
		s.log.Warn("failed to emit notification",
			zap.String("event_type", n.EventType),
			zap.Error(err),
		)
		return
	}
	s.metrics.RecordNotificationEmitted(ctx, n.EventType)
}

func (s *service) List(ctx context.Context, userID snowflake.ID, req domain.ListNotificationsRequest) (domain.ListNotificationsResponse, error) {
	if userID == 0 {
		return domain.ListNotificationsResponse{}, domain.ErrInvalidUser
	}

	var cursor *domain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListNotificationsResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
		if err != nil {
			return domain.ListNotificationsResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListNotificationsResponse{}, domain.ErrInvalidPageToken
		}
		cursor = &domain.Cursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	if pageSize > 250 {
		pageSize = 250
	}

	items, err := s.repo.List(ctx, domain.ListFilter{
		UserID:      userID,
		WorkspaceID: req.WorkspaceID,
		UnreadOnly:  req.UnreadOnly,
		Cursor:      cursor,
		Limit:       pageSize,
	})
	if err != nil {
		return domain.ListNotificationsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *domain.Notification) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	unread, err := s.repo.CountUnread(ctx, userID, req.WorkspaceID)
	if err != nil {
		return domain.ListNotificationsResponse{}, err
	}

	notifications := make([]domain.Notification, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		notifications = append(notifications, *item)
	}

	resp := domain.ListNotificationsResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *service) MarkRead(ctx context.Context, userID, notificationID snowflake.ID) error {
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	affected, err := s.repo.MarkRead(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID, workspaceID snowflake.ID) error {
	if userID == 0 {
		return domain.ErrInvalidUser
	}
	return s.repo.MarkAllRead(ctx, userID, workspaceID)
}
