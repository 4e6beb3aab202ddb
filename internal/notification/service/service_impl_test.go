package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/syncspace/syncspace/internal/notification/domain"
	"github.com/syncspace/syncspace/internal/notification/repository"
	"github.com/syncspace/syncspace/pkg/db/pagination"
)

type inboxFixture struct {
	svc domain.Service
}

func newInboxFixture(t *testing.T, dsn string) *inboxFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Notification{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.NewRepository(db),
	})
	return &inboxFixture{svc: svc}
}

func TestEmitAppearsInInbox(t *testing.T) {
	f := newInboxFixture(t, "file:inbox_emit?mode=memory&cache=shared")
	ctx := context.Background()

	f.svc.Emit(ctx, domain.Event{
		Type:         domain.EventTaskAssigned,
		WorkspaceID:  snowflake.ID(10),
		TargetUserID: snowflake.ID(2),
		ActorID:      snowflake.ID(1),
		ResourceType: "task",
		ResourceID:   snowflake.ID(99),
		Message:      "You were assigned a task",
	})

	resp, err := f.svc.List(ctx, snowflake.ID(2), domain.ListNotificationsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, domain.EventTaskAssigned, resp.Notifications[0].EventType)
	assert.False(t, resp.Notifications[0].IsRead)
	assert.EqualValues(t, 1, resp.UnreadCount)
}

func TestEmitSkipsSelfNotification(t *testing.T) {
	f := newInboxFixture(t, "file:inbox_self?mode=memory&cache=shared")
	ctx := context.Background()

	f.svc.Emit(ctx, domain.Event{
		Type:         domain.EventTaskApproved,
		WorkspaceID:  snowflake.ID(10),
		TargetUserID: snowflake.ID(1),
		ActorID:      snowflake.ID(1),
		Message:      "approved",
	})

	resp, err := f.svc.List(ctx, snowflake.ID(1), domain.ListNotificationsRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Notifications)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	f := newInboxFixture(t, "file:inbox_owner?mode=memory&cache=shared")
	ctx := context.Background()

	f.svc.Emit(ctx, domain.Event{
		Type:         domain.EventTaskRejected,
		WorkspaceID:  snowflake.ID(10),
		TargetUserID: snowflake.ID(2),
		ActorID:      snowflake.ID(1),
		Message:      "rejected",
	})

	resp, err := f.svc.List(ctx, snowflake.ID(2), domain.ListNotificationsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)
	notificationID := resp.Notifications[0].ID

	err = f.svc.MarkRead(ctx, snowflake.ID(3), notificationID)
	assert.ErrorIs(t, err, domain.ErrNotificationNotFound)

	require.NoError(t, f.svc.MarkRead(ctx, snowflake.ID(2), notificationID))

	resp, err = f.svc.List(ctx, snowflake.ID(2), domain.ListNotificationsRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Notifications[0].IsRead)
	assert.EqualValues(t, 0, resp.UnreadCount)
}

func TestMarkAllReadScopedToWorkspace(t *testing.T) {
	f := newInboxFixture(t, "file:inbox_markall?mode=memory&cache=shared")
	ctx := context.Background()
	user := snowflake.ID(2)

	for _, workspaceID := range []snowflake.ID{10, 10, 20} {
		f.svc.Emit(ctx, domain.Event{
			Type:         domain.EventMeetingScheduled,
			WorkspaceID:  workspaceID,
			TargetUserID: user,
			ActorID:      snowflake.ID(1),
			Message:      "scheduled",
		})
	}

	require.NoError(t, f.svc.MarkAllRead(ctx, user, snowflake.ID(10)))

	resp, err := f.svc.List(ctx, user, domain.ListNotificationsRequest{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, snowflake.ID(20), resp.Notifications[0].WorkspaceID)

	require.NoError(t, f.svc.MarkAllRead(ctx, user, 0))

	resp, err = f.svc.List(ctx, user, domain.ListNotificationsRequest{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, resp.Notifications)
	assert.EqualValues(t, 0, resp.UnreadCount)
}

func TestUnreadOnlyAndWorkspaceFilters(t *testing.T) {
	f := newInboxFixture(t, "file:inbox_filters?mode=memory&cache=shared")
	ctx := context.Background()
	user := snowflake.ID(2)

	f.svc.Emit(ctx, domain.Event{
		Type:         domain.EventTaskAssigned,
		WorkspaceID:  snowflake.ID(10),
		TargetUserID: user,
		ActorID:      snowflake.ID(1),
		Message:      "one",
	})
	f.svc.Emit(ctx, domain.Event{
		Type:         domain.EventTaskCompletionRequested,
		WorkspaceID:  snowflake.ID(20),
		TargetUserID: user,
		ActorID:      snowflake.ID(1),
		Message:      "two",
	})

	resp, err := f.svc.List(ctx, user, domain.ListNotificationsRequest{WorkspaceID: snowflake.ID(20)})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, domain.EventTaskCompletionRequested, resp.Notifications[0].EventType)

	require.NoError(t, f.svc.MarkAllRead(ctx, user, snowflake.ID(20)))

	resp, err = f.svc.List(ctx, user, domain.ListNotificationsRequest{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, snowflake.ID(10), resp.Notifications[0].WorkspaceID)
}

func TestListRejectsBadPageToken(t *testing.T) {
	f := newInboxFixture(t, "file:inbox_token?mode=memory&cache=shared")

	_, err := f.svc.List(context.Background(), snowflake.ID(2), domain.ListNotificationsRequest{
		Pagination: pagination.Pagination{PageToken: "not-a-cursor"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}
