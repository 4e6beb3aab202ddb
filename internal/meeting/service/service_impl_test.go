package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/syncspace/syncspace/internal/audit/domain"
	auditrepository "github.com/syncspace/syncspace/internal/audit/repository"
	auditservice "github.com/syncspace/syncspace/internal/audit/service"
	"github.com/syncspace/syncspace/internal/clock"
	"github.com/syncspace/syncspace/internal/config"
	"github.com/syncspace/syncspace/internal/invitecode"
	"github.com/syncspace/syncspace/internal/meeting/domain"
	"github.com/syncspace/syncspace/internal/meeting/repository"
	notificationdomain "github.com/syncspace/syncspace/internal/notification/domain"
	notificationrepository "github.com/syncspace/syncspace/internal/notification/repository"
	notificationservice "github.com/syncspace/syncspace/internal/notification/service"
	workspacedomain "github.com/syncspace/syncspace/internal/workspace/domain"
	workspacerepository "github.com/syncspace/syncspace/internal/workspace/repository"
	workspaceservice "github.com/syncspace/syncspace/internal/workspace/service"
)

type meetingFixture struct {
	svc         domain.Service
	directory   workspacedomain.Service
	inbox       notificationdomain.Service
	clock       *clock.FakeClock
	workspaceID snowflake.ID
	admin       snowflake.ID
	member      snowflake.ID
	organizer   snowflake.ID
}

func newMeetingFixture(t *testing.T, dsn string) *meetingFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&workspacedomain.Workspace{},
		&workspacedomain.WorkspaceMember{},
		&auditdomain.AuditLog{},
		&notificationdomain.Notification{},
		&domain.Meeting{},
		&domain.Participant{},
	)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	logger := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   logger,
		GenID: node,
		Repo:  auditrepository.Provide(),
	})
	directory := workspaceservice.NewService(workspaceservice.Params{
		DB:       db,
		Log:      logger,
		GenID:    node,
		Repo:     workspacerepository.NewRepository(db),
		Codes:    invitecode.NewGenerator(),
		Policies: config.NewStaticWorkspacePolicyHolder(config.DefaultWorkspacePolicy()),
		Audit:    auditSvc,
	})
	inbox := notificationservice.NewService(notificationservice.Params{
		Log:   logger,
		GenID: node,
		Repo:  notificationrepository.NewRepository(db),
	})
	svc := NewService(Params{
		DB:        db,
		Log:       logger,
		GenID:     node,
		Clock:     fakeClock,
		Repo:      repository.NewRepository(db),
		Directory: directory,
		Notifier:  inbox,
		Audit:     auditSvc,
	})

	ctx := context.Background()
	admin := snowflake.ID(1)
	member := snowflake.ID(2)
	organizer := snowflake.ID(3)

	ws, err := directory.Create(ctx, admin, workspacedomain.CreateWorkspaceRequest{Name: "Product"})
	require.NoError(t, err)
	wsID, err := snowflake.ParseString(ws.ID)
	require.NoError(t, err)
	_, err = directory.Join(ctx, member, ws.InviteCode)
	require.NoError(t, err)
	_, err = directory.Join(ctx, organizer, ws.InviteCode)
	require.NoError(t, err)

	// Default policy joins members without the meetings flag; grant it to
	// the organizer so only plain members stay gated.
	on := true
	_, err = directory.UpdateMemberFlags(ctx, admin, wsID, organizer, workspacedomain.UpdateMemberFlagsRequest{
		CanCreateMeetings: &on,
	})
	require.NoError(t, err)

	return &meetingFixture{
		svc:         svc,
		directory:   directory,
		inbox:       inbox,
		clock:       fakeClock,
		workspaceID: wsID,
		admin:       admin,
		member:      member,
		organizer:   organizer,
	}
}

func (f *meetingFixture) schedule(t *testing.T, organizer snowflake.ID, start, end time.Time, participants ...snowflake.ID) *domain.MeetingResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), organizer, f.workspaceID, domain.CreateMeetingRequest{
		Title:          "Sprint planning",
		StartTime:      start,
		EndTime:        end,
		ParticipantIDs: participants,
	})
	require.NoError(t, err)
	return resp
}

func TestCreateRejectsInvertedWindow(t *testing.T) {
	f := newMeetingFixture(t, "file:meeting_window?mode=memory&cache=shared")
	start := f.clock.Now().Add(time.Hour)

	_, err := f.svc.Create(context.Background(), f.organizer, f.workspaceID, domain.CreateMeetingRequest{
		Title:     "Backwards",
		StartTime: start,
		EndTime:   start.Add(-30 * time.Minute),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)

	// A zero-length window is just as invalid.
	_, err = f.svc.Create(context.Background(), f.organizer, f.workspaceID, domain.CreateMeetingRequest{
		Title:     "Instantaneous",
		StartTime: start,
		EndTime:   start,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}

func TestCreateRequiresMeetingsFlag(t *testing.T) {
	f := newMeetingFixture(t, "file:meeting_flag?mode=memory&cache=shared")
	start := f.clock.Now().Add(time.Hour)

	_, err := f.svc.Create(context.Background(), f.member, f.workspaceID, domain.CreateMeetingRequest{
		Title:     "Unauthorized",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateRequiresMemberParticipants(t *testing.T) {
	f := newMeetingFixture(t, "file:meeting_participants?mode=memory&cache=shared")
	start := f.clock.Now().Add(time.Hour)

	_, err := f.svc.Create(context.Background(), f.organizer, f.workspaceID, domain.CreateMeetingRequest{
		Title:          "Outsiders",
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		ParticipantIDs: []snowflake.ID{snowflake.ID(99)},
	})
	assert.ErrorIs(t, err, domain.ErrParticipantNotMember)
}

func TestStatusFollowsClock(t *testing.T) {
	f := newMeetingFixture(t, "file:meeting_status?mode=memory&cache=shared")
	ctx := context.Background()

	start := f.clock.Now().Add(time.Hour)
	created := f.schedule(t, f.organizer, start, start.Add(time.Hour))
	assert.Equal(t, domain.StatusUpcoming, created.Status)
	meetingID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	f.clock.Advance(90 * time.Minute)
	during, err := f.svc.Get(ctx, f.member, f.workspaceID, meetingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOngoing, during.Status)

	f.clock.Advance(time.Hour)
	after, err := f.svc.Get(ctx, f.member, f.workspaceID, meetingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, after.Status)
}

func TestEndInstantIsAlreadyEnded(t *testing.T) {
	f := newMeetingFixture(t, "file:meeting_boundary?mode=memory&cache=shared")
	ctx := context.Background()

	start := f.clock.Now()
	created := f.schedule(t, f.organizer, start, start.Add(time.Hour))
	assert.Equal(t, domain.StatusOngoing, created.Status)
	meetingID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	got, err := f.svc.Get(ctx, f.member, f.workspaceID, meetingID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEnded, got.Status)
}

func TestUpdateEndedMeetingStillValidatesWindow(t *testing.T) {
	f := newMeetingFixture(t, "file:meeting_history?mode=memory&cache=shared")
	ctx := context.Background()

	start := f.clock.Now().Add(-2 * time.Hour)
	created := f.schedule(t, f.organizer, start, start.Add(time.Hour))
	meetingID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	badEnd := start.Add(-time.Minute)
	_, err = f.svc.Update(ctx, f.organizer, f.workspaceID, meetingID, created.Version, domain.UpdateMeetingRequest{
		EndTime: &badEnd,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)

	// A consistent history correction is accepted even though the meeting ended.
	goodEnd := start.Add(90 * time.Minute)
	updated, err := f.svc.Update(ctx, f.organizer, f.workspaceID, meetingID, created.Version, domain.UpdateMeetingRequest{
		EndTime: &goodEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, goodEnd.UTC(), updated.EndTime)
	assert.Equal(t, created.Version+1, updated.Version)
}

func TestUpdateWithStaleVersion(t *testing.T) {
	f := newMeetingFixture(t, "file:meeting_stale?mode=memory&cache=shared")
	ctx := context.Background()

	start := f.clock.Now().Add(time.Hour)
	created := f.schedule(t, f.organizer, start, start.Add(time.Hour))
	meetingID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	location := "Room 4"
	first, err := f.svc.Update(ctx, f.organizer, f.workspaceID, meetingID, created.Version, domain.UpdateMeetingRequest{
		Location: &location,
	})
	require.NoError(t, err)

	other := "Room 9"
	_, err = f.svc.Update(ctx, f.admin, f.workspaceID, meetingID, created.Version, domain.UpdateMeetingRequest{
		Location: &other,
	})
	assert.ErrorIs(t, err, domain.ErrStaleWrite)

	got, err := f.svc.Get(ctx, f.member, f.workspaceID, meetingID)
	require.NoError(t, err)
	assert.Equal(t, first.Location, got.Location)
}

func TestMemberCannotMutateMeetings(t *testing.T) {
	f := newMeetingFixture(t, "file:meeting_member_mutate?mode=memory&cache=shared")
	ctx := context.Background()

	start := f.clock.Now().Add(time.Hour)
	created := f.schedule(t, f.organizer, start, start.Add(time.Hour))
	meetingID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	title := "Renamed"
	_, err = f.svc.Update(ctx, f.member, f.workspaceID, meetingID, created.Version, domain.UpdateMeetingRequest{
		Title: &title,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.svc.Delete(ctx, f.member, f.workspaceID, meetingID, created.Version)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// Members still read what they cannot mutate.
	got, err := f.svc.Get(ctx, f.member, f.workspaceID, meetingID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestScheduleNotifiesParticipants(t *testing.T) {
	f := newMeetingFixture(t, "file:meeting_notify?mode=memory&cache=shared")
	ctx := context.Background()

	start := f.clock.Now().Add(time.Hour)
	created := f.schedule(t, f.organizer, start, start.Add(time.Hour), f.member, f.admin)
	require.Len(t, created.Participants, 2)

	inbox, err := f.inbox.List(ctx, f.member, notificationdomain.ListNotificationsRequest{WorkspaceID: f.workspaceID})
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, notificationdomain.EventMeetingScheduled, inbox.Notifications[0].EventType)
}

func TestUpdateReplacesParticipants(t *testing.T) {
	f := newMeetingFixture(t, "file:meeting_replace?mode=memory&cache=shared")
	ctx := context.Background()

	start := f.clock.Now().Add(time.Hour)
	created := f.schedule(t, f.organizer, start, start.Add(time.Hour), f.member)
	meetingID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	replacement := []snowflake.ID{f.admin}
	updated, err := f.svc.Update(ctx, f.organizer, f.workspaceID, meetingID, created.Version, domain.UpdateMeetingRequest{
		ParticipantIDs: &replacement,
	})
	require.NoError(t, err)
	require.Len(t, updated.Participants, 1)
	assert.Equal(t, f.admin.String(), updated.Participants[0])

	inbox, err := f.inbox.List(ctx, f.admin, notificationdomain.ListNotificationsRequest{WorkspaceID: f.workspaceID})
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, notificationdomain.EventMeetingUpdated, inbox.Notifications[0].EventType)
}

func TestDeleteRemovesMeeting(t *testing.T) {
	f := newMeetingFixture(t, "file:meeting_delete?mode=memory&cache=shared")
	ctx := context.Background()

	start := f.clock.Now().Add(time.Hour)
	created := f.schedule(t, f.organizer, start, start.Add(time.Hour), f.member)
	meetingID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.organizer, f.workspaceID, meetingID, created.Version)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.member, f.workspaceID, meetingID)
	assert.ErrorIs(t, err, domain.ErrMeetingNotFound)
}

func TestUpcomingFilter(t *testing.T) {
	f := newMeetingFixture(t, "file:meeting_upcoming?mode=memory&cache=shared")
	ctx := context.Background()

	past := f.clock.Now().Add(-3 * time.Hour)
	f.schedule(t, f.organizer, past, past.Add(time.Hour))
	future := f.clock.Now().Add(2 * time.Hour)
	upcoming := f.schedule(t, f.organizer, future, future.Add(time.Hour))

	all, err := f.svc.List(ctx, f.member, f.workspaceID, domain.ListMeetingsRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Meetings, 2)

	filtered, err := f.svc.List(ctx, f.member, f.workspaceID, domain.ListMeetingsRequest{UpcomingOnly: true})
	require.NoError(t, err)
	require.Len(t, filtered.Meetings, 1)
	assert.Equal(t, upcoming.ID, filtered.Meetings[0].ID)
}
