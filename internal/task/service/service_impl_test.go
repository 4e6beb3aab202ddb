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

	auditdomain "github.com/syncspace/syncspace/internal/audit/domain"
	auditrepository "github.com/syncspace/syncspace/internal/audit/repository"
	auditservice "github.com/syncspace/syncspace/internal/audit/service"
	"github.com/syncspace/syncspace/internal/config"
	"github.com/syncspace/syncspace/internal/invitecode"
	notificationdomain "github.com/syncspace/syncspace/internal/notification/domain"
	notificationrepository "github.com/syncspace/syncspace/internal/notification/repository"
	notificationservice "github.com/syncspace/syncspace/internal/notification/service"
	"github.com/syncspace/syncspace/internal/task/domain"
	"github.com/syncspace/syncspace/internal/task/repository"
	workspacedomain "github.com/syncspace/syncspace/internal/workspace/domain"
	workspacerepository "github.com/syncspace/syncspace/internal/workspace/repository"
	workspaceservice "github.com/syncspace/syncspace/internal/workspace/service"
)

type taskFixture struct {
	svc         domain.Service
	directory   workspacedomain.Service
	inbox       notificationdomain.Service
	db          *gorm.DB
	workspaceID snowflake.ID
	inviteCode  string
	admin       snowflake.ID
	member      snowflake.ID
}

func newTaskFixture(t *testing.T, dsn string) *taskFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&workspacedomain.Workspace{},
		&workspacedomain.WorkspaceMember{},
		&auditdomain.AuditLog{},
		&notificationdomain.Notification{},
		&domain.Task{},
	)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	logger := zap.NewNop()

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
		Repo:      repository.NewRepository(db),
		Directory: directory,
		Notifier:  inbox,
		Audit:     auditSvc,
	})

	ctx := context.Background()
	admin := snowflake.ID(1)
	member := snowflake.ID(2)

	ws, err := directory.Create(ctx, admin, workspacedomain.CreateWorkspaceRequest{Name: "Engineering"})
	require.NoError(t, err)
	wsID, err := snowflake.ParseString(ws.ID)
	require.NoError(t, err)
	_, err = directory.Join(ctx, member, ws.InviteCode)
	require.NoError(t, err)

	return &taskFixture{
		svc:         svc,
		directory:   directory,
		inbox:       inbox,
		db:          db,
		workspaceID: wsID,
		inviteCode:  ws.InviteCode,
		admin:       admin,
		member:      member,
	}
}

func (f *taskFixture) createAssigned(t *testing.T, creator snowflake.ID, assignee snowflake.ID) *domain.TaskResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), creator, f.workspaceID, domain.CreateTaskRequest{
		Title:      "Ship release notes",
		AssigneeID: &assignee,
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, resp.Status)
	require.Equal(t, int64(1), resp.Version)
	return resp
}

func mustParseID(t *testing.T, raw string) snowflake.ID {
	t.Helper()
	id, err := snowflake.ParseString(raw)
	require.NoError(t, err)
	return id
}

func TestCreateWithoutPermissionForbidden(t *testing.T) {
	f := newTaskFixture(t, "file:task_create_forbidden?mode=memory&cache=shared")
	ctx := context.Background()

	off := false
	_, err := f.directory.UpdateMemberFlags(ctx, f.admin, f.workspaceID, f.member, workspacedomain.UpdateMemberFlagsRequest{
		CanCreateTasks: &off,
	})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.member, f.workspaceID, domain.CreateTaskRequest{Title: "Draft roadmap"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateRequiresMemberAssignee(t *testing.T) {
	f := newTaskFixture(t, "file:task_create_assignee?mode=memory&cache=shared")

	outsider := snowflake.ID(99)
	_, err := f.svc.Create(context.Background(), f.admin, f.workspaceID, domain.CreateTaskRequest{
		Title:      "Audit vendor access",
		AssigneeID: &outsider,
	})
	assert.ErrorIs(t, err, domain.ErrAssigneeNotMember)
}

func TestAssigneeDrivesLifecycle(t *testing.T) {
	f := newTaskFixture(t, "file:task_lifecycle?mode=memory&cache=shared")
	ctx := context.Background()

	created := f.createAssigned(t, f.admin, f.member)
	taskID := mustParseID(t, created.ID)

	started, err := f.svc.Start(ctx, f.member, f.workspaceID, taskID, created.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOngoing, started.Status)
	assert.Equal(t, int64(2), started.Version)

	requested, err := f.svc.RequestCompletion(ctx, f.member, f.workspaceID, taskID, started.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, requested.Status)

	approved, err := f.svc.Approve(ctx, f.admin, f.workspaceID, taskID, requested.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, approved.Status)
	assert.Equal(t, int64(4), approved.Version)
}

func TestRejectReturnsTaskToOngoing(t *testing.T) {
	f := newTaskFixture(t, "file:task_reject?mode=memory&cache=shared")
	ctx := context.Background()

	created := f.createAssigned(t, f.admin, f.member)
	taskID := mustParseID(t, created.ID)

	started, err := f.svc.Start(ctx, f.member, f.workspaceID, taskID, created.Version)
	require.NoError(t, err)
	requested, err := f.svc.RequestCompletion(ctx, f.member, f.workspaceID, taskID, started.Version)
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, f.admin, f.workspaceID, taskID, requested.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOngoing, rejected.Status)

	// The assignee can request completion again after rework.
	again, err := f.svc.RequestCompletion(ctx, f.member, f.workspaceID, taskID, rejected.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, again.Status)
}

func TestStartOngoingTaskInvalidTransition(t *testing.T) {
	f := newTaskFixture(t, "file:task_start_ongoing?mode=memory&cache=shared")
	ctx := context.Background()

	created := f.createAssigned(t, f.admin, f.member)
	taskID := mustParseID(t, created.ID)

	started, err := f.svc.Start(ctx, f.member, f.workspaceID, taskID, created.Version)
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, f.member, f.workspaceID, taskID, started.Version)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestApproveSkippingApprovalRequestInvalidTransition(t *testing.T) {
	f := newTaskFixture(t, "file:task_approve_early?mode=memory&cache=shared")
	ctx := context.Background()

	created := f.createAssigned(t, f.admin, f.member)
	taskID := mustParseID(t, created.ID)

	started, err := f.svc.Start(ctx, f.member, f.workspaceID, taskID, created.Version)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.admin, f.workspaceID, taskID, started.Version)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestNonAssigneeCannotStart(t *testing.T) {
	f := newTaskFixture(t, "file:task_start_other?mode=memory&cache=shared")
	ctx := context.Background()

	created := f.createAssigned(t, f.admin, f.member)
	taskID := mustParseID(t, created.ID)

	// Admin role does not substitute for assignee identity.
	_, err := f.svc.Start(ctx, f.admin, f.workspaceID, taskID, created.Version)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUnassignedTaskCannotStart(t *testing.T) {
	f := newTaskFixture(t, "file:task_start_unassigned?mode=memory&cache=shared")
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, f.workspaceID, domain.CreateTaskRequest{Title: "Unowned chore"})
	require.NoError(t, err)
	taskID := mustParseID(t, created.ID)

	_, err = f.svc.Start(ctx, f.admin, f.workspaceID, taskID, created.Version)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestMemberCannotApprove(t *testing.T) {
	f := newTaskFixture(t, "file:task_member_approve?mode=memory&cache=shared")
	ctx := context.Background()

	created := f.createAssigned(t, f.admin, f.member)
	taskID := mustParseID(t, created.ID)

	started, err := f.svc.Start(ctx, f.member, f.workspaceID, taskID, created.Version)
	require.NoError(t, err)
	requested, err := f.svc.RequestCompletion(ctx, f.member, f.workspaceID, taskID, started.Version)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.member, f.workspaceID, taskID, requested.Version)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestConcurrentDecisionsOnlyOneWins(t *testing.T) {
	f := newTaskFixture(t, "file:task_concurrent?mode=memory&cache=shared")
	ctx := context.Background()

	created := f.createAssigned(t, f.admin, f.member)
	taskID := mustParseID(t, created.ID)

	started, err := f.svc.Start(ctx, f.member, f.workspaceID, taskID, created.Version)
	require.NoError(t, err)
	requested, err := f.svc.RequestCompletion(ctx, f.member, f.workspaceID, taskID, started.Version)
	require.NoError(t, err)

	// Two admins read the same version; the second decision loses.
	approved, err := f.svc.Approve(ctx, f.admin, f.workspaceID, taskID, requested.Version)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, approved.Status)

	_, err = f.svc.Reject(ctx, f.admin, f.workspaceID, taskID, requested.Version)
	assert.ErrorIs(t, err, domain.ErrStaleWrite)

	final, err := f.svc.Get(ctx, f.admin, f.workspaceID, taskID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, final.Status)
}

func TestReassignOnlyWhilePending(t *testing.T) {
	f := newTaskFixture(t, "file:task_reassign_locked?mode=memory&cache=shared")
	ctx := context.Background()

	created := f.createAssigned(t, f.admin, f.member)
	taskID := mustParseID(t, created.ID)

	started, err := f.svc.Start(ctx, f.member, f.workspaceID, taskID, created.Version)
	require.NoError(t, err)

	other := f.admin
	_, err = f.svc.Reassign(ctx, f.admin, f.workspaceID, taskID, started.Version, &other)
	assert.ErrorIs(t, err, domain.ErrTaskLocked)
}

func TestReassignNotifiesNewAssignee(t *testing.T) {
	f := newTaskFixture(t, "file:task_reassign_notify?mode=memory&cache=shared")
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, f.workspaceID, domain.CreateTaskRequest{Title: "Rotate credentials"})
	require.NoError(t, err)
	taskID := mustParseID(t, created.ID)

	assignee := f.member
	updated, err := f.svc.Reassign(ctx, f.admin, f.workspaceID, taskID, created.Version, &assignee)
	require.NoError(t, err)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, assignee.String(), *updated.AssigneeID)

	inbox, err := f.inbox.List(ctx, f.member, notificationdomain.ListNotificationsRequest{WorkspaceID: f.workspaceID})
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, notificationdomain.EventTaskAssigned, inbox.Notifications[0].EventType)
}

func TestEditCompletedTaskLocked(t *testing.T) {
	f := newTaskFixture(t, "file:task_edit_completed?mode=memory&cache=shared")
	ctx := context.Background()

	created := f.createAssigned(t, f.admin, f.member)
	taskID := mustParseID(t, created.ID)

	started, err := f.svc.Start(ctx, f.member, f.workspaceID, taskID, created.Version)
	require.NoError(t, err)
	requested, err := f.svc.RequestCompletion(ctx, f.member, f.workspaceID, taskID, started.Version)
	require.NoError(t, err)
	approved, err := f.svc.Approve(ctx, f.admin, f.workspaceID, taskID, requested.Version)
	require.NoError(t, err)

	title := "Renamed"
	_, err = f.svc.UpdateDetails(ctx, f.admin, f.workspaceID, taskID, approved.Version, domain.UpdateTaskRequest{
		Title: &title,
	})
	assert.ErrorIs(t, err, domain.ErrTaskLocked)
}

func TestOwnerEditsOwnTaskMemberCannotEditOthers(t *testing.T) {
	f := newTaskFixture(t, "file:task_edit_owner?mode=memory&cache=shared")
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.member, f.workspaceID, domain.CreateTaskRequest{Title: "Write onboarding doc"})
	require.NoError(t, err)
	taskID := mustParseID(t, created.ID)

	title := "Write onboarding guide"
	updated, err := f.svc.UpdateDetails(ctx, f.member, f.workspaceID, taskID, created.Version, domain.UpdateTaskRequest{
		Title: &title,
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)

	other := snowflake.ID(3)
	_, err = f.directory.Join(ctx, other, f.inviteCode)
	require.NoError(t, err)

	intruding := "Hijacked"
	_, err = f.svc.UpdateDetails(ctx, other, f.workspaceID, taskID, updated.Version, domain.UpdateTaskRequest{
		Title: &intruding,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDeleteWithStaleVersion(t *testing.T) {
	f := newTaskFixture(t, "file:task_delete_stale?mode=memory&cache=shared")
	ctx := context.Background()

	created := f.createAssigned(t, f.admin, f.member)
	taskID := mustParseID(t, created.ID)

	_, err := f.svc.Start(ctx, f.member, f.workspaceID, taskID, created.Version)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.admin, f.workspaceID, taskID, created.Version)
	assert.ErrorIs(t, err, domain.ErrStaleWrite)

	err = f.svc.Delete(ctx, f.admin, f.workspaceID, taskID, created.Version+1)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.admin, f.workspaceID, taskID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestCompletionRequestNotifiesCreator(t *testing.T) {
	f := newTaskFixture(t, "file:task_notify_creator?mode=memory&cache=shared")
	ctx := context.Background()

	created := f.createAssigned(t, f.admin, f.member)
	taskID := mustParseID(t, created.ID)

	started, err := f.svc.Start(ctx, f.member, f.workspaceID, taskID, created.Version)
	require.NoError(t, err)
	_, err = f.svc.RequestCompletion(ctx, f.member, f.workspaceID, taskID, started.Version)
	require.NoError(t, err)

	inbox, err := f.inbox.List(ctx, f.admin, notificationdomain.ListNotificationsRequest{WorkspaceID: f.workspaceID})
	require.NoError(t, err)
	require.Len(t, inbox.Notifications, 1)
	assert.Equal(t, notificationdomain.EventTaskCompletionRequested, inbox.Notifications[0].EventType)
}

func TestListFiltersByStatus(t *testing.T) {
	f := newTaskFixture(t, "file:task_list?mode=memory&cache=shared")
	ctx := context.Background()

	first := f.createAssigned(t, f.admin, f.member)
	f.createAssigned(t, f.admin, f.member)

	firstID := mustParseID(t, first.ID)
	_, err := f.svc.Start(ctx, f.member, f.workspaceID, firstID, first.Version)
	require.NoError(t, err)

	ongoing, err := f.svc.List(ctx, f.member, f.workspaceID, domain.ListTasksRequest{Status: domain.StatusOngoing})
	require.NoError(t, err)
	require.Len(t, ongoing.Tasks, 1)
	assert.Equal(t, first.ID, ongoing.Tasks[0].ID)

	all, err := f.svc.List(ctx, f.member, f.workspaceID, domain.ListTasksRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Tasks, 2)
}
