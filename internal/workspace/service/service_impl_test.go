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
	"github.com/syncspace/syncspace/internal/workspace/domain"
	"github.com/syncspace/syncspace/internal/workspace/repository"
)

func newTestService(t *testing.T, dsn string) (domain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&domain.Workspace{},
		&domain.WorkspaceMember{},
		&auditdomain.AuditLog{},
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

	svc := NewService(Params{
		DB:       db,
		Log:      logger,
		GenID:    node,
		Repo:     repository.NewRepository(db),
		Codes:    invitecode.NewGenerator(),
		Policies: config.NewStaticWorkspacePolicyHolder(config.DefaultWorkspacePolicy()),
		Audit:    auditSvc,
	})
	return svc, db
}

func TestJoinTwiceFailsWithAlreadyMember(t *testing.T) {
	svc, db := newTestService(t, "file:workspace_join?mode=memory&cache=shared")
	ctx := context.Background()

	creator := snowflake.ID(1)
	joiner := snowflake.ID(2)

	ws, err := svc.Create(ctx, creator, domain.CreateWorkspaceRequest{Name: "Design Team"})
	require.NoError(t, err)
	require.NotEmpty(t, ws.InviteCode)

	first, err := svc.Join(ctx, joiner, ws.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, first.Role)

	_, err = svc.Join(ctx, joiner, ws.InviteCode)
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)

	var count int64
	wsID, err := snowflake.ParseString(ws.ID)
	require.NoError(t, err)
	err = db.Model(&domain.WorkspaceMember{}).
		Where("workspace_id = ? AND user_id = ?", wsID, joiner).
		Count(&count).Error
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestJoinUnknownCodeFails(t *testing.T) {
	svc, _ := newTestService(t, "file:workspace_join_unknown?mode=memory&cache=shared")

	_, err := svc.Join(context.Background(), snowflake.ID(2), "NOSUCHCODE")
	assert.ErrorIs(t, err, domain.ErrInviteCodeNotFound)
}

func TestJoinAppliesPolicyDefaults(t *testing.T) {
	svc, _ := newTestService(t, "file:workspace_join_defaults?mode=memory&cache=shared")
	ctx := context.Background()

	ws, err := svc.Create(ctx, snowflake.ID(1), domain.CreateWorkspaceRequest{Name: "Ops"})
	require.NoError(t, err)

	_, err = svc.Join(ctx, snowflake.ID(2), ws.InviteCode)
	require.NoError(t, err)

	wsID, err := snowflake.ParseString(ws.ID)
	require.NoError(t, err)
	member, err := svc.ResolveMembership(ctx, wsID, snowflake.ID(2))
	require.NoError(t, err)
	assert.True(t, member.CanCreateTasks)
	assert.False(t, member.CanCreateMeetings)
}

func TestResolveMembershipNonMember(t *testing.T) {
	svc, _ := newTestService(t, "file:workspace_resolve?mode=memory&cache=shared")
	ctx := context.Background()

	ws, err := svc.Create(ctx, snowflake.ID(1), domain.CreateWorkspaceRequest{Name: "Solo"})
	require.NoError(t, err)

	wsID, err := snowflake.ParseString(ws.ID)
	require.NoError(t, err)
	_, err = svc.ResolveMembership(ctx, wsID, snowflake.ID(99))
	assert.ErrorIs(t, err, domain.ErrNotAMember)
}

func TestRemoveLastAdminProtected(t *testing.T) {
	svc, _ := newTestService(t, "file:workspace_last_admin?mode=memory&cache=shared")
	ctx := context.Background()

	admin := snowflake.ID(1)
	ws, err := svc.Create(ctx, admin, domain.CreateWorkspaceRequest{Name: "Protected"})
	require.NoError(t, err)
	wsID, err := snowflake.ParseString(ws.ID)
	require.NoError(t, err)

	err = svc.RemoveMember(ctx, admin, wsID, admin)
	assert.ErrorIs(t, err, domain.ErrLastAdminProtected)

	// A second admin makes removal legal again.
	_, err = svc.Join(ctx, snowflake.ID(2), ws.InviteCode)
	require.NoError(t, err)
	_, err = svc.UpdateMemberRole(ctx, admin, wsID, snowflake.ID(2), domain.RoleAdmin)
	require.NoError(t, err)

	err = svc.RemoveMember(ctx, admin, wsID, admin)
	assert.NoError(t, err)
}

func TestDemoteLastAdminProtected(t *testing.T) {
	svc, _ := newTestService(t, "file:workspace_demote?mode=memory&cache=shared")
	ctx := context.Background()

	admin := snowflake.ID(1)
	ws, err := svc.Create(ctx, admin, domain.CreateWorkspaceRequest{Name: "Demote"})
	require.NoError(t, err)
	wsID, err := snowflake.ParseString(ws.ID)
	require.NoError(t, err)

	_, err = svc.UpdateMemberRole(ctx, admin, wsID, admin, domain.RoleMember)
	assert.ErrorIs(t, err, domain.ErrLastAdminProtected)
}

func TestMemberCannotManageFlags(t *testing.T) {
	svc, _ := newTestService(t, "file:workspace_flags?mode=memory&cache=shared")
	ctx := context.Background()

	admin := snowflake.ID(1)
	member := snowflake.ID(2)
	ws, err := svc.Create(ctx, admin, domain.CreateWorkspaceRequest{Name: "Flags"})
	require.NoError(t, err)
	wsID, err := snowflake.ParseString(ws.ID)
	require.NoError(t, err)

	_, err = svc.Join(ctx, member, ws.InviteCode)
	require.NoError(t, err)

	truthy := true
	_, err = svc.UpdateMemberFlags(ctx, member, wsID, member, domain.UpdateMemberFlagsRequest{
		CanCreateMeetings: &truthy,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := svc.UpdateMemberFlags(ctx, admin, wsID, member, domain.UpdateMemberFlagsRequest{
		CanCreateMeetings: &truthy,
	})
	require.NoError(t, err)
	assert.True(t, updated.CanCreateMeetings)
}

func TestMemberCanLeaveWorkspace(t *testing.T) {
	svc, _ := newTestService(t, "file:workspace_leave?mode=memory&cache=shared")
	ctx := context.Background()

	admin := snowflake.ID(1)
	member := snowflake.ID(2)
	ws, err := svc.Create(ctx, admin, domain.CreateWorkspaceRequest{Name: "Leave"})
	require.NoError(t, err)
	wsID, err := snowflake.ParseString(ws.ID)
	require.NoError(t, err)

	_, err = svc.Join(ctx, member, ws.InviteCode)
	require.NoError(t, err)

	err = svc.RemoveMember(ctx, member, wsID, member)
	require.NoError(t, err)

	_, err = svc.ResolveMembership(ctx, wsID, member)
	assert.ErrorIs(t, err, domain.ErrNotAMember)
}
