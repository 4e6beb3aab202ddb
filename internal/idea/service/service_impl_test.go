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
	"github.com/syncspace/syncspace/internal/idea/domain"
	"github.com/syncspace/syncspace/internal/idea/repository"
	"github.com/syncspace/syncspace/internal/invitecode"
	workspacedomain "github.com/syncspace/syncspace/internal/workspace/domain"
	workspacerepository "github.com/syncspace/syncspace/internal/workspace/repository"
	workspaceservice "github.com/syncspace/syncspace/internal/workspace/service"
)

type ideaFixture struct {
	svc         domain.Service
	workspaceID snowflake.ID
	admin       snowflake.ID
	member      snowflake.ID
	other       snowflake.ID
}

func newIdeaFixture(t *testing.T, dsn string) *ideaFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&workspacedomain.Workspace{},
		&workspacedomain.WorkspaceMember{},
		&auditdomain.AuditLog{},
		&domain.Idea{},
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
	svc := NewService(Params{
		DB:        db,
		Log:       logger,
		GenID:     node,
		Repo:      repository.NewRepository(db),
		Directory: directory,
		Audit:     auditSvc,
	})

	ctx := context.Background()
	admin := snowflake.ID(1)
	member := snowflake.ID(2)
	other := snowflake.ID(3)

	ws, err := directory.Create(ctx, admin, workspacedomain.CreateWorkspaceRequest{Name: "Ideas"})
	require.NoError(t, err)
	wsID, err := snowflake.ParseString(ws.ID)
	require.NoError(t, err)
	_, err = directory.Join(ctx, member, ws.InviteCode)
	require.NoError(t, err)
	_, err = directory.Join(ctx, other, ws.InviteCode)
	require.NoError(t, err)

	return &ideaFixture{
		svc:         svc,
		workspaceID: wsID,
		admin:       admin,
		member:      member,
		other:       other,
	}
}

func TestAnyMemberCanProposeIdeas(t *testing.T) {
	f := newIdeaFixture(t, "file:idea_create?mode=memory&cache=shared")

	created, err := f.svc.Create(context.Background(), f.member, f.workspaceID, domain.CreateIdeaRequest{
		Title: "Quarterly hack day",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProposed, created.Status)
	assert.Equal(t, f.member.String(), created.CreatedBy)
}

func TestStatusMovesFreelyBetweenColumns(t *testing.T) {
	f := newIdeaFixture(t, "file:idea_columns?mode=memory&cache=shared")
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.member, f.workspaceID, domain.CreateIdeaRequest{Title: "Self-serve exports"})
	require.NoError(t, err)
	ideaID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	finalized := domain.StatusFinalized
	moved, err := f.svc.Update(ctx, f.member, f.workspaceID, ideaID, domain.UpdateIdeaRequest{Status: &finalized})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinalized, moved.Status)

	// Back to proposed, no ratchet.
	proposed := domain.StatusProposed
	back, err := f.svc.Update(ctx, f.member, f.workspaceID, ideaID, domain.UpdateIdeaRequest{Status: &proposed})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProposed, back.Status)

	bogus := "parked"
	_, err = f.svc.Update(ctx, f.member, f.workspaceID, ideaID, domain.UpdateIdeaRequest{Status: &bogus})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestOnlyOwnerOrAdminEdits(t *testing.T) {
	f := newIdeaFixture(t, "file:idea_owner?mode=memory&cache=shared")
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.member, f.workspaceID, domain.CreateIdeaRequest{Title: "Dark mode"})
	require.NoError(t, err)
	ideaID, err := snowflake.ParseString(created.ID)
	require.NoError(t, err)

	title := "Hijacked"
	_, err = f.svc.Update(ctx, f.other, f.workspaceID, ideaID, domain.UpdateIdeaRequest{Title: &title})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.svc.Delete(ctx, f.other, f.workspaceID, ideaID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	adminTitle := "Dark mode (scoped)"
	updated, err := f.svc.Update(ctx, f.admin, f.workspaceID, ideaID, domain.UpdateIdeaRequest{Title: &adminTitle})
	require.NoError(t, err)
	assert.Equal(t, adminTitle, updated.Title)

	err = f.svc.Delete(ctx, f.admin, f.workspaceID, ideaID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.member, f.workspaceID, ideaID)
	assert.ErrorIs(t, err, domain.ErrIdeaNotFound)
}

func TestListFilterByColumn(t *testing.T) {
	f := newIdeaFixture(t, "file:idea_list?mode=memory&cache=shared")
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.member, f.workspaceID, domain.CreateIdeaRequest{Title: "One"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.member, f.workspaceID, domain.CreateIdeaRequest{Title: "Two"})
	require.NoError(t, err)

	firstID, err := snowflake.ParseString(first.ID)
	require.NoError(t, err)
	inProgress := domain.StatusInProgress
	_, err = f.svc.Update(ctx, f.member, f.workspaceID, firstID, domain.UpdateIdeaRequest{Status: &inProgress})
	require.NoError(t, err)

	filtered, err := f.svc.List(ctx, f.member, f.workspaceID, domain.ListIdeasRequest{Status: domain.StatusInProgress})
	require.NoError(t, err)
	require.Len(t, filtered.Ideas, 1)
	assert.Equal(t, first.ID, filtered.Ideas[0].ID)

	all, err := f.svc.List(ctx, f.member, f.workspaceID, domain.ListIdeasRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Ideas, 2)
}

func TestNonMemberSeesNothing(t *testing.T) {
	f := newIdeaFixture(t, "file:idea_nonmember?mode=memory&cache=shared")

	_, err := f.svc.List(context.Background(), snowflake.ID(77), f.workspaceID, domain.ListIdeasRequest{})
	assert.ErrorIs(t, err, workspacedomain.ErrNotAMember)
}
