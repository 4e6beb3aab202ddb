package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/syncspace/syncspace/internal/audit/domain"
	"github.com/syncspace/syncspace/internal/config"
	"github.com/syncspace/syncspace/internal/invitecode"
	obsmetrics "github.com/syncspace/syncspace/internal/observability/metrics"
	"github.com/syncspace/syncspace/internal/ratelimit"
	"github.com/syncspace/syncspace/internal/workspace/domain"
	"github.com/syncspace/syncspace/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Invite codes are unique across all workspaces. A collision is vanishingly
// rare with ULIDs but must surface as a conflict, never an overwrite.
const inviteCodeAttempts = 3

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Codes    *invitecode.Generator
	Policies *config.WorkspacePolicyHolder
	Limiter  *ratelimit.JoinLimiter `optional:"true"`
	Audit    auditdomain.Service
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	codes    *invitecode.Generator
	policies *config.WorkspacePolicyHolder
	limiter  *ratelimit.JoinLimiter
	audit    auditdomain.Service
	metrics  *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("workspace.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		codes:    p.Codes,
		policies: p.Policies,
		limiter:  p.Limiter,
		audit:    p.Audit,
		metrics:  p.Metrics,
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateWorkspaceRequest) (*domain.WorkspaceResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	var ws domain.Workspace
	var lastErr error
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		now := time.Now().UTC()
		ws = domain.Workspace{
			ID:         s.genID.Generate(),
			Name:       name,
			Slug:       slug.Make(name),
			InviteCode: s.codes.Generate(),
			CreatedBy:  userID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		lastErr = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.CreateWorkspace(ctx, ws); err != nil {
				return err
			}
			return repo.AddMember(ctx, domain.WorkspaceMember{
				ID:                s.genID.Generate(),
				WorkspaceID:       ws.ID,
				UserID:            userID,
				Role:              domain.RoleAdmin,
				CanCreateTasks:    true,
				CanCreateMeetings: true,
				JoinedAt:          now,
			})
		})
		if lastErr == nil {
			break
		}
		if !db.IsDuplicateKeyErr(lastErr) {
			return nil, lastErr
		}
	}
	if lastErr != nil {
		return nil, domain.ErrInviteCodeConflict
	}

	s.auditEntry(ctx, ws.ID, userID, "workspace.created", "workspace", ws.ID.String(), map[string]any{
		"name": name,
	})

	return &domain.WorkspaceResponse{
		ID:         ws.ID.String(),
		Name:       ws.Name,
		Slug:       ws.Slug,
		InviteCode: ws.InviteCode,
		Role:       domain.RoleAdmin,
	}, nil
}

func (s *service) Join(ctx context.Context, userID snowflake.ID, code string) (*domain.WorkspaceResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	code = invitecode.Normalize(code)
	if code == "" {
		return nil, domain.ErrInviteCodeNotFound
	}

	if s.limiter.Enabled() {
		allowed, err := s.limiter.AllowUser(ctx, userID.String())
		if err != nil {
			s.log.Warn("join rate limiter unavailable", zap.Error(err))
		} else if !allowed {
			s.metrics.RecordRateLimitDenied(ctx, "", "workspace.join", "user_rate")
			return nil, domain.ErrRateLimited
		} else {
			s.metrics.RecordRateLimitAllowed(ctx, "", "workspace.join")
		}

		token, locked, err := s.limiter.TryLockJoin(ctx, userID.String(), code)
		if err != nil {
			s.log.Warn("join lock unavailable", zap.Error(err))
		} else if !locked {
			return nil, domain.ErrRateLimited
		} else {
			defer func() {
				if err := s.limiter.ReleaseJoin(ctx, userID.String(), code, token); err != nil {
					s.log.Warn("failed to release join lock", zap.Error(err))
				}
			}()
		}
	}

	ws, err := s.repo.GetWorkspaceByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, domain.ErrInviteCodeNotFound
	}

	defaults := s.policies.Get().JoinDefaults
	member := domain.WorkspaceMember{
		ID:                s.genID.Generate(),
		WorkspaceID:       ws.ID,
		UserID:            userID,
		Role:              domain.RoleMember,
		CanCreateTasks:    defaults.CanCreateTasks,
		CanCreateMeetings: defaults.CanCreateMeetings,
		JoinedAt:          time.Now().UTC(),
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyMember
		}
		return nil, err
	}

	s.metrics.RecordMembershipJoin(ctx, ws.ID.String())
	s.auditEntry(ctx, ws.ID, userID, "workspace.joined", "workspace", ws.ID.String(), map[string]any{
		"role": domain.RoleMember,
	})

	return &domain.WorkspaceResponse{
		ID:   ws.ID.String(),
		Name: ws.Name,
		Slug: ws.Slug,
		Role: domain.RoleMember,
	}, nil
}

// ResolveMembership is the single entry point every authorizing caller uses.
// It is re-evaluated per request; a revoked membership takes effect
// immediately.
func (s *service) ResolveMembership(ctx context.Context, workspaceID, userID snowflake.ID) (*domain.WorkspaceMember, error) {
	if workspaceID == 0 || userID == 0 {
		return nil, domain.ErrNotAMember
	}
	member, err := s.repo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrNotAMember
	}
	return member, nil
}

func (s *service) GetByID(ctx context.Context, actorID, workspaceID snowflake.ID) (*domain.WorkspaceResponse, error) {
	member, err := s.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}

	ws, err := s.repo.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, domain.ErrWorkspaceNotFound
	}

	resp := &domain.WorkspaceResponse{
		ID:   ws.ID.String(),
		Name: ws.Name,
		Slug: ws.Slug,
		Role: member.Role,
	}
	if member.Role == domain.RoleAdmin {
		resp.InviteCode = ws.InviteCode
	}
	return resp, nil
}

func (s *service) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.WorkspaceListResponseItem, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	items, err := s.repo.ListWorkspacesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.WorkspaceListResponseItem, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.WorkspaceListResponseItem{
			ID:       item.ID.String(),
			Name:     item.Name,
			Slug:     item.Slug,
			Role:     item.Role,
			JoinedAt: item.JoinedAt,
		})
	}
	return resp, nil
}

func (s *service) ListMembers(ctx context.Context, actorID, workspaceID snowflake.ID) ([]domain.MemberResponse, error) {
	if _, err := s.ResolveMembership(ctx, workspaceID, actorID); err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.MemberResponse, 0, len(members))
	for _, member := range members {
		resp = append(resp, memberResponse(member))
	}
	return resp, nil
}

func (s *service) Rename(ctx context.Context, actorID, workspaceID snowflake.ID, name string) (*domain.WorkspaceResponse, error) {
	actor, err := s.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	newSlug := slug.Make(name)
	if err := s.repo.UpdateWorkspaceName(ctx, workspaceID, name, newSlug); err != nil {
		return nil, err
	}

	s.auditEntry(ctx, workspaceID, actorID, "workspace.renamed", "workspace", workspaceID.String(), map[string]any{
		"name": name,
	})

	return &domain.WorkspaceResponse{
		ID:   workspaceID.String(),
		Name: name,
		Slug: newSlug,
		Role: actor.Role,
	}, nil
}

func (s *service) UpdateMemberFlags(ctx context.Context, actorID, workspaceID, userID snowflake.ID, req domain.UpdateMemberFlagsRequest) (*domain.MemberResponse, error) {
	actor, err := s.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	target, err := s.repo.GetMember(ctx, workspaceID, userID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, domain.ErrNotAMember
	}

	if req.CanCreateTasks != nil {
		target.CanCreateTasks = *req.CanCreateTasks
	}
	if req.CanCreateMeetings != nil {
		target.CanCreateMeetings = *req.CanCreateMeetings
	}
	if err := s.repo.UpdateMember(ctx, *target); err != nil {
		return nil, err
	}

	s.auditEntry(ctx, workspaceID, actorID, "member.flags_updated", "member", userID.String(), map[string]any{
		"can_create_tasks":    target.CanCreateTasks,
		"can_create_meetings": target.CanCreateMeetings,
	})

	resp := memberResponse(*target)
	return &resp, nil
}

func (s *service) UpdateMemberRole(ctx context.Context, actorID, workspaceID, userID snowflake.ID, role string) (*domain.MemberResponse, error) {
	actor, err := s.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	if !domain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}

	var updated domain.WorkspaceMember
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		target, err := repo.GetMember(ctx, workspaceID, userID)
		if err != nil {
			return err
		}
		if target == nil {
			return domain.ErrNotAMember
		}
		if target.Role == role {
			updated = *target
			return nil
		}

		// Demoting the last admin would leave the workspace unmanageable.
		if target.Role == domain.RoleAdmin && role == domain.RoleMember {
			admins, err := repo.CountAdmins(ctx, workspaceID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return domain.ErrLastAdminProtected
			}
		}

		target.Role = role
		if err := repo.UpdateMember(ctx, *target); err != nil {
			return err
		}
		updated = *target
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditEntry(ctx, workspaceID, actorID, "member.role_updated", "member", userID.String(), map[string]any{
		"role": role,
	})

	resp := memberResponse(updated)
	return &resp, nil
}

func (s *service) RemoveMember(ctx context.Context, actorID, workspaceID, userID snowflake.ID) error {
	actor, err := s.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin && actorID != userID {
		return domain.ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		target, err := repo.GetMember(ctx, workspaceID, userID)
		if err != nil {
			return err
		}
		if target == nil {
			return domain.ErrNotAMember
		}

		if target.Role == domain.RoleAdmin {
			admins, err := repo.CountAdmins(ctx, workspaceID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return domain.ErrLastAdminProtected
			}
		}

		return repo.RemoveMember(ctx, workspaceID, userID)
	})
	if err != nil {
		return err
	}

	s.auditEntry(ctx, workspaceID, actorID, "member.removed", "member", userID.String(), nil)
	return nil
}

func (s *service) auditEntry(ctx context.Context, workspaceID, actorID snowflake.ID, action, targetType, targetID string, metadata map[string]any) {
	actor := actorID.String()
	if err := s.audit.AuditLog(ctx, &workspaceID, string(auditdomain.ActorTypeUser), &actor, action, targetType, &targetID, metadata); err != nil {
		s.log.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}

func memberResponse(member domain.WorkspaceMember) domain.MemberResponse {
	return domain.MemberResponse{
		UserID:            member.UserID.String(),
		Role:              member.Role,
		CanCreateTasks:    member.CanCreateTasks,
		CanCreateMeetings: member.CanCreateMeetings,
		JoinedAt:          member.JoinedAt,
	}
}
