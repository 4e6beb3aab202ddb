package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/syncspace/syncspace/internal/audit/domain"
	"github.com/syncspace/syncspace/internal/idea/domain"
	obsmetrics "github.com/syncspace/syncspace/internal/observability/metrics"
	"github.com/syncspace/syncspace/internal/permission"
	workspacedomain "github.com/syncspace/syncspace/internal/workspace/domain"
	"github.com/syncspace/syncspace/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Directory workspacedomain.Service
	Audit     auditdomain.Service
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	directory workspacedomain.Service
	audit     auditdomain.Service
	metrics   *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("idea.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		directory: p.Directory,
		audit:     p.Audit,
		metrics:   p.Metrics,
	}
}

func (s *service) Create(ctx context.Context, actorID, workspaceID snowflake.ID, req domain.CreateIdeaRequest) (*domain.IdeaResponse, error) {
	member, err := s.directory.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if !permission.CanAct(*member, permission.ActionCreateIdea, 0, actorID) {
		s.metrics.RecordPermissionDenial(ctx, string(permission.ActionCreateIdea))
		return nil, domain.ErrForbidden
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	now := time.Now().UTC()
	idea := domain.Idea{
		ID:          s.genID.Generate(),
		WorkspaceID: workspaceID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Status:      domain.StatusProposed,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, idea); err != nil {
		return nil, err
	}

	s.auditEntry(ctx, workspaceID, actorID, "idea.created", idea.ID, map[string]any{
		"title": title,
	})

	resp := ideaResponse(idea)
	return &resp, nil
}

func (s *service) Get(ctx context.Context, actorID, workspaceID, ideaID snowflake.ID) (*domain.IdeaResponse, error) {
	if _, err := s.directory.ResolveMembership(ctx, workspaceID, actorID); err != nil {
		return nil, err
	}

	idea, err := s.repo.Get(ctx, workspaceID, ideaID)
	if err != nil {
		return nil, err
	}
	if idea == nil {
		return nil, domain.ErrIdeaNotFound
	}

	resp := ideaResponse(*idea)
	return &resp, nil
}

func (s *service) List(ctx context.Context, actorID, workspaceID snowflake.ID, req domain.ListIdeasRequest) (domain.ListIdeasResponse, error) {
	if _, err := s.directory.ResolveMembership(ctx, workspaceID, actorID); err != nil {
		return domain.ListIdeasResponse{}, err
	}

	status := strings.TrimSpace(req.Status)
	if status != "" && !domain.ValidStatus(status) {
		return domain.ListIdeasResponse{}, domain.ErrInvalidStatus
	}

	var cursor *domain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListIdeasResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
		if err != nil {
			return domain.ListIdeasResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListIdeasResponse{}, domain.ErrInvalidPageToken
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
		WorkspaceID: workspaceID,
		Status:      status,
		Cursor:      cursor,
		Limit:       pageSize,
	})
	if err != nil {
		return domain.ListIdeasResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *domain.Idea) string {
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

	ideas := make([]domain.IdeaResponse, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		ideas = append(ideas, ideaResponse(*item))
	}

	resp := domain.ListIdeasResponse{Ideas: ideas}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *service) Update(ctx context.Context, actorID, workspaceID, ideaID snowflake.ID, req domain.UpdateIdeaRequest) (*domain.IdeaResponse, error) {
	member, err := s.directory.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}

	idea, err := s.repo.Get(ctx, workspaceID, ideaID)
	if err != nil {
		return nil, err
	}
	if idea == nil {
		return nil, domain.ErrIdeaNotFound
	}

	if !permission.CanAct(*member, permission.ActionEditIdea, idea.CreatedBy, actorID) {
		s.metrics.RecordPermissionDenial(ctx, string(permission.ActionEditIdea))
		return nil, domain.ErrForbidden
	}

	updates := map[string]any{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		updates["title"] = title
		idea.Title = title
	}
	if req.Description != nil {
		idea.Description = strings.TrimSpace(*req.Description)
		updates["description"] = idea.Description
	}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		if !domain.ValidStatus(status) {
			return nil, domain.ErrInvalidStatus
		}
		updates["status"] = status
		idea.Status = status
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, ideaID, updates); err != nil {
			return nil, err
		}
		s.auditEntry(ctx, workspaceID, actorID, "idea.updated", ideaID, map[string]any{
			"fields": updateFields(updates),
		})
	}

	idea.UpdatedAt = time.Now().UTC()
	resp := ideaResponse(*idea)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, actorID, workspaceID, ideaID snowflake.ID) error {
	member, err := s.directory.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return err
	}

	idea, err := s.repo.Get(ctx, workspaceID, ideaID)
	if err != nil {
		return err
	}
	if idea == nil {
		return domain.ErrIdeaNotFound
	}

	if !permission.CanAct(*member, permission.ActionDeleteIdea, idea.CreatedBy, actorID) {
		s.metrics.RecordPermissionDenial(ctx, string(permission.ActionDeleteIdea))
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, ideaID); err != nil {
		return err
	}

	s.auditEntry(ctx, workspaceID, actorID, "idea.deleted", ideaID, map[string]any{
		"title": idea.Title,
	})
	return nil
}

func (s *service) auditEntry(ctx context.Context, workspaceID, actorID snowflake.ID, action string, ideaID snowflake.ID, metadata map[string]any) {
	actor := actorID.String()
	target := ideaID.String()
	if err := s.audit.AuditLog(ctx, &workspaceID, string(auditdomain.ActorTypeUser), &actor, action, "idea", &target, metadata); err != nil {
		s.log.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}

func updateFields(updates map[string]any) []string {
	fields := make([]string, 0, len(updates))
	for key := range updates {
		fields = append(fields, key)
	}
	return fields
}

func ideaResponse(idea domain.Idea) domain.IdeaResponse {
	return domain.IdeaResponse{
		ID:          idea.ID.String(),
		WorkspaceID: idea.WorkspaceID.String(),
		Title:       idea.Title,
		Description: idea.Description,
		Status:      idea.Status,
		CreatedBy:   idea.CreatedBy.String(),
		CreatedAt:   idea.CreatedAt,
		UpdatedAt:   idea.UpdatedAt,
	}
}
