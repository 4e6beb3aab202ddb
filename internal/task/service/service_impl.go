package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/syncspace/syncspace/internal/audit/domain"
	notificationdomain "github.com/syncspace/syncspace/internal/notification/domain"
	obsmetrics "github.com/syncspace/syncspace/internal/observability/metrics"
	"github.com/syncspace/syncspace/internal/permission"
	"github.com/syncspace/syncspace/internal/task/domain"
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
	Notifier  notificationdomain.Emitter
	Audit     auditdomain.Service
	Metrics   *obsmetrics.Metrics `optional:"true"`
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	directory workspacedomain.Service
	notifier  notificationdomain.Emitter
	audit     auditdomain.Service
	metrics   *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("task.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		directory: p.Directory,
		notifier:  p.Notifier,
		audit:     p.Audit,
		metrics:   p.Metrics,
	}
}

func (s *service) Create(ctx context.Context, actorID, workspaceID snowflake.ID, req domain.CreateTaskRequest) (*domain.TaskResponse, error) {
	member, err := s.directory.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if !permission.CanAct(*member, permission.ActionCreateTask, 0, actorID) {
		s.metrics.RecordPermissionDenial(ctx, string(permission.ActionCreateTask))
		return nil, domain.ErrForbidden
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	priority := strings.TrimSpace(req.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, domain.ErrInvalidPriority
	}

	if req.AssigneeID != nil {
		if _, err := s.directory.ResolveMembership(ctx, workspaceID, *req.AssigneeID); err != nil {
			return nil, domain.ErrAssigneeNotMember
		}
	}

	now := time.Now().UTC()
	task := domain.Task{
		ID:          s.genID.Generate(),
		WorkspaceID: workspaceID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Priority:    priority,
		Status:      domain.StatusPending,
		AssigneeID:  req.AssigneeID,
		CreatedBy:   actorID,
		Deadline:    req.Deadline,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.auditEntry(ctx, workspaceID, actorID, "task.created", task.ID, map[string]any{
		"title":    title,
		"priority": priority,
	})
	if task.AssigneeID != nil {
		s.notifier.Emit(ctx, notificationdomain.Event{
			Type:         notificationdomain.EventTaskAssigned,
			WorkspaceID:  workspaceID,
			TargetUserID: *task.AssigneeID,
			ActorID:      actorID,
			ResourceType: "task",
			ResourceID:   task.ID,
			Message:      fmt.Sprintf("You were assigned the task %q", title),
		})
	}

	resp := taskResponse(task)
	return &resp, nil
}

func (s *service) Get(ctx context.Context, actorID, workspaceID, taskID snowflake.ID) (*domain.TaskResponse, error) {
	if _, err := s.directory.ResolveMembership(ctx, workspaceID, actorID); err != nil {
		return nil, err
	}

	task, err := s.repo.Get(ctx, workspaceID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}

	resp := taskResponse(*task)
	return &resp, nil
}

func (s *service) List(ctx context.Context, actorID, workspaceID snowflake.ID, req domain.ListTasksRequest) (domain.ListTasksResponse, error) {
	if _, err := s.directory.ResolveMembership(ctx, workspaceID, actorID); err != nil {
		return domain.ListTasksResponse{}, err
	}

	status := strings.TrimSpace(req.Status)
	if status != "" {
		switch status {
		case domain.StatusPending, domain.StatusOngoing, domain.StatusPendingApproval, domain.StatusCompleted:
		default:
			return domain.ListTasksResponse{}, domain.ErrInvalidStatus
		}
	}

	var cursor *domain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListTasksResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
		if err != nil {
			return domain.ListTasksResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListTasksResponse{}, domain.ErrInvalidPageToken
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
		AssigneeID:  req.AssigneeID,
		Cursor:      cursor,
		Limit:       pageSize,
	})
	if err != nil {
		return domain.ListTasksResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *domain.Task) string {
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

	tasks := make([]domain.TaskResponse, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		tasks = append(tasks, taskResponse(*item))
	}

	resp := domain.ListTasksResponse{Tasks: tasks}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *service) Start(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64) (*domain.TaskResponse, error) {
	return s.transition(ctx, actorID, workspaceID, taskID, observedVersion, domain.TransitionStart)
}

func (s *service) RequestCompletion(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64) (*domain.TaskResponse, error) {
	return s.transition(ctx, actorID, workspaceID, taskID, observedVersion, domain.TransitionRequestCompletion)
}

func (s *service) Approve(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64) (*domain.TaskResponse, error) {
	return s.transition(ctx, actorID, workspaceID, taskID, observedVersion, domain.TransitionApprove)
}

func (s *service) Reject(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64) (*domain.TaskResponse, error) {
	return s.transition(ctx, actorID, workspaceID, taskID, observedVersion, domain.TransitionReject)
}

// transition drives one edge of the state machine. Checks run in a fixed
// order: membership, version, edge, actor. A stale observed version always
// reports StaleWrite, even when the status moved on too.
func (s *service) transition(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64, tr domain.Transition) (*domain.TaskResponse, error) {
	member, err := s.directory.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}

	task, err := s.repo.Get(ctx, workspaceID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}

	if task.Version != observedVersion {
		s.metrics.RecordStaleWriteConflict(ctx, "task")
		return nil, domain.ErrStaleWrite
	}

	if task.Status != tr.From {
		return nil, domain.ErrInvalidTransition
	}

	switch tr {
	case domain.TransitionStart, domain.TransitionRequestCompletion:
		// Assignee transitions belong to the assignee alone; there is no
		// acting-as-nobody edge for unassigned tasks, not even for admins.
		if task.AssigneeID == nil || *task.AssigneeID != actorID {
			s.metrics.RecordPermissionDenial(ctx, transitionAction(tr))
			return nil, domain.ErrForbidden
		}
	case domain.TransitionApprove, domain.TransitionReject:
		action := permission.ActionApproveTask
		if tr == domain.TransitionReject {
			action = permission.ActionRejectTask
		}
		if !permission.CanAct(*member, action, task.CreatedBy, actorID) {
			s.metrics.RecordPermissionDenial(ctx, string(action))
			return nil, domain.ErrForbidden
		}
	}

	affected, err := s.repo.UpdateWithVersion(ctx, task.ID, observedVersion, map[string]any{
		"status": tr.To,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		current, err := s.repo.Get(ctx, workspaceID, taskID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, domain.ErrTaskNotFound
		}
		s.metrics.RecordStaleWriteConflict(ctx, "task")
		return nil, domain.ErrStaleWrite
	}

	s.metrics.RecordTaskTransition(ctx, tr.From, tr.To)
	s.auditEntry(ctx, workspaceID, actorID, "task."+tr.Name, task.ID, map[string]any{
		"from": tr.From,
		"to":   tr.To,
	})
	s.notifyTransition(ctx, actorID, *task, tr)

	task.Status = tr.To
	task.Version = observedVersion + 1
	task.UpdatedAt = time.Now().UTC()
	resp := taskResponse(*task)
	return &resp, nil
}

func (s *service) Reassign(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64, assigneeID *snowflake.ID) (*domain.TaskResponse, error) {
	member, err := s.directory.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}

	task, err := s.repo.Get(ctx, workspaceID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}

	if task.Version != observedVersion {
		s.metrics.RecordStaleWriteConflict(ctx, "task")
		return nil, domain.ErrStaleWrite
	}
	if task.Status != domain.StatusPending {
		return nil, domain.ErrTaskLocked
	}
	if !permission.CanAct(*member, permission.ActionAssignTask, task.CreatedBy, actorID) {
		s.metrics.RecordPermissionDenial(ctx, string(permission.ActionAssignTask))
		return nil, domain.ErrForbidden
	}
	if assigneeID != nil {
		if _, err := s.directory.ResolveMembership(ctx, workspaceID, *assigneeID); err != nil {
			return nil, domain.ErrAssigneeNotMember
		}
	}

	affected, err := s.repo.UpdateWithVersion(ctx, task.ID, observedVersion, map[string]any{
		"assignee_id": assigneeID,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		s.metrics.RecordStaleWriteConflict(ctx, "task")
		return nil, domain.ErrStaleWrite
	}

	s.auditEntry(ctx, workspaceID, actorID, "task.reassigned", task.ID, map[string]any{
		"assignee_id": assigneeString(assigneeID),
	})
	if assigneeID != nil {
		s.notifier.Emit(ctx, notificationdomain.Event{
			Type:         notificationdomain.EventTaskAssigned,
			WorkspaceID:  workspaceID,
			TargetUserID: *assigneeID,
			ActorID:      actorID,
			ResourceType: "task",
			ResourceID:   task.ID,
			Message:      fmt.Sprintf("You were assigned the task %q", task.Title),
		})
	}

	task.AssigneeID = assigneeID
	task.Version = observedVersion + 1
	task.UpdatedAt = time.Now().UTC()
	resp := taskResponse(*task)
	return &resp, nil
}

func (s *service) UpdateDetails(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64, req domain.UpdateTaskRequest) (*domain.TaskResponse, error) {
	member, err := s.directory.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}

	task, err := s.repo.Get(ctx, workspaceID, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}

	if task.Version != observedVersion {
		s.metrics.RecordStaleWriteConflict(ctx, "task")
		return nil, domain.ErrStaleWrite
	}
	if task.Status == domain.StatusCompleted {
		return nil, domain.ErrTaskLocked
	}
	if !permission.CanAct(*member, permission.ActionEditTask, task.CreatedBy, actorID) {
		s.metrics.RecordPermissionDenial(ctx, string(permission.ActionEditTask))
		return nil, domain.ErrForbidden
	}

	updates := map[string]any{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		updates["title"] = title
		task.Title = title
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		updates["description"] = description
		task.Description = description
	}
	if req.Priority != nil {
		priority := strings.TrimSpace(*req.Priority)
		if !domain.ValidPriority(priority) {
			return nil, domain.ErrInvalidPriority
		}
		updates["priority"] = priority
		task.Priority = priority
	}
	if req.Deadline != nil {
		updates["deadline"] = req.Deadline
		task.Deadline = req.Deadline
	} else if req.ClearDeadline {
		updates["deadline"] = nil
		task.Deadline = nil
	}

	affected, err := s.repo.UpdateWithVersion(ctx, task.ID, observedVersion, updates)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		s.metrics.RecordStaleWriteConflict(ctx, "task")
		return nil, domain.ErrStaleWrite
	}

	s.auditEntry(ctx, workspaceID, actorID, "task.updated", task.ID, map[string]any{
		"fields": updateFields(updates),
	})

	task.Version = observedVersion + 1
	task.UpdatedAt = time.Now().UTC()
	resp := taskResponse(*task)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, actorID, workspaceID, taskID snowflake.ID, observedVersion int64) error {
	member, err := s.directory.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return err
	}

	task, err := s.repo.Get(ctx, workspaceID, taskID)
	if err != nil {
		return err
	}
	if task == nil {
		return domain.ErrTaskNotFound
	}

	if task.Version != observedVersion {
		s.metrics.RecordStaleWriteConflict(ctx, "task")
		return domain.ErrStaleWrite
	}
	if !permission.CanAct(*member, permission.ActionDeleteTask, task.CreatedBy, actorID) {
		s.metrics.RecordPermissionDenial(ctx, string(permission.ActionDeleteTask))
		return domain.ErrForbidden
	}

	affected, err := s.repo.DeleteWithVersion(ctx, task.ID, observedVersion)
	if err != nil {
		return err
	}
	if affected == 0 {
		current, err := s.repo.Get(ctx, workspaceID, taskID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrTaskNotFound
		}
		s.metrics.RecordStaleWriteConflict(ctx, "task")
		return domain.ErrStaleWrite
	}

	s.auditEntry(ctx, workspaceID, actorID, "task.deleted", task.ID, map[string]any{
		"title": task.Title,
	})
	return nil
}

func (s *service) notifyTransition(ctx context.Context, actorID snowflake.ID, task domain.Task, tr domain.Transition) {
	switch tr {
	case domain.TransitionRequestCompletion:
		s.notifier.Emit(ctx, notificationdomain.Event{
			Type:         notificationdomain.EventTaskCompletionRequested,
			WorkspaceID:  task.WorkspaceID,
			TargetUserID: task.CreatedBy,
			ActorID:      actorID,
			ResourceType: "task",
			ResourceID:   task.ID,
			Message:      fmt.Sprintf("Completion requested for the task %q", task.Title),
		})
	case domain.TransitionApprove, domain.TransitionReject:
		if task.AssigneeID == nil {
			return
		}
		eventType := notificationdomain.EventTaskApproved
		message := fmt.Sprintf("The task %q was approved", task.Title)
		if tr == domain.TransitionReject {
			eventType = notificationdomain.EventTaskRejected
			message = fmt.Sprintf("The task %q was rejected", task.Title)
		}
		s.notifier.Emit(ctx, notificationdomain.Event{
			Type:         eventType,
			WorkspaceID:  task.WorkspaceID,
			TargetUserID: *task.AssigneeID,
			ActorID:      actorID,
			ResourceType: "task",
			ResourceID:   task.ID,
			Message:      message,
		})
	}
}

func (s *service) auditEntry(ctx context.Context, workspaceID, actorID snowflake.ID, action string, taskID snowflake.ID, metadata map[string]any) {
	actor := actorID.String()
	target := taskID.String()
	if err := s.audit.AuditLog(ctx, &workspaceID, string(auditdomain.ActorTypeUser), &actor, action, "task", &target, metadata); err != nil {
		s.log.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}

func transitionAction(tr domain.Transition) string {
	if tr == domain.TransitionRequestCompletion {
		return string(permission.ActionRequestTaskCompletion)
	}
	return string(permission.ActionStartTask)
}

func assigneeString(assigneeID *snowflake.ID) string {
	if assigneeID == nil {
		return ""
	}
	return assigneeID.String()
}

func updateFields(updates map[string]any) []string {
	fields := make([]string, 0, len(updates))
	for key := range updates {
		fields = append(fields, key)
	}
	return fields
}

func taskResponse(task domain.Task) domain.TaskResponse {
	resp := domain.TaskResponse{
		ID:          task.ID.String(),
		WorkspaceID: task.WorkspaceID.String(),
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		Status:      task.Status,
		CreatedBy:   task.CreatedBy.String(),
		Deadline:    task.Deadline,
		Version:     task.Version,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.AssigneeID != nil {
		assignee := task.AssigneeID.String()
		resp.AssigneeID = &assignee
	}
	return resp
}
