package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/syncspace/syncspace/internal/audit/domain"
	"github.com/syncspace/syncspace/internal/clock"
	"github.com/syncspace/syncspace/internal/meeting/domain"
	notificationdomain "github.com/syncspace/syncspace/internal/notification/domain"
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
	Clock     clock.Clock
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
	clock     clock.Clock
	repo      domain.Repository
	directory workspacedomain.Service
	notifier  notificationdomain.Emitter
	audit     auditdomain.Service
	metrics   *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("meeting.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		directory: p.Directory,
		notifier:  p.Notifier,
		audit:     p.Audit,
		metrics:   p.Metrics,
	}
}

func (s *service) Create(ctx context.Context, actorID, workspaceID snowflake.ID, req domain.CreateMeetingRequest) (*domain.MeetingResponse, error) {
	member, err := s.directory.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}
	if !permission.CanAct(*member, permission.ActionCreateMeeting, 0, actorID) {
		s.metrics.RecordPermissionDenial(ctx, string(permission.ActionCreateMeeting))
		return nil, domain.ErrForbidden
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, domain.ErrInvalidTimeRange
	}

	participantIDs := dedupeIDs(req.ParticipantIDs)
	for _, userID := range participantIDs {
		if _, err := s.directory.ResolveMembership(ctx, workspaceID, userID); err != nil {
			return nil, domain.ErrParticipantNotMember
		}
	}

	now := time.Now().UTC()
	meeting := domain.Meeting{
		ID:          s.genID.Generate(),
		WorkspaceID: workspaceID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Agenda:      strings.TrimSpace(req.Agenda),
		Location:    strings.TrimSpace(req.Location),
		MeetingLink: strings.TrimSpace(req.MeetingLink),
		StartTime:   req.StartTime.UTC(),
		EndTime:     req.EndTime.UTC(),
		CreatedBy:   actorID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, meeting); err != nil {
			return err
		}
		for _, userID := range participantIDs {
			err := repo.AddParticipant(ctx, domain.Participant{
				ID:        s.genID.Generate(),
				MeetingID: meeting.ID,
				UserID:    userID,
				CreatedAt: now,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditEntry(ctx, workspaceID, actorID, "meeting.created", meeting.ID, map[string]any{
		"title":      title,
		"start_time": meeting.StartTime.Format(time.RFC3339),
	})
	s.notifyParticipants(ctx, actorID, meeting, participantIDs,
		notificationdomain.EventMeetingScheduled,
		fmt.Sprintf("You were invited to the meeting %q", title),
	)

	resp := s.meetingResponse(meeting, participantIDs)
	return &resp, nil
}

func (s *service) Get(ctx context.Context, actorID, workspaceID, meetingID snowflake.ID) (*domain.MeetingResponse, error) {
	if _, err := s.directory.ResolveMembership(ctx, workspaceID, actorID); err != nil {
		return nil, err
	}

	meeting, err := s.repo.Get(ctx, workspaceID, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting == nil {
		return nil, domain.ErrMeetingNotFound
	}

	participantIDs, err := s.participantIDs(ctx, meetingID)
	if err != nil {
		return nil, err
	}

	resp := s.meetingResponse(*meeting, participantIDs)
	return &resp, nil
}

func (s *service) List(ctx context.Context, actorID, workspaceID snowflake.ID, req domain.ListMeetingsRequest) (domain.ListMeetingsResponse, error) {
	if _, err := s.directory.ResolveMembership(ctx, workspaceID, actorID); err != nil {
		return domain.ListMeetingsResponse{}, err
	}

	var cursor *domain.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListMeetingsResponse{}, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339, decoded.CreatedAt)
		if err != nil {
			return domain.ListMeetingsResponse{}, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
		if err != nil || id == 0 {
			return domain.ListMeetingsResponse{}, domain.ErrInvalidPageToken
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

	filter := domain.ListFilter{
		WorkspaceID: workspaceID,
		Cursor:      cursor,
		Limit:       pageSize,
	}
	if req.UpcomingOnly {
		filter.StartsAfter = s.clock.Now()
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.ListMeetingsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *domain.Meeting) string {
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

	meetings := make([]domain.MeetingResponse, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		participantIDs, err := s.participantIDs(ctx, item.ID)
		if err != nil {
			return domain.ListMeetingsResponse{}, err
		}
		meetings = append(meetings, s.meetingResponse(*item, participantIDs))
	}

	resp := domain.ListMeetingsResponse{Meetings: meetings}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *service) Update(ctx context.Context, actorID, workspaceID, meetingID snowflake.ID, observedVersion int64, req domain.UpdateMeetingRequest) (*domain.MeetingResponse, error) {
	member, err := s.directory.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return nil, err
	}

	meeting, err := s.repo.Get(ctx, workspaceID, meetingID)
	if err != nil {
		return nil, err
	}
	if meeting == nil {
		return nil, domain.ErrMeetingNotFound
	}

	if meeting.Version != observedVersion {
		s.metrics.RecordStaleWriteConflict(ctx, "meeting")
		return nil, domain.ErrStaleWrite
	}
	if !permission.CanAct(*member, permission.ActionEditMeeting, meeting.CreatedBy, actorID) {
		s.metrics.RecordPermissionDenial(ctx, string(permission.ActionEditMeeting))
		return nil, domain.ErrForbidden
	}

	updates := map[string]any{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		updates["title"] = title
		meeting.Title = title
	}
	if req.Description != nil {
		meeting.Description = strings.TrimSpace(*req.Description)
		updates["description"] = meeting.Description
	}
	if req.Agenda != nil {
		meeting.Agenda = strings.TrimSpace(*req.Agenda)
		updates["agenda"] = meeting.Agenda
	}
	if req.Location != nil {
		meeting.Location = strings.TrimSpace(*req.Location)
		updates["location"] = meeting.Location
	}
	if req.MeetingLink != nil {
		meeting.MeetingLink = strings.TrimSpace(*req.MeetingLink)
		updates["meeting_link"] = meeting.MeetingLink
	}
	if req.StartTime != nil {
		meeting.StartTime = req.StartTime.UTC()
		updates["start_time"] = meeting.StartTime
	}
	if req.EndTime != nil {
		meeting.EndTime = req.EndTime.UTC()
		updates["end_time"] = meeting.EndTime
	}

	// The window invariant holds for every edit, ended meetings included.
	if !meeting.EndTime.After(meeting.StartTime) {
		return nil, domain.ErrInvalidTimeRange
	}

	var participantIDs []snowflake.ID
	if req.ParticipantIDs != nil {
		participantIDs = dedupeIDs(*req.ParticipantIDs)
		for _, userID := range participantIDs {
			if _, err := s.directory.ResolveMembership(ctx, workspaceID, userID); err != nil {
				return nil, domain.ErrParticipantNotMember
			}
		}
	} else {
		participantIDs, err = s.participantIDs(ctx, meetingID)
		if err != nil {
			return nil, err
		}
	}

	affected, err := s.repo.UpdateWithVersion(ctx, meetingID, observedVersion, updates)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		current, err := s.repo.Get(ctx, workspaceID, meetingID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, domain.ErrMeetingNotFound
		}
		s.metrics.RecordStaleWriteConflict(ctx, "meeting")
		return nil, domain.ErrStaleWrite
	}

	if req.ParticipantIDs != nil {
		now := time.Now().UTC()
		participants := make([]domain.Participant, 0, len(participantIDs))
		for _, userID := range participantIDs {
			participants = append(participants, domain.Participant{
				ID:        s.genID.Generate(),
				MeetingID: meetingID,
				UserID:    userID,
				CreatedAt: now,
			})
		}
		if err := s.repo.ReplaceParticipants(ctx, meetingID, participants); err != nil {
			return nil, err
		}
	}

	s.auditEntry(ctx, workspaceID, actorID, "meeting.updated", meetingID, map[string]any{
		"fields": updateFields(updates),
	})
	s.notifyParticipants(ctx, actorID, *meeting, participantIDs,
		notificationdomain.EventMeetingUpdated,
		fmt.Sprintf("The meeting %q was updated", meeting.Title),
	)

	meeting.Version = observedVersion + 1
	meeting.UpdatedAt = time.Now().UTC()
	resp := s.meetingResponse(*meeting, participantIDs)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, actorID, workspaceID, meetingID snowflake.ID, observedVersion int64) error {
	member, err := s.directory.ResolveMembership(ctx, workspaceID, actorID)
	if err != nil {
		return err
	}

	meeting, err := s.repo.Get(ctx, workspaceID, meetingID)
	if err != nil {
		return err
	}
	if meeting == nil {
		return domain.ErrMeetingNotFound
	}

	if meeting.Version != observedVersion {
		s.metrics.RecordStaleWriteConflict(ctx, "meeting")
		return domain.ErrStaleWrite
	}
	if !permission.CanAct(*member, permission.ActionDeleteMeeting, meeting.CreatedBy, actorID) {
		s.metrics.RecordPermissionDenial(ctx, string(permission.ActionDeleteMeeting))
		return domain.ErrForbidden
	}

	affected, err := s.repo.DeleteWithVersion(ctx, meetingID, observedVersion)
	if err != nil {
		return err
	}
	if affected == 0 {
		current, err := s.repo.Get(ctx, workspaceID, meetingID)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrMeetingNotFound
		}
		s.metrics.RecordStaleWriteConflict(ctx, "meeting")
		return domain.ErrStaleWrite
	}

	s.auditEntry(ctx, workspaceID, actorID, "meeting.deleted", meetingID, map[string]any{
		"title": meeting.Title,
	})
	return nil
}

func (s *service) participantIDs(ctx context.Context, meetingID snowflake.ID) ([]snowflake.ID, error) {
	participants, err := s.repo.ListParticipants(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	ids := make([]snowflake.ID, 0, len(participants))
	for _, participant := range participants {
		ids = append(ids, participant.UserID)
	}
	return ids, nil
}

func (s *service) notifyParticipants(ctx context.Context, actorID snowflake.ID, meeting domain.Meeting, participantIDs []snowflake.ID, eventType, message string) {
	for _, userID := range participantIDs {
		s.notifier.Emit(ctx, notificationdomain.Event{
			Type:         eventType,
			WorkspaceID:  meeting.WorkspaceID,
			TargetUserID: userID,
			ActorID:      actorID,
			ResourceType: "meeting",
			ResourceID:   meeting.ID,
			Message:      message,
		})
	}
}

func (s *service) auditEntry(ctx context.Context, workspaceID, actorID snowflake.ID, action string, meetingID snowflake.ID, metadata map[string]any) {
	actor := actorID.String()
	target := meetingID.String()
	if err := s.audit.AuditLog(ctx, &workspaceID, string(auditdomain.ActorTypeUser), &actor, action, "meeting", &target, metadata); err != nil {
		s.log.Warn("failed to record audit entry", zap.String("action", action), zap.Error(err))
	}
}

func (s *service) meetingResponse(meeting domain.Meeting, participantIDs []snowflake.ID) domain.MeetingResponse {
	participants := make([]string, 0, len(participantIDs))
	for _, userID := range participantIDs {
		participants = append(participants, userID.String())
	}
	return domain.MeetingResponse{
		ID:           meeting.ID.String(),
		WorkspaceID:  meeting.WorkspaceID.String(),
		Title:        meeting.Title,
		Description:  meeting.Description,
		Agenda:       meeting.Agenda,
		Location:     meeting.Location,
		MeetingLink:  meeting.MeetingLink,
		StartTime:    meeting.StartTime,
		EndTime:      meeting.EndTime,
		Status:       meeting.StatusAt(s.clock.Now()),
		CreatedBy:    meeting.CreatedBy.String(),
		Participants: participants,
		Version:      meeting.Version,
		CreatedAt:    meeting.CreatedAt,
		UpdatedAt:    meeting.UpdatedAt,
	}
}

func dedupeIDs(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func updateFields(updates map[string]any) []string {
	fields := make([]string, 0, len(updates))
	for key := range updates {
		fields = append(fields, key)
	}
	return fields
}
