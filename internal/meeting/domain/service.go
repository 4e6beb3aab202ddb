package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/syncspace/syncspace/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, actorID, workspaceID snowflake.ID, req CreateMeetingRequest) (*MeetingResponse, error)
	Get(ctx context.Context, actorID, workspaceID, meetingID snowflake.ID) (*MeetingResponse, error)
	List(ctx context.Context, actorID, workspaceID snowflake.ID, req ListMeetingsRequest) (ListMeetingsResponse, error)
	Update(ctx context.Context, actorID, workspaceID, meetingID snowflake.ID, observedVersion int64, req UpdateMeetingRequest) (*MeetingResponse, error)
	Delete(ctx context.Context, actorID, workspaceID, meetingID snowflake.ID, observedVersion int64) error
}

type CreateMeetingRequest struct {
	Title          string
	Description    string
	Agenda         string
	Location       string
	MeetingLink    string
	StartTime      time.Time
	EndTime        time.Time
	ParticipantIDs []snowflake.ID
}

type UpdateMeetingRequest struct {
	Title       *string
	Description *string
	Agenda      *string
	Location    *string
	MeetingLink *string
	StartTime   *time.Time
	EndTime     *time.Time
	// ParticipantIDs, when non-nil, replaces the participant set.
	ParticipantIDs *[]snowflake.ID
}

type ListMeetingsRequest struct {
	pagination.Pagination
	// UpcomingOnly drops meetings that already started.
	UpcomingOnly bool
}

type ListMeetingsResponse struct {
	pagination.PageInfo
	Meetings []MeetingResponse `json:"meetings"`
}

type MeetingResponse struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspace_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Agenda       string    `json:"agenda"`
	Location     string    `json:"location"`
	MeetingLink  string    `json:"meeting_link"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	CreatedBy    string    `json:"created_by"`
	Participants []string  `json:"participants"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var (
	ErrInvalidTitle         = errors.New("invalid_title")
	ErrInvalidTimeRange     = errors.New("invalid_time_range")
	ErrInvalidPageToken     = errors.New("invalid_page_token")
	ErrMeetingNotFound      = errors.New("meeting_not_found")
	ErrStaleWrite           = errors.New("stale_write")
	ErrForbidden            = errors.New("forbidden")
	ErrParticipantNotMember = errors.New("participant_not_a_member")
)
