package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type ListFilter struct {
	WorkspaceID snowflake.ID
	// StartsAfter keeps only meetings whose start time is at or after the
	// given instant. Zero means no lower bound.
	StartsAfter time.Time
	Cursor      *Cursor
	Limit       int
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, meeting Meeting) error
	Get(ctx context.Context, workspaceID, meetingID snowflake.ID) (*Meeting, error)
	List(ctx context.Context, filter ListFilter) ([]*Meeting, error)
	// UpdateWithVersion applies updates iff the stored version still equals
	// observedVersion, advancing the version by one. Returns rows affected.
	UpdateWithVersion(ctx context.Context, meetingID snowflake.ID, observedVersion int64, updates map[string]any) (int64, error)
	// DeleteWithVersion removes the meeting and its participant rows iff the
	// stored version still equals observedVersion. Returns rows affected.
	DeleteWithVersion(ctx context.Context, meetingID snowflake.ID, observedVersion int64) (int64, error)

	AddParticipant(ctx context.Context, participant Participant) error
	ListParticipants(ctx context.Context, meetingID snowflake.ID) ([]Participant, error)
	ReplaceParticipants(ctx context.Context, meetingID snowflake.ID, participants []Participant) error
}
