package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/syncspace/syncspace/internal/meeting/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, meeting domain.Meeting) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO meetings (
			id, workspace_id, title, description, agenda, location, meeting_link,
			start_time, end_time, created_by, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meeting.ID,
		meeting.WorkspaceID,
		meeting.Title,
		meeting.Description,
		meeting.Agenda,
		meeting.Location,
		meeting.MeetingLink,
		meeting.StartTime,
		meeting.EndTime,
		meeting.CreatedBy,
		meeting.Version,
		meeting.CreatedAt,
		meeting.UpdatedAt,
	).Error
}

func (r *repository) Get(ctx context.Context, workspaceID, meetingID snowflake.ID) (*domain.Meeting, error) {
	var meeting domain.Meeting
	err := r.db.WithContext(ctx).
		First(&meeting, "id = ? AND workspace_id = ?", meetingID, workspaceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Meeting, error) {
	var meetings []*domain.Meeting
	stmt := r.db.WithContext(ctx).Model(&domain.Meeting{}).
		Where("workspace_id = ?", filter.WorkspaceID)

	if !filter.StartsAfter.IsZero() {
		stmt = stmt.Where("start_time >= ?", filter.StartsAfter)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&meetings).Error; err != nil {
		return nil, err
	}
	return meetings, nil
}

func (r *repository) UpdateWithVersion(ctx context.Context, meetingID snowflake.ID, observedVersion int64, updates map[string]any) (int64, error) {
	assignments := make(map[string]any, len(updates)+2)
	for key, value := range updates {
		assignments[key] = value
	}
	assignments["version"] = observedVersion + 1
	assignments["updated_at"] = time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&domain.Meeting{}).
		Where("id = ? AND version = ?", meetingID, observedVersion).
		Updates(assignments)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteWithVersion(ctx context.Context, meetingID snowflake.ID, observedVersion int64) (int64, error) {
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND version = ?", meetingID, observedVersion).
			Delete(&domain.Meeting{})
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Where("meeting_id = ?", meetingID).
			Delete(&domain.Participant{}).Error
	})
	return affected, err
}

func (r *repository) AddParticipant(ctx context.Context, participant domain.Participant) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO meeting_participants (id, meeting_id, user_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		participant.ID,
		participant.MeetingID,
		participant.UserID,
		participant.CreatedAt,
	).Error
}

func (r *repository) ListParticipants(ctx context.Context, meetingID snowflake.ID) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at asc, id asc").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *repository) ReplaceParticipants(ctx context.Context, meetingID snowflake.ID, participants []domain.Participant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).
			Delete(&domain.Participant{}).Error; err != nil {
			return err
		}
		for _, participant := range participants {
			err := tx.Exec(
				`INSERT INTO meeting_participants (id, meeting_id, user_id, created_at)
				 VALUES (?, ?, ?, ?)`,
				participant.ID,
				participant.MeetingID,
				participant.UserID,
				participant.CreatedAt,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
