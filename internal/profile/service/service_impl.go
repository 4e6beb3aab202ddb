package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/syncspace/syncspace/internal/profile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func NewService(p Params) domain.Service {
	return &service{
		db:   p.DB,
		log:  p.Log.Named("profile.service"),
		repo: p.Repo,
	}
}

func (s *service) Upsert(ctx context.Context, userID snowflake.ID, req domain.UpsertProfileRequest) (*domain.Profile, error) {
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, domain.ErrInvalidName
	}

	now := time.Now().UTC()
	profile := domain.Profile{
		ID:        userID,
		FullName:  fullName,
		AvatarURL: strings.TrimSpace(req.AvatarURL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *service) Get(ctx context.Context, userID snowflake.ID) (*domain.Profile, error) {
	profile, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *service) DisplayNames(ctx context.Context, userIDs []snowflake.ID) (map[snowflake.ID]string, error) {
	profiles, err := s.repo.GetMany(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	names := make(map[snowflake.ID]string, len(userIDs))
	for _, userID := range userIDs {
		if profile, ok := profiles[userID]; ok {
			names[userID] = profile.FullName
			continue
		}
		names[userID] = userID.String()
	}
	return names, nil
}
