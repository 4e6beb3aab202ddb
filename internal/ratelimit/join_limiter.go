package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/syncspace/syncspace/internal/config"
)

const (
	keyJoinUser = "workspace:join:user:%s"
	keyJoinLock = "workspace:join:lock:%s:%s"

	joinLockTTL = 10 * time.Second
)

// JoinLimiter throttles invite-code join attempts per user. Limits come
// from the workspace policy and follow hot reloads.
type JoinLimiter struct {
	enabled bool

	bucket   *TokenBucket
	locker   *Locker
	policies *config.WorkspacePolicyHolder
}

func NewJoinLimiter(cfg config.Config, policies *config.WorkspacePolicyHolder) (*JoinLimiter, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})

	return &JoinLimiter{
		enabled:  true,
		bucket:   NewTokenBucket(client),
		locker:   NewLocker(client),
		policies: policies,
	}, nil
}

func (l *JoinLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowUser consumes one join attempt for the user, refilling at the
// policy's per-minute rate.
func (l *JoinLimiter) AllowUser(ctx context.Context, userID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	limit := l.policies.Get().JoinLimit
	if limit.RatePerMinute <= 0 || limit.Burst <= 0 {
		return true, nil
	}
	rate := float64(limit.RatePerMinute) / 60.0
	return l.bucket.Allow(ctx, fmt.Sprintf(keyJoinUser, strings.TrimSpace(userID)), rate, limit.Burst)
}

// TryLockJoin serializes concurrent join attempts by the same user on the
// same invite code.
func (l *JoinLimiter) TryLockJoin(ctx context.Context, userID, inviteCode string) (string, bool, error) {
	if !l.Enabled() {
		return "", true, nil
	}
	key := fmt.Sprintf(keyJoinLock, strings.TrimSpace(userID), strings.TrimSpace(inviteCode))
	return l.locker.TryLock(ctx, key, joinLockTTL)
}

func (l *JoinLimiter) ReleaseJoin(ctx context.Context, userID, inviteCode, token string) error {
	if !l.Enabled() {
		return nil
	}
	key := fmt.Sprintf(keyJoinLock, strings.TrimSpace(userID), strings.TrimSpace(inviteCode))
	return l.locker.Release(ctx, key, token)
}
