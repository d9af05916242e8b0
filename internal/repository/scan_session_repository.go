package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
)

const (
	scanSessionPrefix = "paycode:session:"
	scanClaimPrefix   = "paycode:claim:"
)

// ScanSessionRepository keeps officers' scan sessions in Redis.
type ScanSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewScanSessionRepository constructs the repository.
func NewScanSessionRepository(client *redis.Client, ttl time.Duration) *ScanSessionRepository {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &ScanSessionRepository{client: client, ttl: ttl}
}

// Save stores the session and refreshes its TTL.
func (r *ScanSessionRepository) Save(ctx context.Context, session models.ScanSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal scan session %s: %w", session.ID, err)
	}
	if err := r.client.Set(ctx, scanSessionPrefix+session.ID, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set scan session %s: %w", session.ID, err)
	}
	return nil
}

// Get loads a session. Missing or expired sessions return appErrors.ErrNotFound.
func (r *ScanSessionRepository) Get(ctx context.Context, id string) (models.ScanSession, error) {
	raw, err := r.client.Get(ctx, scanSessionPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.ScanSession{}, appErrors.Clone(appErrors.ErrNotFound, "scan session not found or expired")
		}
		return models.ScanSession{}, fmt.Errorf("redis get scan session %s: %w", id, err)
	}
	var session models.ScanSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return models.ScanSession{}, fmt.Errorf("unmarshal scan session %s: %w", id, err)
	}
	return session, nil
}

// Claim takes the one-shot confirmation lock for a session. It reports false when another
// request already holds it.
func (r *ScanSessionRepository) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := r.client.SetNX(ctx, scanClaimPrefix+id, time.Now().UTC().Unix(), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis claim scan session %s: %w", id, err)
	}
	return ok, nil
}

// Release drops the confirmation lock so the session can be claimed again.
func (r *ScanSessionRepository) Release(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, scanClaimPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis release scan session %s: %w", id, err)
	}
	return nil
}

// Delete discards the session and its claim.
func (r *ScanSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, scanSessionPrefix+id, scanClaimPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete scan session %s: %w", id, err)
	}
	return nil
}
