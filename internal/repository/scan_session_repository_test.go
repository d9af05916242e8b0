package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/kas-kelas-api/internal/models"
	appErrors "github.com/noah-isme/kas-kelas-api/pkg/errors"
)

func newScanSessionRepo(t *testing.T) (*ScanSessionRepository, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewScanSessionRepository(client, time.Minute), srv
}

func TestScanSessionRepositorySaveAndGet(t *testing.T) {
	repo, srv := newScanSessionRepo(t)
	ctx := context.Background()
	now := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	session, err := models.NewScanSession("sess-1", "officer-1", now).Start(now)
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, session))
	assert.Equal(t, time.Minute, srv.TTL(scanSessionPrefix+"sess-1"))

	loaded, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "officer-1", loaded.OfficerID)
	assert.Equal(t, models.ScanStateScanning, loaded.State)
}

func TestScanSessionRepositoryMissingAndExpired(t *testing.T) {
	repo, srv := newScanSessionRepo(t)
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	now := time.Now().UTC()
	require.NoError(t, repo.Save(ctx, models.NewScanSession("sess-2", "officer-1", now)))
	srv.FastForward(2 * time.Minute)

	_, err = repo.Get(ctx, "sess-2")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestScanSessionRepositoryClaimIsExclusive(t *testing.T) {
	repo, srv := newScanSessionRepo(t)
	ctx := context.Background()

	first, err := repo.Claim(ctx, "sess-3")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := repo.Claim(ctx, "sess-3")
	require.NoError(t, err)
	assert.False(t, second)

	require.NoError(t, repo.Release(ctx, "sess-3"))
	again, err := repo.Claim(ctx, "sess-3")
	require.NoError(t, err)
	assert.True(t, again)

	srv.FastForward(2 * time.Minute)
	afterTTL, err := repo.Claim(ctx, "sess-3")
	require.NoError(t, err)
	assert.True(t, afterTTL)
}

func TestScanSessionRepositoryDeleteDropsClaim(t *testing.T) {
	repo, srv := newScanSessionRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, repo.Save(ctx, models.NewScanSession("sess-4", "officer-1", now)))
	claimed, err := repo.Claim(ctx, "sess-4")
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, repo.Delete(ctx, "sess-4"))

	assert.False(t, srv.Exists(scanSessionPrefix+"sess-4"))
	assert.False(t, srv.Exists(scanClaimPrefix+"sess-4"))
	_, err = repo.Get(ctx, "sess-4")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestScanSessionRepositoryRedisDown(t *testing.T) {
	repo, srv := newScanSessionRepo(t)
	srv.Close()

	_, err := repo.Get(context.Background(), "sess-5")
	require.Error(t, err)
	assert.False(t, appErrors.HasCode(err, appErrors.ErrNotFound.Code))
}
