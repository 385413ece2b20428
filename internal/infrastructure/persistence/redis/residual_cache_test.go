package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/service"
	"github.com/praxisgrc/praxis/pkg/logger"
)

func newTestCache(t *testing.T) (*ResidualCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewResidualCache(client, time.Minute, logger.NewNoopLogger(), service.NoopMetrics{}), mr
}

func TestResidualCache_RoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	tenantID := uuid.New()
	riskID := uuid.New()

	hit, err := cache.Get(ctx, tenantID, riskID)
	require.NoError(t, err)
	assert.Nil(t, hit)

	snapshot := models.ResidualSnapshot{
		Likelihood:   2,
		Impact:       4,
		Score:        8,
		RecomputedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, cache.Set(ctx, tenantID, riskID, snapshot))

	hit, err = cache.Get(ctx, tenantID, riskID)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, snapshot, *hit)

	// Same risk id under another tenant is a different key.
	hit, err = cache.Get(ctx, uuid.New(), riskID)
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestResidualCache_Invalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	tenantID := uuid.New()
	riskID := uuid.New()

	require.NoError(t, cache.Set(ctx, tenantID, riskID, models.ResidualSnapshot{
		Likelihood: 1, Impact: 1, Score: 1, RecomputedAt: time.Now().UTC(),
	}))

	cache.Invalidate(ctx, tenantID, riskID)

	hit, err := cache.Get(ctx, tenantID, riskID)
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestResidualCache_TTLExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	tenantID := uuid.New()
	riskID := uuid.New()

	require.NoError(t, cache.Set(ctx, tenantID, riskID, models.ResidualSnapshot{
		Likelihood: 3, Impact: 3, Score: 9, RecomputedAt: time.Now().UTC(),
	}))

	mr.FastForward(2 * time.Minute)

	hit, err := cache.Get(ctx, tenantID, riskID)
	require.NoError(t, err)
	assert.Nil(t, hit)
}
