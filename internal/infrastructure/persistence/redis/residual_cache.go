package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/praxisgrc/praxis/internal/domain/models"
	"github.com/praxisgrc/praxis/internal/domain/service"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// ResidualCache caches the residual snapshot of a risk under a per-tenant
// key. Read paths consult it before the database; every recomputation
// invalidates the entry after its transaction commits, so a hit is at worst
// one invalidation behind, never inconsistent with a committed state.
type ResidualCache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	log     logger.Logger
	metrics service.Metrics
}

// NewResidualCache creates a new ResidualCache.
func NewResidualCache(client redis.UniversalClient, ttl time.Duration, log logger.Logger, metrics service.Metrics) *ResidualCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ResidualCache{
		client:  client,
		ttl:     ttl,
		log:     log.WithComponent("ResidualCache"),
		metrics: metrics,
	}
}

func residualKey(tenantID, riskID uuid.UUID) string {
	return fmt.Sprintf("praxis:residual:%s:%s", tenantID, riskID)
}

// Get returns the cached snapshot, or nil on a miss. Cache failures degrade
// to a miss; the caller falls through to the database.
func (c *ResidualCache) Get(ctx context.Context, tenantID, riskID uuid.UUID) (*models.ResidualSnapshot, error) {
	raw, err := c.client.Get(ctx, residualKey(tenantID, riskID)).Bytes()
	if err != nil {
		c.metrics.RecordCacheAccess(false)
		if err == redis.Nil {
			return nil, nil
		}
		c.log.Warn(ctx, "Residual cache read failed, falling through",
			logger.Error(err),
			logger.String("risk_id", riskID.String()),
		)
		return nil, nil
	}

	var snapshot models.ResidualSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		c.metrics.RecordCacheAccess(false)
		return nil, nil
	}
	c.metrics.RecordCacheAccess(true)
	return &snapshot, nil
}

// Set stores a snapshot with the configured TTL.
func (c *ResidualCache) Set(ctx context.Context, tenantID, riskID uuid.UUID, snapshot models.ResidualSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, residualKey(tenantID, riskID), raw, c.ttl).Err(); err != nil {
		c.log.Warn(ctx, "Residual cache write failed",
			logger.Error(err),
			logger.String("risk_id", riskID.String()),
		)
		return err
	}
	return nil
}

// Invalidate drops the cached snapshot. Called after the transaction that
// recomputed the risk commits.
func (c *ResidualCache) Invalidate(ctx context.Context, tenantID, riskID uuid.UUID) {
	if err := c.client.Del(ctx, residualKey(tenantID, riskID)).Err(); err != nil {
		c.log.Warn(ctx, "Residual cache invalidation failed",
			logger.Error(err),
			logger.String("risk_id", riskID.String()),
		)
	}
}
