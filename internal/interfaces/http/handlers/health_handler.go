package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/praxisgrc/praxis/pkg/logger"
)

// HealthHandler provides liveness and readiness endpoints. The redis client
// is optional; with caching disabled it is nil and skipped.
type HealthHandler struct {
	db    *gorm.DB
	redis redis.UniversalClient
	log   logger.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *gorm.DB, redisClient redis.UniversalClient, log logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, log: log.WithComponent("HealthHandler")}
}

// LivenessCheck reports that the process is up.
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// ReadinessCheck reports whether the backing stores are reachable.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	checks := h.performChecks(c.Request.Context())

	status := "ready"
	httpStatus := http.StatusOK
	for _, checkStatus := range checks {
		if checkStatus != "ok" {
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}

func (h *HealthHandler) performChecks(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	checks := make(map[string]string)
	var mu sync.Mutex
	var wg sync.WaitGroup

	record := func(name, status string) {
		mu.Lock()
		checks[name] = status
		mu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			h.log.Warn(ctx, "Readiness check failed for postgres", logger.Error(err))
			record("postgres", "unreachable")
			return
		}
		record("postgres", "ok")
	}()

	if h.redis != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.redis.Ping(ctx).Err(); err != nil {
				h.log.Warn(ctx, "Readiness check failed for redis", logger.Error(err))
				record("redis", "unreachable")
				return
			}
			record("redis", "ok")
		}()
	}

	wg.Wait()
	return checks
}
