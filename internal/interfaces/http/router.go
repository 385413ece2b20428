// Package http assembles the read-only HTTP surface of the governance layer.
// All writes flow through the application services directly; this surface
// only exposes the residual read model, the compliance ledger view, and the
// operational endpoints.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/praxisgrc/praxis/internal/config"
	"github.com/praxisgrc/praxis/internal/interfaces/http/handlers"
	"github.com/praxisgrc/praxis/pkg/logger"
)

// Router wires the handlers into a gin engine and owns the HTTP server
// lifecycle.
type Router struct {
	engine         *gin.Engine
	config         *config.Config
	logger         logger.Logger
	healthHandler  *handlers.HealthHandler
	riskHandler    *handlers.RiskHandler
	auditHandler   *handlers.AuditHandler
	authMiddleware gin.HandlerFunc
	server         *http.Server
}

// NewRouter creates a new Router.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	healthHandler *handlers.HealthHandler,
	riskHandler *handlers.RiskHandler,
	auditHandler *handlers.AuditHandler,
	authMiddleware gin.HandlerFunc,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	return &Router{
		engine:         engine,
		config:         cfg,
		logger:         log,
		healthHandler:  healthHandler,
		riskHandler:    riskHandler,
		auditHandler:   auditHandler,
		authMiddleware: authMiddleware,
	}
}

// SetupRoutes registers middleware and routes.
func (r *Router) SetupRoutes() {
	r.engine.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.engine.Use(cors.New(corsConfig))

	r.engine.GET("/health/live", r.healthHandler.LivenessCheck)
	r.engine.GET("/health/ready", r.healthHandler.ReadinessCheck)

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if r.config.Server.PprofEnabled {
		pprof.Register(r.engine)
	}

	v1 := r.engine.Group("/v1")
	v1.Use(r.authMiddleware)
	{
		v1.GET("/risks/:risk_id/residual", r.riskHandler.GetResidual)
		v1.GET("/audit/transitions", r.auditHandler.ListTransitions)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "the requested resource was not found",
		})
	})
}

// Start runs the HTTP server until Stop is called or listening fails.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    time.Duration(r.config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(r.config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	r.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", addr))

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the HTTP server down, draining in-flight requests.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.logger.Info(ctx, "Stopping HTTP server")
	return r.server.Shutdown(ctx)
}

// Engine exposes the underlying gin engine. Used by tests.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
