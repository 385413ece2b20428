package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	appservice "github.com/praxisgrc/praxis/internal/application/service"
	"github.com/praxisgrc/praxis/internal/config"
	domainservice "github.com/praxisgrc/praxis/internal/domain/service"
	"github.com/praxisgrc/praxis/internal/infrastructure/monitoring"
	"github.com/praxisgrc/praxis/internal/infrastructure/persistence/postgres"
	redisstore "github.com/praxisgrc/praxis/internal/infrastructure/persistence/redis"
	"github.com/praxisgrc/praxis/internal/infrastructure/policy"
	"github.com/praxisgrc/praxis/internal/interfaces/http"
	"github.com/praxisgrc/praxis/internal/interfaces/http/handlers"
	"github.com/praxisgrc/praxis/internal/interfaces/http/middleware"
	"github.com/praxisgrc/praxis/pkg/constants"
)

func main() {
	startupLogger, _ := monitoring.NewZapLogger(&config.LogConfig{Level: "info"})

	cfg, err := config.LoadConfig(startupLogger)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	ctx := context.Background()

	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize tracing", err)
	}
	defer tracing.Shutdown(ctx)

	db, err := postgres.NewConnection(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to connect to database", err)
	}
	if err := postgres.Migrate(db); err != nil {
		appLogger.Fatal(ctx, "Failed to migrate schema", err)
	}

	ledgerPool, err := postgres.NewLedgerPool(ctx, cfg.Database.GetDSN())
	if err != nil {
		appLogger.Fatal(ctx, "Failed to open ledger read pool", err)
	}
	defer ledgerPool.Close()

	metrics := monitoring.NewMetrics()
	watcher := config.NewWatcher(cfg.Governance, appLogger)

	// Repositories.
	tenantRepo := postgres.NewTenantRepository(db, appLogger)
	riskRepo := postgres.NewRiskRepository(db, appLogger)
	controlRepo := postgres.NewControlRepository(db, appLogger)
	sequenceRepo := postgres.NewSequenceRepository(db, appLogger)
	ledgerReader := postgres.NewLedgerReader(ledgerPool)
	txManager := postgres.NewTxManager(db)

	// Optional residual cache.
	var residualCache appservice.ResidualCache
	var redisClient goredis.UniversalClient
	if cfg.Redis.Enabled {
		client, err := redisstore.NewClient(ctx, &cfg.Redis, appLogger)
		if err != nil {
			appLogger.Fatal(ctx, "Failed to connect to Redis", err)
		}
		defer client.Close()
		redisClient = client
		residualCache = redisstore.NewResidualCache(client, time.Duration(cfg.Redis.ResidualTTL)*time.Second, appLogger, metrics)
	}

	// Domain services. Allocator settings and the default combination policy
	// follow the config watcher, so both are hot-reloadable.
	policyProvider := policy.NewTenantPolicyProvider(
		tenantRepo,
		func() constants.CombinationPolicy {
			return constants.CombinationPolicy(watcher.Governance().CombinationPolicy)
		},
		time.Duration(cfg.Governance.PolicyCacheTTL)*time.Second,
		appLogger,
	)
	allocator := domainservice.NewSequenceAllocator(sequenceRepo, func() domainservice.AllocatorOptions {
		gov := watcher.Governance()
		return domainservice.AllocatorOptions{
			MaxAttempts: gov.AllocatorMaxAttempts,
			CodePadding: gov.CodePadding,
		}
	}, appLogger, metrics)
	recompute := domainservice.NewRecomputeService(riskRepo, controlRepo, policyProvider, appLogger, metrics)

	// Application services behind the read-only HTTP surface. Write paths
	// run through the praxis-admin CLI.
	riskSvc := appservice.NewRiskAppService(txManager, riskRepo, allocator, recompute, residualCache, appLogger)
	auditSvc := appservice.NewAuditAppService(ledgerReader, appLogger)

	// Read-only HTTP surface.
	healthHandler := handlers.NewHealthHandler(db, redisClient, appLogger)
	riskHandler := handlers.NewRiskHandler(riskSvc, appLogger)
	auditHandler := handlers.NewAuditHandler(auditSvc, appLogger)
	router := http.NewRouter(cfg, appLogger,
		healthHandler, riskHandler, auditHandler,
		middleware.RequireActor(cfg.Auth.JWTSecret, appLogger),
	)

	go func() {
		if err := router.Start(); err != nil {
			appLogger.Fatal(ctx, "HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info(ctx, "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := router.Stop(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP server shutdown failed", err)
	}
}
