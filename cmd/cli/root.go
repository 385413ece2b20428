// Package cli implements the praxis-admin command-line tool: tenant
// provisioning, combination-policy management, guarded user transitions, and
// compliance reads of the transition ledger.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	vault "github.com/hashicorp/vault/api"
	"github.com/spf13/cobra"

	appservice "github.com/praxisgrc/praxis/internal/application/service"
	"github.com/praxisgrc/praxis/internal/config"
	"github.com/praxisgrc/praxis/internal/domain/models"
	domainservice "github.com/praxisgrc/praxis/internal/domain/service"
	"github.com/praxisgrc/praxis/internal/infrastructure/audit"
	"github.com/praxisgrc/praxis/internal/infrastructure/monitoring"
	"github.com/praxisgrc/praxis/internal/infrastructure/persistence/postgres"
	"github.com/praxisgrc/praxis/internal/infrastructure/policy"
	"github.com/praxisgrc/praxis/pkg/constants"
	"github.com/praxisgrc/praxis/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "praxis-admin",
	Short: "Administer the Praxis governance consistency layer.",
	Long: `praxis-admin performs administrative tasks against the governance
layer: provisioning tenants, setting per-tenant combination policies, driving
guarded user transitions, and reading the transition ledger for compliance.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// services is the wired application layer the commands run against.
type services struct {
	cfg      *config.Config
	log      logger.Logger
	tenants  appservice.TenantAppService
	users    appservice.UserAppService
	risks    appservice.RiskAppService
	controls appservice.ControlAppService
	close    func()
}

// wire builds the full application stack from configuration. The CLI talks
// to the database directly; it never goes through the HTTP surface.
func wire(ctx context.Context) (*services, error) {
	log, err := monitoring.NewZapLogger(&config.LogConfig{Level: "warn"})
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(log)
	if err != nil {
		return nil, err
	}

	db, err := postgres.NewConnection(ctx, &cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(db); err != nil {
		return nil, err
	}

	tenantRepo := postgres.NewTenantRepository(db, log)
	riskRepo := postgres.NewRiskRepository(db, log)
	controlRepo := postgres.NewControlRepository(db, log)
	userRepo := postgres.NewUserRepository(db, log)
	sequenceRepo := postgres.NewSequenceRepository(db, log)
	transitionRepo := postgres.NewTransitionRepository(db, log)
	txManager := postgres.NewTxManager(db)

	metrics := domainservice.NoopMetrics{}
	policyProvider := policy.NewTenantPolicyProvider(
		tenantRepo,
		func() constants.CombinationPolicy {
			return constants.CombinationPolicy(cfg.Governance.CombinationPolicy)
		},
		0,
		log,
	)
	allocator := domainservice.NewSequenceAllocator(sequenceRepo, func() domainservice.AllocatorOptions {
		return domainservice.AllocatorOptions{
			MaxAttempts: cfg.Governance.AllocatorMaxAttempts,
			CodePadding: cfg.Governance.CodePadding,
		}
	}, log, metrics)
	recompute := domainservice.NewRecomputeService(riskRepo, controlRepo, policyProvider, log, metrics)
	guard := domainservice.NewTransitionGuard()

	// Ledger signing key: Vault when enabled, static config secret otherwise.
	var keyProvider audit.SigningKeyProvider
	if cfg.Vault.Enabled {
		vaultClient, err := newVaultClient(&cfg.Vault)
		if err != nil {
			return nil, fmt.Errorf("vault client: %w", err)
		}
		keyProvider = audit.NewVaultKeyProvider(vaultClient, cfg.Vault, log)
	} else {
		static, err := audit.NewStaticKeyProvider(cfg.Audit.SigningSecret)
		if err != nil {
			return nil, fmt.Errorf("ledger signing secret is not configured: %w", err)
		}
		keyProvider = static
	}
	signer := audit.NewLedgerSigner(keyProvider)

	// Post-commit export of committed transitions, when a broker is configured.
	var publisher appservice.TransitionPublisher
	var exporter *audit.TransitionExporter
	if cfg.Kafka.Enabled {
		exporter = audit.NewTransitionExporter(cfg.Kafka, log)
		publisher = exporter
	}

	s := &services{
		cfg:      cfg,
		log:      log,
		tenants:  appservice.NewTenantAppService(tenantRepo, policyProvider, log),
		users:    appservice.NewUserAppService(txManager, userRepo, transitionRepo, guard, signer, publisher, log, metrics),
		risks:    appservice.NewRiskAppService(txManager, riskRepo, allocator, recompute, nil, log),
		controls: appservice.NewControlAppService(txManager, controlRepo, riskRepo, allocator, recompute, nil, log),
	}
	s.close = func() {
		if exporter != nil {
			exporter.Close()
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return s, nil
}

func newVaultClient(cfg *config.VaultConfig) (*vault.Client, error) {
	vaultCfg := vault.DefaultConfig()
	vaultCfg.Address = cfg.Address
	client, err := vault.NewClient(vaultCfg)
	if err != nil {
		return nil, err
	}
	client.SetToken(cfg.Token)
	return client, nil
}

// actorFromFlags builds the acting identity from the shared actor flags.
func actorFromFlags(cmd *cobra.Command) (models.Actor, error) {
	rawID, _ := cmd.Flags().GetString("actor-id")
	rawRole, _ := cmd.Flags().GetString("actor-role")

	id, err := uuid.Parse(rawID)
	if err != nil {
		return models.Actor{}, fmt.Errorf("actor-id must be a UUID: %w", err)
	}
	role := constants.Role(rawRole)
	if !role.Valid() {
		return models.Actor{}, fmt.Errorf("unknown actor-role %q", rawRole)
	}

	var tenantID uuid.UUID
	if raw, _ := cmd.Flags().GetString("tenant"); raw != "" {
		tenantID, err = uuid.Parse(raw)
		if err != nil {
			return models.Actor{}, fmt.Errorf("tenant must be a UUID: %w", err)
		}
	}
	return models.Actor{ID: id, TenantID: tenantID, Role: role}, nil
}

func addActorFlags(cmd *cobra.Command) {
	cmd.Flags().String("actor-id", "", "UUID of the acting identity (required)")
	cmd.Flags().String("actor-role", "operator", "Role of the acting identity")
	cmd.Flags().String("tenant", "", "Tenant UUID the action is scoped to")
	cmd.MarkFlagRequired("actor-id")
}
