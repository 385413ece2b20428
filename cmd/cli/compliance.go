package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praxisgrc/praxis/internal/application/dto"
	appservice "github.com/praxisgrc/praxis/internal/application/service"
	"github.com/praxisgrc/praxis/internal/config"
	"github.com/praxisgrc/praxis/internal/infrastructure/monitoring"
	"github.com/praxisgrc/praxis/internal/infrastructure/persistence/postgres"
)

var complianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "Compliance reads of the transition ledger",
}

var complianceTransitionsCmd = &cobra.Command{
	Use:   "transitions",
	Short: "List transition ledger records, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		log, err := monitoring.NewZapLogger(&config.LogConfig{Level: "warn"})
		if err != nil {
			return err
		}
		cfg, err := config.LoadConfig(log)
		if err != nil {
			return err
		}

		pool, err := postgres.NewLedgerPool(ctx, cfg.Database.GetDSN())
		if err != nil {
			return fmt.Errorf("unable to connect to database: %w", err)
		}
		defer pool.Close()

		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}

		query := &dto.LedgerQuery{}
		query.EntityID, _ = cmd.Flags().GetString("entity")
		query.ActorID, _ = cmd.Flags().GetString("by-actor")
		query.Since, _ = cmd.Flags().GetString("since")
		query.Until, _ = cmd.Flags().GetString("until")
		query.Limit, _ = cmd.Flags().GetInt("limit")
		query.Offset, _ = cmd.Flags().GetInt("offset")

		audit := appservice.NewAuditAppService(postgres.NewLedgerReader(pool), log)

		var page *dto.LedgerPage
		if target, _ := cmd.Flags().GetString("of-tenant"); target != "" {
			page, err = audit.QueryTenantLedger(ctx, actor, target, query)
		} else {
			page, err = audit.QueryLedger(ctx, actor, query)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Ledger records %d-%d of %d:\n", page.Offset+1, page.Offset+len(page.Records), page.Total)
		for _, r := range page.Records {
			fmt.Printf("%s  %s  entity=%s  %-6s  %-10s -> %-10s  by %s (%s)\n",
				r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				r.ID, r.EntityID, r.Field, r.FromValue, r.ToValue, r.ActorID, r.ActorRole)
		}
		return nil
	},
}

func init() {
	addActorFlags(complianceTransitionsCmd)
	complianceTransitionsCmd.Flags().String("of-tenant", "", "Read a foreign tenant's ledger (operator only)")
	complianceTransitionsCmd.Flags().String("entity", "", "Filter by subject entity UUID")
	complianceTransitionsCmd.Flags().String("by-actor", "", "Filter by acting identity UUID")
	complianceTransitionsCmd.Flags().String("since", "", "Lower bound, RFC3339")
	complianceTransitionsCmd.Flags().String("until", "", "Upper bound, RFC3339")
	complianceTransitionsCmd.Flags().Int("limit", 100, "Maximum records per page")
	complianceTransitionsCmd.Flags().Int("offset", 0, "Paging offset")

	complianceCmd.AddCommand(complianceTransitionsCmd)
	rootCmd.AddCommand(complianceCmd)
}
