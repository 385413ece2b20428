package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var tenantCmd = &cobra.Command{
	Use:   "tenant",
	Short: "Manage tenants and their governance policies",
}

var tenantCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Provision a new tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := wire(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		tenant, err := s.tenants.Create(ctx, actor, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Tenant created: %s (%s)\n", tenant.ID, tenant.Name)
		return nil
	},
}

var tenantShowCmd = &cobra.Command{
	Use:   "show <tenant-id>",
	Short: "Print one tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := wire(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		t, err := s.tenants.Get(ctx, actor, args[0])
		if err != nil {
			return err
		}
		policy := string(t.CombinationPolicy)
		if policy == "" {
			policy = "(platform default)"
		}
		fmt.Printf("%s  %s  status=%s combination=%s\n", t.ID, t.Name, t.Status, policy)
		return nil
	},
}

var tenantListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tenants",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := wire(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		tenants, err := s.tenants.List(ctx, actor, limit, offset)
		if err != nil {
			return err
		}
		for _, t := range tenants {
			policy := string(t.CombinationPolicy)
			if policy == "" {
				policy = "(platform default)"
			}
			fmt.Printf("%s  %-30s  combination=%s\n", t.ID, t.Name, policy)
		}
		return nil
	},
}

var tenantSetPolicyCmd = &cobra.Command{
	Use:   "set-policy <tenant-id> <max|diminishing|->",
	Short: "Override how a tenant combines control effectiveness",
	Long: `Sets the per-tenant combination policy used by residual recomputation.
Pass "-" to clear the override and fall back to the platform default.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		s, err := wire(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		actor, err := actorFromFlags(cmd)
		if err != nil {
			return err
		}
		policy := args[1]
		if policy == "-" {
			policy = ""
		}
		if err := s.tenants.SetCombinationPolicy(ctx, actor, args[0], policy); err != nil {
			return err
		}
		fmt.Println("Combination policy updated")
		return nil
	},
}

func init() {
	tenantListCmd.Flags().Int("limit", 100, "Maximum tenants to list")
	tenantListCmd.Flags().Int("offset", 0, "Listing offset")

	for _, cmd := range []*cobra.Command{tenantCreateCmd, tenantShowCmd, tenantListCmd, tenantSetPolicyCmd} {
		addActorFlags(cmd)
		tenantCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(tenantCmd)
}
