package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praxisgrc/praxis/internal/application/dto"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Manage the risk register",
}

var riskCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Open a new risk with an allocated code",
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
		owner, _ := cmd.Flags().GetString("owner")
		likelihood, _ := cmd.Flags().GetInt("likelihood")
		impact, _ := cmd.Flags().GetInt("impact")
		description, _ := cmd.Flags().GetString("description")

		resp, err := s.risks.Create(ctx, actor, &dto.CreateRiskRequest{
			Title:              args[0],
			Description:        description,
			OwnerID:            owner,
			InherentLikelihood: likelihood,
			InherentImpact:     impact,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Risk created: %s  %s  inherent=%dx%d\n",
			resp.Code, resp.ID, resp.InherentLikelihood, resp.InherentImpact)
		return nil
	},
}

var riskShowCmd = &cobra.Command{
	Use:   "show <risk-id>",
	Short: "Print one risk",
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
		r, err := s.risks.Get(ctx, actor, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s\n  owner=%s status=%s\n  inherent=%dx%d residual=%dx%d (%d)\n",
			r.Code, r.Title, r.OwnerID, r.Status,
			r.InherentLikelihood, r.InherentImpact,
			r.ResidualLikelihood, r.ResidualImpact, r.ResidualScore)
		return nil
	},
}

var riskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tenant's risk register",
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

		risks, err := s.risks.List(ctx, actor, limit, offset)
		if err != nil {
			return err
		}
		for _, r := range risks {
			fmt.Printf("%-12s  %-40s  inherent=%dx%d  residual=%dx%d (%d)  %s\n",
				r.Code, r.Title,
				r.InherentLikelihood, r.InherentImpact,
				r.ResidualLikelihood, r.ResidualImpact, r.ResidualScore,
				r.Status)
		}
		return nil
	},
}

var riskUpdateCmd = &cobra.Command{
	Use:   "update <risk-id>",
	Short: "Rewrite a risk's owner-editable fields and recompute its residual",
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
		title, _ := cmd.Flags().GetString("title")
		owner, _ := cmd.Flags().GetString("owner")
		likelihood, _ := cmd.Flags().GetInt("likelihood")
		impact, _ := cmd.Flags().GetInt("impact")
		description, _ := cmd.Flags().GetString("description")

		resp, err := s.risks.UpdateInherent(ctx, actor, args[0], &dto.UpdateInherentRequest{
			Title:              title,
			Description:        description,
			OwnerID:            owner,
			InherentLikelihood: likelihood,
			InherentImpact:     impact,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Risk %s updated: inherent=%dx%d residual=%dx%d (%d)\n",
			resp.Code, resp.InherentLikelihood, resp.InherentImpact,
			resp.ResidualLikelihood, resp.ResidualImpact, resp.ResidualScore)
		return nil
	},
}

var riskSetStatusCmd = &cobra.Command{
	Use:   "set-status <risk-id> <open|mitigated|retired>",
	Short: "Move a risk's lifecycle status",
	Args:  cobra.ExactArgs(2),
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
		if err := s.risks.UpdateStatus(ctx, actor, args[0], &dto.UpdateRiskStatusRequest{
			Status: args[1],
		}); err != nil {
			return err
		}
		fmt.Printf("Risk %s is now %s\n", args[0], args[1])
		return nil
	},
}

var riskResidualCmd = &cobra.Command{
	Use:   "residual <risk-id>",
	Short: "Print the residual snapshot of one risk",
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
		resp, err := s.risks.GetResidual(ctx, actor, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Residual %dx%d = %d (recomputed %s)\n",
			resp.Likelihood, resp.Impact, resp.Score, resp.RecomputedAt.Format("2006-01-02T15:04:05Z07:00"))
		return nil
	},
}

func init() {
	riskCreateCmd.Flags().String("owner", "", "Owner UUID (required)")
	riskCreateCmd.Flags().Int("likelihood", 1, "Inherent likelihood, 1..6")
	riskCreateCmd.Flags().Int("impact", 1, "Inherent impact, 1..6")
	riskCreateCmd.Flags().String("description", "", "Risk description")
	riskCreateCmd.MarkFlagRequired("owner")
	riskListCmd.Flags().Int("limit", 100, "Maximum risks to list")
	riskListCmd.Flags().Int("offset", 0, "Listing offset")
	riskUpdateCmd.Flags().String("title", "", "Risk title (required)")
	riskUpdateCmd.Flags().String("owner", "", "Owner UUID (required)")
	riskUpdateCmd.Flags().Int("likelihood", 1, "Inherent likelihood, 1..6")
	riskUpdateCmd.Flags().Int("impact", 1, "Inherent impact, 1..6")
	riskUpdateCmd.Flags().String("description", "", "Risk description")
	riskUpdateCmd.MarkFlagRequired("title")
	riskUpdateCmd.MarkFlagRequired("owner")

	for _, cmd := range []*cobra.Command{riskCreateCmd, riskShowCmd, riskListCmd, riskUpdateCmd, riskSetStatusCmd, riskResidualCmd} {
		addActorFlags(cmd)
		riskCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(riskCmd)
}
