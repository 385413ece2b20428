package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praxisgrc/praxis/internal/application/dto"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Manage mitigating controls",
}

var controlCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Register a new control with an allocated code",
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
		dimension, _ := cmd.Flags().GetString("dimension")
		description, _ := cmd.Flags().GetString("description")

		resp, err := s.controls.Create(ctx, actor, &dto.CreateControlRequest{
			Name:            args[0],
			Description:     description,
			TargetDimension: dimension,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Control created: %s  %s  targets=%s\n", resp.Code, resp.ID, resp.TargetDimension)
		return nil
	},
}

var controlShowCmd = &cobra.Command{
	Use:   "show <control-id>",
	Short: "Print one control",
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
		c, err := s.controls.Get(ctx, actor, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s  targets=%s\n  scores: design=%d implementation=%d monitoring=%d evaluation=%d\n  effectiveness=%.2f fully_scored=%t\n",
			c.Code, c.Name, c.TargetDimension,
			c.DesignScore, c.ImplementationScore, c.MonitoringScore, c.EvaluationScore,
			c.Effectiveness, c.FullyScored)
		return nil
	},
}

var controlUpdateCmd = &cobra.Command{
	Use:   "update <control-id>",
	Short: "Rewrite a control's descriptive fields",
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
		name, _ := cmd.Flags().GetString("name")
		dimension, _ := cmd.Flags().GetString("dimension")
		description, _ := cmd.Flags().GetString("description")

		resp, err := s.controls.Update(ctx, actor, args[0], &dto.UpdateControlRequest{
			Name:            name,
			Description:     description,
			TargetDimension: dimension,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Control %s updated: %s targets=%s\n", resp.Code, resp.Name, resp.TargetDimension)
		return nil
	},
}

var controlAssessCmd = &cobra.Command{
	Use:   "assess <control-id>",
	Short: "Record a full assessment; linked risks recompute",
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
		design, _ := cmd.Flags().GetInt("design")
		implementation, _ := cmd.Flags().GetInt("implementation")
		monitoring, _ := cmd.Flags().GetInt("monitoring")
		evaluation, _ := cmd.Flags().GetInt("evaluation")

		resp, err := s.controls.Assess(ctx, actor, args[0], &dto.AssessControlRequest{
			DesignScore:         design,
			ImplementationScore: implementation,
			MonitoringScore:     monitoring,
			EvaluationScore:     evaluation,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Control %s assessed: effectiveness %.2f\n", resp.Code, resp.Effectiveness)
		return nil
	},
}

var controlLinkCmd = &cobra.Command{
	Use:   "link <control-id> <risk-id>",
	Short: "Attach a control to a risk; the risk recomputes",
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
		if err := s.controls.Link(ctx, actor, args[0], &dto.LinkControlRequest{RiskID: args[1]}); err != nil {
			return err
		}
		fmt.Println("Control linked")
		return nil
	},
}

var controlUnlinkCmd = &cobra.Command{
	Use:   "unlink <control-id> <risk-id>",
	Short: "Detach a control from a risk; the risk recomputes",
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
		if err := s.controls.Unlink(ctx, actor, args[0], args[1]); err != nil {
			return err
		}
		fmt.Println("Control unlinked")
		return nil
	},
}

var controlDeleteCmd = &cobra.Command{
	Use:   "delete <control-id>",
	Short: "Tombstone a control; its code stays reserved",
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
		if err := s.controls.Delete(ctx, actor, args[0]); err != nil {
			return err
		}
		fmt.Println("Control tombstoned")
		return nil
	},
}

func init() {
	controlCreateCmd.Flags().String("dimension", "likelihood", "Target dimension: likelihood or impact")
	controlCreateCmd.Flags().String("description", "", "Control description")
	controlAssessCmd.Flags().Int("design", 0, "Design score, 0..3")
	controlAssessCmd.Flags().Int("implementation", 0, "Implementation score, 0..3")
	controlAssessCmd.Flags().Int("monitoring", 0, "Monitoring score, 0..3")
	controlAssessCmd.Flags().Int("evaluation", 0, "Evaluation score, 0..3")
	controlUpdateCmd.Flags().String("name", "", "Control name (required)")
	controlUpdateCmd.Flags().String("dimension", "likelihood", "Target dimension: likelihood or impact")
	controlUpdateCmd.Flags().String("description", "", "Control description")
	controlUpdateCmd.MarkFlagRequired("name")

	for _, cmd := range []*cobra.Command{
		controlCreateCmd, controlShowCmd, controlUpdateCmd, controlAssessCmd,
		controlLinkCmd, controlUnlinkCmd, controlDeleteCmd,
	} {
		addActorFlags(cmd)
		controlCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(controlCmd)
}
