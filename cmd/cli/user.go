package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praxisgrc/praxis/internal/application/dto"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Drive guarded transitions on protected users",
}

// transitionStatus runs one guarded status transition and prints the ledger
// outcome.
func transitionStatus(cmd *cobra.Command, userID, toStatus string) error {
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
	reason, _ := cmd.Flags().GetString("reason")
	idempotencyKey, _ := cmd.Flags().GetString("idempotency-key")

	resp, err := s.users.TransitionStatus(ctx, actor, userID, &dto.StatusTransitionRequest{
		ToStatus:       toStatus,
		Reason:         reason,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return err
	}
	printTransition(resp)
	return nil
}

func printTransition(resp *dto.TransitionResponse) {
	state := "recorded"
	if resp.Replayed {
		state = "replayed"
	}
	fmt.Printf("Transition %s: %s %s -> %s (record %s)\n",
		state, resp.Field, resp.FromValue, resp.ToValue, resp.ID)
}

var userCreateCmd = &cobra.Command{
	Use:   "create <email>",
	Short: "Register a new user in pending status",
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
		displayName, _ := cmd.Flags().GetString("display-name")
		role, _ := cmd.Flags().GetString("role")

		resp, err := s.users.Create(ctx, actor, &dto.CreateUserRequest{
			Email:       args[0],
			DisplayName: displayName,
			Role:        role,
		})
		if err != nil {
			return err
		}
		fmt.Printf("User created: %s  %s  status=%s role=%s\n", resp.ID, resp.Email, resp.Status, resp.Role)
		return nil
	},
}

var userApproveCmd = &cobra.Command{
	Use:   "approve <user-id>",
	Short: "Approve a pending user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transitionStatus(cmd, args[0], "approved")
	},
}

var userRejectCmd = &cobra.Command{
	Use:   "reject <user-id>",
	Short: "Reject a pending user (terminal, requires --reason)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transitionStatus(cmd, args[0], "rejected")
	},
}

var userSuspendCmd = &cobra.Command{
	Use:   "suspend <user-id>",
	Short: "Suspend an approved user (requires --reason)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transitionStatus(cmd, args[0], "suspended")
	},
}

var userReinstateCmd = &cobra.Command{
	Use:   "reinstate <user-id>",
	Short: "Reinstate a suspended user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return transitionStatus(cmd, args[0], "approved")
	},
}

var userSetRoleCmd = &cobra.Command{
	Use:   "set-role <user-id> <role>",
	Short: "Change a user's role through a guarded transition",
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
		reason, _ := cmd.Flags().GetString("reason")
		idempotencyKey, _ := cmd.Flags().GetString("idempotency-key")

		resp, err := s.users.TransitionRole(ctx, actor, args[0], &dto.RoleTransitionRequest{
			ToRole:         args[1],
			Reason:         reason,
			IdempotencyKey: idempotencyKey,
		})
		if err != nil {
			return err
		}
		printTransition(resp)
		return nil
	},
}

var userUpdateCmd = &cobra.Command{
	Use:   "update <user-id>",
	Short: "Rewrite a user's unprotected fields",
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
		email, _ := cmd.Flags().GetString("email")
		displayName, _ := cmd.Flags().GetString("display-name")

		resp, err := s.users.Update(ctx, actor, args[0], &dto.UpdateUserRequest{
			Email:       email,
			DisplayName: displayName,
		})
		if err != nil {
			return err
		}
		fmt.Printf("User updated: %s  %s\n", resp.ID, resp.Email)
		return nil
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Print one user",
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
		resp, err := s.users.Get(ctx, actor, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s  status=%s role=%s\n", resp.ID, resp.Email, resp.Status, resp.Role)
		return nil
	},
}

var userHistoryCmd = &cobra.Command{
	Use:   "history <user-id>",
	Short: "Print a user's full transition history, oldest first",
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
		records, err := s.users.History(ctx, actor, args[0])
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Printf("%s  %-6s  %-10s -> %-10s  by %s (%s)  %s\n",
				r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
				r.Field, r.FromValue, r.ToValue, r.ActorID, r.ActorRole, r.Reason)
		}
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{
		userApproveCmd, userRejectCmd, userSuspendCmd, userReinstateCmd, userSetRoleCmd,
	} {
		addActorFlags(cmd)
		cmd.Flags().String("reason", "", "Reason recorded in the ledger (required for destructive transitions)")
		cmd.Flags().String("idempotency-key", "", "Key making a retried transition return the prior outcome")
		userCmd.AddCommand(cmd)
	}
	addActorFlags(userCreateCmd)
	userCreateCmd.Flags().String("display-name", "", "Display name for the new user")
	userCreateCmd.Flags().String("role", "viewer", "Role granted to the new user")
	userCmd.AddCommand(userCreateCmd)
	addActorFlags(userUpdateCmd)
	userUpdateCmd.Flags().String("email", "", "New email (required)")
	userUpdateCmd.Flags().String("display-name", "", "New display name")
	userUpdateCmd.MarkFlagRequired("email")
	userCmd.AddCommand(userUpdateCmd)
	addActorFlags(userShowCmd)
	userCmd.AddCommand(userShowCmd)
	addActorFlags(userHistoryCmd)
	userCmd.AddCommand(userHistoryCmd)
	rootCmd.AddCommand(userCmd)
}
