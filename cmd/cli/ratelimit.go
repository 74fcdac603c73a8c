package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bocado-ai/gate/internal/application/dto"
	appservice "github.com/bocado-ai/gate/internal/application/service"
)

func newRateLimitCommand() *cobra.Command {
	rlCmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Inspect or reset rate-limit records",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the record of an identity under a policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy, identity, err := policyFlags(cmd)
			if err != nil {
				return err
			}
			return withAdmin(cmd, func(ctx context.Context, admin appservice.AdminAppService) error {
				st, err := admin.LimitStatus(ctx, policy, identity)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), st)
			})
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the record of an identity under a policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			policy, identity, err := policyFlags(cmd)
			if err != nil {
				return err
			}
			return withAdmin(cmd, func(ctx context.Context, admin appservice.AdminAppService) error {
				if err := admin.ResetLimit(ctx, &dto.RateLimitResetRequest{Policy: policy, Identity: identity}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "reset %s for %s\n", policy, identity)
				return nil
			})
		},
	}

	for _, c := range []*cobra.Command{statusCmd, resetCmd} {
		c.Flags().String("policy", "", "policy name, e.g. recommendations")
		c.Flags().String("identity", "", "user id or client IP")
	}
	rlCmd.AddCommand(statusCmd, resetCmd)
	return rlCmd
}

func policyFlags(cmd *cobra.Command) (string, string, error) {
	policy, _ := cmd.Flags().GetString("policy")
	identity, _ := cmd.Flags().GetString("identity")
	if policy == "" || identity == "" {
		return "", "", fmt.Errorf("policy and identity are required")
	}
	return policy, identity, nil
}
