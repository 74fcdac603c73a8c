package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/bocado-ai/gate/internal/application/dto"
	appservice "github.com/bocado-ai/gate/internal/application/service"
)

func newCleanupCommand() *cobra.Command {
	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete stale records",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run every retention job once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cleanup(cmd, &dto.CleanupRequest{})
		},
	}

	manualCmd := &cobra.Command{
		Use:   "manual",
		Short: "Delete records of one collection older than a number of days",
		RunE: func(cmd *cobra.Command, _ []string) error {
			collection, _ := cmd.Flags().GetString("collection")
			days, _ := cmd.Flags().GetInt("days")
			return cleanup(cmd, &dto.CleanupRequest{Collection: collection, Days: days})
		},
	}
	manualCmd.Flags().String("collection", "", "rate_limits, maps_cache, history or plans")
	manualCmd.Flags().Int("days", 30, "age threshold in days (1-365)")
	_ = manualCmd.MarkFlagRequired("collection")

	cleanupCmd.AddCommand(runCmd, manualCmd)
	return cleanupCmd
}

func cleanup(cmd *cobra.Command, req *dto.CleanupRequest) error {
	return withAdmin(cmd, func(ctx context.Context, admin appservice.AdminAppService) error {
		results, err := admin.Cleanup(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), results)
	})
}
