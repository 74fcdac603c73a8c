// Package cli implements bocado-admin, the operator tool for retention sweeps
// and rate-limit maintenance. It talks to the same stores as the server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bocado-ai/gate/internal/app"
	appservice "github.com/bocado-ai/gate/internal/application/service"
	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/internal/infrastructure/monitoring"
)

// NewRootCommand builds the bocado-admin command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bocado-admin",
		Short: "Administrative CLI for the Bocado gate",
		Long: `bocado-admin runs maintenance tasks against the gate's stores:
retention cleanup and inspection or reset of rate-limit records.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", os.Getenv("BOCADO_GATE_CONFIG"), "path to the YAML config file")

	root.AddCommand(newCleanupCommand(), newRateLimitCommand())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withAdmin loads the configuration, connects to the stores and runs fn
// against the admin service built on them.
func withAdmin(cmd *cobra.Command, fn func(ctx context.Context, admin appservice.AdminAppService) error) error {
	path, _ := cmd.Flags().GetString("config")
	config.LoadDotEnv()
	cfg, err := config.NewLoader(path).Load()
	if err != nil {
		return err
	}

	log, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	infra, err := app.NewInfrastructure(ctx, cfg, log, monitoring.NewMetrics())
	if err != nil {
		return err
	}
	defer infra.Close()

	return fn(ctx, appservice.NewAdminAppService(infra.Sweeper, infra.Limiter, log))
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
