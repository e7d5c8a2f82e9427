// Package cli implements the facturactl operator commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"facturaia/internal/config"
	"facturaia/internal/logger"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "facturactl",
	Short: "Operator tooling for the FacturaIA backend",
	Long: `facturactl seeds a fresh database, ingests invoice PDFs without the
HTTP server and reports which LLM providers are reachable.

Configuration is read from the same FACTURAIA_* environment variables and
.env file as the server.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr}); err != nil {
			return err
		}
		loaded = cfg
		return nil
	},
}

// loaded is the configuration read by the root pre-run hook.
var loaded *config.Config

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cli")
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(seedCmd, ingestCmd, aiStatusCmd)
}
