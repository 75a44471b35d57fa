package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calibra-ai/oraclegate/cmd/oraclegate/commands"
	"github.com/calibra-ai/oraclegate/pkg/observability/logging"
)

var (
	// Version information (set by build flags)
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	if _, err := logging.InitLoggerFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
	}

	rootCmd := &cobra.Command{
		Use:   "oraclegate",
		Short: "Admission-control tooling for the oracle gating cascade",
		Long: `oraclegate manages the offline side of the oracle admission-control
cascade: calibrating the skip threshold from labeled cases, comparing scoring
strategies, validating rule tables, and smoke-testing single decisions.

Common workflows:
  oraclegate validate                      # Validate config and rule tables
  oraclegate calibrate --cases cases.yaml  # Run NP calibration and store it
  oraclegate compare --cases cases.yaml    # Compare NP vs cost-based scoring
  oraclegate decide --text "hi there"      # One-shot decision for smoke tests`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	}

	rootCmd.PersistentFlags().StringP("config", "c", "config/config.yaml", "Path to configuration file")

	rootCmd.AddCommand(commands.NewCalibrateCmd())
	rootCmd.AddCommand(commands.NewCompareCmd())
	rootCmd.AddCommand(commands.NewValidateCmd())
	rootCmd.AddCommand(commands.NewDecideCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
