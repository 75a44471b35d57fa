package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calibra-ai/oraclegate/pkg/calibration"
	"github.com/calibra-ai/oraclegate/pkg/lexicon"
	"github.com/calibra-ai/oraclegate/pkg/scoring"
)

// NewCompareCmd calibrates both scoring strategies over the same case set
// and reports their operating points side by side. The cost-based scorer is
// offline-only: the production cascade always runs the NP scorer.
func NewCompareCmd() *cobra.Command {
	var (
		casesPath string
		missCost  float64
		callCost  float64
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare NP and cost-based scoring on a labeled case set",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cases, err := loadCases(casesPath)
			if err != nil {
				return err
			}

			booster := lexicon.NewBooster(cfg.Lexicon)
			strategies := []scoring.Strategy{
				scoring.NewNonconformityScorer(booster, cfg.Gating.LexiconBoostEnabled),
				scoring.NewCostBasedScorer(booster, cfg.Gating.LexiconBoostEnabled, missCost, callCost),
			}

			fmt.Printf("%-18s %8s %10s %12s %10s\n", "strategy", "tau", "positives", "skip-rate", "warning")
			for _, strat := range strategies {
				calibrator := calibration.NewCalibrator(strat, cfg.Calibration.MinPositiveSamples)
				rec, err := calibrator.Calibrate(cases, cfg.Calibration.TargetRecall)
				if err != nil {
					return fmt.Errorf("%s: %w", strat.Name(), err)
				}
				warn := "-"
				if rec.StabilityWarning != "" {
					warn = "unstable"
				}
				fmt.Printf("%-18s %8.4f %10d %11.2f%% %10s\n",
					strat.Name(), rec.Tau, rec.NPositiveSamples, rec.EstimatedSkipRate*100, warn)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&casesPath, "cases", "", "Path to the labeled case set (YAML)")
	cmd.Flags().Float64Var(&missCost, "miss-cost", 10, "Relative cost of skipping a true high-stakes case")
	cmd.Flags().Float64Var(&callCost, "call-cost", 1, "Relative cost of one oracle call")
	cmd.MarkFlagRequired("cases")
	return cmd
}
