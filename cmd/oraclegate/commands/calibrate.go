package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calibra-ai/oraclegate/pkg/calibration"
)

// NewCalibrateCmd runs NP calibration over a labeled case set and persists
// the result.
func NewCalibrateCmd() *cobra.Command {
	var (
		casesPath     string
		targetRecall  float64
		activate      bool
		allowUnstable bool
	)

	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Compute a skip threshold from a labeled case set",
		Long: `Scores every case with the production nonconformity scorer and selects the
largest threshold that preserves the target recall on the high-stakes
positives. The record is saved to the calibration store; pass --activate to
promote it to the serving threshold.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cases, err := loadCases(casesPath)
			if err != nil {
				return err
			}
			if targetRecall <= 0 {
				targetRecall = cfg.Calibration.TargetRecall
			}

			calibrator := calibration.NewCalibrator(buildScorer(cfg), cfg.Calibration.MinPositiveSamples)
			rec, err := calibrator.Calibrate(cases, targetRecall)
			if err != nil {
				return err
			}

			store, err := calibration.OpenStore(cfg.Calibration.StorePath)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Save(rec); err != nil {
				return err
			}
			fmt.Printf("Saved calibration %s: tau=%.4f, positives=%d, est. skip rate=%.2f%%\n",
				rec.ID, rec.Tau, rec.NPositiveSamples, rec.EstimatedSkipRate*100)
			if rec.StabilityWarning != "" {
				fmt.Printf("WARNING: %s\n", rec.StabilityWarning)
			}

			if !activate {
				return nil
			}
			if rec.StabilityWarning != "" && !allowUnstable {
				return fmt.Errorf("refusing to activate unstable calibration %s (use --allow-unstable to override)", rec.ID)
			}
			if err := store.Activate(rec.ID); err != nil {
				return err
			}
			fmt.Printf("Activated calibration %s\n", rec.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&casesPath, "cases", "", "Path to the labeled case set (YAML)")
	cmd.Flags().Float64Var(&targetRecall, "target-recall", 0, "Recall target on the positive class (default from config)")
	cmd.Flags().BoolVar(&activate, "activate", false, "Promote the new record to the serving threshold")
	cmd.Flags().BoolVar(&allowUnstable, "allow-unstable", false, "Allow activating a small-sample calibration")
	cmd.MarkFlagRequired("cases")
	return cmd
}
