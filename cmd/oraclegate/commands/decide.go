package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calibra-ai/oraclegate/pkg/cache"
	"github.com/calibra-ai/oraclegate/pkg/calibration"
	"github.com/calibra-ai/oraclegate/pkg/config"
	"github.com/calibra-ai/oraclegate/pkg/gating"
	"github.com/calibra-ai/oraclegate/pkg/rules"
	"github.com/calibra-ai/oraclegate/pkg/signal"
)

// NewDecideCmd runs one message through a freshly constructed cascade. It is
// a smoke-testing tool: the signal is supplied as JSON instead of coming
// from the fast classifier.
func NewDecideCmd() *cobra.Command {
	var (
		text       string
		language   string
		signalJSON string
	)

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Run a single decision through the cascade",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			sig := &signal.Signal{
				CategoryScores: map[string]float64{signal.CategoryExistential: 0},
			}
			if signalJSON != "" {
				if err := json.Unmarshal([]byte(signalJSON), sig); err != nil {
					return fmt.Errorf("parse --signal: %w", err)
				}
			}

			orch, err := buildOrchestrator(cfg)
			if err != nil {
				return err
			}

			decision, err := orch.Decide(text, language, sig)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(decision, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Message text")
	cmd.Flags().StringVar(&language, "language", "en", "Language tag")
	cmd.Flags().StringVar(&signalJSON, "signal", "", "Fast-classifier signal as JSON")
	cmd.MarkFlagRequired("text")
	return cmd
}

func buildOrchestrator(cfg *config.GateConfig) (*gating.Orchestrator, error) {
	table := cfg.Rules
	if len(table.Skip) == 0 {
		table = rules.DefaultRuleTable()
	}
	ruleset, err := rules.NewHardSkipRuleSet(table)
	if err != nil {
		return nil, err
	}

	var rec *calibration.Record
	if cfg.Calibration.StorePath != "" {
		store, err := calibration.OpenStore(cfg.Calibration.StorePath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		rec, err = store.Active()
		if err != nil && !errors.Is(err, calibration.ErrNoActiveRecord) {
			return nil, err
		}
	}

	verdictCache := cache.New(cache.Options{
		MaxEntries: cfg.Cache.MaxEntries,
		TTL:        cfg.Cache.TTL(),
		Policy:     cache.PolicyFromName(cfg.Cache.EvictionPolicy),
	})

	return gating.New(cfg.Gating, rec, verdictCache, ruleset, buildScorer(cfg))
}
