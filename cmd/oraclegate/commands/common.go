package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/calibra-ai/oraclegate/pkg/calibration"
	"github.com/calibra-ai/oraclegate/pkg/config"
	"github.com/calibra-ai/oraclegate/pkg/lexicon"
	"github.com/calibra-ai/oraclegate/pkg/scoring"
)

// caseFile is the on-disk shape of a labeled calibration set.
type caseFile struct {
	Cases []calibration.LabeledCase `yaml:"cases"`
}

func loadConfig(cmd *cobra.Command) (*config.GateConfig, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil || path == "" {
		path, err = cmd.InheritedFlags().GetString("config")
		if err != nil {
			return nil, err
		}
	}
	return config.Parse(path)
}

func loadCases(path string) ([]calibration.LabeledCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case set: %w", err)
	}
	var f caseFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse case set: %w", err)
	}
	if len(f.Cases) == 0 {
		return nil, fmt.Errorf("case set %s contains no cases", path)
	}
	return f.Cases, nil
}

func buildScorer(cfg *config.GateConfig) *scoring.NonconformityScorer {
	booster := lexicon.NewBooster(cfg.Lexicon)
	return scoring.NewNonconformityScorer(booster, cfg.Gating.LexiconBoostEnabled)
}
