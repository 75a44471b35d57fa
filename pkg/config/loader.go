package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/calibra-ai/oraclegate/pkg/observability/logging"
)

// Parse reads, defaults, and validates a YAML config file. There is no
// global cached config: callers own the parsed instance and inject it where
// needed.
func Parse(configPath string) (*GateConfig, error) {
	// Resolve symlinks to handle Kubernetes ConfigMap mounts.
	resolved, _ := filepath.EvalSymlinks(configPath)
	if resolved == "" {
		resolved = configPath
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &GateConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Infof("Config loaded: rules=%s (%d anti-skip, %d skip), lexicon=%s (%d languages)",
		cfg.Rules.Version, len(cfg.Rules.AntiSkip), len(cfg.Rules.Skip),
		cfg.Lexicon.Version, len(cfg.Lexicon.Languages))
	return cfg, nil
}
