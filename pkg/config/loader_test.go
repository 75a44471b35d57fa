package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
gating:
  cache_enabled: true
  hard_skip_enabled: true
  lexicon_boost_enabled: true
  fallback_on_invalid_score: true
  default_threshold: 0.7
cache:
  max_entries: 500
  ttl_seconds: 1800
  eviction_policy: lru
calibration:
  store_path: /tmp/calibration.db
  target_recall: 0.9
rules:
  version: "2026-01"
  anti_skip:
    - pattern: "\\bi can'?t\\s*$"
      category: short_despair
  skip:
    - pattern: "^hello[!. ]*$"
      category: greeting
      weight: 0.99
lexicon:
  version: "2026-01"
  max_boost: 0.35
  languages:
    en:
      - phrase: "what's the point"
        weight: 0.25
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseValidConfig(t *testing.T) {
	cfg, err := Parse(writeConfig(t, validConfigYAML))
	require.NoError(t, err)

	assert.True(t, cfg.Gating.CacheEnabled)
	assert.Equal(t, 0.7, cfg.Gating.DefaultThreshold)
	assert.Equal(t, 500, cfg.Cache.MaxEntries)
	assert.Equal(t, "lru", cfg.Cache.EvictionPolicy)
	assert.Equal(t, 0.9, cfg.Calibration.TargetRecall)
	assert.Equal(t, "2026-01", cfg.Rules.Version)
	require.Len(t, cfg.Rules.AntiSkip, 1)
	assert.Equal(t, 0.35, cfg.Lexicon.MaxBoost)
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse(writeConfig(t, "gating:\n  default_threshold: 0.5\n"))
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
	assert.Equal(t, 3600, cfg.Cache.TTLSeconds)
	assert.Equal(t, "fifo", cfg.Cache.EvictionPolicy)
	assert.Equal(t, 0.95, cfg.Calibration.TargetRecall)
	assert.Equal(t, 20, cfg.Calibration.MinPositiveSamples)
	assert.Equal(t, 0.4, cfg.Lexicon.MaxBoost)
	assert.True(t, cfg.Rules.IsEmpty())
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GateConfig)
	}{
		{
			name:   "threshold above one",
			mutate: func(c *GateConfig) { c.Gating.DefaultThreshold = 1.5 },
		},
		{
			name:   "unknown eviction policy",
			mutate: func(c *GateConfig) { c.Cache.EvictionPolicy = "random" },
		},
		{
			name:   "empty lexicon phrase",
			mutate: func(c *GateConfig) { c.Lexicon.Languages = map[string][]LexiconEntry{"en": {{Phrase: "", Weight: 0.2}}} },
		},
		{
			name:   "lexicon weight out of range",
			mutate: func(c *GateConfig) { c.Lexicon.Languages = map[string][]LexiconEntry{"en": {{Phrase: "x", Weight: 2}}} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &GateConfig{}
			cfg.ApplyDefaults()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateRuleTable(t *testing.T) {
	tests := []struct {
		name    string
		table   RuleTable
		wantErr bool
	}{
		{
			name: "valid table",
			table: RuleTable{
				Version:  "v1",
				AntiSkip: []PatternRule{{Pattern: `\bno more\b`, Category: "short_despair"}},
				Skip:     []PatternRule{{Pattern: `^hi$`, Category: "greeting", Weight: 0.9}},
			},
		},
		{
			name: "missing version",
			table: RuleTable{
				Skip: []PatternRule{{Pattern: `^hi$`, Category: "greeting"}},
			},
			wantErr: true,
		},
		{
			name: "empty skip list",
			table: RuleTable{
				Version: "v1",
			},
			wantErr: true,
		},
		{
			name: "uncompilable pattern",
			table: RuleTable{
				Version: "v1",
				Skip:    []PatternRule{{Pattern: `([`, Category: "greeting"}},
			},
			wantErr: true,
		},
		{
			name: "unknown skip category",
			table: RuleTable{
				Version: "v1",
				Skip:    []PatternRule{{Pattern: `^hi$`, Category: "smalltalk"}},
			},
			wantErr: true,
		},
		{
			name: "weight above one",
			table: RuleTable{
				Version: "v1",
				Skip:    []PatternRule{{Pattern: `^hi$`, Category: "greeting", Weight: 1.5}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRuleTable(&tt.table)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
