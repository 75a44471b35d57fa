package config

import (
	"fmt"
	"time"
)

// GateConfig is the root configuration for the admission-control cascade.
type GateConfig struct {
	Gating      GatingConfig      `yaml:"gating" json:"gating"`
	Cache       CacheConfig       `yaml:"cache" json:"cache"`
	Calibration CalibrationConfig `yaml:"calibration" json:"calibration"`
	Rules       RuleTable         `yaml:"rules" json:"rules"`
	Lexicon     LexiconTable      `yaml:"lexicon" json:"lexicon"`
}

// GatingConfig controls which optional cascade stages run. The safety stages
// (crisis bypass, already-triggered) have no flag: they cannot be disabled.
type GatingConfig struct {
	// CacheEnabled enables the verdict cache stage.
	CacheEnabled bool `yaml:"cache_enabled" json:"cache_enabled"`

	// HardSkipEnabled enables the hard-skip pattern stage.
	HardSkipEnabled bool `yaml:"hard_skip_enabled" json:"hard_skip_enabled"`

	// LexiconBoostEnabled enables lexicon boosting inside the scorer.
	LexiconBoostEnabled bool `yaml:"lexicon_boost_enabled" json:"lexicon_boost_enabled"`

	// FallbackOnInvalidScore routes NaN/Inf scores to an oracle call
	// instead of returning an error.
	FallbackOnInvalidScore bool `yaml:"fallback_on_invalid_score" json:"fallback_on_invalid_score"`

	// DefaultThreshold is used when no calibration record is available.
	// Zero means "no default": construction fails without a calibration.
	DefaultThreshold float64 `yaml:"default_threshold,omitempty" json:"default_threshold,omitempty"`
}

// CacheConfig bounds the verdict cache.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries,omitempty" json:"max_entries,omitempty"`
	TTLSeconds int `yaml:"ttl_seconds,omitempty" json:"ttl_seconds,omitempty"`

	// EvictionPolicy selects the overflow victim: fifo (default), lru, lfu.
	// TTL expiry is enforced regardless of policy.
	EvictionPolicy string `yaml:"eviction_policy,omitempty" json:"eviction_policy,omitempty"`
}

// TTL returns the configured entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// CalibrationConfig locates the calibration store and sets the recall target
// for offline calibration runs.
type CalibrationConfig struct {
	// StorePath is the SQLite database holding calibration records.
	StorePath string `yaml:"store_path,omitempty" json:"store_path,omitempty"`

	// TargetRecall is the minimum recall on the high-stakes positive class
	// that a calibrated threshold must preserve. Default: 0.95.
	TargetRecall float64 `yaml:"target_recall,omitempty" json:"target_recall,omitempty"`

	// MinPositiveSamples is the positive-sample count below which a
	// calibration run is marked unstable. Default: 20.
	MinPositiveSamples int `yaml:"min_positive_samples,omitempty" json:"min_positive_samples,omitempty"`
}

// PatternRule is one row of a hard-skip or anti-skip table.
type PatternRule struct {
	// Pattern is an RE2 regular expression matched against the normalized
	// message text.
	Pattern string `yaml:"pattern" json:"pattern"`

	// Category labels the rule: greeting, acknowledgment, factual,
	// operational for skip rules; anti-skip rules use free-form labels.
	Category string `yaml:"category" json:"category"`

	// Weight is an audit-time confidence annotation. It is loaded and
	// reported on matches but never consulted in the skip decision.
	Weight float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
}

// RuleTable is the versioned hard-skip rule data. AntiSkip rows veto any
// skip; they are checked before every skip row, unconditionally.
type RuleTable struct {
	Version  string        `yaml:"version" json:"version"`
	AntiSkip []PatternRule `yaml:"anti_skip" json:"anti_skip"`
	Skip     []PatternRule `yaml:"skip" json:"skip"`
}

// IsEmpty reports whether no rule table was supplied at all.
func (t *RuleTable) IsEmpty() bool {
	return t.Version == "" && len(t.AntiSkip) == 0 && len(t.Skip) == 0
}

// LexiconEntry is one boost phrase with its additive weight.
type LexiconEntry struct {
	Phrase string  `yaml:"phrase" json:"phrase"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// LexiconTable holds per-language boost phrases for under-scored high-stakes
// content.
type LexiconTable struct {
	Version string `yaml:"version" json:"version"`

	// MaxBoost caps the summed boost per message. Default: 0.4.
	MaxBoost float64 `yaml:"max_boost,omitempty" json:"max_boost,omitempty"`

	// Languages maps a language tag ("en", "es", ...) to its phrase list.
	Languages map[string][]LexiconEntry `yaml:"languages" json:"languages"`
}

// ApplyDefaults fills unset fields in place.
func (c *GateConfig) ApplyDefaults() {
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 1000
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = 3600
	}
	if c.Cache.EvictionPolicy == "" {
		c.Cache.EvictionPolicy = "fifo"
	}
	if c.Calibration.TargetRecall <= 0 {
		c.Calibration.TargetRecall = 0.95
	}
	if c.Calibration.MinPositiveSamples <= 0 {
		c.Calibration.MinPositiveSamples = 20
	}
	if c.Lexicon.MaxBoost <= 0 {
		c.Lexicon.MaxBoost = 0.4
	}
}

// Validate checks structural constraints after defaulting.
func (c *GateConfig) Validate() error {
	if c.Calibration.TargetRecall <= 0 || c.Calibration.TargetRecall > 1 {
		return fmt.Errorf("config: target_recall must be in (0,1], got %v", c.Calibration.TargetRecall)
	}
	if c.Gating.DefaultThreshold < 0 || c.Gating.DefaultThreshold > 1 {
		return fmt.Errorf("config: default_threshold must be in [0,1], got %v", c.Gating.DefaultThreshold)
	}
	switch c.Cache.EvictionPolicy {
	case "fifo", "lru", "lfu":
	default:
		return fmt.Errorf("config: unknown eviction_policy %q", c.Cache.EvictionPolicy)
	}
	// An omitted rules section means "use the built-in table"; only a
	// supplied table is held to the schema.
	if !c.Rules.IsEmpty() {
		if err := ValidateRuleTable(&c.Rules); err != nil {
			return err
		}
	}
	for lang, entries := range c.Lexicon.Languages {
		for _, e := range entries {
			if e.Phrase == "" {
				return fmt.Errorf("config: empty lexicon phrase for language %q", lang)
			}
			if e.Weight <= 0 || e.Weight > 1 {
				return fmt.Errorf("config: lexicon weight for %q must be in (0,1], got %v", e.Phrase, e.Weight)
			}
		}
	}
	return nil
}
