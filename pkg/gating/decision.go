package gating

import (
	"strings"

	"github.com/calibra-ai/oraclegate/pkg/cache"
)

// Stage identifies the cascade stage that produced a decision.
type Stage string

const (
	StageSafety    Stage = "safety"
	StageCache     Stage = "cache"
	StageHardSkip  Stage = "hard_skip"
	StageThreshold Stage = "threshold"
)

// Reason is the machine-readable decision code.
type Reason string

const (
	ReasonEmergencyBypass            Reason = "EMERGENCY_BYPASS"
	ReasonHighStakesAlreadyTriggered Reason = "HIGH_STAKES_ALREADY_TRIGGERED"
	ReasonCacheHit                   Reason = "CACHE_HIT"
	ReasonThresholdSkip              Reason = "THRESHOLD_SKIP"
	ReasonThresholdCall              Reason = "THRESHOLD_CALL"
	ReasonFallback                   Reason = "FALLBACK"
)

// HardSkipReason builds the reason code for a matched skip category, e.g.
// "HARD_SKIP_FACTUAL".
func HardSkipReason(matchedType string) Reason {
	return Reason("HARD_SKIP_" + strings.ToUpper(matchedType))
}

// Decision is the sole output of the cascade, immutable once constructed.
// Exactly one stage is set, and CallOracle is always false when the stage is
// safety.
type Decision struct {
	CallOracle bool   `json:"call_oracle"`
	Stage      Stage  `json:"stage"`
	Reason     Reason `json:"reason"`

	// Score is the nonconformity score, present only when the threshold
	// stage executed.
	Score *float64 `json:"score,omitempty"`

	// MatchedPattern is the hard-skip rule that matched, if any.
	MatchedPattern string `json:"matched_pattern,omitempty"`

	// CachedVerdict is populated on cache hits.
	CachedVerdict *cache.Verdict `json:"cached_verdict,omitempty"`
}
