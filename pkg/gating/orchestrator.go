package gating

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/calibra-ai/oraclegate/pkg/cache"
	"github.com/calibra-ai/oraclegate/pkg/calibration"
	"github.com/calibra-ai/oraclegate/pkg/config"
	"github.com/calibra-ai/oraclegate/pkg/observability/logging"
	"github.com/calibra-ai/oraclegate/pkg/observability/metrics"
	"github.com/calibra-ai/oraclegate/pkg/rules"
	"github.com/calibra-ai/oraclegate/pkg/scoring"
	"github.com/calibra-ai/oraclegate/pkg/signal"
)

var (
	// ErrNoCalibration is returned at construction when neither a
	// calibration record nor a default threshold is available. Serving with
	// an undefined threshold would invalidate the recall guarantee, so this
	// is fatal rather than defaulted.
	ErrNoCalibration = errors.New("gating: no calibration loaded and no default threshold configured")

	// ErrInvalidThreshold is returned by SetThreshold for values outside [0,1].
	ErrInvalidThreshold = errors.New("gating: threshold must be in [0,1]")

	// ErrInvalidScore is returned when the scorer produced a non-finite
	// score and fallback is disabled.
	ErrInvalidScore = errors.New("gating: non-finite nonconformity score")
)

// threshold is the read-mostly calibration state, swapped atomically so
// concurrent Decide calls never observe a half-written value.
type threshold struct {
	tau    float64
	source string
}

// request carries one Decide invocation through the stage evaluators.
type request struct {
	text     string
	language string
	sig      *signal.Signal
}

// stageFn evaluates one cascade stage. A nil decision means continue to the
// next stage; only the threshold stage may decide "call the oracle".
type stageFn func(*request) (*Decision, error)

type stage struct {
	name Stage
	eval stageFn
}

// Orchestrator sequences the admission-control cascade: crisis bypass,
// already-triggered bypass, verdict cache, hard-skip rules, calibrated
// threshold. Stages run in that fixed order, each a potential terminal, and
// no stage is ever revisited. One shared instance serves concurrent callers.
type Orchestrator struct {
	cfg     config.GatingConfig
	cache   *cache.ResultCache
	ruleset *rules.HardSkipRuleSet
	scorer  scoring.Strategy

	threshold atomic.Pointer[threshold]
	stats     *StatsAggregator
	stages    []stage
}

// New constructs an orchestrator. calib may be nil when the config supplies
// a non-zero default threshold; otherwise construction fails with
// ErrNoCalibration. c and ruleset may be nil when the corresponding stage is
// disabled.
func New(
	cfg config.GatingConfig,
	calib *calibration.Record,
	c *cache.ResultCache,
	ruleset *rules.HardSkipRuleSet,
	scorer scoring.Strategy,
) (*Orchestrator, error) {
	if scorer == nil {
		return nil, errors.New("gating: scorer is required")
	}

	o := &Orchestrator{
		cfg:     cfg,
		cache:   c,
		ruleset: ruleset,
		scorer:  scorer,
		stats:   NewStatsAggregator(),
	}

	switch {
	case calib != nil:
		if calib.Tau < 0 || calib.Tau > 1 {
			return nil, fmt.Errorf("%w: calibration %s has tau=%v", ErrInvalidThreshold, calib.ID, calib.Tau)
		}
		if calib.StabilityWarning != "" {
			logging.Warnf("Serving with unstable calibration %s: %s", calib.ID, calib.StabilityWarning)
		}
		o.threshold.Store(&threshold{tau: calib.Tau, source: "calibration:" + calib.ID})
	case cfg.DefaultThreshold > 0:
		o.threshold.Store(&threshold{tau: cfg.DefaultThreshold, source: "config-default"})
	default:
		return nil, ErrNoCalibration
	}
	metrics.CalibrationThreshold.Set(o.threshold.Load().tau)

	// The cascade is a strict linear list so the evaluation order and
	// short-circuit semantics live in exactly one loop.
	o.stages = []stage{
		{StageSafety, o.evalEmergency},
		{StageSafety, o.evalAlreadyTriggered},
		{StageCache, o.evalCache},
		{StageHardSkip, o.evalHardSkip},
		{StageThreshold, o.evalThreshold},
	}

	logging.Infof("Gating orchestrator ready: tau=%.4f (%s), cache=%v, hard_skip=%v, scorer=%s",
		o.threshold.Load().tau, o.threshold.Load().source, cfg.CacheEnabled, cfg.HardSkipEnabled, scorer.Name())
	return o, nil
}

// Decide runs the cascade for one message. The signal must be the fast
// classifier's pre-computed output; this method performs no I/O and never
// blocks. The returned decision says whether the caller must invoke the
// oracle; the invocation itself is entirely the caller's responsibility.
func (o *Orchestrator) Decide(text, language string, sig *signal.Signal) (*Decision, error) {
	start := time.Now()
	defer func() {
		metrics.RecordDecisionLatency(time.Since(start).Seconds())
	}()

	if err := signal.Validate(sig); err != nil {
		return nil, err
	}

	for _, st := range o.stages {
		d, err := st.eval(&request{text: text, language: language, sig: sig})
		if err != nil {
			return nil, err
		}
		if d == nil {
			continue
		}
		o.stats.Record(d)
		metrics.RecordDecision(string(d.Stage), string(d.Reason), d.CallOracle)
		return d, nil
	}

	// The threshold stage is always terminal, so the cascade cannot fall
	// through.
	return nil, errors.New("gating: cascade fell through without a terminal stage")
}

// evalEmergency is the crisis bypass. It is a hard invariant with no
// configuration flag: crisis traffic never routes through the oracle path.
func (o *Orchestrator) evalEmergency(req *request) (*Decision, error) {
	if !req.sig.Crisis {
		return nil, nil
	}
	return &Decision{Stage: StageSafety, Reason: ReasonEmergencyBypass}, nil
}

func (o *Orchestrator) evalAlreadyTriggered(req *request) (*Decision, error) {
	if !req.sig.HighStakesTriggered {
		return nil, nil
	}
	return &Decision{Stage: StageSafety, Reason: ReasonHighStakesAlreadyTriggered}, nil
}

func (o *Orchestrator) evalCache(req *request) (*Decision, error) {
	if !o.cfg.CacheEnabled || o.cache == nil {
		return nil, nil
	}
	verdict, ok := o.cache.Get(req.text, req.language)
	if !ok {
		return nil, nil
	}
	return &Decision{Stage: StageCache, Reason: ReasonCacheHit, CachedVerdict: verdict}, nil
}

func (o *Orchestrator) evalHardSkip(req *request) (*Decision, error) {
	if !o.cfg.HardSkipEnabled || o.ruleset == nil {
		return nil, nil
	}
	res := o.ruleset.Check(req.text)
	if res.AntiSkipVeto {
		logging.Debugf("Anti-skip veto (%s) on %q; continuing cascade", res.MatchedType, req.text)
		return nil, nil
	}
	if !res.ShouldSkip {
		return nil, nil
	}
	return &Decision{
		Stage:          StageHardSkip,
		Reason:         HardSkipReason(res.MatchedType),
		MatchedPattern: res.MatchedPattern,
	}, nil
}

func (o *Orchestrator) evalThreshold(req *request) (*Decision, error) {
	result, err := o.scorer.Score(req.sig, req.text, req.language)
	if err != nil {
		return nil, err
	}

	if !result.Valid {
		// Uncertain means err toward calling the oracle, never toward
		// silently skipping.
		if o.cfg.FallbackOnInvalidScore {
			logging.Warnf("Non-finite nonconformity score for %q; falling back to oracle call", req.text)
			return &Decision{CallOracle: true, Stage: StageThreshold, Reason: ReasonFallback}, nil
		}
		return nil, ErrInvalidScore
	}

	metrics.NonconformityScore.Observe(result.Score)
	score := result.Score
	if score > o.threshold.Load().tau {
		return &Decision{Stage: StageThreshold, Reason: ReasonThresholdSkip, Score: &score}, nil
	}
	return &Decision{CallOracle: true, Stage: StageThreshold, Reason: ReasonThresholdCall, Score: &score}, nil
}

// CacheResult feeds an oracle verdict back into the cache after the caller
// completed the invocation. A nil or disabled cache makes this a no-op.
func (o *Orchestrator) CacheResult(text, language string, verdict cache.Verdict) {
	if !o.cfg.CacheEnabled || o.cache == nil {
		return
	}
	o.cache.Set(text, language, verdict)
}

// SetThreshold hot-swaps the skip threshold. The swap is atomic: concurrent
// Decide calls observe either the old or the new value, never a partial one.
func (o *Orchestrator) SetThreshold(tau float64) error {
	if tau < 0 || tau > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, tau)
	}
	o.threshold.Store(&threshold{tau: tau, source: "set-threshold"})
	metrics.CalibrationThreshold.Set(tau)
	logging.Infof("Skip threshold updated: tau=%.4f", tau)
	return nil
}

// Threshold returns the currently active tau.
func (o *Orchestrator) Threshold() float64 {
	return o.threshold.Load().tau
}

// Stats returns a snapshot of the per-reason counters.
func (o *Orchestrator) Stats() StatsSnapshot {
	return o.stats.Snapshot()
}

// ResetStats zeroes the counters. Explicit operator action only.
func (o *Orchestrator) ResetStats() {
	o.stats.Reset()
}

// CacheStats exposes the verdict cache counters, or zeroes when the cache
// stage is disabled.
func (o *Orchestrator) CacheStats() cache.Stats {
	if o.cache == nil {
		return cache.Stats{}
	}
	return o.cache.Stats()
}
