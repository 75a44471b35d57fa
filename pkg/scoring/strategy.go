package scoring

import (
	"github.com/calibra-ai/oraclegate/pkg/lexicon"
	"github.com/calibra-ai/oraclegate/pkg/signal"
)

// Components breaks a score down for logging and offline analysis.
type Components struct {
	// Base is the raw high-stakes category score from the fast classifier.
	Base float64 `json:"base"`

	// LexiconBoost is the additive correction applied by the lexicon.
	LexiconBoost float64 `json:"lexicon_boost"`

	// Boosted is Base + LexiconBoost, clamped to 1.0.
	Boosted float64 `json:"boosted"`

	// AmbiguityPenalty is the deduction applied when the fast classifier's
	// top two category scores are close.
	AmbiguityPenalty float64 `json:"ambiguity_penalty"`

	// LexiconMatches lists the phrases that contributed to the boost.
	LexiconMatches []lexicon.Match `json:"-"`
}

// Result is a nonconformity score in [0,1]: confidence that skipping the
// oracle is safe. Higher means safer to skip.
type Result struct {
	Score      float64    `json:"score"`
	Valid      bool       `json:"valid"`
	Components Components `json:"components"`
}

// Strategy scores how safe it is to resolve a message without the oracle.
// Implementations must be deterministic for a fixed (signal, text, config)
// and safe for concurrent use. A shape error on the signal is returned as an
// error; numeric trouble (NaN/Inf) is reported via Result.Valid=false so the
// orchestrator can fall back to calling the oracle instead of failing.
type Strategy interface {
	Name() string
	Score(sig *signal.Signal, text, language string) (Result, error)
}
