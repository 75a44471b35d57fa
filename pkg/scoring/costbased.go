package scoring

import (
	"math"

	"github.com/calibra-ai/oraclegate/pkg/lexicon"
	"github.com/calibra-ai/oraclegate/pkg/signal"
)

// CostBasedScorer is a Chow-rule alternative kept strictly for offline
// comparison against the production NP scorer (see cmd/oraclegate compare).
// It weighs the expected cost of a missed high-stakes message against the
// fixed cost of an oracle call: skip confidence drops as the boosted
// high-stakes probability times the miss cost approaches the call cost.
type CostBasedScorer struct {
	booster      *lexicon.Booster
	boostEnabled bool

	// MissCost is the relative cost of skipping a true high-stakes message.
	MissCost float64

	// CallCost is the relative cost of one oracle invocation.
	CallCost float64
}

// NewCostBasedScorer builds the comparison scorer with the given cost ratio.
func NewCostBasedScorer(booster *lexicon.Booster, boostEnabled bool, missCost, callCost float64) *CostBasedScorer {
	if missCost <= 0 {
		missCost = 10.0
	}
	if callCost <= 0 {
		callCost = 1.0
	}
	return &CostBasedScorer{
		booster:      booster,
		boostEnabled: boostEnabled && booster != nil,
		MissCost:     missCost,
		CallCost:     callCost,
	}
}

// Name identifies the strategy in calibration records and CLI output.
func (s *CostBasedScorer) Name() string { return "cost-chow" }

// Score computes skip confidence as 1 - expectedMissCost/(expectedMissCost +
// callCost), sharing the triggered clamp and validity contract with the
// production scorer.
func (s *CostBasedScorer) Score(sig *signal.Signal, text, language string) (Result, error) {
	base, err := sig.ExistentialScore()
	if err != nil {
		return Result{}, err
	}

	boosted := base
	var matches []lexicon.Match
	if s.boostEnabled {
		boosted, matches = s.booster.Boost(base, text, language)
	}

	expectedMiss := boosted * s.MissCost
	score := 1.0 - expectedMiss/(expectedMiss+s.CallCost)

	if sig.HighStakesTriggered && score > triggeredScoreCeiling {
		score = triggeredScoreCeiling
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return Result{
		Score: score,
		Valid: !math.IsNaN(score) && !math.IsInf(score, 0),
		Components: Components{
			Base:           base,
			LexiconBoost:   boosted - base,
			Boosted:        boosted,
			LexiconMatches: matches,
		},
	}, nil
}
