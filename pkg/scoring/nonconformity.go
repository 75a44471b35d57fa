package scoring

import (
	"math"

	"github.com/calibra-ai/oraclegate/pkg/lexicon"
	"github.com/calibra-ai/oraclegate/pkg/signal"
)

// Clamp applied when the fast classifier already triggered the high-stakes
// category: the score stays low enough that no reasonable threshold skips,
// without needing a separate branch in the orchestrator.
const triggeredScoreCeiling = 0.15

// Ambiguity penalty tiers over the top1-top2 category gap.
const (
	narrowGap        = 0.15
	narrowGapPenalty = 0.15
	midGap           = 0.25
	midGapPenalty    = 0.08
)

// NonconformityScorer is the production scoring strategy: it inverts the
// (lexicon-boosted) high-stakes score and penalizes ambiguous fast-classifier
// output so that uncertain inputs drift toward an oracle call.
type NonconformityScorer struct {
	booster      *lexicon.Booster
	boostEnabled bool
}

// NewNonconformityScorer builds the production scorer. booster may be nil
// when boosting is disabled.
func NewNonconformityScorer(booster *lexicon.Booster, boostEnabled bool) *NonconformityScorer {
	return &NonconformityScorer{booster: booster, boostEnabled: boostEnabled && booster != nil}
}

// Name identifies the strategy in calibration records and CLI output.
func (s *NonconformityScorer) Name() string { return "np-nonconformity" }

// Score computes the nonconformity score for one message.
func (s *NonconformityScorer) Score(sig *signal.Signal, text, language string) (Result, error) {
	base, err := sig.ExistentialScore()
	if err != nil {
		return Result{}, err
	}

	boosted := base
	var matches []lexicon.Match
	if s.boostEnabled {
		boosted, matches = s.booster.Boost(base, text, language)
	}

	score := 1.0 - boosted

	if sig.HighStakesTriggered && score > triggeredScoreCeiling {
		score = triggeredScoreCeiling
	}

	penalty := 0.0
	if gap, ok := sig.TopTwoGap(); ok {
		switch {
		case gap < narrowGap:
			penalty = narrowGapPenalty
		case gap < midGap:
			penalty = midGapPenalty
		}
	}
	score -= penalty

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	result := Result{
		Score: score,
		Valid: !math.IsNaN(score) && !math.IsInf(score, 0),
		Components: Components{
			Base:             base,
			LexiconBoost:     boosted - base,
			Boosted:          boosted,
			AmbiguityPenalty: penalty,
			LexiconMatches:   matches,
		},
	}
	return result, nil
}
