package calibration

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/calibra-ai/oraclegate/pkg/observability/logging"
	"github.com/calibra-ai/oraclegate/pkg/scoring"
	"github.com/calibra-ai/oraclegate/pkg/signal"
)

// ConservativeThreshold is used when calibration has no usable positive
// samples: low enough that most uncertain traffic still reaches the oracle.
const ConservativeThreshold = 0.5

// DefaultMinPositiveSamples is the positive count below which a calibrated
// threshold is flagged as unstable.
const DefaultMinPositiveSamples = 20

// LabeledCase is one row of an offline calibration set.
type LabeledCase struct {
	Text     string        `yaml:"text" json:"text"`
	Language string        `yaml:"language" json:"language"`
	Signal   signal.Signal `yaml:"signal" json:"signal"`

	// Positive marks a true high-stakes case.
	Positive bool `yaml:"positive" json:"positive"`
}

// Record is one versioned calibration result. Exactly one record is active
// at a time; the orchestrator loads the active record at construction.
type Record struct {
	ID                string    `json:"id"`
	Tau               float64   `json:"tau"`
	TargetRecall      float64   `json:"target_recall"`
	NPositiveSamples  int       `json:"n_positive_samples"`
	EstimatedSkipRate float64   `json:"estimated_skip_rate"`
	StabilityWarning  string    `json:"stability_warning,omitempty"`
	ScorerName        string    `json:"scorer_name"`
	CreatedAt         time.Time `json:"created_at"`
	Active            bool      `json:"active"`
}

// Calibrator runs the Neyman-Pearson threshold selection: the largest tau
// such that skipping every case scoring above tau still preserves the target
// recall on the positive class.
type Calibrator struct {
	scorer             scoring.Strategy
	minPositiveSamples int
}

// NewCalibrator builds a calibrator around the given scoring strategy.
// minPositiveSamples <= 0 selects the default of 20.
func NewCalibrator(scorer scoring.Strategy, minPositiveSamples int) *Calibrator {
	if minPositiveSamples <= 0 {
		minPositiveSamples = DefaultMinPositiveSamples
	}
	return &Calibrator{scorer: scorer, minPositiveSamples: minPositiveSamples}
}

// Calibrate scores every case and selects tau at the (1-targetRecall)
// quantile of the positive-class scores. Positives already caught by the
// fast classifier (crisis or triggered) never reach the threshold stage at
// runtime and are excluded from the quantile.
func (c *Calibrator) Calibrate(cases []LabeledCase, targetRecall float64) (*Record, error) {
	if targetRecall <= 0 || targetRecall > 1 {
		return nil, fmt.Errorf("calibration: target recall must be in (0,1], got %v", targetRecall)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("calibration: empty case set")
	}

	allScores := make([]float64, 0, len(cases))
	var positiveScores []float64
	for i := range cases {
		cs := &cases[i]
		result, err := c.scorer.Score(&cs.Signal, cs.Text, cs.Language)
		if err != nil {
			return nil, fmt.Errorf("calibration: case %d (%q): %w", i, cs.Text, err)
		}
		if !result.Valid {
			return nil, fmt.Errorf("calibration: case %d (%q) produced a non-finite score", i, cs.Text)
		}
		allScores = append(allScores, result.Score)
		if cs.Positive && !cs.Signal.Crisis && !cs.Signal.HighStakesTriggered {
			positiveScores = append(positiveScores, result.Score)
		}
	}

	rec := &Record{
		ID:               uuid.NewString(),
		TargetRecall:     targetRecall,
		NPositiveSamples: len(positiveScores),
		ScorerName:       c.scorer.Name(),
		CreatedAt:        time.Now().UTC(),
	}

	if len(positiveScores) == 0 {
		rec.Tau = ConservativeThreshold
		rec.StabilityWarning = "no threshold-stage positives in case set; using conservative default threshold"
		logging.Warnf("Calibration had no usable positives; defaulting tau=%v", ConservativeThreshold)
	} else {
		// Positives scoring above tau are skipped, so the recall guarantee
		// needs tau at the (1-targetRecall) quantile from the top: the
		// smallest tau with no more than that fraction of positives above it.
		sort.Sort(sort.Reverse(sort.Float64Slice(positiveScores)))
		idx := int(math.Floor((1 - targetRecall) * float64(len(positiveScores))))
		if idx >= len(positiveScores) {
			idx = len(positiveScores) - 1
		}
		rec.Tau = positiveScores[idx]
		if len(positiveScores) < c.minPositiveSamples {
			rec.StabilityWarning = fmt.Sprintf(
				"only %d positive samples (< %d); threshold is not production-trustworthy",
				len(positiveScores), c.minPositiveSamples)
		}
	}

	skipped := 0
	for _, s := range allScores {
		if s > rec.Tau {
			skipped++
		}
	}
	rec.EstimatedSkipRate = float64(skipped) / float64(len(allScores))

	logging.Infof("Calibration %s: tau=%.4f, recall target=%.2f, positives=%d, est. skip rate=%.2f%%",
		rec.ID, rec.Tau, rec.TargetRecall, rec.NPositiveSamples, rec.EstimatedSkipRate*100)
	return rec, nil
}
