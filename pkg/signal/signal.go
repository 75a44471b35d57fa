package signal

import (
	"errors"
	"fmt"
	"math"
)

// Category names the fast classifier is expected to score. Only the
// existential (high-stakes) category is required by the cascade; the rest are
// consulted for the ambiguity penalty when present.
const (
	CategoryExistential = "EXISTENTIAL"
	CategoryFunctional  = "FUNCTIONAL"
	CategoryRelational  = "RELATIONAL"
	CategoryCrisis      = "CRISIS"
)

var (
	// ErrNilSignal is returned when a nil Signal reaches validation.
	ErrNilSignal = errors.New("signal: nil signal")

	// ErrMissingCategory is returned when a required category score is
	// absent. The cascade never substitutes a default for a missing score:
	// a silently wrong default could suppress a real positive.
	ErrMissingCategory = errors.New("signal: missing required category score")

	// ErrScoreOutOfRange is returned when a category score falls outside
	// [0,1] or is not a finite number.
	ErrScoreOutOfRange = errors.New("signal: category score out of range")
)

// Signal is the fast classifier's output contract. It is produced by an
// external collaborator and never mutated by this library.
type Signal struct {
	// CategoryScores holds per-category activations in [0,1]. It must
	// include CategoryExistential.
	CategoryScores map[string]float64 `json:"category_scores" yaml:"category_scores"`

	// Crisis is true when the fast classifier is confident the message is
	// acute-risk. Crisis and HighStakesTriggered are independent flags;
	// both may be false while category scores are non-zero.
	Crisis bool `json:"crisis" yaml:"crisis"`

	// HighStakesTriggered is true when the fast classifier already
	// confidently flagged the high-stakes category on its own.
	HighStakesTriggered bool `json:"high_stakes_triggered" yaml:"high_stakes_triggered"`
}

// Validate checks the signal shape. It fails fast on a missing existential
// score or any non-finite or out-of-range score.
func Validate(s *Signal) error {
	if s == nil {
		return ErrNilSignal
	}
	if s.CategoryScores == nil {
		return fmt.Errorf("%w: %s", ErrMissingCategory, CategoryExistential)
	}
	if _, ok := s.CategoryScores[CategoryExistential]; !ok {
		return fmt.Errorf("%w: %s", ErrMissingCategory, CategoryExistential)
	}
	for name, score := range s.CategoryScores {
		if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 || score > 1 {
			return fmt.Errorf("%w: %s=%v", ErrScoreOutOfRange, name, score)
		}
	}
	return nil
}

// ExistentialScore returns the high-stakes category score, or an error when
// the signal shape is invalid.
func (s *Signal) ExistentialScore() (float64, error) {
	if err := Validate(s); err != nil {
		return 0, err
	}
	return s.CategoryScores[CategoryExistential], nil
}

// TopTwoGap returns top1 - top2 over all category scores, and false when
// fewer than two categories are scored (in which case the gap is undefined
// and no ambiguity penalty applies).
func (s *Signal) TopTwoGap() (float64, bool) {
	if len(s.CategoryScores) < 2 {
		return 0, false
	}
	top1, top2 := math.Inf(-1), math.Inf(-1)
	for _, score := range s.CategoryScores {
		switch {
		case score > top1:
			top2 = top1
			top1 = score
		case score > top2:
			top2 = score
		}
	}
	return top1 - top2, true
}
