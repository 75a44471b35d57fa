package lexicon

import (
	"strings"

	"github.com/calibra-ai/oraclegate/pkg/config"
)

// Match reports one boost phrase found in the input.
type Match struct {
	Phrase   string
	Language string
	Weight   float64
}

// preppedEntry stores a phrase pre-lowercased for matching alongside the
// original for reporting.
type preppedEntry struct {
	original string
	lowered  string
	weight   float64
}

// Booster raises the high-stakes score when known high-stakes phrases appear
// in text the fast classifier under-scored. It is stateless after
// construction and safe for concurrent use.
type Booster struct {
	languages map[string][]preppedEntry
	maxBoost  float64
}

// NewBooster preprocesses the lexicon table for efficient matching.
func NewBooster(table config.LexiconTable) *Booster {
	maxBoost := table.MaxBoost
	if maxBoost <= 0 {
		maxBoost = 0.4
	}
	languages := make(map[string][]preppedEntry, len(table.Languages))
	for lang, entries := range table.Languages {
		prepped := make([]preppedEntry, 0, len(entries))
		for _, e := range entries {
			prepped = append(prepped, preppedEntry{
				original: e.Phrase,
				lowered:  strings.ToLower(e.Phrase),
				weight:   e.Weight,
			})
		}
		languages[lang] = prepped
	}
	return &Booster{languages: languages, maxBoost: maxBoost}
}

// Boost sums the weights of all matching phrases for the given language,
// caps the sum at the table's max boost, and adds it to baseScore. The
// result never exceeds 1.0 and never falls below baseScore.
func (b *Booster) Boost(baseScore float64, text, language string) (float64, []Match) {
	entries, ok := b.languages[language]
	if !ok {
		return baseScore, nil
	}

	lowered := strings.ToLower(text)
	var matches []Match
	total := 0.0
	for _, e := range entries {
		if strings.Contains(lowered, e.lowered) {
			matches = append(matches, Match{Phrase: e.original, Language: language, Weight: e.weight})
			total += e.weight
		}
	}
	if total == 0 {
		return baseScore, nil
	}
	if total > b.maxBoost {
		total = b.maxBoost
	}

	boosted := baseScore + total
	if boosted > 1.0 {
		boosted = 1.0
	}
	return boosted, matches
}
