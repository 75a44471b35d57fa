package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/calibra-ai/oraclegate/pkg/config"
	"github.com/calibra-ai/oraclegate/pkg/observability/metrics"
)

// compiledRule pairs a rule row with its pre-compiled regex.
type compiledRule struct {
	raw config.PatternRule
	re  *regexp.Regexp
}

// CheckResult is the outcome of one hard-skip check.
type CheckResult struct {
	// ShouldSkip is true when a skip rule matched and no anti-skip rule
	// vetoed it.
	ShouldSkip bool

	// MatchedType is the skip category (greeting, acknowledgment, factual,
	// operational) or the anti-skip label that vetoed, empty when nothing
	// matched.
	MatchedType string

	// MatchedPattern is the raw pattern text of the winning rule.
	MatchedPattern string

	// AntiSkipVeto is true when an anti-skip rule fired. The cascade must
	// continue past the hard-skip stage in that case.
	AntiSkipVeto bool

	// Confidence is the weight annotation of the matched skip rule. It is
	// carried for logging and audit only; the skip decision is binary.
	Confidence float64
}

// HardSkipRuleSet is an ordered pattern gate in front of the threshold
// stage. Anti-skip rules are checked first and unconditionally: short
// utterances like "I can't" are lexically indistinguishable from harmless
// acknowledgments, so any anti-skip match vetoes every skip rule. Check is a
// pure function of the loaded tables and the input text.
type HardSkipRuleSet struct {
	version  string
	antiSkip []compiledRule
	skip     []compiledRule
}

// NewHardSkipRuleSet compiles a validated rule table. Table order is
// preserved: first match wins within each list.
func NewHardSkipRuleSet(table config.RuleTable) (*HardSkipRuleSet, error) {
	rs := &HardSkipRuleSet{version: table.Version}

	for _, rule := range table.AntiSkip {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rules: anti-skip pattern %q: %w", rule.Pattern, err)
		}
		rs.antiSkip = append(rs.antiSkip, compiledRule{raw: rule, re: re})
	}
	for _, rule := range table.Skip {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rules: skip pattern %q: %w", rule.Pattern, err)
		}
		rs.skip = append(rs.skip, compiledRule{raw: rule, re: re})
	}
	return rs, nil
}

// Version reports the loaded table version for audit logs.
func (rs *HardSkipRuleSet) Version() string { return rs.version }

// Check evaluates the text against the anti-skip table, then the skip table.
func (rs *HardSkipRuleSet) Check(text string) CheckResult {
	normalized := strings.TrimSpace(strings.ToLower(text))

	for _, rule := range rs.antiSkip {
		if rule.re.MatchString(normalized) {
			metrics.HardSkipMatchesTotal.WithLabelValues("anti_skip").Inc()
			return CheckResult{
				ShouldSkip:     false,
				MatchedType:    rule.raw.Category,
				MatchedPattern: rule.raw.Pattern,
				AntiSkipVeto:   true,
			}
		}
	}

	for _, rule := range rs.skip {
		if rule.re.MatchString(normalized) {
			metrics.HardSkipMatchesTotal.WithLabelValues(rule.raw.Category).Inc()
			return CheckResult{
				ShouldSkip:     true,
				MatchedType:    rule.raw.Category,
				MatchedPattern: rule.raw.Pattern,
				Confidence:     rule.raw.Weight,
			}
		}
	}

	return CheckResult{}
}

// DefaultRuleTable is the reviewed built-in table, used when the config file
// does not supply one. The anti-skip rows are maintained with the same rigor
// as the crisis bypass: they are the main defense against recall loss on
// short or ambiguous inputs.
func DefaultRuleTable() config.RuleTable {
	return config.RuleTable{
		Version: "builtin-1",
		AntiSkip: []config.PatternRule{
			{Pattern: `\b(i can'?t|i cannot)( even)?( anymore)?\s*$`, Category: "short_despair"},
			{Pattern: `\b(no more|not anymore|anymore)\s*$`, Category: "short_despair"},
			{Pattern: `^\s*(basta|ya no puedo|no puedo m[aá]s)\b`, Category: "short_despair_es"},
			{Pattern: `\b(give up|giving up|what'?s the point|why bother)\b`, Category: "resignation"},
			{Pattern: `\b(tired of (it all|everything|living)|done with everything)\b`, Category: "resignation"},
			{Pattern: `\b(help me|i need help)\s*$`, Category: "plea"},
			{Pattern: `\b(alone|nobody|no one)( cares| understands)?\s*$`, Category: "isolation"},
		},
		Skip: []config.PatternRule{
			{Pattern: `^\s*(hi|hello|hey|good (morning|afternoon|evening)|hola|buenos d[ií]as)[\s!.,]*$`, Category: "greeting", Weight: 0.99},
			{Pattern: `^\s*(thanks|thank you|thx|ok(ay)?|got it|sounds good|gracias|vale)[\s!.,]*$`, Category: "acknowledgment", Weight: 0.95},
			{Pattern: `^\s*(what|when|where|who|which|how (much|many|long|far))\b.*\?\s*$`, Category: "factual", Weight: 0.85},
			{Pattern: `\b(what time|what day|what date|qu[eé] hora)\b`, Category: "factual", Weight: 0.85},
			{Pattern: `^\s*(set|start|stop|pause|resume|cancel|open|close|play|remind me to)\b`, Category: "operational", Weight: 0.80},
		},
	}
}
