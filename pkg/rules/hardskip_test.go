package rules

import (
	"testing"

	"github.com/calibra-ai/oraclegate/pkg/config"
)

func builtinRuleSet(t *testing.T) *HardSkipRuleSet {
	t.Helper()
	rs, err := NewHardSkipRuleSet(DefaultRuleTable())
	if err != nil {
		t.Fatalf("NewHardSkipRuleSet() error: %v", err)
	}
	return rs
}

func TestCheckSkipCategories(t *testing.T) {
	rs := builtinRuleSet(t)

	tests := []struct {
		name     string
		text     string
		wantSkip bool
		wantType string
	}{
		{
			name:     "pure greeting",
			text:     "Hello!",
			wantSkip: true,
			wantType: "greeting",
		},
		{
			name:     "greeting with punctuation",
			text:     "good morning",
			wantSkip: true,
			wantType: "greeting",
		},
		{
			name:     "acknowledgment",
			text:     "thanks!",
			wantSkip: true,
			wantType: "acknowledgment",
		},
		{
			name:     "factual question",
			text:     "What time is it?",
			wantSkip: true,
			wantType: "factual",
		},
		{
			name:     "operational command",
			text:     "set a timer for ten minutes",
			wantSkip: true,
			wantType: "operational",
		},
		{
			name:     "substantive message does not skip",
			text:     "I have been thinking a lot about my life lately",
			wantSkip: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := rs.Check(tt.text)
			if res.ShouldSkip != tt.wantSkip {
				t.Fatalf("Check(%q).ShouldSkip = %v, want %v (matched %q)",
					tt.text, res.ShouldSkip, tt.wantSkip, res.MatchedPattern)
			}
			if tt.wantSkip && res.MatchedType != tt.wantType {
				t.Errorf("Check(%q).MatchedType = %q, want %q", tt.text, res.MatchedType, tt.wantType)
			}
		})
	}
}

func TestCheckAntiSkipDominance(t *testing.T) {
	// Short utterances that look like acknowledgments but can signal
	// crisis must never hard-skip, no matter what the skip table says.
	rs := builtinRuleSet(t)

	tests := []string{
		"I can't",
		"I can't anymore",
		"i cannot",
		"no more",
		"basta",
		"ya no puedo",
		"I want to give up",
		"what's the point",
		"help me",
	}

	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			res := rs.Check(text)
			if res.ShouldSkip {
				t.Fatalf("Check(%q) skipped; anti-skip must veto (matched %q)", text, res.MatchedPattern)
			}
			if !res.AntiSkipVeto {
				t.Errorf("Check(%q).AntiSkipVeto = false, want veto", text)
			}
		})
	}
}

func TestCheckAntiSkipBeatsOverlappingSkipRule(t *testing.T) {
	// A table where the same text matches both lists: the anti-skip row
	// wins even though the skip row would match.
	table := config.RuleTable{
		Version:  "test-1",
		AntiSkip: []config.PatternRule{{Pattern: `^ok i give up$`, Category: "resignation"}},
		Skip:     []config.PatternRule{{Pattern: `^ok\b`, Category: "acknowledgment", Weight: 0.9}},
	}
	rs, err := NewHardSkipRuleSet(table)
	if err != nil {
		t.Fatalf("NewHardSkipRuleSet() error: %v", err)
	}

	res := rs.Check("OK I give up")
	if res.ShouldSkip || !res.AntiSkipVeto {
		t.Fatalf("anti-skip did not dominate: %+v", res)
	}

	// The skip rule still applies when the anti-skip pattern does not match.
	res = rs.Check("ok sounds good")
	if !res.ShouldSkip || res.MatchedType != "acknowledgment" {
		t.Fatalf("expected acknowledgment skip, got %+v", res)
	}
}

func TestCheckFirstMatchWins(t *testing.T) {
	table := config.RuleTable{
		Version: "test-1",
		Skip: []config.PatternRule{
			{Pattern: `hello`, Category: "greeting", Weight: 0.9},
			{Pattern: `hello there`, Category: "acknowledgment", Weight: 0.8},
		},
	}
	rs, err := NewHardSkipRuleSet(table)
	if err != nil {
		t.Fatalf("NewHardSkipRuleSet() error: %v", err)
	}

	res := rs.Check("hello there")
	if res.MatchedType != "greeting" {
		t.Fatalf("first match did not win: %+v", res)
	}
}

func TestCheckIsPure(t *testing.T) {
	rs := builtinRuleSet(t)
	first := rs.Check("What time is it?")
	for i := 0; i < 50; i++ {
		if got := rs.Check("What time is it?"); got != first {
			t.Fatalf("Check() not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestNewHardSkipRuleSetRejectsBadPattern(t *testing.T) {
	table := config.RuleTable{
		Version: "test-1",
		Skip:    []config.PatternRule{{Pattern: `([`, Category: "greeting"}},
	}
	if _, err := NewHardSkipRuleSet(table); err == nil {
		t.Fatal("expected error for uncompilable pattern")
	}
}

func TestConfidenceIsCarriedButNotConsulted(t *testing.T) {
	rs := builtinRuleSet(t)
	res := rs.Check("Hello!")
	if !res.ShouldSkip {
		t.Fatal("expected greeting skip")
	}
	if res.Confidence == 0 {
		t.Error("weight annotation should be carried on the match")
	}
}
