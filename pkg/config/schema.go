package config

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ruleTableSchema is the audit contract for hard-skip rule data. The
// anti-skip table is the main defense against recall loss on short inputs,
// so rule files are validated both structurally (schema) and semantically
// (compilable patterns) before they can reach the orchestrator.
const ruleTableSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["version", "anti_skip", "skip"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "anti_skip": {"type": "array", "items": {"$ref": "#/$defs/rule"}},
    "skip": {"type": "array", "minItems": 1, "items": {"$ref": "#/$defs/rule"}}
  },
  "$defs": {
    "rule": {
      "type": "object",
      "required": ["pattern", "category"],
      "properties": {
        "pattern": {"type": "string", "minLength": 1},
        "category": {"type": "string", "minLength": 1},
        "weight": {"type": "number", "minimum": 0, "maximum": 1}
      }
    }
  }
}`

var compiledRuleTableSchema = jsonschema.MustCompileString("rules.schema.json", ruleTableSchema)

// skipCategories are the permitted labels for skip rules.
var skipCategories = map[string]bool{
	"greeting":       true,
	"acknowledgment": true,
	"factual":        true,
	"operational":    true,
}

// ValidateRuleTable checks a rule table against the embedded schema and
// verifies that every pattern compiles and every skip category is known.
func ValidateRuleTable(table *RuleTable) error {
	raw, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("config: marshal rule table: %w", err)
	}
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("config: decode rule table: %w", err)
	}
	if err := compiledRuleTableSchema.Validate(doc); err != nil {
		return fmt.Errorf("config: rule table schema violation: %w", err)
	}

	for _, rule := range table.AntiSkip {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("config: anti-skip pattern %q: %w", rule.Pattern, err)
		}
	}
	for _, rule := range table.Skip {
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("config: skip pattern %q: %w", rule.Pattern, err)
		}
		if !skipCategories[rule.Category] {
			return fmt.Errorf("config: unknown skip category %q for pattern %q", rule.Category, rule.Pattern)
		}
	}
	return nil
}
