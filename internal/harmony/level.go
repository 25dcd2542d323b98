package harmony

import (
	"regexp"
	"strings"
)

// Rule maps a case-insensitive model-name pattern to a reasoning level.
// Rules are evaluated in declaration order and the first match wins, so
// more specific patterns must be listed before broader ones.
type Rule struct {
	Pattern string
	Level   string
}

// DefaultRules marks known high-effort reasoning model families.
var DefaultRules = []Rule{
	{Pattern: `\b5[- ]?thinking(\b|-mini\b)`, Level: "high"},
	{Pattern: `\bo3\b`, Level: "high"},
	{Pattern: `\bdeepseek[-_]?r1\b`, Level: "high"},
}

// DefaultLevel is the reasoning level used when no rule matches.
const DefaultLevel = "medium"

type compiledRule struct {
	re    *regexp.Regexp
	level string
}

// Classifier derives a coarse reasoning-effort level from model-name hints.
type Classifier struct {
	rules    []compiledRule
	fallback string
}

// NewClassifier compiles the given rules, preserving order. Malformed
// patterns are dropped rather than aborting classification. An empty
// fallback defaults to DefaultLevel.
func NewClassifier(rules []Rule, fallback string) *Classifier {
	if fallback == "" {
		fallback = DefaultLevel
	}
	c := &Classifier{fallback: fallback}
	for _, r := range rules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			continue
		}
		c.rules = append(c.rules, compiledRule{re: re, level: r.Level})
	}
	return c
}

// Classify joins the hints into one blob and returns the level of the first
// rule whose pattern matches anywhere in it, or the fallback level.
func (c *Classifier) Classify(hints []string) string {
	blob := strings.Join(hints, " ")
	for _, r := range c.rules {
		if r.re.MatchString(blob) {
			return r.level
		}
	}
	return c.fallback
}
