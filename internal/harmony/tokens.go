// Package harmony builds and validates Harmony response format transcripts
// from Open WebUI chat exports.
package harmony

import "strings"

// Reserved Harmony delimiter markers. The builder emits the first four;
// constrain/return/call belong to the canonical grammar (constrained output
// and tool call/return semantics) and are only accepted by the validator.
const (
	MarkerStart     = "<|start|>"
	MarkerEnd       = "<|end|>"
	MarkerMessage   = "<|message|>"
	MarkerChannel   = "<|channel|>"
	MarkerConstrain = "<|constrain|>"
	MarkerReturn    = "<|return|>"
	MarkerCall      = "<|call|>"
)

// Markers lists every reserved delimiter, used by the lexer and sanitiser.
var Markers = []string{
	MarkerStart,
	MarkerEnd,
	MarkerMessage,
	MarkerChannel,
	MarkerConstrain,
	MarkerReturn,
	MarkerCall,
}

// sanitiseReplacer swaps ASCII angle brackets in reserved markers for
// single-pointing angle quotation marks, so user-supplied text cannot forge
// control delimiters while staying visually close to the original.
var sanitiseReplacer = newSanitiseReplacer()

func newSanitiseReplacer() *strings.Replacer {
	pairs := make([]string, 0, len(Markers)*2)
	for _, m := range Markers {
		sub := "‹" + strings.Trim(m, "<>") + "›"
		pairs = append(pairs, m, sub)
	}
	return strings.NewReplacer(pairs...)
}

// Sanitise replaces every reserved marker occurrence in s with its
// non-reserved lookalike.
func Sanitise(s string) string {
	return sanitiseReplacer.Replace(s)
}
