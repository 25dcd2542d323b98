package harmony

import (
	"regexp"
	"strings"
)

// ReasoningSplit is the result of separating an assistant message into its
// hidden reasoning and user-visible final answer. Final is always set
// (possibly empty); Reasoning only when a recognised block was found.
type ReasoningSplit struct {
	Reasoning    string
	HasReasoning bool
	Final        string
}

var (
	detailsRe = regexp.MustCompile(`(?is)<details[^>]*type=["']reasoning["'][^>]*>(.*?)</details>\s*`)
	summaryRe = regexp.MustCompile(`(?is)<summary>.*?</summary>`)
	tagRe     = regexp.MustCompile(`</?[^>]+>`)
	quoteRe   = regexp.MustCompile(`(?m)^\s*>\s?`)
)

// Split extracts the reasoning block from an assistant message body.
//
// Open WebUI renders model chain-of-thought as a collapsible
// `<details type="reasoning">` block ahead of the visible answer. The first
// such block becomes the reasoning text (summary sub-block removed, residual
// markup stripped, leading block-quote markers dropped); everything after
// the block becomes the final text. Without a block the whole content is
// the final text. Line endings are normalised to LF before matching.
func Split(content string) ReasoningSplit {
	text := strings.ReplaceAll(content, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	loc := detailsRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return ReasoningSplit{Final: strings.TrimSpace(text)}
	}

	inner := text[loc[2]:loc[3]]
	inner = summaryRe.ReplaceAllString(inner, "")
	inner = tagRe.ReplaceAllString(inner, "")
	inner = quoteRe.ReplaceAllString(inner, "")
	reasoning := strings.TrimSpace(inner)

	return ReasoningSplit{
		Reasoning:    reasoning,
		HasReasoning: reasoning != "",
		Final:        strings.TrimSpace(text[loc[1]:]),
	}
}
