package harmony

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tiktoken-go/tokenizer"
)

// errUnavailable signals that a validation strategy cannot run at all, as
// opposed to the walkthrough failing its checks. The caller moves on to the
// next strategy.
var errUnavailable = errors.New("validation strategy unavailable")

// strategy is one way of structurally checking a walkthrough. check returns
// the violations found (nil means valid), or an error: errUnavailable to
// hand over to the next strategy, anything else is a hard validator fault.
type strategy interface {
	name() string
	check(walkthrough string) ([]string, error)
}

// Validator runs an ordered list of structural validation strategies and a
// set of string-level sanity checks over walkthrough strings.
type Validator struct {
	strategies []strategy
}

// NewValidator returns a Validator with the canonical lexer/parser strategy
// first and the byte-pair-encoder fallback behind it.
func NewValidator() *Validator {
	return &Validator{strategies: []strategy{
		canonicalStrategy{},
		newBPEStrategy(),
	}}
}

// Validate checks a walkthrough against the Harmony grammar. An empty slice
// means valid. The string-level sanity checks always run and are appended to
// whatever the strategy tier produced.
func (v *Validator) Validate(walkthrough string) []string {
	if strings.TrimSpace(walkthrough) == "" {
		return []string{"walkthrough is empty or not a string"}
	}

	errs := v.structural(walkthrough)
	errs = append(errs, sanityChecks(walkthrough)...)
	return errs
}

func (v *Validator) structural(walkthrough string) []string {
	for _, st := range v.strategies {
		violations, err := st.check(walkthrough)
		if err == nil {
			return violations
		}
		if errors.Is(err, errUnavailable) {
			continue
		}
		return []string{fmt.Sprintf("validator error (%s): %v", st.name(), err)}
	}
	return []string{"dependency missing: no tokenizer available for structural validation"}
}

// canonicalStrategy lexes the walkthrough with the reserved markers as
// atomic lexemes and replays the stream through the structural parser. The
// first violation short-circuits further structural checks.
type canonicalStrategy struct{}

func (canonicalStrategy) name() string { return "canonical" }

func (canonicalStrategy) check(walkthrough string) ([]string, error) {
	return replay(lexWalkthrough(walkthrough))
}

// bpeStrategy is the fallback tier: confirm the non-marker spans tokenize
// under a best-effort byte-pair encoding, then still replay through the
// canonical structural parser. Tokenizability alone proves nothing about
// structure, so this tier is no stronger than the canonical one, only more
// tolerant of encoder availability.
type bpeStrategy struct {
	encodings []tokenizer.Encoding
}

func newBPEStrategy() *bpeStrategy {
	return &bpeStrategy{encodings: []tokenizer.Encoding{
		"o200k_harmony",
		tokenizer.O200kBase,
		tokenizer.Cl100kBase,
	}}
}

func (s *bpeStrategy) name() string { return "bpe-fallback" }

func (s *bpeStrategy) check(walkthrough string) ([]string, error) {
	var codec tokenizer.Codec
	tried := make([]string, 0, len(s.encodings))
	for _, enc := range s.encodings {
		tried = append(tried, string(enc))
		if c, err := tokenizer.Get(enc); err == nil {
			codec = c
			break
		}
	}
	if codec == nil {
		return nil, fmt.Errorf("%w: no byte-pair encoding loaded (tried %s)",
			errUnavailable, strings.Join(tried, ", "))
	}

	lexemes := lexWalkthrough(walkthrough)
	for _, lx := range lexemes {
		if lx.kind != lexText {
			continue // reserved markers are atomic tokens
		}
		if _, _, err := codec.Encode(lx.text); err != nil {
			return nil, fmt.Errorf("tokenize with %s: %w", codec.GetName(), err)
		}
	}

	return replay(lexemes)
}

func replay(lexemes []lexeme) ([]string, error) {
	p := &streamParser{}
	for _, lx := range lexemes {
		if err := p.process(lx); err != nil {
			return []string{fmt.Sprintf("harmony spec violation: %v", err)}, nil
		}
	}
	if err := p.finish(); err != nil {
		return []string{fmt.Sprintf("harmony spec violation: %v", err)}, nil
	}
	return nil, nil
}

var (
	firstBlockRe = regexp.MustCompile(`<\|start\|>([^<]*)<\|message\|>`)
	badChannelRe = regexp.MustCompile(`<\|start\|>(user|system|developer)<\|channel\|>`)
)

// sanityChecks are cheap string-level checks that run regardless of which
// strategy tier handled the walkthrough.
func sanityChecks(walkthrough string) []string {
	var errs []string

	starts := strings.Count(walkthrough, MarkerStart)
	ends := strings.Count(walkthrough, MarkerEnd)
	if starts != ends {
		errs = append(errs, fmt.Sprintf("unbalanced blocks: %d %s vs %d %s", starts, MarkerStart, ends, MarkerEnd))
	}

	m := firstBlockRe.FindStringSubmatch(walkthrough)
	if m == nil || !strings.HasPrefix(strings.TrimSpace(m[1]), "system") {
		errs = append(errs, "first block must be a system message")
	}

	for _, bad := range badChannelRe.FindAllStringSubmatch(walkthrough, -1) {
		errs = append(errs, fmt.Sprintf("channel marker used with non-assistant role: %s", bad[1]))
	}

	return errs
}
