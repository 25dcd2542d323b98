package harmony

import "strings"

type lexKind int

const (
	lexText lexKind = iota
	lexStart
	lexEnd
	lexMessage
	lexChannel
	lexConstrain
	lexReturn
	lexCall
)

func (k lexKind) String() string {
	switch k {
	case lexStart:
		return MarkerStart
	case lexEnd:
		return MarkerEnd
	case lexMessage:
		return MarkerMessage
	case lexChannel:
		return MarkerChannel
	case lexConstrain:
		return MarkerConstrain
	case lexReturn:
		return MarkerReturn
	case lexCall:
		return MarkerCall
	default:
		return "text"
	}
}

// lexeme is one atomic unit of a walkthrough: a reserved marker or a span of
// ordinary text. pos is the byte offset in the original string.
type lexeme struct {
	kind lexKind
	text string
	pos  int
}

var markerLexemes = []struct {
	lit  string
	kind lexKind
}{
	{MarkerStart, lexStart},
	{MarkerEnd, lexEnd},
	{MarkerMessage, lexMessage},
	{MarkerChannel, lexChannel},
	{MarkerConstrain, lexConstrain},
	{MarkerReturn, lexReturn},
	{MarkerCall, lexCall},
}

// lexWalkthrough splits a walkthrough into marker and text lexemes. Reserved
// markers are atomic; everything else, including unrecognised "<|" pairs,
// is text.
func lexWalkthrough(s string) []lexeme {
	var out []lexeme
	i := 0
	for i < len(s) {
		j := strings.Index(s[i:], "<|")
		if j < 0 {
			out = append(out, lexeme{kind: lexText, text: s[i:], pos: i})
			break
		}
		if j > 0 {
			out = append(out, lexeme{kind: lexText, text: s[i : i+j], pos: i})
			i += j
		}

		matched := false
		for _, mk := range markerLexemes {
			if strings.HasPrefix(s[i:], mk.lit) {
				out = append(out, lexeme{kind: mk.kind, text: mk.lit, pos: i})
				i += len(mk.lit)
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, lexeme{kind: lexText, text: s[i : i+2], pos: i})
			i += 2
		}
	}
	return out
}
