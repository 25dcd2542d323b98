package harmony

import (
	"fmt"
	"strings"
)

// parseState tracks where the stream parser is inside the block grammar:
//
//	<|start|> role [<|channel|> channel [<|constrain|> type]] <|message|> text (<|end|>|<|return|>|<|call|>)
type parseState int

const (
	stateStart      parseState = iota // between blocks, expecting <|start|>
	stateRole                         // expecting the role name
	stateHeader                       // after role, expecting <|channel|> or <|message|>
	stateChannel                      // expecting the channel name
	stateChannelEnd                   // after channel, expecting <|message|> or constrain header
	stateBody                         // inside message text, expecting a terminator
)

var validRoles = map[string]bool{
	"system":    true,
	"developer": true,
	"user":      true,
	"assistant": true,
}

var validChannels = map[string]bool{
	"analysis":   true,
	"commentary": true,
	"final":      true,
}

// streamParser replays a lexeme stream and enforces the Harmony block
// grammar incrementally, failing on the first violation.
type streamParser struct {
	state  parseState
	role   string
	blocks int
}

func (p *streamParser) process(lx lexeme) error {
	switch p.state {
	case stateStart:
		switch lx.kind {
		case lexStart:
			p.state = stateRole
			p.role = ""
		case lexText:
			if strings.TrimSpace(lx.text) != "" {
				return fmt.Errorf("content outside a block at offset %d", lx.pos)
			}
		default:
			return fmt.Errorf("unexpected %s between blocks at offset %d", lx.kind, lx.pos)
		}

	case stateRole:
		if lx.kind != lexText {
			return fmt.Errorf("expected role name after %s at offset %d", MarkerStart, lx.pos)
		}
		role := strings.TrimSpace(lx.text)
		if !validRoles[role] {
			return fmt.Errorf("unknown role %q at offset %d", role, lx.pos)
		}
		p.role = role
		p.state = stateHeader

	case stateHeader:
		switch lx.kind {
		case lexChannel:
			if p.role != "assistant" {
				return fmt.Errorf("channel marker used with non-assistant role %q at offset %d", p.role, lx.pos)
			}
			p.state = stateChannel
		case lexMessage:
			p.state = stateBody
		default:
			return fmt.Errorf("expected %s or %s after role %q at offset %d", MarkerChannel, MarkerMessage, p.role, lx.pos)
		}

	case stateChannel:
		if lx.kind != lexText {
			return fmt.Errorf("expected channel name after %s at offset %d", MarkerChannel, lx.pos)
		}
		channel := strings.TrimSpace(lx.text)
		if !validChannels[channel] {
			return fmt.Errorf("invalid channel %q at offset %d", channel, lx.pos)
		}
		p.state = stateChannelEnd

	case stateChannelEnd:
		switch lx.kind {
		case lexMessage:
			p.state = stateBody
		case lexConstrain, lexText:
			// Constrained-output annotation in the header; stays in place
			// until the message marker.
		default:
			return fmt.Errorf("expected %s after channel at offset %d", MarkerMessage, lx.pos)
		}

	case stateBody:
		switch lx.kind {
		case lexText:
			// Message content.
		case lexEnd, lexReturn, lexCall:
			p.blocks++
			p.state = stateStart
		default:
			return fmt.Errorf("reserved marker %s inside message body at offset %d", lx.kind, lx.pos)
		}
	}
	return nil
}

// finish reports an error if the stream ended mid-block or held no blocks.
func (p *streamParser) finish() error {
	if p.state != stateStart {
		return fmt.Errorf("walkthrough ends inside an unterminated block")
	}
	if p.blocks == 0 {
		return fmt.Errorf("no message blocks found")
	}
	return nil
}
