package harmony

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/harmonize/internal/openwebui"
)

// sourceLabel tags every output with the export format it came from.
const sourceLabel = "openwebui"

// systemTemplate is the fixed opening system block. The two verbs are the
// current calendar date and the computed reasoning level.
const systemTemplate = MarkerStart + "system" + MarkerMessage +
	"You are ChatGPT, a large language model trained by OpenAI.\n" +
	"Knowledge cutoff: 2024-06\n" +
	"Current date: %s\n\n" +
	"Reasoning: %s\n\n" +
	"# Valid channels: analysis, commentary, final. Channel must be included for every message.\n" +
	MarkerEnd + "\n"

// Output is the converted form of one chat, serialised one JSON object per
// output file.
type Output struct {
	ID                 string   `json:"id"`
	Title              *string  `json:"title"`
	Seed               any      `json:"seed"`
	ModelHint          []string `json:"model_hint"`
	HarmonyWalkthrough string   `json:"harmony_walkthrough"`
	Meta               Meta     `json:"meta"`
}

// Meta carries provenance for an Output.
type Meta struct {
	Source    string `json:"source"`
	CreatedAt any    `json:"created_at"`
}

// Builder assembles Harmony walkthrough strings from exported chats.
type Builder struct {
	classifier *Classifier
	sanitise   bool
	now        func() time.Time
}

// NewBuilder creates a Builder. When sanitise is true every emitted content
// frame has reserved markers replaced with lookalikes; when false content
// passes through unescaped, a known injection risk the caller accepts.
func NewBuilder(classifier *Classifier, sanitise bool) *Builder {
	return &Builder{
		classifier: classifier,
		sanitise:   sanitise,
		now:        time.Now,
	}
}

// Build converts one chat into a Harmony walkthrough plus its metadata.
func (b *Builder) Build(chat *openwebui.Chat) *Output {
	hints := gatherModelHints(chat)
	level := b.classifier.Classify(hints)

	// Stable sort by timestamp; missing timestamps are zero and keep their
	// original relative order at the front.
	msgs := make([]openwebui.Message, len(chat.Messages))
	copy(msgs, chat.Messages)
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp < msgs[j].Timestamp
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, systemTemplate, b.now().Format("2006-01-02"), level)

	if dev := strings.TrimSpace(chat.Params.System); dev != "" {
		b.writeBlock(&sb, "developer", "", dev)
	}

	for i := range msgs {
		content, ok := msgs[i].Text()
		if !ok {
			continue
		}
		switch msgs[i].Role {
		case "user":
			b.writeBlock(&sb, "user", "", strings.TrimSpace(content))
		case "assistant":
			split := Split(content)
			if split.HasReasoning {
				b.writeBlock(&sb, "assistant", "analysis", split.Reasoning)
			}
			// The final segment is always emitted, even when empty.
			b.writeBlock(&sb, "assistant", "final", split.Final)
		case "system":
			b.writeBlock(&sb, "developer", "", strings.TrimSpace(content))
		default:
			b.writeBlock(&sb, "user", "", strings.TrimSpace(content))
		}
	}

	id := chat.ID
	if id == "" {
		id = uuid.NewString()
	}

	return &Output{
		ID:                 id,
		Title:              chat.Title,
		Seed:               chat.Params.Seed,
		ModelHint:          hints,
		HarmonyWalkthrough: sb.String(),
		Meta: Meta{
			Source:    sourceLabel,
			CreatedAt: chat.CreatedAt(),
		},
	}
}

func (b *Builder) writeBlock(sb *strings.Builder, role, channel, text string) {
	sb.WriteString(MarkerStart)
	sb.WriteString(role)
	if channel != "" {
		sb.WriteString(MarkerChannel)
		sb.WriteString(channel)
	}
	sb.WriteString(MarkerMessage)
	if b.sanitise {
		text = Sanitise(text)
	}
	sb.WriteString(text)
	sb.WriteString(MarkerEnd)
	sb.WriteString("\n")
}

// gatherModelHints collects the chat-level model list plus any per-message
// model and modelName fields, in that order.
func gatherModelHints(chat *openwebui.Chat) []string {
	hints := append([]string{}, chat.Models...)
	for i := range chat.Messages {
		if m := chat.Messages[i].Model; m != "" {
			hints = append(hints, m)
		}
		if m := chat.Messages[i].ModelName; m != "" {
			hints = append(hints, m)
		}
	}
	return hints
}
