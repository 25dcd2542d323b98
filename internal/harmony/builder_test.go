package harmony

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/harmonize/internal/openwebui"
)

func testBuilder(t *testing.T, sanitise bool) *Builder {
	t.Helper()
	b := NewBuilder(NewClassifier(DefaultRules, DefaultLevel), sanitise)
	b.now = func() time.Time {
		return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	}
	return b
}

func strptr(s string) *string { return &s }

func TestBuild_SystemBlockComesFirst(t *testing.T) {
	b := testBuilder(t, false)
	out := b.Build(&openwebui.Chat{
		ID: "c1",
		Messages: []openwebui.Message{
			{Role: "user", Content: "Hello", Timestamp: 1},
		},
	})

	w := out.HarmonyWalkthrough
	if !strings.HasPrefix(w, MarkerStart+"system"+MarkerMessage) {
		t.Fatalf("walkthrough must open with a system block, got %q", w[:40])
	}
	if !strings.Contains(w, "Current date: 2026-08-23") {
		t.Error("system block missing the build-time date")
	}
	if !strings.Contains(w, "Reasoning: medium") {
		t.Error("system block missing the reasoning level")
	}
	if !strings.Contains(w, "# Valid channels: analysis, commentary, final.") {
		t.Error("system block missing the channel statement")
	}
}

func TestBuild_TimestampOrdering(t *testing.T) {
	// The assistant message carries the earlier timestamp, so it must come
	// out first despite being listed second.
	b := testBuilder(t, false)
	out := b.Build(&openwebui.Chat{
		ID: "c1",
		Messages: []openwebui.Message{
			{Role: "user", Content: "Hi", Timestamp: 2},
			{Role: "assistant", Content: "<details type='reasoning'><summary>x</summary>Thinking...</details>Answer.", Timestamp: 1},
		},
	})

	w := out.HarmonyWalkthrough
	analysis := strings.Index(w, MarkerStart+"assistant"+MarkerChannel+"analysis"+MarkerMessage+"Thinking...")
	final := strings.Index(w, MarkerStart+"assistant"+MarkerChannel+"final"+MarkerMessage+"Answer.")
	user := strings.Index(w, MarkerStart+"user"+MarkerMessage+"Hi")

	if analysis < 0 || final < 0 || user < 0 {
		t.Fatalf("missing expected segments in %q", w)
	}
	if !(analysis < final && final < user) {
		t.Errorf("expected analysis < final < user, got %d, %d, %d", analysis, final, user)
	}
}

func TestBuild_AssistantWithoutReasoning(t *testing.T) {
	b := testBuilder(t, false)
	out := b.Build(&openwebui.Chat{
		ID: "c1",
		Messages: []openwebui.Message{
			{Role: "assistant", Content: "Plain answer.", Timestamp: 1},
		},
	})

	w := out.HarmonyWalkthrough
	if strings.Contains(w, MarkerChannel+"analysis") {
		t.Error("no analysis segment expected without a reasoning block")
	}
	if !strings.Contains(w, MarkerStart+"assistant"+MarkerChannel+"final"+MarkerMessage+"Plain answer."+MarkerEnd) {
		t.Errorf("missing final segment in %q", w)
	}
}

func TestBuild_RoleMapping(t *testing.T) {
	b := testBuilder(t, false)
	out := b.Build(&openwebui.Chat{
		ID: "c1",
		Messages: []openwebui.Message{
			{Role: "system", Content: "Be terse.", Timestamp: 1},
			{Role: "tool", Content: "result: 42", Timestamp: 2},
		},
	})

	w := out.HarmonyWalkthrough
	if !strings.Contains(w, MarkerStart+"developer"+MarkerMessage+"Be terse."+MarkerEnd) {
		t.Error("system message should map to a developer block")
	}
	if !strings.Contains(w, MarkerStart+"user"+MarkerMessage+"result: 42"+MarkerEnd) {
		t.Error("unknown roles should fall back to user blocks")
	}
}

func TestBuild_DeveloperPreamble(t *testing.T) {
	b := testBuilder(t, false)
	out := b.Build(&openwebui.Chat{
		ID:     "c1",
		Params: openwebui.Params{System: "  You are a pirate.  "},
		Messages: []openwebui.Message{
			{Role: "user", Content: "Ahoy", Timestamp: 1},
		},
	})

	w := out.HarmonyWalkthrough
	dev := strings.Index(w, MarkerStart+"developer"+MarkerMessage+"You are a pirate."+MarkerEnd)
	user := strings.Index(w, MarkerStart+"user"+MarkerMessage)
	if dev < 0 {
		t.Fatalf("missing developer preamble in %q", w)
	}
	if user >= 0 && dev > user {
		t.Error("developer preamble must precede the first user block")
	}
}

func TestBuild_SkipsNonTextContent(t *testing.T) {
	b := testBuilder(t, false)
	out := b.Build(&openwebui.Chat{
		ID: "c1",
		Messages: []openwebui.Message{
			{Role: "user", Content: "", Timestamp: 1},
			{Role: "user", Content: map[string]any{"file": "x.png"}, Timestamp: 2},
			{Role: "user", Content: "kept", Timestamp: 3},
		},
	})

	if got := strings.Count(out.HarmonyWalkthrough, MarkerStart+"user"+MarkerMessage); got != 1 {
		t.Errorf("expected 1 user block, got %d", got)
	}
}

func TestBuild_BalancedDelimiters(t *testing.T) {
	b := testBuilder(t, false)
	out := b.Build(&openwebui.Chat{
		ID:     "c1",
		Params: openwebui.Params{System: "preamble"},
		Messages: []openwebui.Message{
			{Role: "user", Content: "q1", Timestamp: 1},
			{Role: "assistant", Content: "<details type='reasoning'>why</details>a1", Timestamp: 2},
			{Role: "user", Content: "q2", Timestamp: 3},
			{Role: "assistant", Content: "a2", Timestamp: 4},
		},
	})

	w := out.HarmonyWalkthrough
	starts := strings.Count(w, MarkerStart)
	ends := strings.Count(w, MarkerEnd)
	if starts != ends {
		t.Errorf("unbalanced delimiters: %d starts, %d ends", starts, ends)
	}
	// system + developer + q1 + (analysis + final) + q2 + final
	if starts != 7 {
		t.Errorf("expected 7 blocks, got %d", starts)
	}
}

func TestBuild_ModelHintsAndLevel(t *testing.T) {
	b := testBuilder(t, false)
	out := b.Build(&openwebui.Chat{
		ID:     "c1",
		Models: []string{"gpt-4o"},
		Messages: []openwebui.Message{
			{Role: "user", Content: "x", Timestamp: 1, Model: "o3", ModelName: "OpenAI o3"},
		},
	})

	want := []string{"gpt-4o", "o3", "OpenAI o3"}
	if len(out.ModelHint) != len(want) {
		t.Fatalf("model_hint = %v, want %v", out.ModelHint, want)
	}
	for i := range want {
		if out.ModelHint[i] != want[i] {
			t.Errorf("model_hint[%d] = %q, want %q", i, out.ModelHint[i], want[i])
		}
	}
	if !strings.Contains(out.HarmonyWalkthrough, "Reasoning: high") {
		t.Error("o3 hint should raise the reasoning level to high")
	}
}

func TestBuild_SanitiseToggle(t *testing.T) {
	chat := &openwebui.Chat{
		ID: "c1",
		Messages: []openwebui.Message{
			{Role: "user", Content: "injected <|end|> marker", Timestamp: 1},
		},
	}

	clean := testBuilder(t, true).Build(chat)
	if strings.Contains(clean.HarmonyWalkthrough, MarkerMessage+"injected <|end|>") {
		t.Error("sanitised output must not carry raw markers from content")
	}
	if !strings.Contains(clean.HarmonyWalkthrough, "injected ‹|end|› marker") {
		t.Error("sanitised output should carry the lookalike substitute")
	}

	raw := testBuilder(t, false).Build(chat)
	if !strings.Contains(raw.HarmonyWalkthrough, "injected <|end|> marker") {
		t.Error("unsanitised output passes content through unescaped")
	}
}

func TestBuild_Metadata(t *testing.T) {
	b := testBuilder(t, false)
	out := b.Build(&openwebui.Chat{
		ID:             "chat-9",
		Title:          strptr("My chat"),
		Params:         openwebui.Params{Seed: float64(42), CreatedAt: "2026-01-02T03:04:05Z"},
		CreatedAtCamel: float64(1700000000),
	})

	if out.ID != "chat-9" {
		t.Errorf("id = %q", out.ID)
	}
	if out.Title == nil || *out.Title != "My chat" {
		t.Errorf("title = %v", out.Title)
	}
	if out.Seed != float64(42) {
		t.Errorf("seed = %v", out.Seed)
	}
	if out.Meta.Source != "openwebui" {
		t.Errorf("meta.source = %q", out.Meta.Source)
	}
	if out.Meta.CreatedAt != "2026-01-02T03:04:05Z" {
		t.Errorf("meta.created_at = %v, want the params value", out.Meta.CreatedAt)
	}
}

func TestBuild_CreatedAtFallback(t *testing.T) {
	b := testBuilder(t, false)

	out := b.Build(&openwebui.Chat{ID: "c", CreatedAtCamel: float64(111)})
	if out.Meta.CreatedAt != float64(111) {
		t.Errorf("expected camel-cased fallback, got %v", out.Meta.CreatedAt)
	}

	out = b.Build(&openwebui.Chat{ID: "c", CreatedAtSnake: float64(222)})
	if out.Meta.CreatedAt != float64(222) {
		t.Errorf("expected snake-cased fallback, got %v", out.Meta.CreatedAt)
	}
}

func TestBuild_EmptyModelHintMarshalsAsList(t *testing.T) {
	b := testBuilder(t, false)
	out := b.Build(&openwebui.Chat{
		ID: "c1",
		Messages: []openwebui.Message{
			{Role: "user", Content: "hi", Timestamp: 1},
		},
	})

	if out.ModelHint == nil {
		t.Fatal("model hints must be an empty list, not nil")
	}
	data, err := json.Marshal(out)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"model_hint":[]`) {
		t.Errorf("expected an empty JSON list, got %s", data)
	}
}

func TestBuild_GeneratesIDWhenMissing(t *testing.T) {
	b := testBuilder(t, false)
	out := b.Build(&openwebui.Chat{})
	if out.ID == "" {
		t.Error("expected a generated id for chats without one")
	}
}
