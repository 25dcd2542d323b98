package openwebui

// Chat is one exported Open WebUI conversation.
type Chat struct {
	ID       string    `json:"id"`
	Title    *string   `json:"title"`
	Messages []Message `json:"messages"`
	Models   []string  `json:"models"`
	Params   Params    `json:"params"`

	// Export files are inconsistent about the casing of the chat-level
	// creation timestamp; both spellings are kept for the fallback chain.
	CreatedAtCamel any `json:"createdAt"`
	CreatedAtSnake any `json:"created_at"`
}

// Params carries the per-chat generation parameters Open WebUI stores
// alongside the message list.
type Params struct {
	System    string `json:"system"`
	Seed      any    `json:"seed"`
	CreatedAt any    `json:"created_at"`
}

// Message is a single turn. Content is usually a string but some exports
// carry structured payloads (file attachments, tool output); those are
// preserved as-is and skipped by the converter.
type Message struct {
	Role      string  `json:"role"`
	Content   any     `json:"content"`
	Timestamp float64 `json:"timestamp"`
	Model     string  `json:"model"`
	ModelName string  `json:"modelName"`
}

// Text returns the message content when it is a non-empty string.
func (m *Message) Text() (string, bool) {
	s, ok := m.Content.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// CreatedAt resolves the chat creation timestamp: explicit params value,
// then the camel-cased chat field, then the snake-cased one.
func (c *Chat) CreatedAt() any {
	if c.Params.CreatedAt != nil {
		return c.Params.CreatedAt
	}
	if c.CreatedAtCamel != nil {
		return c.CreatedAtCamel
	}
	return c.CreatedAtSnake
}
