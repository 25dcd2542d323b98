package openwebui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// ParseContainer decodes an Open WebUI export blob. The export format is
// loose: either a JSON array of entries (each `{"chat": {...}}` or a bare
// chat object) or a single such entry. Entries that are not objects are
// skipped; object entries with mistyped fields are an error so the caller
// can surface the malformed chat instead of silently dropping it. A
// zero-length result with nil error means the container parsed but held no
// chats.
func ParseContainer(data []byte) ([]Chat, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err == nil {
		var chats []Chat
		for i, raw := range entries {
			chat, ok, err := decodeEntry(raw)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			if ok {
				chats = append(chats, chat)
			}
		}
		return chats, nil
	}

	chat, ok, err := decodeEntry(data)
	if err != nil {
		return nil, err
	}
	if ok {
		return []Chat{chat}, nil
	}
	return nil, fmt.Errorf("container is not a chat object or array of chat objects")
}

// LoadFile reads and parses one export file.
func LoadFile(path string) ([]Chat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	chats, err := ParseContainer(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return chats, nil
}

// decodeEntry unwraps a `{"chat": {...}}` wrapper if present, otherwise
// treats the entry itself as the chat object. Non-object entries are
// reported as skipped; objects that fail to decode return the error.
func decodeEntry(raw []byte) (Chat, bool, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Chat{}, false, nil
	}

	var wrapper struct {
		Chat *Chat `json:"chat"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Chat != nil {
		return *wrapper.Chat, true, nil
	}

	var chat Chat
	if err := json.Unmarshal(raw, &chat); err != nil {
		return Chat{}, false, fmt.Errorf("decode chat: %w", err)
	}
	return chat, true, nil
}
