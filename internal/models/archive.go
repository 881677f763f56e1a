// Package models defines the archive schema, stored embedding records, and search query/result types.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Archive is an exported chat archive as submitted for indexing.
type Archive struct {
	Conversations []*Conversation `json:"conversations"`
}

// Workspace describes where a conversation took place.
type Workspace struct {
	Folder *string `json:"folder,omitempty"`
}

// Message is a single chat message inside a conversation.
type Message struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Conversation is one conversation of the archive. Raw holds the JSON object exactly as it was
// received; it is what gets persisted and returned to callers so that fields this service does not
// model survive the round trip.
type Conversation struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Type      string     `json:"type"`
	Workspace *Workspace `json:"workspace,omitempty"`
	Messages  []Message  `json:"messages"`

	Raw json.RawMessage `json:"-"`
}

type conversationAlias Conversation

// UnmarshalJSON decodes the conversation and keeps a copy of the raw object.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var alias conversationAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*c = Conversation(alias)
	c.Raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return nil
}

// MarshalJSON emits the raw object when present, otherwise the modelled fields.
func (c Conversation) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	return json.Marshal(conversationAlias(c))
}

// WorkspaceFolder returns the workspace folder or nil when none was recorded.
func (c *Conversation) WorkspaceFolder() *string {
	if c.Workspace == nil || c.Workspace.Folder == nil {
		return nil
	}
	folder := *c.Workspace.Folder
	return &folder
}

// ParseArchive decodes and validates an exported archive. The input may be the archive itself
// ({"conversations": [...]}) or the index request envelope ({"export_data": {...}}).
// Missing required fields yield a *MalformedArchiveError naming the offending JSON path.
func ParseArchive(data []byte) (*Archive, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &MalformedArchiveError{Path: "$", Reason: "archive must be a JSON object", Cause: err}
	}
	if inner, ok := top["export_data"]; ok {
		if _, hasConvs := top["conversations"]; !hasConvs {
			return ParseArchive(inner)
		}
	}
	rawConvs, ok := top["conversations"]
	if !ok || isNull(rawConvs) {
		return nil, &MalformedArchiveError{Path: "conversations", Reason: "missing required field"}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawConvs, &items); err != nil {
		return nil, &MalformedArchiveError{Path: "conversations", Reason: "must be an array", Cause: err}
	}
	archive := &Archive{Conversations: make([]*Conversation, 0, len(items))}
	for i, item := range items {
		conv, err := parseConversation(item, fmt.Sprintf("conversations[%d]", i))
		if err != nil {
			return nil, err
		}
		archive.Conversations = append(archive.Conversations, conv)
	}
	return archive, nil
}

func parseConversation(data json.RawMessage, path string) (*Conversation, error) {
	fields, err := objectFields(data, path)
	if err != nil {
		return nil, err
	}
	if err := requireFields(fields, path, "id", "title", "type", "messages"); err != nil {
		return nil, err
	}
	var msgs []json.RawMessage
	if err := json.Unmarshal(fields["messages"], &msgs); err != nil {
		return nil, &MalformedArchiveError{Path: path + ".messages", Reason: "must be an array", Cause: err}
	}
	for j, m := range msgs {
		msgPath := fmt.Sprintf("%s.messages[%d]", path, j)
		msgFields, err := objectFields(m, msgPath)
		if err != nil {
			return nil, err
		}
		if err := requireFields(msgFields, msgPath, "id", "role", "timestamp"); err != nil {
			return nil, err
		}
		if _, ok := msgFields["content"]; !ok {
			return nil, &MalformedArchiveError{Path: msgPath + ".content", Reason: "missing required field"}
		}
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, &MalformedArchiveError{Path: path, Reason: "invalid field type", Cause: err}
	}
	if conv.ID == "" {
		return nil, &MalformedArchiveError{Path: path + ".id", Reason: "must be a non-empty string"}
	}
	return &conv, nil
}

func objectFields(data json.RawMessage, path string) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, &MalformedArchiveError{Path: path, Reason: "must be a JSON object", Cause: err}
	}
	return fields, nil
}

func requireFields(fields map[string]json.RawMessage, path string, names ...string) error {
	for _, name := range names {
		v, ok := fields[name]
		if !ok || isNull(v) {
			return &MalformedArchiveError{Path: path + "." + name, Reason: "missing required field"}
		}
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
