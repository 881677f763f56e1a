package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

const sampleArchive = `{
  "conversations": [
    {
      "id": "c1",
      "title": "Geography",
      "type": "chat",
      "workspace": {"folder": "/home/me/project"},
      "extra": {"kept": true},
      "messages": [
        {"id": "m1", "role": "user", "content": "What is the capital of France?", "timestamp": 1700000000000},
        {"id": "m2", "role": "assistant", "content": null, "timestamp": 1700000000001}
      ]
    }
  ]
}`

func TestParseArchive(t *testing.T) {
	archive, err := ParseArchive([]byte(sampleArchive))
	if err != nil {
		t.Fatal(err)
	}
	if len(archive.Conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(archive.Conversations))
	}
	conv := archive.Conversations[0]
	if conv.ID != "c1" || conv.Type != "chat" || len(conv.Messages) != 2 {
		t.Errorf("unexpected conversation: %+v", conv)
	}
	if f := conv.WorkspaceFolder(); f == nil || *f != "/home/me/project" {
		t.Errorf("workspace folder: got %v", f)
	}
	if conv.Messages[1].Content != "" {
		t.Errorf("null content should decode as empty, got %q", conv.Messages[1].Content)
	}
	if conv.Messages[0].Timestamp != 1700000000000 {
		t.Errorf("timestamp: got %d", conv.Messages[0].Timestamp)
	}
}

func TestParseArchive_envelope(t *testing.T) {
	body := `{"export_data": ` + sampleArchive + `}`
	archive, err := ParseArchive([]byte(body))
	if err != nil {
		t.Fatal(err)
	}
	if len(archive.Conversations) != 1 {
		t.Errorf("expected 1 conversation, got %d", len(archive.Conversations))
	}
}

func TestParseArchive_malformed(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantPath string
	}{
		{"not an object", `[1,2]`, "$"},
		{"missing conversations", `{}`, "conversations"},
		{"conversations not array", `{"conversations": {}}`, "conversations"},
		{"missing id", `{"conversations":[{"title":"t","type":"chat","messages":[]}]}`, "conversations[0].id"},
		{"empty id", `{"conversations":[{"id":"","title":"t","type":"chat","messages":[]}]}`, "conversations[0].id"},
		{"missing type", `{"conversations":[{"id":"a","title":"t","messages":[]}]}`, "conversations[0].type"},
		{"missing messages", `{"conversations":[{"id":"a","title":"t","type":"chat"}]}`, "conversations[0].messages"},
		{"missing content", `{"conversations":[{"id":"a","title":"t","type":"chat","messages":[{"id":"m","role":"user","timestamp":1}]}]}`, "conversations[0].messages[0].content"},
		{"missing timestamp", `{"conversations":[{"id":"a","title":"t","type":"chat","messages":[{"id":"m","role":"user","content":"x"}]}]}`, "conversations[0].messages[0].timestamp"},
		{"string timestamp", `{"conversations":[{"id":"a","title":"t","type":"chat","messages":[{"id":"m","role":"user","content":"x","timestamp":"now"}]}]}`, "conversations[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArchive([]byte(tt.body))
			var me *MalformedArchiveError
			if !errors.As(err, &me) {
				t.Fatalf("expected *MalformedArchiveError, got %v", err)
			}
			if me.Path != tt.wantPath {
				t.Errorf("path: got %q, want %q", me.Path, tt.wantPath)
			}
		})
	}
}

func TestConversation_rawRoundTrip(t *testing.T) {
	archive, err := ParseArchive([]byte(sampleArchive))
	if err != nil {
		t.Fatal(err)
	}
	out, err := json.Marshal(archive.Conversations[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"extra"`) {
		t.Errorf("unmodelled field lost in round trip: %s", out)
	}

	var back Conversation
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if back.ID != "c1" || len(back.Messages) != 2 {
		t.Errorf("decoded conversation: %+v", back)
	}
}

func TestConversation_marshalWithoutRaw(t *testing.T) {
	conv := Conversation{ID: "x", Title: "t", Type: "composer", Messages: []Message{{ID: "m", Role: "user", Content: "hi", Timestamp: 3}}}
	out, err := json.Marshal(conv)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"type":"composer"`) {
		t.Errorf("unexpected output: %s", out)
	}
}
