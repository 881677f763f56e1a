package models

// EmbeddingRecord is one indexed message. Conversation and message fields are copied in so a search
// needs no join against the conversation map.
type EmbeddingRecord struct {
	Embedding         []float32 `json:"embedding"`
	ConversationID    string    `json:"conversation_id"`
	ConversationTitle string    `json:"conversation_title"`
	ConversationType  string    `json:"conversation_type"`
	MessageID         string    `json:"message_id"`
	MessageContent    string    `json:"message_content"`
	MessageRole       string    `json:"message_role"`
	Timestamp         int64     `json:"timestamp"`
	WorkspaceFolder   *string   `json:"workspace_folder"`
}

// NewEmbeddingRecord builds the record for msg of conv with the given vector.
func NewEmbeddingRecord(conv *Conversation, msg *Message, vec []float32) *EmbeddingRecord {
	return &EmbeddingRecord{
		Embedding:         vec,
		ConversationID:    conv.ID,
		ConversationTitle: conv.Title,
		ConversationType:  conv.Type,
		MessageID:         msg.ID,
		MessageContent:    msg.Content,
		MessageRole:       msg.Role,
		Timestamp:         msg.Timestamp,
		WorkspaceFolder:   conv.WorkspaceFolder(),
	}
}

// IndexResult summarizes an index run.
type IndexResult struct {
	IndexedMessages      int `json:"indexed_messages"`
	IndexedConversations int `json:"indexed_conversations"`
}
