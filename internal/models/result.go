package models

// SearchResult is a single ranked match with the record's copied fields and the full conversation.
// FullConversation is nil when the conversation map has no entry for the record's conversation.
type SearchResult struct {
	ConversationID    string        `json:"conversation_id"`
	ConversationTitle string        `json:"conversation_title"`
	MessageID         string        `json:"message_id"`
	MessageContent    string        `json:"message_content"`
	MessageRole       string        `json:"message_role"`
	SimilarityScore   float64       `json:"similarity_score"`
	Timestamp         int64         `json:"timestamp"`
	Type              string        `json:"type"`
	WorkspaceFolder   *string       `json:"workspace_folder"`
	FullConversation  *Conversation `json:"full_conversation"`
}

// NewSearchResult builds a result from rec with the given score and conversation.
func NewSearchResult(rec *EmbeddingRecord, score float64, conv *Conversation) *SearchResult {
	return &SearchResult{
		ConversationID:    rec.ConversationID,
		ConversationTitle: rec.ConversationTitle,
		MessageID:         rec.MessageID,
		MessageContent:    rec.MessageContent,
		MessageRole:       rec.MessageRole,
		SimilarityScore:   score,
		Timestamp:         rec.Timestamp,
		Type:              rec.ConversationType,
		WorkspaceFolder:   rec.WorkspaceFolder,
		FullConversation:  conv,
	}
}
