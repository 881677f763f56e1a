// Package e2e provides end-to-end tests with a large archive and multiple queries.
package e2e

import (
	"fmt"

	"github.com/hyperjump/chatsearch/internal/models"
)

// QueryTestCase defines a query and the conversation that must rank first for it.
type QueryTestCase struct {
	Query                  string
	ExpectedConversationID string
	Description            string
}

// Corpus holds an archive and query test cases for E2E tests.
type Corpus struct {
	Archive      *models.Archive
	TestCases    []QueryTestCase
	TotalConvs   int
	TotalQueries int
}

var topics = []string{
	"pagination", "migrations", "goroutines", "websockets", "tokenizer",
	"kubernetes", "terraform", "postgres", "redis", "graphql",
	"oauth", "webpack", "docker", "profiling", "benchmarks",
	"serialization", "retries", "caching", "logging", "tracing",
}

var conversationTypes = []string{"chat", "composer"}

// BuildCorpus returns an archive of n conversations. Each conversation has one indexable message
// carrying a unique signature token, one message too short to index, and a topic word.
func BuildCorpus(n int) *Corpus {
	archive := &models.Archive{Conversations: make([]*models.Conversation, 0, n)}
	var cases []QueryTestCase
	for i := 0; i < n; i++ {
		topic := topics[i%len(topics)]
		sig := signature(i)
		conv := &models.Conversation{
			ID:    fmt.Sprintf("conv-%03d", i),
			Title: fmt.Sprintf("Session %d on %s", i, topic),
			Type:  conversationTypes[i%len(conversationTypes)],
			Messages: []models.Message{
				{
					ID:        fmt.Sprintf("m-%03d-0", i),
					Role:      "user",
					Content:   fmt.Sprintf("Question about %s, reference %s, please explain the details", topic, sig),
					Timestamp: int64(1700000000 + i*10),
				},
				{
					ID:        fmt.Sprintf("m-%03d-1", i),
					Role:      "assistant",
					Content:   "sure",
					Timestamp: int64(1700000001 + i*10),
				},
			},
		}
		if i%3 == 0 {
			folder := fmt.Sprintf("/work/project-%d", i%7)
			conv.Workspace = &models.Workspace{Folder: &folder}
		}
		archive.Conversations = append(archive.Conversations, conv)
		if i%5 == 0 {
			cases = append(cases, QueryTestCase{
				Query:                  sig + " " + topic,
				ExpectedConversationID: conv.ID,
				Description:            fmt.Sprintf("signature of conversation %d", i),
			})
		}
	}
	return &Corpus{
		Archive:      archive,
		TestCases:    cases,
		TotalConvs:   n,
		TotalQueries: len(cases),
	}
}

func signature(i int) string {
	return fmt.Sprintf("sig%03dx", i)
}
