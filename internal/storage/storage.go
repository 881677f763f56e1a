// Package storage persists the vector store: the ordered embedding records and the conversations
// they were taken from.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/chatsearch/internal/config"
	"github.com/hyperjump/chatsearch/internal/models"
)

var (
	// ErrStoreNotFound is returned when no index has been built (or it was cleared).
	ErrStoreNotFound = errors.New("no index found: index an archive first")
	// ErrConversationNotFound is returned for an unknown conversation ID.
	ErrConversationNotFound = errors.New("conversation not found")
)

// Backend names accepted in storage.backend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Snapshot is the complete content of the store. Records keep the order they were indexed in.
type Snapshot struct {
	Records       []*models.EmbeddingRecord
	Conversations map[string]*models.Conversation
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{Conversations: make(map[string]*models.Conversation)}
}

// Lookup returns the conversation with the given ID.
func (s *Snapshot) Lookup(id string) (*models.Conversation, error) {
	conv, ok := s.Conversations[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	return conv, nil
}

// Store persists snapshots. Nothing is cached between calls: every Load reads from storage.
type Store interface {
	// Load returns the stored snapshot or ErrStoreNotFound.
	Load(ctx context.Context) (*Snapshot, error)
	// Save replaces the stored snapshot.
	Save(ctx context.Context, snap *Snapshot) error
	// Clear removes the stored snapshot. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
	// Count returns the number of stored conversations, 0 when there is no readable snapshot.
	Count(ctx context.Context) int
	// Exists reports whether a snapshot is stored.
	Exists(ctx context.Context) bool
	// Paths lists the files backing the store.
	Paths() []string
	Close() error
}

// New opens the store selected by cfg.Backend.
func New(cfg *config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(cfg.DataDir), nil
	case BackendSQLite:
		return NewSQLiteStore(cfg.DatabasePath)
	case BackendBolt:
		return NewBoltStore(cfg.BoltPath), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: file, sqlite, bolt)", cfg.Backend)
	}
}
