package storage

import (
	"bytes"
	"context"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hyperjump/chatsearch/internal/models"
)

const (
	recordsFile       = "embeddings.gob"
	conversationsFile = "conversations.json"
)

// FileStore keeps records in a gob file and conversations in a JSON file inside one directory.
// Each file is replaced atomically; the pair is not, so a crash between the two writes can leave new
// records next to old conversations.
type FileStore struct {
	dir string
}

// gobRecord mirrors models.EmbeddingRecord. gob drops pointers to zero values, so the workspace
// folder is carried with an explicit presence flag.
type gobRecord struct {
	Embedding         []float32
	ConversationID    string
	ConversationTitle string
	ConversationType  string
	MessageID         string
	MessageContent    string
	MessageRole       string
	Timestamp         int64
	WorkspaceFolder   string
	HasWorkspace      bool
}

// NewFileStore returns a store rooted at dir. The directory is created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) recordsPath() string       { return filepath.Join(s.dir, recordsFile) }
func (s *FileStore) conversationsPath() string { return filepath.Join(s.dir, conversationsFile) }

// Paths returns the records and conversations file paths.
func (s *FileStore) Paths() []string {
	return []string{s.recordsPath(), s.conversationsPath()}
}

// Exists reports whether both files are present.
func (s *FileStore) Exists(_ context.Context) bool {
	return fileExists(s.recordsPath()) && fileExists(s.conversationsPath())
}

// Load reads both files.
func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.Exists(ctx) {
		return nil, ErrStoreNotFound
	}

	data, err := os.ReadFile(s.recordsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	var stored []gobRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	data, err = os.ReadFile(s.conversationsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}
	snap := NewSnapshot()
	if err := json.Unmarshal(data, &snap.Conversations); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	if snap.Conversations == nil {
		snap.Conversations = make(map[string]*models.Conversation)
	}

	snap.Records = make([]*models.EmbeddingRecord, len(stored))
	for i := range stored {
		snap.Records[i] = stored[i].record()
	}
	return snap, nil
}

// Save writes records first, then conversations.
func (s *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	stored := make([]gobRecord, len(snap.Records))
	for i, rec := range snap.Records {
		stored[i] = toGobRecord(rec)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(stored); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	if err := writeFileAtomic(s.recordsPath(), buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}

	convs := snap.Conversations
	if convs == nil {
		convs = map[string]*models.Conversation{}
	}
	data, err := json.Marshal(convs)
	if err != nil {
		return fmt.Errorf("failed to encode conversations: %w", err)
	}
	if err := writeFileAtomic(s.conversationsPath(), data); err != nil {
		return fmt.Errorf("failed to write conversations: %w", err)
	}
	return nil
}

// Clear removes both files.
func (s *FileStore) Clear(_ context.Context) error {
	for _, p := range s.Paths() {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// Count decodes only the conversations file.
func (s *FileStore) Count(_ context.Context) int {
	data, err := os.ReadFile(s.conversationsPath())
	if err != nil {
		return 0
	}
	var convs map[string]json.RawMessage
	if err := json.Unmarshal(data, &convs); err != nil {
		return 0
	}
	return len(convs)
}

// Close is a no-op; files are opened per call.
func (s *FileStore) Close() error {
	return nil
}

func toGobRecord(rec *models.EmbeddingRecord) gobRecord {
	g := gobRecord{
		Embedding:         rec.Embedding,
		ConversationID:    rec.ConversationID,
		ConversationTitle: rec.ConversationTitle,
		ConversationType:  rec.ConversationType,
		MessageID:         rec.MessageID,
		MessageContent:    rec.MessageContent,
		MessageRole:       rec.MessageRole,
		Timestamp:         rec.Timestamp,
	}
	if rec.WorkspaceFolder != nil {
		g.WorkspaceFolder = *rec.WorkspaceFolder
		g.HasWorkspace = true
	}
	return g
}

func (g *gobRecord) record() *models.EmbeddingRecord {
	rec := &models.EmbeddingRecord{
		Embedding:         g.Embedding,
		ConversationID:    g.ConversationID,
		ConversationTitle: g.ConversationTitle,
		ConversationType:  g.ConversationType,
		MessageID:         g.MessageID,
		MessageContent:    g.MessageContent,
		MessageRole:       g.MessageRole,
		Timestamp:         g.Timestamp,
	}
	if g.HasWorkspace {
		folder := g.WorkspaceFolder
		rec.WorkspaceFolder = &folder
	}
	return rec
}

// writeFileAtomic writes data to a temp file in the target directory and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
