package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/chatsearch/internal/models"
	"github.com/hyperjump/chatsearch/internal/vector"
)

// SQLiteStore implements Store using SQLite. Save and Clear each run in one transaction, so records
// and conversations are always replaced together.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS embedding_records (
		seq INTEGER PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		conversation_title TEXT NOT NULL,
		conversation_type TEXT NOT NULL,
		message_id TEXT NOT NULL,
		message_content TEXT NOT NULL,
		message_role TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		workspace_folder TEXT,
		embedding BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_conversation_id ON embedding_records(conversation_id);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		body TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS index_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		indexed_at INTEGER NOT NULL,
		record_count INTEGER NOT NULL,
		conversation_count INTEGER NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Paths returns the database file and its WAL side files.
func (s *SQLiteStore) Paths() []string {
	return []string{s.path, s.path + "-wal", s.path + "-shm"}
}

// Exists reports whether an index has been saved and not cleared since.
func (s *SQLiteStore) Exists(ctx context.Context) bool {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM index_state`).Scan(&n); err != nil {
		return false
	}
	return n > 0
}

// Load reads all records in index order and all conversations.
func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	if !s.Exists(ctx) {
		return nil, ErrStoreNotFound
	}
	snap := NewSnapshot()

	rows, err := s.db.QueryContext(ctx,
		`SELECT conversation_id, conversation_title, conversation_type, message_id, message_content,
		        message_role, timestamp, workspace_folder, embedding
		 FROM embedding_records ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rec models.EmbeddingRecord
		var folder sql.NullString
		var blob []byte
		if err := rows.Scan(&rec.ConversationID, &rec.ConversationTitle, &rec.ConversationType,
			&rec.MessageID, &rec.MessageContent, &rec.MessageRole, &rec.Timestamp, &folder, &blob); err != nil {
			return nil, err
		}
		if rec.Embedding, err = vector.Decode(blob); err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.MessageID, err)
		}
		if folder.Valid {
			rec.WorkspaceFolder = &folder.String
		}
		snap.Records = append(snap.Records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	convRows, err := s.db.QueryContext(ctx, `SELECT id, body FROM conversations`)
	if err != nil {
		return nil, err
	}
	defer convRows.Close()
	for convRows.Next() {
		var id, body string
		if err := convRows.Scan(&id, &body); err != nil {
			return nil, err
		}
		var conv models.Conversation
		if err := json.Unmarshal([]byte(body), &conv); err != nil {
			return nil, fmt.Errorf("failed to decode conversation %s: %w", id, err)
		}
		snap.Conversations[id] = &conv
	}
	return snap, convRows.Err()
}

// Save replaces every table's content in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := clearTables(ctx, tx); err != nil {
		return err
	}

	recStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO embedding_records (seq, conversation_id, conversation_title, conversation_type,
		 message_id, message_content, message_role, timestamp, workspace_folder, embedding)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer recStmt.Close()
	for i, rec := range snap.Records {
		var folder sql.NullString
		if rec.WorkspaceFolder != nil {
			folder = sql.NullString{String: *rec.WorkspaceFolder, Valid: true}
		}
		if _, err := recStmt.ExecContext(ctx, i, rec.ConversationID, rec.ConversationTitle,
			rec.ConversationType, rec.MessageID, rec.MessageContent, rec.MessageRole, rec.Timestamp,
			folder, vector.Encode(rec.Embedding)); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	convStmt, err := tx.PrepareContext(ctx, `INSERT INTO conversations (id, body) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer convStmt.Close()
	for id, conv := range snap.Conversations {
		body, err := json.Marshal(conv)
		if err != nil {
			return fmt.Errorf("failed to encode conversation %s: %w", id, err)
		}
		if _, err := convStmt.ExecContext(ctx, id, string(body)); err != nil {
			return fmt.Errorf("failed to insert conversation %s: %w", id, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO index_state (id, indexed_at, record_count, conversation_count) VALUES (1, ?, ?, ?)`,
		time.Now().Unix(), len(snap.Records), len(snap.Conversations),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Clear deletes all rows.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := clearTables(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

func clearTables(ctx context.Context, tx *sql.Tx) error {
	for _, table := range []string{"index_state", "embedding_records", "conversations"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// Count returns the number of stored conversations.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count); err != nil {
		return 0
	}
	return count
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
