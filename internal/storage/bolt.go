package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/hyperjump/chatsearch/internal/models"
)

var (
	recordsBucket       = []byte("records")
	conversationsBucket = []byte("conversations")
)

// BoltStore implements Store in a single bbolt file with one bucket for records (keyed by big-endian
// sequence number) and one for conversations. The database is opened per call so the file is not
// locked while idle.
type BoltStore struct {
	path string
}

// NewBoltStore returns a store backed by the bbolt file at path.
func NewBoltStore(path string) *BoltStore {
	return &BoltStore{path: path}
}

// Paths returns the bbolt file path.
func (s *BoltStore) Paths() []string {
	return []string{s.path}
}

func (s *BoltStore) open(readOnly bool) (*bolt.DB, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return nil, err
		}
	}
	return bolt.Open(s.path, 0o600, &bolt.Options{Timeout: 2 * time.Second, ReadOnly: readOnly})
}

func (s *BoltStore) view(fn func(tx *bolt.Tx) error) error {
	if !fileExists(s.path) {
		return ErrStoreNotFound
	}
	db, err := s.open(true)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return db.View(fn)
}

func (s *BoltStore) update(fn func(tx *bolt.Tx) error) error {
	db, err := s.open(false)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return db.Update(fn)
}

// Exists reports whether both buckets are present.
func (s *BoltStore) Exists(_ context.Context) bool {
	err := s.view(func(tx *bolt.Tx) error {
		if tx.Bucket(recordsBucket) == nil || tx.Bucket(conversationsBucket) == nil {
			return ErrStoreNotFound
		}
		return nil
	})
	return err == nil
}

// Load reads records in key order and all conversations.
func (s *BoltStore) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := NewSnapshot()
	err := s.view(func(tx *bolt.Tx) error {
		rb := tx.Bucket(recordsBucket)
		cb := tx.Bucket(conversationsBucket)
		if rb == nil || cb == nil {
			return ErrStoreNotFound
		}
		if err := rb.ForEach(func(k, v []byte) error {
			var rec models.EmbeddingRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to decode record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			snap.Records = append(snap.Records, &rec)
			return nil
		}); err != nil {
			return err
		}
		return cb.ForEach(func(k, v []byte) error {
			var conv models.Conversation
			if err := json.Unmarshal(v, &conv); err != nil {
				return fmt.Errorf("failed to decode conversation %s: %w", k, err)
			}
			snap.Conversations[string(k)] = &conv
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Save recreates both buckets in one update transaction.
func (s *BoltStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		if err := deleteBuckets(tx); err != nil {
			return err
		}
		rb, err := tx.CreateBucket(recordsBucket)
		if err != nil {
			return err
		}
		for i, rec := range snap.Records {
			enc, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			if err := rb.Put(seqKey(uint64(i)), enc); err != nil {
				return err
			}
		}
		cb, err := tx.CreateBucket(conversationsBucket)
		if err != nil {
			return err
		}
		for id, conv := range snap.Conversations {
			enc, err := json.Marshal(conv)
			if err != nil {
				return err
			}
			if err := cb.Put([]byte(id), enc); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear deletes both buckets. A missing database file is left missing.
func (s *BoltStore) Clear(_ context.Context) error {
	if !fileExists(s.path) {
		return nil
	}
	return s.update(deleteBuckets)
}

// Count returns the number of keys in the conversations bucket.
func (s *BoltStore) Count(_ context.Context) int {
	n := 0
	_ = s.view(func(tx *bolt.Tx) error {
		if b := tx.Bucket(conversationsBucket); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n
}

// Close is a no-op; the database is opened per call.
func (s *BoltStore) Close() error {
	return nil
}

func deleteBuckets(tx *bolt.Tx) error {
	for _, name := range [][]byte{recordsBucket, conversationsBucket} {
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
	}
	return nil
}

func seqKey(i uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, i)
	return b
}
