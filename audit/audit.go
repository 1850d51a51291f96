// Package audit keeps an append-only log of return lifecycle events.
// Entries never contain SSNs, monetary amounts, or paths outside the safe
// directory.
package audit

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

// Action identifies what happened to a return.
type Action string

const (
	ActionReturnCreated Action = "return_created"
	ActionSaved         Action = "return_saved"
	ActionLoaded        Action = "return_loaded"
	ActionLoadFailed    Action = "return_load_failed"
	ActionCalculated    Action = "return_calculated"
)

var bucketEntries = []byte("entries")

// Entry is one audit record.
type Entry struct {
	ID        string    `json:"id"`
	ReturnID  string    `json:"return_id"`
	Action    Action    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a bbolt-backed audit log.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the audit database at path with owner-only
// permissions.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating audit db directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening audit db: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEntries)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating audit bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records an entry. The ID and timestamp are stamped here.
func (s *Store) Append(returnID string, action Action, detail string) error {
	entry := Entry{
		ID:        uuid.NewString(),
		ReturnID:  returnID,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling audit entry: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, data)
	})
}

// List returns up to limit entries, newest first.
func (s *Store) List(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketEntries).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("unmarshaling audit entry: %w", err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
