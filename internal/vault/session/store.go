package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avolkov/lockbox/internal/common"
	"github.com/avolkov/lockbox/internal/filex"
)

const fileSuffix = ".session.json"

// Record is the persisted session state for one user. Exactly one record
// exists per user; writing a new one replaces the old.
type Record struct {
	Username   string `json:"user"`
	WrappedKey []byte `json:"wrapped_key"`
	TokenHash  string `json:"token_hash"`
	CreatedAt  string `json:"created_at"` // ISO-8601, second precision
	TTLMinutes int    `json:"ttl_minutes"`
}

// ExpiresAt computes the record's expiry instant. An unparseable
// created_at yields the zero time, which reads as long expired.
func (r *Record) ExpiresAt() time.Time {
	created, err := time.Parse(time.RFC3339, r.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return created.Add(time.Duration(r.TTLMinutes) * time.Minute)
}

// fileStore keeps one JSON record file per user in an owner-only
// directory. Writes are atomic (temp file + rename), so concurrent
// readers never observe a half-written record.
type fileStore struct {
	dir string
}

func newFileStore(dir string) (*fileStore, error) {
	dir, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &fileStore{dir: dir}, nil
}

func (s *fileStore) path(username string) string {
	return filepath.Join(s.dir, username+fileSuffix)
}

// Put writes (or replaces) the record for record.Username.
func (s *fileStore) Put(record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	return filex.WriteFileAtomic(s.path(record.Username), data)
}

// Get returns the record for username. A missing or unparseable file is
// reported as common.ErrorNotFound: a corrupt record is treated as absent
// rather than crashing the caller.
func (s *fileStore) Get(username string) (*Record, error) {
	data, err := os.ReadFile(s.path(username))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read session record: %w", err)
	}
	record := &Record{}
	if err := json.Unmarshal(data, record); err != nil {
		return nil, common.ErrorNotFound
	}
	return record, nil
}

// Delete removes the record for username. Deleting a non-existent record
// is not an error.
func (s *fileStore) Delete(username string) error {
	err := os.Remove(s.path(username))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

// Usernames lists the users that currently have a session record.
func (s *fileStore) Usernames() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read session dir: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), fileSuffix))
	}
	return names, nil
}
