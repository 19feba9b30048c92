// Package perm persists per-file access control records. The in-memory map
// is authoritative and guarded by a mutex; the JSON file is a write-through
// copy, never read back per request. This serializes every read-modify-write
// cycle so concurrent uploads cannot drop each other's records.
package perm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"ssci-go/internal/gateway"
)

// Store is a mutex-guarded permission store with write-through JSON
// persistence.
type Store struct {
	mu      sync.Mutex
	path    string
	records map[string]gateway.PermissionRecord
	logger  gateway.Logger
}

var _ gateway.PermissionStore = (*Store)(nil)

// Open loads the store from path. A missing file starts empty; a corrupted
// file is treated as empty rather than crashing, losing the corrupted
// records, which is noted in the log.
func Open(path string, logger gateway.Logger) (*Store, error) {
	s := &Store{
		path:    path,
		records: make(map[string]gateway.PermissionRecord),
		logger:  logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading permission store: %w", err)
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		logger.Warn("permission store corrupted, starting empty", "path", path, "error", err)
		s.records = make(map[string]gateway.PermissionRecord)
	}
	return s, nil
}

// Get returns the record for name, or the safe default if absent.
func (s *Store) Get(name string) (gateway.PermissionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[name]; ok {
		return rec, nil
	}
	return gateway.DefaultPermissions(), nil
}

// Put stores a record and persists the store.
func (s *Store) Put(name string, rec gateway.PermissionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[name] = rec
	return s.persist()
}

// Update applies fn to the current record for name (the default if absent)
// and persists the result. The mutex is held across the callback, so the
// whole read-modify-write cycle is atomic with respect to other store
// operations. An error from fn aborts the update without persisting.
func (s *Store) Update(name string, fn func(gateway.PermissionRecord) (gateway.PermissionRecord, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[name]
	if !ok {
		rec = gateway.DefaultPermissions()
	}
	updated, err := fn(rec)
	if err != nil {
		return err
	}
	s.records[name] = updated
	return s.persist()
}

// Remove deletes a record and persists the store. Removing an absent record
// is a no-op.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[name]; !ok {
		return nil
	}
	delete(s.records, name)
	return s.persist()
}

// persist writes the full record set through a rename so readers never see a
// half-written file. Caller must hold the mutex.
func (s *Store) persist() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding permission store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return fmt.Errorf("creating permission store directory: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing permission store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing permission store: %w", err)
	}
	return nil
}
