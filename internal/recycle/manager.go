// Package recycle stages soft-deleted files for a limited time. Bytes move
// into the recycle directory under a timestamped internal name; metadata is
// an in-memory map guarded by a mutex with write-through JSON persistence.
// Expiry is discovered opportunistically: every listing or mutating access
// sweeps out entries older than the TTL before proceeding. There is no
// background timer.
package recycle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"ssci-go/internal/gateway"
)

const metadataFile = "metadata.json"

// entryMeta is the persisted form of one recycle entry.
type entryMeta struct {
	OriginalName string                   `json:"original_name"`
	DeletedAt    int64                    `json:"deleted_at"`
	DeletedBy    string                   `json:"deleted_by"`
	Permissions  gateway.PermissionRecord `json:"permissions"`
}

// Manager is the filesystem-backed recycle bin.
type Manager struct {
	mu       sync.Mutex
	dir      string
	metaPath string
	entries  map[string]entryMeta
	clock    gateway.Clock
	logger   gateway.Logger
}

var _ gateway.RecycleBin = (*Manager)(nil)

// Open creates the recycle directory if needed and loads its metadata. A
// corrupted metadata file is treated as empty rather than crashing; the loss
// is noted in the log.
func Open(dir string, clock gateway.Clock, logger gateway.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating recycle directory: %w", err)
	}

	m := &Manager{
		dir:      dir,
		metaPath: filepath.Join(dir, metadataFile),
		entries:  make(map[string]entryMeta),
		clock:    clock,
		logger:   logger,
	}

	data, err := os.ReadFile(m.metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("reading recycle metadata: %w", err)
	}
	if err := json.Unmarshal(data, &m.entries); err != nil {
		logger.Warn("recycle metadata corrupted, starting empty", "path", m.metaPath, "error", err)
		m.entries = make(map[string]entryMeta)
	}
	return m, nil
}

// Stash moves the file at srcPath into the recycle area under a fresh
// internal name and records its metadata. The internal name embeds the
// deletion timestamp and stays unique even when the same original name is
// deleted repeatedly.
func (m *Manager) Stash(srcPath, originalName, deletedBy string, perms gateway.PermissionRecord) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()

	now := m.clock.Now()
	internal := fmt.Sprintf("%d_%s", now.UnixMilli(), originalName)
	for i := 1; ; i++ {
		if _, taken := m.entries[internal]; !taken {
			break
		}
		internal = fmt.Sprintf("%d_%d_%s", now.UnixMilli(), i, originalName)
	}

	if err := os.Rename(srcPath, filepath.Join(m.dir, internal)); err != nil {
		return "", fmt.Errorf("moving %s to recycle bin: %w", originalName, err)
	}

	m.entries[internal] = entryMeta{
		OriginalName: originalName,
		DeletedAt:    now.Unix(),
		DeletedBy:    deletedBy,
		Permissions:  perms,
	}
	if err := m.persist(); err != nil {
		return "", err
	}
	return internal, nil
}

// List sweeps expired entries, then returns the survivors with their
// remaining time-to-live, newest deletion first.
func (m *Manager) List() ([]*gateway.RecycleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()

	now := m.clock.Now().Unix()
	ttl := int64(gateway.RecycleTTL.Seconds())

	entries := make([]*gateway.RecycleEntry, 0, len(m.entries))
	for internal, meta := range m.entries {
		fi, err := os.Stat(filepath.Join(m.dir, internal))
		if err != nil {
			m.logger.Warn("recycled file missing on disk", "internal", internal, "error", err)
			continue
		}
		remaining := ttl - (now - meta.DeletedAt)
		if remaining < 0 {
			remaining = 0
		}
		entries = append(entries, &gateway.RecycleEntry{
			InternalName:  internal,
			OriginalName:  meta.OriginalName,
			Size:          fi.Size(),
			DeletedAt:     meta.DeletedAt,
			DeletedBy:     meta.DeletedBy,
			TimeRemaining: remaining,
			Permissions:   meta.Permissions,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DeletedAt != entries[j].DeletedAt {
			return entries[i].DeletedAt > entries[j].DeletedAt
		}
		return entries[i].InternalName > entries[j].InternalName
	})
	return entries, nil
}

// Restore moves an entry's bytes back to destDir under its original name.
// If the destination already exists the restore fails with ErrConflict and
// both the recycle entry and the existing file are left untouched.
func (m *Manager) Restore(internalName, destDir string) (*gateway.RecycleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()

	meta, ok := m.entries[internalName]
	if !ok {
		return nil, fmt.Errorf("recycle entry %s: %w", internalName, gateway.ErrNotFound)
	}

	src := filepath.Join(m.dir, internalName)
	if _, err := os.Stat(src); err != nil {
		return nil, fmt.Errorf("recycle entry %s: %w", internalName, gateway.ErrNotFound)
	}

	dest := filepath.Join(destDir, meta.OriginalName)
	if _, err := os.Lstat(dest); err == nil {
		return nil, fmt.Errorf("%s: %w", meta.OriginalName, gateway.ErrConflict)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("checking restore target: %w", err)
	}

	if err := os.Rename(src, dest); err != nil {
		return nil, fmt.Errorf("restoring %s: %w", meta.OriginalName, err)
	}

	delete(m.entries, internalName)
	if err := m.persist(); err != nil {
		return nil, err
	}
	return m.toEntry(internalName, meta), nil
}

// Purge permanently deletes one entry's bytes and metadata.
func (m *Manager) Purge(internalName string) (*gateway.RecycleEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()

	meta, ok := m.entries[internalName]
	if !ok {
		return nil, fmt.Errorf("recycle entry %s: %w", internalName, gateway.ErrNotFound)
	}

	if err := os.Remove(filepath.Join(m.dir, internalName)); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("deleting %s: %w", internalName, err)
	}
	delete(m.entries, internalName)
	if err := m.persist(); err != nil {
		return nil, err
	}
	return m.toEntry(internalName, meta), nil
}

// Empty permanently deletes every entry and returns how many were removed.
func (m *Manager) Empty() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for internal := range m.entries {
		if err := os.Remove(filepath.Join(m.dir, internal)); err != nil && !os.IsNotExist(err) {
			return count, fmt.Errorf("deleting %s: %w", internal, err)
		}
		delete(m.entries, internal)
		count++
	}
	if err := m.persist(); err != nil {
		return count, err
	}
	return count, nil
}

// sweep purges entries whose age exceeds the TTL, bytes and metadata. Caller
// must hold the mutex.
func (m *Manager) sweep() {
	now := m.clock.Now().Unix()
	ttl := int64(gateway.RecycleTTL.Seconds())

	changed := false
	for internal, meta := range m.entries {
		if now-meta.DeletedAt <= ttl {
			continue
		}
		if err := os.Remove(filepath.Join(m.dir, internal)); err != nil && !os.IsNotExist(err) {
			m.logger.Warn("sweeping expired recycle entry failed", "internal", internal, "error", err)
			continue
		}
		delete(m.entries, internal)
		changed = true
		m.logger.Debug("expired recycle entry purged", "internal", internal, "original", meta.OriginalName)
	}
	if changed {
		if err := m.persist(); err != nil {
			m.logger.Error("persisting recycle metadata after sweep failed", "error", err)
		}
	}
}

// persist writes the metadata map through a rename. Caller must hold the
// mutex.
func (m *Manager) persist() error {
	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding recycle metadata: %w", err)
	}
	tmp := m.metaPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing recycle metadata: %w", err)
	}
	if err := os.Rename(tmp, m.metaPath); err != nil {
		return fmt.Errorf("replacing recycle metadata: %w", err)
	}
	return nil
}

func (m *Manager) toEntry(internal string, meta entryMeta) *gateway.RecycleEntry {
	return &gateway.RecycleEntry{
		InternalName: internal,
		OriginalName: meta.OriginalName,
		DeletedAt:    meta.DeletedAt,
		DeletedBy:    meta.DeletedBy,
		Permissions:  meta.Permissions,
	}
}
