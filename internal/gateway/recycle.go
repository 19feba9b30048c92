package gateway

import "time"

// RecycleTTL is how long a soft-deleted file survives before the lazy sweep
// permanently removes it.
const RecycleTTL = 1800 * time.Second

// RecycleEntry describes one soft-deleted file. InternalName is unique per
// deletion event even when OriginalName repeats.
type RecycleEntry struct {
	InternalName  string
	OriginalName  string
	Size          int64
	DeletedAt     int64 // epoch seconds
	DeletedBy     string
	TimeRemaining int64 // seconds until TTL expiry, floored at zero
	Permissions   PermissionRecord
}

// RecycleBin stages soft-deleted files until restore, explicit purge, or TTL
// expiry. Every method first sweeps out expired entries; there is no
// background timer. Implementations must serialize metadata mutations.
type RecycleBin interface {
	// Stash moves the file at srcPath into the recycle area under a fresh
	// internal name, snapshotting the given permission record.
	Stash(srcPath, originalName, deletedBy string, perms PermissionRecord) (internalName string, err error)

	// List returns surviving entries, newest deletion first.
	List() ([]*RecycleEntry, error)

	// Restore moves the entry's bytes to destPath and returns the entry so
	// the caller can re-create its permission record. Fails with ErrConflict
	// if destPath already exists; both copies are left untouched.
	Restore(internalName, destPath string) (*RecycleEntry, error)

	// Purge permanently deletes one entry's bytes and metadata.
	Purge(internalName string) (*RecycleEntry, error)

	// Empty permanently deletes every entry and returns how many were removed.
	Empty() (int, error)
}
