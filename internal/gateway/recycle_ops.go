package gateway

import (
	"fmt"
	"path/filepath"
)

// ListRecycleBin returns the surviving soft-deleted files, newest deletion
// first. The listing itself triggers the lazy TTL sweep inside the bin.
func (g *Gateway) ListRecycleBin(id Identity) ([]*RecycleEntry, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}
	entries, err := g.bin.List()
	if err != nil {
		return nil, fmt.Errorf("listing recycle bin: %w", err)
	}
	return entries, nil
}

// RestoreFile moves a recycled file back into the sandbox under its original
// name and re-creates its permission record from the saved snapshot. Fails
// with ErrConflict if a file with the original name already exists; both
// copies are left untouched on conflict.
func (g *Gateway) RestoreFile(id Identity, internalName, ip string) (*RecycleEntry, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}

	entry, err := g.bin.Restore(internalName, g.fs.Root())
	if err != nil {
		g.record(id, ActionFileRestore, ip, StatusFailure, fmt.Sprintf("restore failed for %s: %v", internalName, err))
		return nil, err
	}

	if err := g.perms.Put(entry.OriginalName, entry.Permissions); err != nil {
		g.logger.Warn("restoring permission record failed", "name", entry.OriginalName, "error", err)
	}

	g.record(id, ActionFileRestore, ip, StatusSuccess, fmt.Sprintf("restored file: %s", entry.OriginalName))
	g.logger.Info("file restored", "name", entry.OriginalName, "internal", internalName, "user", id.Username)
	return entry, nil
}

// PurgeFile permanently deletes one recycled file, bytes and metadata.
func (g *Gateway) PurgeFile(id Identity, internalName, ip string) (*RecycleEntry, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}

	entry, err := g.bin.Purge(internalName)
	if err != nil {
		g.record(id, ActionFilePurge, ip, StatusFailure, fmt.Sprintf("purge failed for %s: %v", internalName, err))
		return nil, err
	}

	g.record(id, ActionFilePurge, ip, StatusSuccess, fmt.Sprintf("permanently deleted file: %s", entry.OriginalName))
	return entry, nil
}

// EmptyRecycleBin permanently deletes every recycled file and reports how
// many were removed.
func (g *Gateway) EmptyRecycleBin(id Identity, ip string) (int, error) {
	if err := check(identityPresent(id)); err != nil {
		return 0, err
	}

	count, err := g.bin.Empty()
	if err != nil {
		g.record(id, ActionBinEmpty, ip, StatusFailure, fmt.Sprintf("emptying recycle bin failed: %v", err))
		return 0, fmt.Errorf("emptying recycle bin: %w", err)
	}

	g.record(id, ActionBinEmpty, ip, StatusSuccess, fmt.Sprintf("emptied recycle bin (%d files)", count))
	g.logger.Info("recycle bin emptied", "count", count, "user", id.Username)
	return count, nil
}

// RecycleBinDirFor reports the conventional recycle directory for a sandbox
// root: a sibling directory so recycled bytes never resolve inside the
// sandbox itself.
func RecycleBinDirFor(sandboxRoot string) string {
	return filepath.Join(filepath.Dir(sandboxRoot), "recycle_bin")
}
