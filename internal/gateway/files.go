package gateway

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// EncryptedSuffix marks uploads stored with passphrase encryption, so
// plaintext and encrypted variants are distinguishable by name.
const EncryptedSuffix = ".enc"

// FileEntry is one row of a sandbox listing: filesystem metadata plus the
// capability flags that apply to the file.
type FileEntry struct {
	Name        string
	Size        int64
	Modified    int64 // epoch seconds
	Permissions PermissionFlags
	Locked      bool
}

// ReadResult is the outcome of reading a file as text. Binary content is
// reported, not returned: Content carries a placeholder and Binary is set.
type ReadResult struct {
	Filename string
	Content  string
	Binary   bool
	Size     int64
}

// DownloadResult carries raw file bytes for the transport layer.
type DownloadResult struct {
	Filename string
	Content  []byte
	Size     int64
}

// UploadOptions control encryption, locking, and initial permissions for an
// uploaded file.
type UploadOptions struct {
	Encrypt    bool
	Passphrase string

	Lock         bool
	LockPasscode string

	// Permissions overrides the default flags when non-nil.
	Permissions *PermissionFlags
}

// UploadResult reports the stored name and effective protection state.
type UploadResult struct {
	Filename    string
	Encrypted   bool
	Locked      bool
	Permissions PermissionFlags
}

// PermissionView is the caller-visible slice of a permission record. The
// lock hash never leaves the store.
type PermissionView struct {
	Flags  PermissionFlags
	Owner  int64
	Locked bool
}

// ListFiles returns every file in the sandbox with its permission flags.
// Files without a stored record report the safe default.
func (g *Gateway) ListFiles(id Identity) ([]*FileEntry, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}

	infos, err := g.fs.List()
	if err != nil {
		return nil, fmt.Errorf("listing sandbox: %w", err)
	}

	entries := make([]*FileEntry, 0, len(infos))
	for _, info := range infos {
		rec, err := g.perms.Get(info.Name)
		if err != nil {
			return nil, fmt.Errorf("loading permissions for %s: %w", info.Name, err)
		}
		entries = append(entries, &FileEntry{
			Name:        info.Name,
			Size:        info.Size,
			Modified:    info.Modified.Unix(),
			Permissions: rec.Flags(),
			Locked:      rec.Locked,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// CreateFile creates a new text file. Creating over an existing file fails
// with ErrConflict so edits always pass through UpdateFile's ACL checks. The
// creator becomes the owner of a fresh default permission record.
func (g *Gateway) CreateFile(id Identity, rawName, content, ip string) error {
	if err := check(identityPresent(id)); err != nil {
		return err
	}

	name, err := g.fs.Resolve(rawName)
	if err != nil {
		g.record(id, ActionFileCreate, ip, StatusSuspicious, fmt.Sprintf("path rejected: %s", rawName))
		return err
	}

	exists, err := g.fs.Exists(name)
	if err != nil {
		g.record(id, ActionFileCreate, ip, StatusFailure, fmt.Sprintf("error creating %s: %v", name, err))
		return fmt.Errorf("checking %s: %w", name, err)
	}
	if exists {
		g.record(id, ActionFileCreate, ip, StatusFailure, fmt.Sprintf("file already exists: %s", name))
		return fmt.Errorf("%s: %w", name, ErrConflict)
	}

	if err := g.fs.WriteFile(name, []byte(content)); err != nil {
		g.record(id, ActionFileCreate, ip, StatusFailure, fmt.Sprintf("error writing %s: %v", name, err))
		return fmt.Errorf("writing %s: %w", name, err)
	}

	rec := DefaultPermissions()
	rec.Owner = id.UserID
	if err := g.perms.Put(name, rec); err != nil {
		g.record(id, ActionFileCreate, ip, StatusFailure, fmt.Sprintf("error saving permissions for %s: %v", name, err))
		return fmt.Errorf("saving permissions: %w", err)
	}

	g.record(id, ActionFileCreate, ip, StatusSuccess, fmt.Sprintf("created file: %s", name))
	g.logger.Info("file created", "name", name, "user", id.Username)
	return nil
}

// ReadFile returns a file's content for viewing. The lock gate applies to
// every role; the view flag gates non-admin callers. Content that is not
// valid UTF-8 is reported as binary rather than returned as text.
func (g *Gateway) ReadFile(id Identity, rawName, passcode, ip string) (*ReadResult, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}

	name, err := g.fs.Resolve(rawName)
	if err != nil {
		g.record(id, ActionFileRead, ip, StatusSuspicious, fmt.Sprintf("path rejected: %s", rawName))
		return nil, err
	}

	exists, err := g.fs.Exists(name)
	if err != nil {
		g.record(id, ActionFileRead, ip, StatusFailure, fmt.Sprintf("error reading %s: %v", name, err))
		return nil, fmt.Errorf("checking %s: %w", name, err)
	}
	if !exists {
		g.record(id, ActionFileRead, ip, StatusFailure, fmt.Sprintf("file not found: %s", name))
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	rec, err := g.perms.Get(name)
	if err != nil {
		return nil, fmt.Errorf("loading permissions: %w", err)
	}

	if err := check(g.lockCheck(rec, passcode), aclCheck(id, rec.View, "view")); err != nil {
		g.record(id, ActionFileRead, ip, StatusFailure, fmt.Sprintf("read denied: %s", name))
		return nil, err
	}

	content, err := g.fs.ReadFile(name)
	if err != nil {
		g.record(id, ActionFileRead, ip, StatusFailure, fmt.Sprintf("error reading %s: %v", name, err))
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	g.record(id, ActionFileRead, ip, StatusSuccess, fmt.Sprintf("read file: %s", name))

	if !utf8.Valid(content) {
		return &ReadResult{
			Filename: name,
			Content:  fmt.Sprintf("[binary file: %s, %d bytes, download to view]", name, len(content)),
			Binary:   true,
			Size:     int64(len(content)),
		}, nil
	}
	return &ReadResult{Filename: name, Content: string(content), Size: int64(len(content))}, nil
}

// UpdateFile overwrites a file's content. The lock gate applies to every
// role; the edit flag gates non-admin callers.
func (g *Gateway) UpdateFile(id Identity, rawName, content, passcode, ip string) error {
	if err := check(identityPresent(id)); err != nil {
		return err
	}

	name, err := g.fs.Resolve(rawName)
	if err != nil {
		g.record(id, ActionFileUpdate, ip, StatusSuspicious, fmt.Sprintf("path rejected: %s", rawName))
		return err
	}

	exists, err := g.fs.Exists(name)
	if err != nil {
		g.record(id, ActionFileUpdate, ip, StatusFailure, fmt.Sprintf("error updating %s: %v", name, err))
		return fmt.Errorf("checking %s: %w", name, err)
	}
	if !exists {
		g.record(id, ActionFileUpdate, ip, StatusFailure, fmt.Sprintf("file not found: %s", name))
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	rec, err := g.perms.Get(name)
	if err != nil {
		return fmt.Errorf("loading permissions: %w", err)
	}

	if err := check(g.lockCheck(rec, passcode), aclCheck(id, rec.Edit, "edit")); err != nil {
		g.record(id, ActionFileUpdate, ip, StatusFailure, fmt.Sprintf("update denied: %s", name))
		return err
	}

	if err := g.fs.WriteFile(name, []byte(content)); err != nil {
		g.record(id, ActionFileUpdate, ip, StatusFailure, fmt.Sprintf("error writing %s: %v", name, err))
		return fmt.Errorf("writing %s: %w", name, err)
	}

	g.record(id, ActionFileUpdate, ip, StatusSuccess, fmt.Sprintf("updated file: %s", name))
	g.logger.Info("file updated", "name", name, "user", id.Username)
	return nil
}

// DeleteFile soft-deletes a file into the recycle bin: bytes move aside under
// a fresh internal name, the permission record is snapshotted into the
// recycle entry and removed from the active store.
func (g *Gateway) DeleteFile(id Identity, rawName, passcode, ip string) error {
	if err := check(identityPresent(id)); err != nil {
		return err
	}

	name, err := g.fs.Resolve(rawName)
	if err != nil {
		g.record(id, ActionFileDelete, ip, StatusSuspicious, fmt.Sprintf("path rejected: %s", rawName))
		return err
	}

	exists, err := g.fs.Exists(name)
	if err != nil {
		g.record(id, ActionFileDelete, ip, StatusFailure, fmt.Sprintf("error deleting %s: %v", name, err))
		return fmt.Errorf("checking %s: %w", name, err)
	}
	if !exists {
		g.record(id, ActionFileDelete, ip, StatusFailure, fmt.Sprintf("file not found: %s", name))
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	rec, err := g.perms.Get(name)
	if err != nil {
		return fmt.Errorf("loading permissions: %w", err)
	}

	if err := check(g.lockCheck(rec, passcode), aclCheck(id, rec.Delete, "delete")); err != nil {
		g.record(id, ActionFileDelete, ip, StatusFailure, fmt.Sprintf("delete denied: %s", name))
		return err
	}

	internalName, err := g.bin.Stash(g.fs.AbsPath(name), name, id.Username, rec)
	if err != nil {
		g.record(id, ActionFileDelete, ip, StatusFailure, fmt.Sprintf("error deleting %s: %v", name, err))
		return fmt.Errorf("moving %s to recycle bin: %w", name, err)
	}

	if err := g.perms.Remove(name); err != nil {
		// The snapshot inside the recycle entry is now authoritative; a stale
		// active record would be recreated on restore anyway.
		g.logger.Warn("removing permission record failed", "name", name, "error", err)
	}

	g.record(id, ActionFileDelete, ip, StatusSuccess, fmt.Sprintf("moved file to recycle bin: %s", name))
	g.logger.Info("file recycled", "name", name, "internal", internalName, "user", id.Username)
	return nil
}

// Upload stores caller-supplied bytes, optionally encrypting them with a
// caller passphrase (stored under name + ".enc") and optionally locking the
// file behind a hashed passcode. Uploading over an existing file follows
// UpdateFile's gates and preserves the existing owner.
func (g *Gateway) Upload(id Identity, rawName string, content []byte, opts UploadOptions, ip string) (*UploadResult, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}

	action := ActionFileUpload
	if opts.Encrypt {
		action = ActionFileUploadEnc
	}

	name, err := g.fs.Resolve(rawName)
	if err != nil {
		g.record(id, action, ip, StatusSuspicious, fmt.Sprintf("path rejected: %s", rawName))
		return nil, err
	}

	if opts.Encrypt {
		if opts.Passphrase == "" {
			return nil, ErrDenied("a passphrase is required for encrypted upload")
		}
		content, err = g.cipher.Encrypt(content, opts.Passphrase)
		if err != nil {
			g.record(id, action, ip, StatusFailure, fmt.Sprintf("encryption failed for %s: %v", name, err))
			return nil, fmt.Errorf("encrypting content: %w", err)
		}
		if !strings.HasSuffix(name, EncryptedSuffix) {
			name += EncryptedSuffix
		}
	}

	var lockHash string
	if opts.Lock {
		if opts.LockPasscode == "" {
			return nil, ErrDenied("a passcode is required to lock a file")
		}
		lockHash, err = g.passcodes.Hash(opts.LockPasscode)
		if err != nil {
			return nil, fmt.Errorf("hashing lock passcode: %w", err)
		}
	}

	flags := DefaultPermissions().Flags()
	if opts.Permissions != nil {
		flags = *opts.Permissions
	}
	rec := PermissionRecord{
		View:     flags.View,
		Download: flags.Download,
		Edit:     flags.Edit,
		Delete:   flags.Delete,
		Owner:    id.UserID,
		Locked:   opts.Lock,
		LockHash: lockHash,
	}

	exists, err := g.fs.Exists(name)
	if err != nil {
		g.record(id, action, ip, StatusFailure, fmt.Sprintf("error uploading %s: %v", name, err))
		return nil, fmt.Errorf("checking %s: %w", name, err)
	}
	if exists {
		existing, err := g.perms.Get(name)
		if err != nil {
			return nil, fmt.Errorf("loading permissions: %w", err)
		}
		if err := check(g.lockCheck(existing, opts.LockPasscode), aclCheck(id, existing.Edit, "edit")); err != nil {
			g.record(id, action, ip, StatusFailure, fmt.Sprintf("upload denied: %s", name))
			return nil, err
		}
	}

	if err := g.fs.WriteFile(name, content); err != nil {
		g.record(id, action, ip, StatusFailure, fmt.Sprintf("error writing %s: %v", name, err))
		return nil, fmt.Errorf("writing %s: %w", name, err)
	}

	// Re-read the owner under the store's lock so an overwrite never steals
	// ownership, even if the record changed since the access check above.
	if err := g.perms.Update(name, func(existing PermissionRecord) (PermissionRecord, error) {
		if existing.Owner != 0 {
			rec.Owner = existing.Owner
		}
		return rec, nil
	}); err != nil {
		g.record(id, action, ip, StatusFailure, fmt.Sprintf("error saving permissions for %s: %v", name, err))
		return nil, fmt.Errorf("saving permissions: %w", err)
	}

	if opts.Encrypt {
		g.record(id, action, ip, StatusSuccess, fmt.Sprintf("uploaded and encrypted file: %s", name))
	} else {
		g.record(id, action, ip, StatusSuccess, fmt.Sprintf("uploaded file: %s", name))
	}
	g.logger.Info("file uploaded", "name", name, "encrypted", opts.Encrypt, "locked", opts.Lock, "user", id.Username)

	return &UploadResult{
		Filename:    name,
		Encrypted:   opts.Encrypt,
		Locked:      opts.Lock,
		Permissions: flags,
	}, nil
}

// Download returns a file's raw bytes. The download flag gates non-admin
// callers and denials are recorded under their own action type; the lock
// gate then applies to every role.
func (g *Gateway) Download(id Identity, rawName, passcode, ip string) (*DownloadResult, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}

	name, err := g.fs.Resolve(rawName)
	if err != nil {
		g.record(id, ActionFileDownload, ip, StatusSuspicious, fmt.Sprintf("path rejected: %s", rawName))
		return nil, err
	}

	exists, err := g.fs.Exists(name)
	if err != nil {
		g.record(id, ActionFileDownload, ip, StatusFailure, fmt.Sprintf("error downloading %s: %v", name, err))
		return nil, fmt.Errorf("checking %s: %w", name, err)
	}
	if !exists {
		g.record(id, ActionFileDownload, ip, StatusFailure, fmt.Sprintf("file not found: %s", name))
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	rec, err := g.perms.Get(name)
	if err != nil {
		return nil, fmt.Errorf("loading permissions: %w", err)
	}

	if err := check(aclCheck(id, rec.Download, "download")); err != nil {
		g.record(id, ActionDownloadDenied, ip, StatusFailure, fmt.Sprintf("download denied for file: %s", name))
		return nil, err
	}
	if err := check(g.lockCheck(rec, passcode)); err != nil {
		g.record(id, ActionFileDownload, ip, StatusFailure, fmt.Sprintf("download blocked by lock: %s", name))
		return nil, err
	}

	content, err := g.fs.ReadFile(name)
	if err != nil {
		g.record(id, ActionFileDownload, ip, StatusFailure, fmt.Sprintf("error reading %s: %v", name, err))
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	g.record(id, ActionFileDownload, ip, StatusSuccess, fmt.Sprintf("downloaded file: %s", name))
	return &DownloadResult{Filename: name, Content: content, Size: int64(len(content))}, nil
}

// GetPermissions returns the caller-visible permission state of a file.
func (g *Gateway) GetPermissions(id Identity, rawName string) (*PermissionView, error) {
	if err := check(identityPresent(id)); err != nil {
		return nil, err
	}

	name, err := g.fs.Resolve(rawName)
	if err != nil {
		return nil, err
	}

	rec, err := g.perms.Get(name)
	if err != nil {
		return nil, fmt.Errorf("loading permissions: %w", err)
	}
	return &PermissionView{Flags: rec.Flags(), Owner: rec.Owner, Locked: rec.Locked}, nil
}

// SetPermissions replaces a file's capability flags. Only the owner or an
// admin may change them; ownership itself is never reassigned here, so a
// non-admin can never move a record out from under its owner.
func (g *Gateway) SetPermissions(id Identity, rawName string, flags PermissionFlags, ip string) error {
	if err := check(identityPresent(id)); err != nil {
		return err
	}

	name, err := g.fs.Resolve(rawName)
	if err != nil {
		g.record(id, ActionPermChange, ip, StatusSuspicious, fmt.Sprintf("path rejected: %s", rawName))
		return err
	}

	exists, err := g.fs.Exists(name)
	if err != nil {
		return fmt.Errorf("checking %s: %w", name, err)
	}
	if !exists {
		g.record(id, ActionPermChange, ip, StatusFailure, fmt.Sprintf("file not found: %s", name))
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	// The whole read-modify-write runs under the store's lock so a
	// concurrent mutation of the same record cannot be lost.
	err = g.perms.Update(name, func(rec PermissionRecord) (PermissionRecord, error) {
		if err := check(ownerOrAdmin(id, rec)); err != nil {
			return rec, err
		}
		rec.View = flags.View
		rec.Download = flags.Download
		rec.Edit = flags.Edit
		rec.Delete = flags.Delete
		if rec.Owner == 0 {
			rec.Owner = id.UserID
		}
		return rec, nil
	})
	if err != nil {
		if IsPermissionDenied(err) {
			g.record(id, ActionPermChange, ip, StatusFailure, fmt.Sprintf("permission change denied: %s", name))
			return err
		}
		g.record(id, ActionPermChange, ip, StatusFailure, fmt.Sprintf("error saving permissions for %s: %v", name, err))
		return fmt.Errorf("saving permissions: %w", err)
	}

	g.record(id, ActionPermChange, ip, StatusSuccess, fmt.Sprintf("changed permissions: %s", name))
	return nil
}

// SetLock toggles the passcode lock on a file. Only the owner or an admin may
// toggle it, and a currently locked file additionally requires its current
// passcode, like any other access.
func (g *Gateway) SetLock(id Identity, rawName string, enable bool, passcode, currentPasscode, ip string) error {
	if err := check(identityPresent(id)); err != nil {
		return err
	}

	name, err := g.fs.Resolve(rawName)
	if err != nil {
		g.record(id, ActionPermChange, ip, StatusSuspicious, fmt.Sprintf("path rejected: %s", rawName))
		return err
	}

	exists, err := g.fs.Exists(name)
	if err != nil {
		return fmt.Errorf("checking %s: %w", name, err)
	}
	if !exists {
		g.record(id, ActionPermChange, ip, StatusFailure, fmt.Sprintf("file not found: %s", name))
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	if enable && passcode == "" {
		return ErrDenied("a passcode is required to lock a file")
	}

	// The owner and current-passcode checks run against the same record state
	// that gets written, under the store's lock, so a concurrent mutation of
	// the record cannot be lost.
	err = g.perms.Update(name, func(rec PermissionRecord) (PermissionRecord, error) {
		if err := check(ownerOrAdmin(id, rec), g.lockCheck(rec, currentPasscode)); err != nil {
			return rec, err
		}
		if enable {
			hash, err := g.passcodes.Hash(passcode)
			if err != nil {
				return rec, fmt.Errorf("hashing lock passcode: %w", err)
			}
			rec.Locked = true
			rec.LockHash = hash
		} else {
			rec.Locked = false
			rec.LockHash = ""
		}
		if rec.Owner == 0 {
			rec.Owner = id.UserID
		}
		return rec, nil
	})
	if err != nil {
		if IsPermissionDenied(err) {
			g.record(id, ActionPermChange, ip, StatusFailure, fmt.Sprintf("lock change denied: %s", name))
			return err
		}
		g.record(id, ActionPermChange, ip, StatusFailure, fmt.Sprintf("error saving permissions for %s: %v", name, err))
		return fmt.Errorf("saving permissions: %w", err)
	}

	if enable {
		g.record(id, ActionPermChange, ip, StatusSuccess, fmt.Sprintf("locked file: %s", name))
	} else {
		g.record(id, ActionPermChange, ip, StatusSuccess, fmt.Sprintf("unlocked file: %s", name))
	}
	return nil
}
