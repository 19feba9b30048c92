package gateway

// PermissionRecord is the per-file access control record. Flags gate
// non-admin access; the lock gates everyone, admin included.
type PermissionRecord struct {
	View     bool   `json:"view"`
	Download bool   `json:"download"`
	Edit     bool   `json:"edit"`
	Delete   bool   `json:"delete"`
	Owner    int64  `json:"owner,omitempty"`
	Locked   bool   `json:"is_locked,omitempty"`
	LockHash string `json:"lock_hash,omitempty"`
}

// DefaultPermissions is the record assumed for files with no stored entry:
// viewable and downloadable, not editable or deletable, no owner.
func DefaultPermissions() PermissionRecord {
	return PermissionRecord{View: true, Download: true}
}

// Flags returns just the four capability flags, for callers that must not
// see lock or ownership internals.
func (r PermissionRecord) Flags() PermissionFlags {
	return PermissionFlags{View: r.View, Download: r.Download, Edit: r.Edit, Delete: r.Delete}
}

// PermissionFlags is the caller-settable subset of a PermissionRecord.
type PermissionFlags struct {
	View     bool `json:"view"`
	Download bool `json:"download"`
	Edit     bool `json:"edit"`
	Delete   bool `json:"delete"`
}

// PermissionStore holds ACL records keyed by sandbox-relative filename.
// Implementations must serialize read-modify-write cycles internally.
type PermissionStore interface {
	// Get returns the record for name, or the safe default if absent.
	Get(name string) (PermissionRecord, error)
	Put(name string, rec PermissionRecord) error

	// Update applies fn to the current record for name (the safe default if
	// absent) and stores the result, all under the store's lock, so two
	// concurrent mutations of the same record cannot lose each other's
	// writes. If fn returns an error, the record is left unchanged and the
	// error is returned as-is.
	Update(name string, fn func(PermissionRecord) (PermissionRecord, error)) error

	Remove(name string) error
}

// PasscodeVerifier checks a caller-supplied lock passcode against the stored
// lock hash. Implemented by internal/encryption.
type PasscodeVerifier interface {
	Hash(passcode string) (string, error)
	Check(hash, passcode string) bool
}
