package gateway

import "time"

// AuditStatus is the recorded outcome of an audited action.
type AuditStatus string

const (
	StatusSuccess AuditStatus = "success"
	StatusFailure AuditStatus = "failure"
	// StatusSuspicious marks actions that look like deliberate probing,
	// such as path traversal attempts.
	StatusSuspicious AuditStatus = "suspicious"
)

// Audit action types. One per gateway verb; denials reuse the verb's type
// except downloads, which keep a distinct denied type for reporting.
const (
	ActionFileCreate     = "file_create"
	ActionFileRead       = "file_read"
	ActionFileUpdate     = "file_update"
	ActionFileDelete     = "file_delete"
	ActionFileUpload     = "file_upload"
	ActionFileUploadEnc  = "file_upload_encrypted"
	ActionFileDownload   = "file_download"
	ActionDownloadDenied = "file_download_denied"
	ActionFileRestore    = "file_restore"
	ActionFilePurge      = "file_purge"
	ActionBinEmpty       = "recycle_bin_empty"
	ActionPermChange     = "permission_change"
	ActionExecute        = "command_execute"
)

// AuditRecord is one append-only entry in the audit trail. Details are stored
// encrypted and decrypted only at query time for authorized viewers.
type AuditRecord struct {
	ID         int64
	UserID     *int64
	ActionType string
	IPAddress  string
	Status     AuditStatus
	Details    string
	CreatedAt  time.Time
}

// LogQuery filters an audit log query. A nil UserID returns records for all
// users (admin scope); otherwise results are restricted to that user.
type LogQuery struct {
	UserID     *int64
	ActionType string
	Limit      int
	Offset     int
}

// LogStats summarizes the audit trail for admin reporting.
type LogStats struct {
	Total     int64
	ByStatus  map[AuditStatus]int64
	ByAction  map[string]int64
	Recent24h int64
}

// CommandRecord is one entry in the per-user command execution history.
type CommandRecord struct {
	ID         int64
	UserID     int64
	Command    string
	Output     string
	Status     AuditStatus
	ExecutedAt time.Time
}

// CommandStats summarizes a user's command execution history.
type CommandStats struct {
	Total      int64
	Successful int64
	Failed     int64
	Recent24h  int64
}

// AuditLog is the append-only record sink. Append encrypts details before
// persisting; there is no update or delete operation. IDs are assigned
// monotonically by the underlying store.
type AuditLog interface {
	Append(userID *int64, actionType, ip string, status AuditStatus, details string) (int64, error)
	Query(q LogQuery) ([]*AuditRecord, error)
	ActionTypes() ([]string, error)
	Stats() (*LogStats, error)

	// Command history (kept alongside the audit trail in the same store).
	RecordCommand(userID int64, command, output string, status AuditStatus) (int64, error)
	CommandHistory(userID int64, limit, offset int) ([]*CommandRecord, error)
	CommandStats(userID int64) (*CommandStats, error)

	Close() error
}
