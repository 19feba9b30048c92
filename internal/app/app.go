// Package app wires configuration into a running gateway and adapts it for
// the CLI. Everything is explicitly constructed here and torn down in Close;
// no component holds global state.
package app

import (
	"fmt"
	"os"

	"ssci-go/internal/audit"
	"ssci-go/internal/command"
	"ssci-go/internal/config"
	"ssci-go/internal/encryption"
	"ssci-go/internal/gateway"
	"ssci-go/internal/perm"
	"ssci-go/internal/recycle"
	"ssci-go/internal/sandbox"
)

// localSource labels audit records produced by the CLI, which has no client
// network address.
const localSource = "local"

// App is the application layer between the CLI and the Gateway. It constructs
// all dependencies from config, exposes operations that act as the configured
// operator, and manages the audit DB lifecycle on Close.
type App struct {
	cfg      *config.Config
	auditLog gateway.AuditLog
	gw       *gateway.Gateway
	operator gateway.Identity
	logFile  *os.File
}

// New creates a fully wired App from the given config. operation identifies
// the CLI command being run (e.g. "ReadFile", "Execute"); ids supplies the
// unique part of the operation ID stamped on every log line for correlation.
// The caller must call Close when done.
func New(cfg *config.Config, operation string, ids gateway.IDGenerator) (*App, error) {
	role := gateway.Role(cfg.Operator.Role)
	operator := gateway.Identity{
		UserID:   cfg.Operator.UserID,
		Username: cfg.Operator.Username,
		Role:     role,
	}
	if !operator.Present() {
		return nil, fmt.Errorf("config has no usable operator identity (user_id=%d, role=%q)",
			cfg.Operator.UserID, cfg.Operator.Role)
	}

	opID := fmt.Sprintf("%s-%s", ids.New(), operation)
	slogger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	clock := gateway.RealClock{}

	fs, err := sandbox.New(cfg.Sandbox.Root)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening sandbox: %w", err)
	}

	perms, err := perm.Open(cfg.Sandbox.PermissionsPath, logger)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening permission store: %w", err)
	}

	recycleDir := cfg.Sandbox.RecycleDir
	if recycleDir == "" {
		recycleDir = gateway.RecycleBinDirFor(fs.Root())
	}
	bin, err := recycle.Open(recycleDir, clock, logger)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening recycle bin: %w", err)
	}

	sealer, err := encryption.NewSealer(cfg.Audit.EncryptionKey)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating sealer: %w", err)
	}

	auditLog, err := audit.Open(cfg.Audit.DBPath, sealer, clock)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening audit log: %w", err)
	}

	gw := gateway.New(
		fs,
		perms,
		bin,
		auditLog,
		command.NewExecutor(),
		gateway.NewCommandPolicy(cfg.Commands.Allowed),
		encryption.NewFileCipher(),
		encryption.NewLockHasher(),
		logger,
		clock,
	)

	return &App{
		cfg:      cfg,
		auditLog: auditLog,
		gw:       gw,
		operator: operator,
		logFile:  logFile,
	}, nil
}

// Operator returns the configured identity the App acts as.
func (a *App) Operator() gateway.Identity { return a.operator }

// Close releases the audit database and log file.
func (a *App) Close() error {
	err := a.auditLog.Close()
	if a.logFile != nil {
		a.logFile.Close()
	}
	return err
}

// ListFiles lists the sandbox with permissions.
func (a *App) ListFiles() ([]*gateway.FileEntry, error) {
	return a.gw.ListFiles(a.operator)
}

// CreateFile creates a new text file.
func (a *App) CreateFile(name, content string) error {
	return a.gw.CreateFile(a.operator, name, content, localSource)
}

// ReadFile reads file content, with an optional lock passcode.
func (a *App) ReadFile(name, passcode string) (*gateway.ReadResult, error) {
	return a.gw.ReadFile(a.operator, name, passcode, localSource)
}

// UpdateFile overwrites file content, with an optional lock passcode.
func (a *App) UpdateFile(name, content, passcode string) error {
	return a.gw.UpdateFile(a.operator, name, content, passcode, localSource)
}

// DeleteFile soft-deletes a file into the recycle bin.
func (a *App) DeleteFile(name, passcode string) error {
	return a.gw.DeleteFile(a.operator, name, passcode, localSource)
}

// Upload stores bytes with optional encryption, locking, and permissions.
func (a *App) Upload(name string, content []byte, opts gateway.UploadOptions) (*gateway.UploadResult, error) {
	return a.gw.Upload(a.operator, name, content, opts, localSource)
}

// Download returns raw file bytes, with an optional lock passcode.
func (a *App) Download(name, passcode string) (*gateway.DownloadResult, error) {
	return a.gw.Download(a.operator, name, passcode, localSource)
}

// GetPermissions returns a file's visible permission state.
func (a *App) GetPermissions(name string) (*gateway.PermissionView, error) {
	return a.gw.GetPermissions(a.operator, name)
}

// SetPermissions replaces a file's capability flags.
func (a *App) SetPermissions(name string, flags gateway.PermissionFlags) error {
	return a.gw.SetPermissions(a.operator, name, flags, localSource)
}

// SetLock toggles a file's passcode lock.
func (a *App) SetLock(name string, enable bool, passcode, currentPasscode string) error {
	return a.gw.SetLock(a.operator, name, enable, passcode, currentPasscode, localSource)
}

// ListRecycleBin lists surviving recycle entries.
func (a *App) ListRecycleBin() ([]*gateway.RecycleEntry, error) {
	return a.gw.ListRecycleBin(a.operator)
}

// RestoreFile restores a recycled file to the sandbox.
func (a *App) RestoreFile(internalName string) (*gateway.RecycleEntry, error) {
	return a.gw.RestoreFile(a.operator, internalName, localSource)
}

// PurgeFile permanently deletes one recycled file.
func (a *App) PurgeFile(internalName string) (*gateway.RecycleEntry, error) {
	return a.gw.PurgeFile(a.operator, internalName, localSource)
}

// EmptyRecycleBin permanently deletes every recycled file.
func (a *App) EmptyRecycleBin() (int, error) {
	return a.gw.EmptyRecycleBin(a.operator, localSource)
}

// Execute runs a whitelisted command.
func (a *App) Execute(commandLine string) (*gateway.CommandResult, error) {
	return a.gw.Execute(a.operator, commandLine, localSource)
}

// AllowedCommands returns the execution whitelist.
func (a *App) AllowedCommands() ([]string, error) {
	return a.gw.AllowedCommands(a.operator)
}

// CommandHistory returns the operator's command history.
func (a *App) CommandHistory(limit, offset int) ([]*gateway.CommandRecord, error) {
	return a.gw.CommandHistory(a.operator, limit, offset)
}

// CommandStats returns the operator's command statistics.
func (a *App) CommandStats() (*gateway.CommandStats, error) {
	return a.gw.CommandStatsFor(a.operator)
}

// QueryLogs returns audit records visible to the operator.
func (a *App) QueryLogs(opts gateway.QueryLogsOptions) ([]*gateway.AuditRecord, error) {
	return a.gw.QueryLogs(a.operator, opts)
}

// LogActionTypes returns the distinct audit action types.
func (a *App) LogActionTypes() ([]string, error) {
	return a.gw.LogActionTypes(a.operator)
}

// LogStats returns trail-wide audit statistics (admin only).
func (a *App) LogStats() (*gateway.LogStats, error) {
	return a.gw.LogStats(a.operator)
}
