package testutil

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ssci-go/internal/audit"
	"ssci-go/internal/config"
	"ssci-go/internal/encryption"
	"ssci-go/internal/gateway"
	"ssci-go/internal/perm"
	"ssci-go/internal/recycle"
	"ssci-go/internal/sandbox"
)

// Identities used across gateway tests.
var (
	Admin  = gateway.Identity{UserID: 1, Username: "admin", Role: gateway.RoleAdmin}
	Alice  = gateway.Identity{UserID: 2, Username: "alice", Role: gateway.RoleUser}
	Bob    = gateway.Identity{UserID: 3, Username: "bob", Role: gateway.RoleUser}
	Viewer = gateway.Identity{UserID: 4, Username: "watcher", Role: gateway.RoleViewer}
	Nobody = gateway.Identity{}
)

// StubRunner records the argv it was asked to run and returns a canned
// result, so gateway tests never spawn processes.
type StubRunner struct {
	Result *gateway.CommandResult
	Calls  [][]string
}

func NewStubRunner() *StubRunner {
	return &StubRunner{
		Result: &gateway.CommandResult{
			Status:     gateway.StatusSuccess,
			Output:     "stub output",
			ReturnCode: 0,
		},
	}
}

func (r *StubRunner) Run(argv []string, timeout time.Duration) *gateway.CommandResult {
	r.Calls = append(r.Calls, argv)
	out := *r.Result
	if out.Output == "stub output" {
		out.Output = strings.Join(argv, " ")
	}
	return &out
}

var _ gateway.CommandRunner = (*StubRunner)(nil)

// Fixture is a fully wired Gateway on real components backed by a temp
// directory, with the clock and command runner stubbed out.
type Fixture struct {
	Gateway *gateway.Gateway
	FS      *sandbox.Dir
	Perms   *perm.Store
	Bin     *recycle.Manager
	Audit   *audit.Store
	Runner  *StubRunner
	Clock   *StubClock
	Root    string
}

// NewFixture builds a Gateway over t.TempDir. The audit store is in-memory
// SQLite; passcode hashing and file encryption are the real implementations.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()

	base := t.TempDir()
	root := filepath.Join(base, "files")
	clock := FixedClock()

	fs, err := sandbox.New(root)
	if err != nil {
		t.Fatalf("failed to open sandbox: %v", err)
	}

	perms, err := perm.Open(filepath.Join(base, "file_permissions.json"), gateway.NewNopLogger())
	if err != nil {
		t.Fatalf("failed to open permission store: %v", err)
	}

	bin, err := recycle.Open(filepath.Join(base, "recycle_bin"), clock, gateway.NewNopLogger())
	if err != nil {
		t.Fatalf("failed to open recycle bin: %v", err)
	}

	auditLog := NewTestAuditLog(t, clock)
	runner := NewStubRunner()

	gw := gateway.New(
		fs,
		perms,
		bin,
		auditLog,
		runner,
		gateway.NewCommandPolicy(config.DefaultAllowedCommands),
		encryption.NewFileCipher(),
		encryption.NewLockHasher(),
		gateway.NewNopLogger(),
		clock,
	)

	return &Fixture{
		Gateway: gw,
		FS:      fs,
		Perms:   perms,
		Bin:     bin,
		Audit:   auditLog,
		Runner:  runner,
		Clock:   clock,
		Root:    root,
	}
}
