package app_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ssci-go/internal/app"
	"ssci-go/internal/config"
	"ssci-go/internal/testutil"
)

func newTestApp(t *testing.T, operation string) (*app.App, string) {
	t.Helper()
	base := t.TempDir()
	cfg := config.NewConfig(base, "test-sealing-key")

	a, err := app.New(cfg, operation, testutil.NewStubIDGenerator())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a, base
}

func TestNew_WiresOperatorFromConfig(t *testing.T) {
	a, _ := newTestApp(t, "ListFiles")

	op := a.Operator()
	if op.Username != "operator" || op.UserID != 1 {
		t.Errorf("Operator() = %+v, want the configured identity", op)
	}
	if !op.IsAdmin() {
		t.Errorf("Operator().IsAdmin() = false, want true for the default config")
	}
}

func TestNew_RejectsUnusableOperator(t *testing.T) {
	cfg := config.NewConfig(t.TempDir(), "test-sealing-key")
	cfg.Operator = config.OperatorConfig{}

	if _, err := app.New(cfg, "ListFiles", testutil.NewStubIDGenerator()); err == nil {
		t.Fatal("New() with empty operator succeeded, want error")
	}
}

func TestApp_FileRoundTrip(t *testing.T) {
	a, base := newTestApp(t, "CreateFile")

	if err := a.CreateFile("notes.txt", "hello"); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}

	res, err := a.ReadFile("notes.txt", "")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if res.Content != "hello" {
		t.Errorf("Content = %q, want %q", res.Content, "hello")
	}

	if _, err := os.Stat(filepath.Join(base, "files", "notes.txt")); err != nil {
		t.Errorf("file missing from sandbox root: %v", err)
	}
}

// Every log line carries the operation ID built from the injected generator,
// so concurrent invocations remain distinguishable in the shared log file.
func TestApp_StampsOperationIDOnLogs(t *testing.T) {
	a, base := newTestApp(t, "CreateFile")

	if err := a.CreateFile("stamped.txt", "x"); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(base, "log", "ssci.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "id-1-CreateFile") {
		t.Errorf("log file does not carry operation ID %q:\n%s", "id-1-CreateFile", data)
	}
}
