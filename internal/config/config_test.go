package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir: "/home/user/.local/share/ssci",
		LogDir:  "/home/user/.local/share/ssci/log",
		Operator: OperatorConfig{
			UserID:   7,
			Username: "alice",
			Role:     "user",
		},
		Sandbox: SandboxConfig{
			Root:            "/home/user/.local/share/ssci/files",
			RecycleDir:      "/home/user/.local/share/ssci/recycle_bin",
			PermissionsPath: "/home/user/.local/share/ssci/file_permissions.json",
		},
		Audit: AuditConfig{
			DBPath:        "/home/user/.local/share/ssci/audit.db",
			EncryptionKey: "secret-key",
		},
		Commands: CommandsConfig{
			Allowed: []string{"ls", "echo"},
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.Operator != original.Operator {
		t.Errorf("Operator = %+v, want %+v", got.Operator, original.Operator)
	}
	if got.Sandbox != original.Sandbox {
		t.Errorf("Sandbox = %+v, want %+v", got.Sandbox, original.Sandbox)
	}
	if got.Audit != original.Audit {
		t.Errorf("Audit = %+v, want %+v", got.Audit, original.Audit)
	}
	if len(got.Commands.Allowed) != 2 || got.Commands.Allowed[0] != "ls" {
		t.Errorf("Commands.Allowed = %v, want %v", got.Commands.Allowed, original.Commands.Allowed)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/ssci", "key-123")

	if cfg.BaseDir != "/data/ssci" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/ssci")
	}
	if cfg.LogDir != "/data/ssci/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/ssci/log")
	}
	if cfg.Sandbox.Root != "/data/ssci/files" {
		t.Errorf("Sandbox.Root = %q, want %q", cfg.Sandbox.Root, "/data/ssci/files")
	}
	if cfg.Sandbox.RecycleDir != "/data/ssci/recycle_bin" {
		t.Errorf("Sandbox.RecycleDir = %q, want %q", cfg.Sandbox.RecycleDir, "/data/ssci/recycle_bin")
	}
	if cfg.Audit.EncryptionKey != "key-123" {
		t.Errorf("Audit.EncryptionKey = %q, want %q", cfg.Audit.EncryptionKey, "key-123")
	}
	if cfg.Operator.Role != "admin" {
		t.Errorf("Operator.Role = %q, want admin", cfg.Operator.Role)
	}
	if len(cfg.Commands.Allowed) != len(DefaultAllowedCommands) {
		t.Errorf("len(Commands.Allowed) = %d, want %d", len(cfg.Commands.Allowed), len(DefaultAllowedCommands))
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "ssci.toml")
		cfg := NewConfig(dir, "k")

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "ssci.toml")
		cfg := NewConfig(dir, "k")

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "ssci.toml")
		cfg := NewConfig(dir, "k")
		cfg.Operator.Username = "read-test"

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Operator.Username != "read-test" {
			t.Errorf("Operator.Username = %q, want %q", got.Operator.Username, "read-test")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/ssci.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
