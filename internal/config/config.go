package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the main configuration for ssci.
type Config struct {
	BaseDir  string         `toml:"base_dir"`
	LogDir   string         `toml:"log_dir"`
	Operator OperatorConfig `toml:"operator"`
	Sandbox  SandboxConfig  `toml:"sandbox"`
	Audit    AuditConfig    `toml:"audit"`
	Commands CommandsConfig `toml:"commands"`
}

// OperatorConfig is the pre-verified identity the CLI acts as. Verification
// happens outside this program; the gateway trusts what is configured here.
type OperatorConfig struct {
	UserID   int64  `toml:"user_id"`
	Username string `toml:"username"`
	Role     string `toml:"role"` // "admin", "user", or "viewer"
}

// SandboxConfig holds the sandbox and recycle bin paths plus the permission
// store location.
type SandboxConfig struct {
	Root            string `toml:"root"`
	RecycleDir      string `toml:"recycle_dir"`
	PermissionsPath string `toml:"permissions_path"`
}

// AuditConfig holds the audit database path and the secret used to seal
// record details.
type AuditConfig struct {
	DBPath        string `toml:"db_path"`
	EncryptionKey string `toml:"encryption_key"`
}

// CommandsConfig is the execution whitelist. Fixed at startup, immutable at
// runtime.
type CommandsConfig struct {
	Allowed []string `toml:"allowed"`
}

// DefaultAllowedCommands is the stock whitelist of harmless informational
// commands.
var DefaultAllowedCommands = []string{
	"ls", "dir", "pwd", "whoami", "date", "echo",
	"ipconfig", "hostname", "systeminfo", "tasklist",
}

// NewConfig creates a Config rooted at baseDir with default paths and the
// stock command whitelist. The encryption key is caller-supplied so a fresh
// random key can be generated at init time.
func NewConfig(baseDir, encryptionKey string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Operator: OperatorConfig{
			UserID:   1,
			Username: "operator",
			Role:     "admin",
		},
		Sandbox: SandboxConfig{
			Root:            filepath.Join(baseDir, "files"),
			RecycleDir:      filepath.Join(baseDir, "recycle_bin"),
			PermissionsPath: filepath.Join(baseDir, "file_permissions.json"),
		},
		Audit: AuditConfig{
			DBPath:        filepath.Join(baseDir, "audit.db"),
			EncryptionKey: encryptionKey,
		},
		Commands: CommandsConfig{
			Allowed: append([]string(nil), DefaultAllowedCommands...),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided
// Config. Fails if the file already exists.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
