package gateway

import "time"

// FileInfo describes one file in the sandbox, derived from the filesystem at
// read time.
type FileInfo struct {
	Name     string
	Size     int64
	Modified time.Time
}

// SandboxFS is the path-validated view of the sandbox directory. Every name
// passed to a storage method must come from Resolve; Resolve rejects any raw
// name whose canonical path would escape the sandbox root.
type SandboxFS interface {
	// Resolve validates a raw name and returns the sandbox-relative
	// filename, or ErrInvalidPath for traversal or reserved forms.
	Resolve(rawName string) (string, error)

	// AbsPath returns the absolute on-disk path for a resolved name.
	AbsPath(name string) string

	// Root returns the canonical absolute sandbox root directory.
	Root() string

	List() ([]*FileInfo, error)
	Stat(name string) (*FileInfo, error)
	Exists(name string) (bool, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
}

// ContentCipher performs passphrase-keyed authenticated encryption of file
// content for uploads. Implemented by internal/encryption.
type ContentCipher interface {
	Encrypt(plaintext []byte, passphrase string) ([]byte, error)
	Decrypt(ciphertext []byte, passphrase string) ([]byte, error)
}
