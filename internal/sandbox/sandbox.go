// Package sandbox confines all file operations to a single root directory.
// Raw names are validated twice: a lexical pass rejects every traversal form
// outright, then the resolved absolute path is verified to still sit beneath
// the canonical root. The second check is the load-bearing one; the lexical
// pass exists so probing input is rejected loudly instead of being silently
// flattened to a basename.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ssci-go/internal/gateway"
)

// Dir is a sandbox rooted at one canonical absolute directory.
type Dir struct {
	root string
}

var _ gateway.SandboxFS = (*Dir)(nil)

// New creates the root directory if needed and returns a sandbox over it.
func New(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving sandbox root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("creating sandbox root: %w", err)
	}
	// Resolve symlinks once so the per-name prefix check compares canonical
	// paths (on macOS /tmp is itself a symlink).
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("canonicalizing sandbox root: %w", err)
	}
	return &Dir{root: canonical}, nil
}

// Root returns the canonical absolute sandbox root.
func (d *Dir) Root() string { return d.root }

// encodedSeparators are percent-encoded traversal fragments rejected even
// though this layer receives already-decoded names. A transport bug must not
// become a sandbox escape.
var encodedSeparators = []string{"%2f", "%5c", "%2e%2e", "%00"}

// Resolve validates a raw name and returns the sandbox-relative filename.
// Any directory component, traversal sequence, or reserved name fails with
// gateway.ErrInvalidPath.
func (d *Dir) Resolve(rawName string) (string, error) {
	name := strings.TrimSpace(rawName)
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("%q: %w", rawName, gateway.ErrInvalidPath)
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return "", fmt.Errorf("%q: %w", rawName, gateway.ErrInvalidPath)
	}
	lower := strings.ToLower(name)
	for _, frag := range encodedSeparators {
		if strings.Contains(lower, frag) {
			return "", fmt.Errorf("%q: %w", rawName, gateway.ErrInvalidPath)
		}
	}
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("%q: %w", rawName, gateway.ErrInvalidPath)
	}

	// Defense in depth: verify the resolved path is still prefixed by the
	// canonical root. This check is on the resolved path, never on substring
	// matching of the raw input.
	abs := filepath.Join(d.root, name)
	if abs != d.root && !strings.HasPrefix(abs, d.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%q: %w", rawName, gateway.ErrInvalidPath)
	}
	if filepath.Dir(abs) != d.root {
		return "", fmt.Errorf("%q: %w", rawName, gateway.ErrInvalidPath)
	}

	return name, nil
}

// AbsPath returns the absolute on-disk path for a resolved name.
func (d *Dir) AbsPath(name string) string {
	return filepath.Join(d.root, name)
}

// List returns every regular file directly under the root, sorted by name.
func (d *Dir) List() ([]*gateway.FileInfo, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("reading sandbox: %w", err)
	}

	var infos []*gateway.FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		infos = append(infos, &gateway.FileInfo{
			Name:     entry.Name(),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Stat returns metadata for a resolved name.
func (d *Dir) Stat(name string) (*gateway.FileInfo, error) {
	fi, err := os.Stat(d.AbsPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, gateway.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	return &gateway.FileInfo{Name: name, Size: fi.Size(), Modified: fi.ModTime()}, nil
}

// Exists reports whether a resolved name exists as a regular file.
func (d *Dir) Exists(name string) (bool, error) {
	fi, err := os.Stat(d.AbsPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
	return fi.Mode().IsRegular(), nil
}

// ReadFile returns the content of a resolved name.
func (d *Dir) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(d.AbsPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, gateway.ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// WriteFile writes content for a resolved name, replacing any existing file.
func (d *Dir) WriteFile(name string, data []byte) error {
	if err := os.WriteFile(d.AbsPath(name), data, 0o640); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
