package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
)

// Local implements FileStore on the local filesystem. Paths are resolved
// against root; a Local with an empty root resolves paths as given, which
// is what command line tools want for user supplied file names.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir, creating the directory if
// needed.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return &Local{root: abs}, nil
}

// Filesystem returns a Local store without a root.
func Filesystem() *Local {
	return &Local{}
}

// Root returns the store root, empty for [Filesystem].
func (l *Local) Root() string {
	return l.root
}

func (l *Local) resolve(p string) string {
	if l.root == "" {
		if p == "" {
			return "."
		}
		return filepath.FromSlash(p)
	}
	return filepath.Join(l.root, filepath.FromSlash(p))
}

// Read opens the named file for reading.
func (l *Local) Read(_ context.Context, p string) (io.ReadCloser, error) {
	return os.Open(l.resolve(p))
}

// Write creates the named file, creating parent directories as needed.
func (l *Local) Write(_ context.Context, p string) (io.WriteCloser, error) {
	full := l.resolve(p)
	if dir := filepath.Dir(full); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(full)
}

// Delete removes the named file.
func (l *Local) Delete(_ context.Context, p string) error {
	err := os.Remove(l.resolve(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Exists reports whether the named file exists.
func (l *Local) Exists(_ context.Context, p string) (bool, error) {
	_, err := os.Stat(l.resolve(p))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// List returns the regular files directly under dir.
func (l *Local) List(_ context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(l.resolve(dir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, path.Join(dir, e.Name()))
		}
	}
	slices.Sort(names)
	return names, nil
}

var _ FileStore = (*Local)(nil)
