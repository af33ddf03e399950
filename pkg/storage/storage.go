// Package storage reads and writes model artifacts such as checkpoints,
// hyperparameter files and converted audio. Callers address files by a
// forward-slash path relative to a store; the store is either a local
// directory or an S3-compatible bucket.
//
// Use [Open] to resolve a user supplied location ("runs/G_1000.ckpt",
// "s3://models/vits/G_1000.ckpt") into a store and an in-store path.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore is what the commands need from a backend. Paths use forward
// slashes and are relative to the store. Stores may be shared between
// goroutines.
type FileStore interface {
	// Read fails with an error wrapping os.ErrNotExist for missing files.
	// The caller closes the reader.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write replaces the file. Data is committed when the writer is
	// closed.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete succeeds when the file is already gone.
	Delete(ctx context.Context, path string) error

	Exists(ctx context.Context, path string) (bool, error)

	// List returns the sorted paths of the files directly under dir. A
	// missing dir is empty.
	List(ctx context.Context, dir string) ([]string, error)
}

// Fetch copies the file at p into a uniquely named file under dir (the
// system temp dir when empty) keeping its extension. The returned cleanup
// removes the copy.
func Fetch(ctx context.Context, store FileStore, p, dir string) (string, func(), error) {
	r, err := store.Read(ctx, p)
	if err != nil {
		return "", nil, err
	}
	defer r.Close()

	if dir == "" {
		dir = os.TempDir()
	}
	local := filepath.Join(dir, uuid.New().String()+path.Ext(p))
	f, err := os.Create(local)
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.Remove(local) }
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("storage: fetch %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return local, cleanup, nil
}

// Put uploads the local file to p in store.
func Put(ctx context.Context, store FileStore, p, local string) error {
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := store.Write(ctx, p)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		w.Close()
		return fmt.Errorf("storage: put %s: %w", p, err)
	}
	return w.Close()
}
