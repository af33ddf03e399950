package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFetchAndPut(t *testing.T) {
	mock := newMockS3()
	mock.put("in/voice.wav", "RIFF....")
	store := NewS3(mock, "audio", "")
	ctx := context.Background()

	local, cleanup, err := Fetch(ctx, store, "in/voice.wav", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(local) != ".wav" {
		t.Errorf("fetched file %q lost its extension", local)
	}
	data, err := os.ReadFile(local)
	if err != nil || string(data) != "RIFF...." {
		t.Fatalf("fetched %q, %v", data, err)
	}

	if err := Put(ctx, store, "out/voice.wav", local); err != nil {
		t.Fatal(err)
	}
	if ok, _ := store.Exists(ctx, "out/voice.wav"); !ok {
		t.Fatal("uploaded object missing")
	}

	cleanup()
	if _, err := os.Stat(local); !os.IsNotExist(err) {
		t.Fatalf("cleanup left %s behind", local)
	}

	if _, _, err := Fetch(ctx, store, "missing.wav", t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("expected error fetching a missing object")
	}
}
