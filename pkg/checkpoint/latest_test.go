package checkpoint

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/haivivi/voicekit/pkg/storage"
)

func TestLatest(t *testing.T) {
	store, _ := storage.NewLocal(t.TempDir())
	ctx := context.Background()
	for _, name := range []string{"G_900.ckpt", "G_1000.ckpt", "G_80.ckpt", "D_5000.ckpt", "G_final.ckpt", "notes.txt"} {
		w, err := store.Write(ctx, "run/"+name)
		if err != nil {
			t.Fatal(err)
		}
		w.Close()
	}

	tests := []struct {
		pattern string
		want    string
	}{
		{"G_*.ckpt", "run/G_1000.ckpt"},
		{"D_*.ckpt", "run/D_5000.ckpt"},
		{"*.ckpt", "run/D_5000.ckpt"},
	}
	for _, tt := range tests {
		got, err := Latest(ctx, store, "run", tt.pattern)
		if err != nil {
			t.Fatalf("Latest(%q): %v", tt.pattern, err)
		}
		if got != tt.want {
			t.Errorf("Latest(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}

	if _, err := Latest(ctx, store, "run", "X_*.ckpt"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("no match err = %v", err)
	}
	if _, err := Latest(ctx, store, "run", "[bad"); err == nil {
		t.Error("expected error for bad pattern")
	}
}

func TestTrailingNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"G_1000.ckpt", 1000, true},
		{"G_0.pth", 0, true},
		{"model.ckpt", 0, false},
		{"step42", 42, true},
	}
	for _, tt := range tests {
		got, ok := trailingNumber(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("trailingNumber(%q) = %d, %v", tt.in, got, ok)
		}
	}
}
