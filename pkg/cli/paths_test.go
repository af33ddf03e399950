package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewPaths(t *testing.T) {
	paths, err := NewPaths("testapp")
	if err != nil {
		t.Fatalf("NewPaths error: %v", err)
	}
	want := filepath.Join(DefaultBaseDir, "testapp")
	if !strings.HasSuffix(paths.Dir(), want) {
		t.Errorf("Dir() = %q, want suffix %q", paths.Dir(), want)
	}
}

func TestPathsLayout(t *testing.T) {
	dir := t.TempDir()
	paths := PathsAt(dir)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"Dir", paths.Dir(), dir},
		{"ConfigFile", paths.ConfigFile(), filepath.Join(dir, "config.yaml")},
		{"StagingDir", paths.StagingDir(), filepath.Join(dir, "staging")},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s() = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestForConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfigWithPath("testapp", filepath.Join(dir, "custom.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if got := ForConfig(cfg).StagingDir(); got != filepath.Join(dir, "staging") {
		t.Errorf("StagingDir() = %q", got)
	}
}

func TestEnsureStagingDir(t *testing.T) {
	paths := PathsAt(filepath.Join(t.TempDir(), "nested", "app"))

	dir, err := paths.EnsureStagingDir()
	if err != nil {
		t.Fatalf("EnsureStagingDir error: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("staging dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("staging path should be a directory")
	}
}
