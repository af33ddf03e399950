package cli

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths locates the files of one app. The default layout is
//
//	~/.voicekit/<app>/config.yaml
//	~/.voicekit/<app>/staging/
//
// A config file given explicitly moves the whole layout next to it.
type Paths struct {
	dir string
}

// NewPaths returns the default layout for appName.
func NewPaths(appName string) (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return PathsAt(filepath.Join(home, DefaultBaseDir, appName)), nil
}

// PathsAt returns a layout rooted at dir.
func PathsAt(dir string) *Paths {
	return &Paths{dir: dir}
}

// ForConfig returns the layout of the directory holding cfg.
func ForConfig(cfg *Config) *Paths {
	return PathsAt(filepath.Dir(cfg.Path()))
}

// Dir returns the app directory.
func (p *Paths) Dir() string {
	return p.dir
}

// ConfigFile returns the default config file path.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.dir, DefaultConfigFile)
}

// StagingDir returns where remote inputs are downloaded while a command
// runs.
func (p *Paths) StagingDir() string {
	return filepath.Join(p.dir, "staging")
}

// EnsureStagingDir creates the staging directory and returns it.
func (p *Paths) EnsureStagingDir() (string, error) {
	dir := p.StagingDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	return dir, nil
}
