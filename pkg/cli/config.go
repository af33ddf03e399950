package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/voicekit/pkg/audio/codec/silk"
	"github.com/haivivi/voicekit/pkg/storage"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".voicekit"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config represents the main configuration structure for a CLI app
type Config struct {
	// AppName is the application name (e.g., "voicekit")
	AppName string `yaml:"-"`

	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context is a named set of settings, like a kubectl context.
type Context struct {
	Name string `yaml:"name"`

	// Storage configures access to s3:// locations.
	Storage *storage.S3Options `yaml:"storage,omitempty"`

	// SILK configures the external SILK encoder.
	SILK *SILKConfig `yaml:"silk,omitempty"`

	// SampleRate is the default target rate for audio loading.
	SampleRate int `yaml:"sample_rate,omitempty"`

	// Extra stores settings no command interprets.
	Extra map[string]string `yaml:"extra,omitempty"`
}

// SILKConfig holds the SILK encoder settings of a context.
type SILKConfig struct {
	Binary  string `yaml:"binary,omitempty"`
	Bitrate int    `yaml:"bitrate,omitempty"`
	// Tencent defaults to true when unset.
	Tencent *bool `yaml:"tencent,omitempty"`
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		paths, err := NewPaths(appName)
		if err != nil {
			return nil, err
		}
		configPath = paths.ConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	for name, ctx := range cfg.Contexts {
		ctx.Name = name
	}
	cfg.AppName = appName
	cfg.configPath = configPath
	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// AddContext adds a new context. An existing context of the same name is
// an error.
func (c *Config) AddContext(name string, ctx *Context) error {
	if name == "" {
		return fmt.Errorf("context name cannot be empty")
	}
	if _, ok := c.Contexts[name]; ok {
		return fmt.Errorf("context %q already exists", name)
	}
	ctx.Name = name
	c.Contexts[name] = ctx
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// ResolveContext returns the named context, the current one when name is
// empty, or an empty context when no context is configured at all.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name != "" {
		return c.GetContext(name)
	}
	if c.CurrentContext == "" {
		return &Context{}, nil
	}
	return c.GetContext(c.CurrentContext)
}

// ListContexts returns all context names, sorted.
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Set assigns a dotted key such as "storage.region" or "silk.bitrate".
// Unknown keys are stored in Extra.
func (ctx *Context) Set(key, value string) error {
	section, field, _ := strings.Cut(key, ".")
	switch section {
	case "storage":
		if ctx.Storage == nil {
			ctx.Storage = &storage.S3Options{}
		}
		return setStorage(ctx.Storage, field, value)
	case "silk":
		if ctx.SILK == nil {
			ctx.SILK = &SILKConfig{}
		}
		return setSILK(ctx.SILK, field, value)
	case "sample_rate":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("sample_rate: invalid value %q", value)
		}
		ctx.SampleRate = n
		return nil
	}
	ctx.SetExtra(key, value)
	return nil
}

func setStorage(o *storage.S3Options, field, value string) error {
	switch field {
	case "region":
		o.Region = value
	case "endpoint":
		o.Endpoint = value
	case "access_key":
		o.AccessKey = value
	case "secret_key":
		o.SecretKey = value
	case "path_style":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("storage.path_style: %w", err)
		}
		o.PathStyle = b
	default:
		return fmt.Errorf("unknown storage key %q", field)
	}
	return nil
}

func setSILK(s *SILKConfig, field, value string) error {
	switch field {
	case "binary":
		s.Binary = value
	case "bitrate":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("silk.bitrate: invalid value %q", value)
		}
		s.Bitrate = n
	case "tencent":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("silk.tencent: %w", err)
		}
		s.Tencent = &b
	default:
		return fmt.Errorf("unknown silk key %q", field)
	}
	return nil
}

// S3Options returns the storage options of the context; zero options when
// none are configured.
func (ctx *Context) S3Options() storage.S3Options {
	if ctx == nil || ctx.Storage == nil {
		return storage.S3Options{}
	}
	return *ctx.Storage
}

// SILKEncoder returns an encoder built from the context settings.
func (ctx *Context) SILKEncoder() *silk.Exec {
	enc := &silk.Exec{Tencent: true}
	if ctx == nil || ctx.SILK == nil {
		return enc
	}
	enc.Binary = ctx.SILK.Binary
	enc.Bitrate = ctx.SILK.Bitrate
	if ctx.SILK.Tencent != nil {
		enc.Tencent = *ctx.SILK.Tencent
	}
	return enc
}

// GetExtra returns an extra value for the context
func (ctx *Context) GetExtra(key string) string {
	if ctx.Extra == nil {
		return ""
	}
	return ctx.Extra[key]
}

// SetExtra sets an extra value for the context
func (ctx *Context) SetExtra(key, value string) {
	if ctx.Extra == nil {
		ctx.Extra = make(map[string]string)
	}
	ctx.Extra[key] = value
}

// Masked returns a copy of the context with secrets masked for display.
func (ctx *Context) Masked() *Context {
	c := *ctx
	if ctx.Storage != nil {
		s := *ctx.Storage
		s.AccessKey = MaskAPIKey(s.AccessKey)
		s.SecretKey = MaskAPIKey(s.SecretKey)
		c.Storage = &s
	}
	return &c
}

// MaskAPIKey masks the API key for display
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
