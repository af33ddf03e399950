package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haivivi/voicekit/pkg/cli"
	"github.com/haivivi/voicekit/pkg/storage"
)

const appName = "voicekit"

// configEnv overrides the config file location.
const configEnv = "VOICEKIT_CONFIG"

var (
	// Global flags
	verbose      bool
	contextName  string
	formatOutput string
	outputFile   string
	configFile   string

	globalConfig *cli.Config
)

var rootCmd = &cobra.Command{
	Use:   "voicekit",
	Short: "Speech model training utilities",
	Long: `voicekit - inspect and convert the artifacts of speech model training.

  hparams     show, query and validate hyperparameter files
  checkpoint  inspect, merge and locate checkpoints
  audio       probe and load audio files
  convert     convert audio to Ogg Vorbis, raw PCM or SILK

Paths may be local files or s3://bucket/key locations; S3 access is
configured per context:

  voicekit config add-context minio
  voicekit config set minio storage.endpoint http://localhost:9000
  voicekit config set minio storage.path_style true
  voicekit config use-context minio
  voicekit checkpoint inspect s3://models/G_1000.ckpt`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		if _, err := cli.ParseFormat(formatOutput); err != nil {
			return err
		}
		return nil
	},
}

// Execute runs the root command. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context to use (default: current context)")
	rootCmd.PersistentFlags().StringVar(&formatOutput, "format", "yaml", "output format: yaml, json or raw")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "write the result to a file instead of stdout")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: $"+configEnv+" or ~/.voicekit/voicekit/config.yaml)")
}

// GetConfig returns the configuration, loading it on first use so commands
// like 'voicekit version' work without a home directory.
func GetConfig() (*cli.Config, error) {
	p, err := configPath()
	if err != nil {
		return nil, fmt.Errorf("config not available: %w", err)
	}
	if globalConfig != nil && globalConfig.Path() == p {
		return globalConfig, nil
	}
	cfg, err := cli.LoadConfigWithPath(appName, p)
	if err != nil {
		return nil, fmt.Errorf("config not available: %w", err)
	}
	globalConfig = cfg
	return cfg, nil
}

// configPath resolves --config, then $VOICEKIT_CONFIG, then the default.
func configPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	if p := os.Getenv(configEnv); p != "" {
		return p, nil
	}
	paths, err := cli.NewPaths(appName)
	if err != nil {
		return "", err
	}
	return paths.ConfigFile(), nil
}

// currentContext returns the context selected by --context, the current
// context, or an empty one.
func currentContext() (*cli.Context, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return cfg.ResolveContext(contextName)
}

// output writes v in the format chosen by --format.
func output(cmd *cobra.Command, v any) error {
	f, err := cli.ParseFormat(formatOutput)
	if err != nil {
		return err
	}
	opts := cli.OutputOptions{Format: f, File: outputFile}
	if outputFile == "" {
		opts.Writer = cmd.OutOrStdout()
	}
	return cli.Output(v, opts)
}

// openLocation resolves a local path or s3:// URI with the current
// context's storage settings.
func openLocation(location string) (storage.FileStore, string, error) {
	ctx, err := currentContext()
	if err != nil {
		return nil, "", err
	}
	return storage.Open(location, ctx.S3Options())
}

// staged is a command input available as a local file.
type staged struct {
	Local string

	store  storage.FileStore
	key    string
	remove func()
}

// stageInput makes location available on the local filesystem, copying
// remote objects into the staging directory next to the config file.
func stageInput(ctx context.Context, location string) (*staged, error) {
	if !storage.IsRemote(location) {
		return &staged{Local: location, remove: func() {}}, nil
	}
	store, key, err := openLocation(location)
	if err != nil {
		return nil, err
	}
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	dir, err := cli.ForConfig(cfg).EnsureStagingDir()
	if err != nil {
		return nil, err
	}
	local, remove, err := storage.Fetch(ctx, store, key, dir)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	slog.DebugContext(ctx, "staged remote input", "location", location, "local", local)
	return &staged{Local: local, store: store, key: key, remove: remove}, nil
}

// Publish uploads a file produced next to a remote input to the matching
// key next to the remote object and returns its location. Local inputs
// return out unchanged.
func (s *staged) Publish(ctx context.Context, out string) (string, error) {
	if s.store == nil {
		return out, nil
	}
	key := strings.TrimSuffix(s.key, path.Ext(s.key)) + filepath.Ext(out)
	if err := storage.Put(ctx, s.store, key, out); err != nil {
		return "", err
	}
	os.Remove(out)
	return locationOf(s.store, key), nil
}

// locationOf renders key in store as a location openLocation accepts.
func locationOf(store storage.FileStore, key string) string {
	if s3, ok := store.(*storage.S3Store); ok {
		return "s3://" + s3.Bucket() + "/" + key
	}
	return key
}

// Close removes the staged copy.
func (s *staged) Close() {
	s.remove()
}

func stderr(cmd *cobra.Command) io.Writer {
	return cmd.ErrOrStderr()
}
