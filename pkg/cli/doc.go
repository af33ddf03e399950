// Package cli provides the shared pieces of the voicekit command-line tools.
//
// This package includes:
//   - Configuration management (named contexts holding storage and SILK
//     encoder settings)
//   - Output formatting (YAML, JSON, raw)
//   - Styled status lines for the terminal
//
// Configuration is stored in ~/.voicekit/<app>/config.yaml, supporting
// multiple contexts similar to kubectl.
//
// Example usage:
//
//	cfg, err := cli.LoadConfig("voicekit")
//	ctx, err := cfg.ResolveContext("")
//	store, key, err := storage.Open("s3://bucket/model.ckpt", ctx.S3Options())
//
//	cli.Output(result, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    File:   outputPath,
//	})
package cli
