// Command voicekit inspects and converts the artifacts of speech model
// training: hyperparameter files, checkpoints and audio.
//
// Usage:
//
//	voicekit [flags] <command> [subcommand] [args]
//
// Commands:
//
//	hparams     - Show, query and validate hyperparameter files
//	checkpoint  - Inspect, merge and locate checkpoints
//	audio       - Probe and load audio files
//	convert     - Convert audio to Ogg Vorbis, raw PCM or SILK
//	config      - Manage contexts (storage and SILK encoder settings)
//	version     - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/voicekit/cmd/voicekit/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
