package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/voicekit/pkg/cli"
	"github.com/haivivi/voicekit/pkg/hparams"
)

var hparamsCmd = &cobra.Command{
	Use:     "hparams",
	Aliases: []string{"hp"},
	Short:   "Read hyperparameter files",
	Long: `Read JSON or YAML hyperparameter files.

Examples:
  voicekit hparams show configs/base.json
  voicekit hparams get configs/base.json data.sampling_rate
  voicekit hparams query configs/base.json '.model.upsample_rates | add'
  voicekit hparams validate s3://models/run1/config.json

Malformed JSON is an error; --repair fixes trailing commas, comments and
similar hand-editing mistakes before parsing.`,
}

var hparamsRepair bool

func parseOptions() []hparams.ParseOption {
	if hparamsRepair {
		return []hparams.ParseOption{hparams.WithRepair()}
	}
	return nil
}

// loadHParams reads a local or remote hyperparameter file.
func loadHParams(cmd *cobra.Command, location string) (*hparams.HParams, error) {
	in, err := stageInput(cmd.Context(), location)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return hparams.LoadFile(in.Local, parseOptions()...)
}

var hparamsShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print a hyperparameter file in the output format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hp, err := loadHParams(cmd, args[0])
		if err != nil {
			return err
		}
		return output(cmd, hp)
	},
}

var hparamsGetCmd = &cobra.Command{
	Use:   "get <file> <key>",
	Short: "Print the value at a dotted key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hp, err := loadHParams(cmd, args[0])
		if err != nil {
			return err
		}
		v, ok := hp.Lookup(args[1])
		if !ok {
			return fmt.Errorf("key %q not found in %s", args[1], args[0])
		}
		return output(cmd, v)
	},
}

var hparamsQueryCmd = &cobra.Command{
	Use:   "query <file> <jq-expression>",
	Short: "Run a jq expression against a hyperparameter file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hp, err := loadHParams(cmd, args[0])
		if err != nil {
			return err
		}
		results, err := hp.Query(args[1])
		if err != nil {
			return err
		}
		if len(results) == 1 {
			return output(cmd, results[0])
		}
		return output(cmd, results)
	},
}

var hparamsValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a hyperparameter file against the training config schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := stageInput(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		cfg, hp, err := hparams.LoadConfig(in.Local, parseOptions()...)
		if err != nil {
			return err
		}
		if err := errors.Join(hparams.ValidateDocument(hp), cfg.Validate()); err != nil {
			return err
		}
		cli.PrintSuccess(cmd.OutOrStdout(), "%s is valid (%d keys, sampling rate %d Hz).", args[0], hp.Len(), cfg.Data.SamplingRate)
		return nil
	},
}

func init() {
	hparamsCmd.PersistentFlags().BoolVar(&hparamsRepair, "repair", false, "repair malformed JSON before parsing")
	hparamsCmd.AddCommand(hparamsShowCmd)
	hparamsCmd.AddCommand(hparamsGetCmd)
	hparamsCmd.AddCommand(hparamsQueryCmd)
	hparamsCmd.AddCommand(hparamsValidateCmd)
	rootCmd.AddCommand(hparamsCmd)
}
