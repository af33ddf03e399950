package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/voicekit/pkg/checkpoint"
	"github.com/haivivi/voicekit/pkg/cli"
)

var (
	checkpointOut     string
	checkpointKeys    bool
	checkpointPattern string
)

var checkpointCmd = &cobra.Command{
	Use:     "checkpoint",
	Aliases: []string{"ckpt"},
	Short:   "Inspect and merge training checkpoints",
	Long: `Inspect and merge training checkpoints.

Examples:
  voicekit checkpoint inspect logs/G_1000.ckpt --keys
  voicekit checkpoint latest s3://models/run1 --pattern 'G_*.ckpt'
  voicekit checkpoint merge new_model.ckpt logs/G_1000.ckpt --out warm.ckpt`,
}

// ParamInfo describes one saved parameter.
type ParamInfo struct {
	Name  string `json:"name" yaml:"name"`
	Shape []int  `json:"shape" yaml:"shape"`
}

// CheckpointSummary is the output of 'checkpoint inspect'.
type CheckpointSummary struct {
	Iteration    int64       `json:"iteration" yaml:"iteration"`
	LearningRate float64     `json:"learning_rate,omitempty" yaml:"learning_rate,omitempty"`
	Parameters   int         `json:"parameters" yaml:"parameters"`
	Elements     int         `json:"elements" yaml:"elements"`
	Optimizer    int         `json:"optimizer_entries,omitempty" yaml:"optimizer_entries,omitempty"`
	Keys         []ParamInfo `json:"keys,omitempty" yaml:"keys,omitempty"`
}

var checkpointInspectCmd = &cobra.Command{
	Use:   "inspect <checkpoint>",
	Short: "Summarize a checkpoint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, key, err := openLocation(args[0])
		if err != nil {
			return err
		}
		ckpt, err := checkpoint.Open(cmd.Context(), store, key)
		if err != nil {
			return err
		}
		sum := CheckpointSummary{
			Iteration:    ckpt.Iteration,
			LearningRate: ckpt.LearningRate,
			Parameters:   ckpt.Model.Len(),
			Elements:     ckpt.Model.NumElements(),
		}
		if ckpt.Optimizer != nil {
			sum.Optimizer = ckpt.Optimizer.Len()
		}
		if checkpointKeys {
			for name, t := range ckpt.Model.All() {
				sum.Keys = append(sum.Keys, ParamInfo{Name: name, Shape: t.Shape})
			}
		}
		return output(cmd, sum)
	},
}

// MergeResult is the output of 'checkpoint merge'.
type MergeResult struct {
	Output     string   `json:"output" yaml:"output"`
	Iteration  int64    `json:"iteration" yaml:"iteration"`
	Loaded     int      `json:"loaded" yaml:"loaded"`
	Missing    []string `json:"missing,omitempty" yaml:"missing,omitempty"`
	Mismatched []string `json:"mismatched,omitempty" yaml:"mismatched,omitempty"`
	Unexpected []string `json:"unexpected,omitempty" yaml:"unexpected,omitempty"`
}

var checkpointMergeCmd = &cobra.Command{
	Use:   "merge <model> <saved>",
	Short: "Load a saved checkpoint into a model checkpoint",
	Long: `Load the parameters of <saved> into the model described by <model>.

Parameters <saved> lacks, or has with a different shape, keep the value
from <model>. The result carries <model>'s key order and <saved>'s
iteration and is written to --out.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if checkpointOut == "" {
			return fmt.Errorf("--out is required")
		}
		ctx := cmd.Context()

		store, key, err := openLocation(args[0])
		if err != nil {
			return err
		}
		current, err := checkpoint.Open(ctx, store, key)
		if err != nil {
			return err
		}
		model := checkpoint.NewMapModel(current.Model)

		savedStore, savedKey, err := openLocation(args[1])
		if err != nil {
			return err
		}
		iteration, rep, err := checkpoint.LoadWithReport(ctx, savedStore, savedKey, model)
		if err != nil {
			return err
		}

		outStore, outKey, err := openLocation(checkpointOut)
		if err != nil {
			return err
		}
		merged := checkpoint.FromModel(model, iteration)
		merged.LearningRate = current.LearningRate
		if err := checkpoint.Save(ctx, outStore, outKey, merged); err != nil {
			return err
		}
		if !rep.Complete() {
			cli.PrintWarning(stderr(cmd), "%d of %d parameters kept their initial value", len(rep.Missing)+len(rep.Mismatched), model.StateDict().Len())
		}
		return output(cmd, MergeResult{
			Output:     locationOf(outStore, outKey),
			Iteration:  iteration,
			Loaded:     rep.Loaded,
			Missing:    rep.Missing,
			Mismatched: rep.Mismatched,
			Unexpected: rep.Unexpected,
		})
	},
}

var checkpointLatestCmd = &cobra.Command{
	Use:   "latest <dir>",
	Short: "Print the checkpoint with the highest step number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, dir, err := openLocation(args[0])
		if err != nil {
			return err
		}
		p, err := checkpoint.Latest(cmd.Context(), store, dir, checkpointPattern)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), locationOf(store, p))
		return nil
	},
}

func init() {
	checkpointInspectCmd.Flags().BoolVar(&checkpointKeys, "keys", false, "list parameter names and shapes")
	checkpointMergeCmd.Flags().StringVar(&checkpointOut, "out", "", "where to write the merged checkpoint")
	checkpointLatestCmd.Flags().StringVar(&checkpointPattern, "pattern", "G_*.ckpt", "glob the checkpoint file names match")

	checkpointCmd.AddCommand(checkpointInspectCmd)
	checkpointCmd.AddCommand(checkpointMergeCmd)
	checkpointCmd.AddCommand(checkpointLatestCmd)
	rootCmd.AddCommand(checkpointCmd)
}
