package commands

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/voicekit/pkg/convert"
)

var (
	convertQuality float32
	convertRate    int
	silkBinary     string
	silkBitrate    int
	silkTencent    bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert audio between formats",
	Long: `Convert audio files. Remote s3:// inputs are fetched to the staging
directory and the result is uploaded next to the input object.

Examples:
  voicekit convert ogg speech.wav speech.ogg --quality 0.5
  voicekit convert pcm speech.mp3 --rate 16000
  voicekit convert silk s3://voice/in/speech.ogg --bitrate 32000`,
}

// ConvertResult is the output of the convert commands.
type ConvertResult struct {
	Input      string          `json:"input" yaml:"input"`
	Output     string          `json:"output" yaml:"output"`
	SampleRate int             `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
	Report     *convert.Report `json:"report,omitempty" yaml:"report,omitempty"`
}

var convertOggCmd = &cobra.Command{
	Use:   "ogg <wav> [out]",
	Short: "Encode a WAV file as Ogg Vorbis",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		in, err := stageInput(ctx, args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		out := strings.TrimSuffix(in.Local, filepath.Ext(in.Local)) + ".ogg"
		if len(args) == 2 {
			out = args[1]
		}
		if err := convert.WAVToOGG(in.Local, out, convert.WithQuality(convertQuality)); err != nil {
			return err
		}
		if len(args) == 1 {
			if out, err = in.Publish(ctx, out); err != nil {
				return err
			}
		}
		return output(cmd, ConvertResult{Input: args[0], Output: out})
	},
}

var convertPCMCmd = &cobra.Command{
	Use:   "pcm <media>",
	Short: "Decode a media file to mono s16le PCM next to it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		in, err := stageInput(ctx, args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		res, err := convert.ToPCM(in.Local, convert.WithSampleRate(convertRate))
		if err != nil {
			return err
		}
		out, err := in.Publish(ctx, res.Path)
		if err != nil {
			return err
		}
		return output(cmd, ConvertResult{Input: args[0], Output: out, SampleRate: res.SampleRate, Report: &res.Report})
	},
}

var convertSILKCmd = &cobra.Command{
	Use:   "silk <media>",
	Short: "Encode a media file as SILK with the external encoder",
	Long: `Decode a media file to mono PCM and encode it with silk_v3_encoder.

The encoder binary, bitrate and header variant come from the context's
silk settings; flags override them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		vc, err := currentContext()
		if err != nil {
			return err
		}
		enc := vc.SILKEncoder()
		if cmd.Flags().Changed("binary") {
			enc.Binary = silkBinary
		}
		if cmd.Flags().Changed("bitrate") {
			enc.Bitrate = silkBitrate
		}
		if cmd.Flags().Changed("tencent") {
			enc.Tencent = silkTencent
		}

		in, err := stageInput(ctx, args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		var opts []convert.Option
		if convertRate > 0 {
			opts = append(opts, convert.WithSampleRate(convertRate))
		}
		out, err := convert.ConvertToSILK(ctx, in.Local, enc, opts...)
		if err != nil {
			return err
		}
		if out, err = in.Publish(ctx, out); err != nil {
			return err
		}
		return output(cmd, ConvertResult{Input: args[0], Output: out})
	},
}

func init() {
	convertOggCmd.Flags().Float32VarP(&convertQuality, "quality", "q", 0.3, "vorbis quality from -0.1 to 1")
	convertPCMCmd.Flags().IntVarP(&convertRate, "rate", "r", 0, "output sample rate (0 keeps the source rate)")
	convertSILKCmd.Flags().IntVarP(&convertRate, "rate", "r", 0, "encode at this rate instead of the source rate")
	convertSILKCmd.Flags().StringVar(&silkBinary, "binary", "", "encoder binary (default silk_v3_encoder)")
	convertSILKCmd.Flags().IntVar(&silkBitrate, "bitrate", 0, "target bitrate in bits per second (default 24000)")
	convertSILKCmd.Flags().BoolVar(&silkTencent, "tencent", true, "write the Tencent-compatible header")

	convertCmd.AddCommand(convertOggCmd)
	convertCmd.AddCommand(convertPCMCmd)
	convertCmd.AddCommand(convertSILKCmd)
	rootCmd.AddCommand(convertCmd)
}
