package commands

import (
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/voicekit/pkg/audio/media"
	"github.com/haivivi/voicekit/pkg/audio/mel"
	"github.com/haivivi/voicekit/pkg/audio/pcm"
	"github.com/haivivi/voicekit/pkg/cli"
	"github.com/haivivi/voicekit/pkg/hparams"
)

var (
	audioRate    int
	audioPCM     string
	melHParams   string
	melNormalize bool
	melOut       string
)

var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Probe and load audio files",
	Long: `Probe and load WAV, MP3, Ogg Vorbis and Ogg Opus files.

Examples:
  voicekit audio info speech.ogg
  voicekit audio load speech.mp3 --rate 22050 --pcm speech.pcm
  voicekit audio mel speech.wav --hparams configs/base.json --out speech.mel`,
}

// AudioInfo is the output of 'audio info'.
type AudioInfo struct {
	media.StreamInfo `yaml:",inline"`

	Path     string `json:"path" yaml:"path"`
	Size     string `json:"size" yaml:"size"`
	Duration string `json:"duration" yaml:"duration"`
	Samples  int64  `json:"samples" yaml:"samples"`
	Skipped  int    `json:"skipped_frames,omitempty" yaml:"skipped_frames,omitempty"`
}

var audioInfoCmd = &cobra.Command{
	Use:   "info <file>",
	Short: "Show the audio stream of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := stageInput(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		c, err := media.Open(in.Local)
		if err != nil {
			return err
		}
		defer c.Close()

		info := AudioInfo{StreamInfo: c.Stream(), Path: args[0]}
		var d time.Duration
		for frame, err := range c.Frames() {
			if err != nil {
				info.Skipped++
				continue
			}
			info.Samples += int64(frame.Len())
			d += frame.Duration()
		}
		info.Duration = cli.FormatDuration(d)
		if st, err := os.Stat(in.Local); err == nil {
			info.Size = cli.FormatBytes(st.Size())
		}
		if info.Skipped > 0 {
			cli.PrintWarning(stderr(cmd), "%d frames could not be decoded", info.Skipped)
		}
		return output(cmd, info)
	},
}

// LoadSummary is the output of 'audio load'.
type LoadSummary struct {
	Path       string  `json:"path" yaml:"path"`
	SampleRate int     `json:"sample_rate" yaml:"sample_rate"`
	Samples    int     `json:"samples" yaml:"samples"`
	Duration   string  `json:"duration" yaml:"duration"`
	Peak       float64 `json:"peak" yaml:"peak"`
	RMS        float64 `json:"rms" yaml:"rms"`
	PCM        string  `json:"pcm,omitempty" yaml:"pcm,omitempty"`
}

var audioLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Decode a file to mono float samples at a target rate",
	Long: `Decode a file to mono float samples, resampled to --rate (default: the
context's sample_rate, or the source rate when neither is set), and print
level statistics. --pcm writes the samples as 16-bit little-endian PCM.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rate := audioRate
		if !cmd.Flags().Changed("rate") {
			ctx, err := currentContext()
			if err != nil {
				return err
			}
			rate = ctx.SampleRate
		}

		in, err := stageInput(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		samples, sr, err := media.LoadWithRate(in.Local, rate)
		if err != nil {
			return err
		}
		sum := LoadSummary{
			Path:       args[0],
			SampleRate: sr,
			Samples:    len(samples),
			Duration:   cli.FormatDuration(time.Duration(len(samples)) * time.Second / time.Duration(sr)),
		}
		sum.Peak, sum.RMS = levels(samples)

		if audioPCM != "" {
			if err := os.WriteFile(audioPCM, pcm.EncodeS16LE(pcm.Float32ToInt16(samples)), 0o644); err != nil {
				return err
			}
			sum.PCM = audioPCM
		}
		return output(cmd, sum)
	},
}

// levels returns the peak and RMS amplitude of samples, rounded to four
// decimals.
func levels(samples []float32) (peak, rms float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	var sq float64
	for _, s := range samples {
		v := float64(s)
		peak = max(peak, math.Abs(v))
		sq += v * v
	}
	rms = math.Sqrt(sq / float64(len(samples)))
	round := func(v float64) float64 { return math.Round(v*1e4) / 1e4 }
	return round(peak), round(rms)
}

// MelSummary is the output of 'audio mel'.
type MelSummary struct {
	Path       string  `json:"path" yaml:"path"`
	SampleRate int     `json:"sample_rate" yaml:"sample_rate"`
	Mels       int     `json:"mels" yaml:"mels"`
	Frames     int     `json:"frames" yaml:"frames"`
	Min        float32 `json:"min" yaml:"min"`
	Max        float32 `json:"max" yaml:"max"`
	Out        string  `json:"out,omitempty" yaml:"out,omitempty"`
}

var audioMelCmd = &cobra.Command{
	Use:   "mel <file>",
	Short: "Compute the log mel spectrogram training would see",
	Long: `Load a file at the sampling rate of a hyperparameter file and compute
its log mel spectrogram with the file's filter_length, hop_length,
win_length, n_mel_channels, mel_fmin and mel_fmax. Without --hparams the
22.05 kHz defaults are used. --out writes the [mels, frames] tensor as
msgpack.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := mel.DefaultConfig()
		if melHParams != "" {
			hp, err := stageInput(cmd.Context(), melHParams)
			if err != nil {
				return err
			}
			defer hp.Close()
			c, _, err := hparams.LoadConfig(hp.Local)
			if err != nil {
				return err
			}
			cfg = mel.FromData(c.Data)
		}
		ext, err := mel.New(cfg)
		if err != nil {
			return err
		}

		in, err := stageInput(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer in.Close()
		samples, err := media.Load(in.Local, cfg.SampleRate)
		if err != nil {
			return err
		}
		spec, err := ext.Spectrogram(samples)
		if err != nil {
			return err
		}
		if melNormalize {
			if err := mel.Normalize(spec); err != nil {
				return err
			}
		}

		sum := MelSummary{
			Path:       args[0],
			SampleRate: cfg.SampleRate,
			Mels:       spec.Shape[0],
			Frames:     spec.Shape[1],
			Min:        float32(math.Inf(1)),
			Max:        float32(math.Inf(-1)),
		}
		for _, v := range spec.Data {
			sum.Min = min(sum.Min, v)
			sum.Max = max(sum.Max, v)
		}
		if melOut != "" {
			data, err := msgpack.Marshal(spec)
			if err != nil {
				return err
			}
			if err := os.WriteFile(melOut, data, 0o644); err != nil {
				return err
			}
			sum.Out = melOut
		}
		return output(cmd, sum)
	},
}

func init() {
	audioMelCmd.Flags().StringVar(&melHParams, "hparams", "", "hyperparameter file with the data settings")
	audioMelCmd.Flags().BoolVar(&melNormalize, "normalize", false, "scale each mel bin to zero mean and unit variance")
	audioMelCmd.Flags().StringVar(&melOut, "out", "", "write the spectrogram tensor as msgpack to this file")
	audioLoadCmd.Flags().IntVarP(&audioRate, "rate", "r", 0, "target sample rate (0 keeps the source rate)")
	audioLoadCmd.Flags().StringVar(&audioPCM, "pcm", "", "also write the samples as s16le to this file")

	audioCmd.AddCommand(audioInfoCmd)
	audioCmd.AddCommand(audioLoadCmd)
	audioCmd.AddCommand(audioMelCmd)
	rootCmd.AddCommand(audioCmd)
}
