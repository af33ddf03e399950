// Package mel computes log mel spectrograms with the framing used by VITS
// style training pipelines: reflect padding of (n_fft-hop)/2 on both ends, a
// periodic Hann window, magnitude spectra and natural log compression
// clamped at 1e-5.
//
// Settings come from the "data" section of a hyperparameter file:
//
//	cfg, _, _ := hparams.LoadConfig("config.json")
//	ext, err := mel.New(mel.FromData(cfg.Data))
//	spec, err := ext.Spectrogram(samples) // [n_mel_channels, frames]
package mel

import (
	"errors"
	"fmt"
	"math"

	"github.com/haivivi/voicekit/pkg/hparams"
	"github.com/haivivi/voicekit/pkg/tensor"
)

// ErrTooShort is returned for input shorter than one padded frame.
var ErrTooShort = errors.New("mel: input shorter than one frame")

// Config controls spectrogram extraction.
type Config struct {
	SampleRate int
	FFTSize    int // must be a power of two
	HopSize    int
	WindowSize int // zero means FFTSize
	NumMels    int
	FMin       float64
	FMax       float64 // zero means SampleRate/2
}

// DefaultConfig returns the 22.05 kHz settings of the common VITS configs.
func DefaultConfig() Config {
	return Config{
		SampleRate: 22050,
		FFTSize:    1024,
		HopSize:    256,
		WindowSize: 1024,
		NumMels:    80,
	}
}

// FromData builds a Config from the data section of a hyperparameter file.
// Zero fields fall back to DefaultConfig.
func FromData(d hparams.DataConfig) Config {
	cfg := DefaultConfig()
	if d.SamplingRate > 0 {
		cfg.SampleRate = d.SamplingRate
	}
	if d.FilterLength > 0 {
		cfg.FFTSize = d.FilterLength
	}
	if d.HopLength > 0 {
		cfg.HopSize = d.HopLength
	}
	cfg.WindowSize = d.WinLength
	if cfg.WindowSize == 0 {
		cfg.WindowSize = cfg.FFTSize
	}
	if d.NMelChannels > 0 {
		cfg.NumMels = d.NMelChannels
	}
	cfg.FMin = d.MelFmin
	if d.MelFmax != nil {
		cfg.FMax = *d.MelFmax
	}
	return cfg
}

// Validate checks the config.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("mel: sample rate must be positive, got %d", c.SampleRate)
	case c.FFTSize <= 1 || c.FFTSize&(c.FFTSize-1) != 0:
		return fmt.Errorf("mel: fft size %d is not a power of two", c.FFTSize)
	case c.HopSize <= 0:
		return fmt.Errorf("mel: hop size must be positive, got %d", c.HopSize)
	case c.WindowSize < 0 || c.WindowSize > c.FFTSize:
		return fmt.Errorf("mel: window size %d outside (0, %d]", c.WindowSize, c.FFTSize)
	case c.NumMels <= 0:
		return fmt.Errorf("mel: mel count must be positive, got %d", c.NumMels)
	case c.FMin < 0 || (c.FMax > 0 && c.FMax <= c.FMin):
		return fmt.Errorf("mel: bad frequency range [%g, %g]", c.FMin, c.FMax)
	case c.FMax > float64(c.SampleRate)/2:
		return fmt.Errorf("mel: fmax %g above nyquist %d", c.FMax, c.SampleRate/2)
	}
	return nil
}

// Extractor computes spectrograms for one Config. It is safe for concurrent
// use.
type Extractor struct {
	cfg    Config
	window []float64 // FFTSize long, centered
	bank   [][]float64
}

// New validates cfg and precomputes the window and filterbank.
func New(cfg Config) (*Extractor, error) {
	if cfg.WindowSize == 0 {
		cfg.WindowSize = cfg.FFTSize
	}
	if cfg.FMax == 0 {
		cfg.FMax = float64(cfg.SampleRate) / 2
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{
		cfg:    cfg,
		window: centeredHann(cfg.WindowSize, cfg.FFTSize),
		bank:   filterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.FMin, cfg.FMax),
	}, nil
}

// Config returns the effective config.
func (e *Extractor) Config() Config {
	return e.cfg
}

// Frames returns the number of frames Spectrogram produces for n samples.
func (e *Extractor) Frames(n int) int {
	padded := n + 2*((e.cfg.FFTSize-e.cfg.HopSize)/2)
	if n == 0 || padded < e.cfg.FFTSize {
		return 0
	}
	return (padded-e.cfg.FFTSize)/e.cfg.HopSize + 1
}

// Spectrogram returns the log mel spectrogram of mono samples in [-1, 1]
// as a [NumMels, frames] tensor.
func (e *Extractor) Spectrogram(samples []float32) (*tensor.Tensor, error) {
	cfg := e.cfg
	pad := (cfg.FFTSize - cfg.HopSize) / 2
	if len(samples) <= pad {
		return nil, fmt.Errorf("%w: %d samples, need more than %d", ErrTooShort, len(samples), pad)
	}
	x := reflectPad(samples, pad)
	frames := e.Frames(len(samples))
	if frames == 0 {
		return nil, fmt.Errorf("%w: %d samples", ErrTooShort, len(samples))
	}

	out := tensor.Zeros(cfg.NumMels, frames)
	re := make([]float64, cfg.FFTSize)
	im := make([]float64, cfg.FFTSize)
	mag := make([]float64, cfg.FFTSize/2+1)
	for t := range frames {
		start := t * cfg.HopSize
		for i := range re {
			re[i] = x[start+i] * e.window[i]
			im[i] = 0
		}
		fft(re, im)
		for k := range mag {
			mag[k] = math.Sqrt(re[k]*re[k] + im[k]*im[k] + 1e-6)
		}
		for m, filter := range e.bank {
			var sum float64
			for k, w := range filter {
				sum += w * mag[k]
			}
			out.Data[m*frames+t] = float32(math.Log(max(sum, 1e-5)))
		}
	}
	return out, nil
}

// reflectPad mirrors pad samples at each end without repeating the edge
// sample.
func reflectPad(samples []float32, pad int) []float64 {
	n := len(samples)
	out := make([]float64, n+2*pad)
	for i := range out {
		j := i - pad
		switch {
		case j < 0:
			j = -j
		case j >= n:
			j = 2*(n-1) - j
		}
		out[i] = float64(samples[j])
	}
	return out
}

// Normalize scales each mel bin to zero mean and unit variance across
// frames in place.
func Normalize(spec *tensor.Tensor) error {
	if len(spec.Shape) != 2 {
		return fmt.Errorf("mel: normalize wants a 2-d tensor, got shape %v", spec.Shape)
	}
	bins, frames := spec.Shape[0], spec.Shape[1]
	if frames == 0 {
		return nil
	}
	for m := range bins {
		row := spec.Data[m*frames : (m+1)*frames]
		var sum float64
		for _, v := range row {
			sum += float64(v)
		}
		mean := sum / float64(frames)
		var sq float64
		for _, v := range row {
			d := float64(v) - mean
			sq += d * d
		}
		std := max(math.Sqrt(sq/float64(frames)), 1e-10)
		for i, v := range row {
			row[i] = float32((float64(v) - mean) / std)
		}
	}
	return nil
}
