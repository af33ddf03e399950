// Package convert turns audio files into the formats speech pipelines
// exchange: Ogg Vorbis, raw mono PCM and SILK v3.
package convert

import (
	"log/slog"

	"github.com/haivivi/voicekit/pkg/audio/codec/vorbis"
)

type options struct {
	quality    float32
	sampleRate int
	logger     *slog.Logger
}

func newOptions(opts []Option) *options {
	o := &options{quality: vorbis.DefaultQuality}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Option configures a conversion.
type Option func(*options)

// WithQuality sets the Vorbis VBR quality, from -0.1 to 1. Defaults to
// vorbis.DefaultQuality.
func WithQuality(q float32) Option {
	return func(o *options) {
		o.quality = q
	}
}

// WithSampleRate resamples PCM output to rate. Zero keeps the source rate.
func WithSampleRate(rate int) Option {
	return func(o *options) {
		o.sampleRate = rate
	}
}

// WithLogger sets the logger for conversion warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
