package pcm

import (
	"fmt"
	"time"
)

// Depth is the bit depth of every format handled by this package.
const Depth = 16

// Common formats.
var (
	L16Mono16K = Format{SampleRate: 16000, Channels: 1}
	L16Mono24K = Format{SampleRate: 24000, Channels: 1}
	L16Mono48K = Format{SampleRate: 48000, Channels: 1}
)

// Format describes interleaved signed 16-bit little-endian audio.
type Format struct {
	SampleRate int
	Channels   int
}

// Mono returns f with a single channel.
func (f Format) Mono() Format {
	f.Channels = 1
	return f
}

// Validate reports whether f can describe audio.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("pcm: invalid sample rate %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return fmt.Errorf("pcm: invalid channel count %d", f.Channels)
	}
	return nil
}

// FrameSize returns the number of bytes of one frame (one sample per
// channel).
func (f Format) FrameSize() int {
	return f.Channels * Depth / 8
}

// Samples returns the number of frames in the given number of bytes.
func (f Format) Samples(bytes int64) int64 {
	return bytes / int64(f.FrameSize())
}

// SamplesInDuration returns the number of frames in the given duration.
func (f Format) SamplesInDuration(d time.Duration) int64 {
	return int64(time.Duration(f.SampleRate) * d / time.Second)
}

// BytesInDuration returns the number of bytes in the given duration.
func (f Format) BytesInDuration(d time.Duration) int64 {
	return f.SamplesInDuration(d) * int64(f.FrameSize())
}

// Duration returns the duration of the given number of bytes.
func (f Format) Duration(bytes int64) time.Duration {
	return time.Duration(f.Samples(bytes)) * time.Second / time.Duration(f.SampleRate)
}

// BytesRate returns the byte rate of the audio data.
func (f Format) BytesRate() int {
	return f.SampleRate * f.FrameSize()
}

func (f Format) String() string {
	return fmt.Sprintf("audio/L16; rate=%d; channels=%d", f.SampleRate, f.Channels)
}
