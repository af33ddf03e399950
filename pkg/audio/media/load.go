package media

import (
	"fmt"

	"github.com/haivivi/voicekit/pkg/audio/pcm"
	"github.com/haivivi/voicekit/pkg/audio/resampler"
)

// Load decodes path into mono samples in [-1, 1) at targetRate. A
// targetRate of zero or less keeps the native rate of the file.
func Load(path string, targetRate int) ([]float32, error) {
	samples, _, err := LoadWithRate(path, targetRate)
	return samples, err
}

// LoadWithRate is Load that also returns the rate of the samples.
func LoadWithRate(path string, targetRate int) ([]float32, int, error) {
	c, err := Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer c.Close()

	info := c.Stream()
	var samples []float32
	for frame, err := range c.Frames() {
		if err != nil {
			return nil, 0, fmt.Errorf("media: load %s: %w", path, err)
		}
		samples = append(samples, pcm.DownmixFloat32(frame.Float32(), frame.Channels)...)
	}
	if targetRate <= 0 || targetRate == info.SampleRate {
		return samples, info.SampleRate, nil
	}
	out, err := resampler.Float32(samples, info.SampleRate, targetRate)
	if err != nil {
		return nil, 0, fmt.Errorf("media: load %s: %w", path, err)
	}
	return out, targetRate, nil
}
