package convert

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/haivivi/voicekit/pkg/audio/codec/silk"
	"github.com/haivivi/voicekit/pkg/audio/media"
)

// SILKPath returns the path ConvertToSILK writes for in.
func SILKPath(in string) string {
	return strings.TrimSuffix(PCMPath(in), ".pcm") + ".silk"
}

// ConvertToSILK decodes mediaPath to mono PCM, encodes it with enc and
// returns the path of the .silk file written next to the input. The
// intermediate PCM file is removed whether or not encoding succeeds.
//
// SILK only accepts a few input rates; audio at any other rate is
// resampled to the next higher supported one.
func ConvertToSILK(ctx context.Context, mediaPath string, enc silk.Encoder, opts ...Option) (string, error) {
	o := newOptions(opts)

	info, err := media.Probe(mediaPath)
	if err != nil {
		return "", fmt.Errorf("convert: %w", err)
	}
	rate := info.SampleRate
	if o.sampleRate > 0 {
		rate = o.sampleRate
	}
	if !silk.ValidRate(rate) {
		to := silkRate(rate)
		o.logger.InfoContext(ctx, "resampling for silk", "path", mediaPath, "from", rate, "to", to)
		rate = to
	}

	res, err := ToPCM(mediaPath, WithSampleRate(rate), WithLogger(o.logger))
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(res.Path); err != nil && !os.IsNotExist(err) {
			o.logger.WarnContext(ctx, "failed to remove pcm file", "path", res.Path, "error", err)
		}
	}()
	if r := res.Report; r.Skipped > 0 {
		o.logger.WarnContext(ctx, "skipped undecodable frames",
			"path", mediaPath, "skipped", r.Skipped, "decoded", r.Frames, "error", r.FirstErr)
	}

	out := SILKPath(mediaPath)
	if err := enc.Encode(ctx, res.Path, out, res.SampleRate); err != nil {
		return "", fmt.Errorf("convert: %w", err)
	}
	return out, nil
}

// silkRate returns the lowest SILK rate at or above rate, or the highest
// one.
func silkRate(rate int) int {
	for _, r := range silk.Rates {
		if r >= rate {
			return r
		}
	}
	return silk.Rates[len(silk.Rates)-1]
}
