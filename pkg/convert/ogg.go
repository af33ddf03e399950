package convert

import (
	"errors"
	"fmt"
	"os"

	"github.com/haivivi/voicekit/pkg/audio/codec/vorbis"
	"github.com/haivivi/voicekit/pkg/audio/media"
	"github.com/haivivi/voicekit/pkg/audio/pcm"
)

// WAVToOGG re-encodes the audio of in as Ogg Vorbis into out, keeping its
// rate and channel layout. Any container media.Open understands is
// accepted. On failure out is removed.
func WAVToOGG(in, out string, opts ...Option) (err error) {
	o := newOptions(opts)

	c, err := media.Open(in)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	defer c.Close()
	info := c.Stream()

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("convert: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("convert: %w", cerr)
		}
		if err != nil {
			os.Remove(out)
		}
	}()

	w, err := vorbis.NewOggWriter(f, info.SampleRate, info.Channels, o.quality)
	if err != nil {
		return fmt.Errorf("convert: vorbis encoder for %d Hz %d ch: %w", info.SampleRate, info.Channels, err)
	}
	for frame, ferr := range c.Frames() {
		if ferr != nil {
			return errors.Join(fmt.Errorf("convert: decode %s: %w", in, ferr), w.Close())
		}
		if err := w.Write(pcm.Int16ToFloat32(frame.Samples)); err != nil {
			return errors.Join(fmt.Errorf("convert: encode: %w", err), w.Close())
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("convert: flush vorbis: %w", err)
	}
	return nil
}
