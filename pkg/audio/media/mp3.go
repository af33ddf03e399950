package media

import (
	"fmt"
	"io"
	"iter"

	"github.com/hajimehoshi/go-mp3"

	"github.com/haivivi/voicekit/pkg/audio/pcm"
)

// The MPEG decoder always emits 16-bit little-endian stereo.
const mp3Channels = 2

// mp3FrameBytes holds one MPEG-1 layer III frame of decoded stereo audio.
const mp3FrameBytes = 1152 * mp3Channels * 2

type mp3Decoder struct {
	rate int
}

func probeMP3(r io.ReadSeeker) (decoder, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("mp3 header: %w", err)
	}
	if d.SampleRate() <= 0 {
		return nil, ErrNoAudioStream
	}
	return &mp3Decoder{rate: d.SampleRate()}, nil
}

func (m *mp3Decoder) info() StreamInfo {
	return StreamInfo{Codec: CodecMP3, SampleRate: m.rate, Channels: mp3Channels}
}

func (m *mp3Decoder) frames(r io.ReadSeeker) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		d, err := mp3.NewDecoder(r)
		if err != nil {
			yield(Frame{}, fmt.Errorf("media: mp3: %w", err))
			return
		}
		buf := make([]byte, mp3FrameBytes)
		for {
			n, err := io.ReadFull(d, buf)
			n -= n % (mp3Channels * 2)
			if n > 0 {
				samples, _ := pcm.DecodeS16LE(buf[:n])
				frame := Frame{Samples: samples, Channels: mp3Channels, SampleRate: m.rate}
				if !yield(frame, nil) {
					return
				}
			}
			if err != nil {
				if err != io.EOF && err != io.ErrUnexpectedEOF {
					yield(Frame{}, fmt.Errorf("media: mp3: %w", err))
				}
				return
			}
		}
	}
}
