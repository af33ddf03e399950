package media

import (
	"fmt"
	"io"
	"iter"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

// wavFrameLen is the number of samples per channel in a decoded WAV frame.
const wavFrameLen = 1024

type wavDecoder struct {
	rate     int
	channels int
	depth    int
}

func probeWAV(r io.ReadSeeker) (decoder, error) {
	d := wav.NewDecoder(r)
	d.ReadInfo()
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("wav header: %w", err)
	}
	switch d.WavAudioFormat {
	case wavFormatPCM, wavFormatExtensible:
	case wavFormatFloat:
		return nil, fmt.Errorf("%w: floating point wav", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w: wav format tag %#x", ErrUnsupported, d.WavAudioFormat)
	}
	if d.NumChans == 0 || d.SampleRate == 0 {
		return nil, ErrNoAudioStream
	}
	switch d.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d bit wav", ErrUnsupported, d.BitDepth)
	}
	return &wavDecoder{
		rate:     int(d.SampleRate),
		channels: int(d.NumChans),
		depth:    int(d.BitDepth),
	}, nil
}

func (w *wavDecoder) info() StreamInfo {
	return StreamInfo{
		Codec:      CodecPCM,
		SampleRate: w.rate,
		Channels:   w.channels,
		BitDepth:   w.depth,
	}
}

func (w *wavDecoder) frames(r io.ReadSeeker) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		d := wav.NewDecoder(r)
		if err := d.FwdToPCM(); err != nil {
			yield(Frame{}, fmt.Errorf("media: wav: %w", err))
			return
		}
		buf := &audio.IntBuffer{
			Format: &audio.Format{NumChannels: w.channels, SampleRate: w.rate},
			Data:   make([]int, wavFrameLen*w.channels),
		}
		for {
			n, err := d.PCMBuffer(buf)
			// A truncated trailing sample is dropped.
			n -= n % w.channels
			if n > 0 {
				frame := Frame{
					Samples:    make([]int16, n),
					Channels:   w.channels,
					SampleRate: w.rate,
				}
				for i, v := range buf.Data[:n] {
					frame.Samples[i] = w.toInt16(v)
				}
				if w.depth > 16 {
					scale := float32(int64(1) << (w.depth - 1))
					frame.Float = make([]float32, n)
					for i, v := range buf.Data[:n] {
						frame.Float[i] = float32(v) / scale
					}
				}
				if !yield(frame, nil) {
					return
				}
			}
			if err != nil {
				if err != io.EOF && err != io.ErrUnexpectedEOF {
					yield(Frame{}, fmt.Errorf("media: wav: %w", err))
				}
				return
			}
			if n == 0 {
				return
			}
		}
	}
}

func (w *wavDecoder) toInt16(v int) int16 {
	switch w.depth {
	case 8:
		// 8-bit WAV is unsigned.
		return int16((v - 128) << 8)
	case 24:
		return int16(v >> 8)
	case 32:
		return int16(v >> 16)
	}
	return int16(v)
}
