package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/haivivi/voicekit/pkg/audio/codec/ogg"
	"github.com/haivivi/voicekit/pkg/audio/codec/opus"
	"github.com/haivivi/voicekit/pkg/audio/codec/vorbis"
	"github.com/haivivi/voicekit/pkg/audio/pcm"
)

// Opus streams always decode at 48 kHz whatever the input rate was.
const opusRate = 48000

type oggDecoder struct {
	codec    Codec
	serial   int32
	rate     int
	channels int
	preSkip  int
}

// probeOgg picks the first Vorbis or Opus logical stream. Beginning of
// stream pages come before any data page, so the search stops at the first
// packet that does not open a stream.
func probeOgg(r io.Reader) (decoder, error) {
	sawStream := false
	for pkt, err := range ogg.ReadPackets(r) {
		if err != nil {
			if errors.Is(err, ogg.ErrHole) {
				continue
			}
			return nil, fmt.Errorf("ogg: %w", err)
		}
		if pkt.Index != 0 {
			break
		}
		sawStream = true
		switch {
		case vorbis.IsIdentification(pkt.Data):
			if len(pkt.Data) < 16 {
				return nil, fmt.Errorf("ogg: short vorbis identification header")
			}
			return &oggDecoder{
				codec:    CodecVorbis,
				serial:   pkt.SerialNo,
				channels: int(pkt.Data[11]),
				rate:     int(binary.LittleEndian.Uint32(pkt.Data[12:])),
			}, nil
		case opus.IsHead(pkt.Data):
			h, err := opus.ParseHead(pkt.Data)
			if err != nil {
				return nil, fmt.Errorf("ogg: %w", err)
			}
			return &oggDecoder{
				codec:    CodecOpus,
				serial:   pkt.SerialNo,
				channels: h.Channels,
				rate:     opusRate,
				preSkip:  h.PreSkip,
			}, nil
		}
	}
	if sawStream {
		return nil, fmt.Errorf("%w: ogg stream is neither vorbis nor opus", ErrUnsupported)
	}
	return nil, ErrNoAudioStream
}

func (o *oggDecoder) info() StreamInfo {
	return StreamInfo{Codec: o.codec, SampleRate: o.rate, Channels: o.channels}
}

func (o *oggDecoder) frames(r io.ReadSeeker) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		pd, err := o.newPacketDecoder()
		if err != nil {
			yield(Frame{}, err)
			return
		}
		defer pd.close()

		// pos counts decoded samples per channel, including the Opus
		// pre-skip, so it is comparable with page granule positions.
		var pos int64
		skip := int64(o.preSkip)
		for pkt, err := range ogg.ReadPackets(r) {
			if err != nil {
				if errors.Is(err, ogg.ErrHole) {
					if !yield(Frame{}, fmt.Errorf("media: ogg: %w", err)) {
						return
					}
					continue
				}
				yield(Frame{}, fmt.Errorf("media: ogg: %w", err))
				return
			}
			if pkt.SerialNo != o.serial {
				continue
			}
			if pkt.Index < pd.headers() {
				if err := pd.header(pkt.Data); err != nil {
					yield(Frame{}, fmt.Errorf("media: %s header %d: %w", o.codec, pkt.Index, err))
					return
				}
				continue
			}
			samples, float, err := pd.decode(pkt.Data)
			if err != nil {
				if !yield(Frame{}, fmt.Errorf("media: %s packet %d: %w", o.codec, pkt.Index, err)) {
					return
				}
				continue
			}
			n := int64(len(samples) / o.channels)
			start, end := pos, pos+n
			pos = end
			// The granule of the last page marks where the audio ends.
			if pkt.EOS && pkt.Granule >= 0 && end > pkt.Granule {
				end = max(pkt.Granule, start)
			}
			from := max(skip, start)
			if from >= end {
				continue
			}
			lo, hi := (from-start)*int64(o.channels), (end-start)*int64(o.channels)
			frame := Frame{
				Samples:    samples[lo:hi],
				Channels:   o.channels,
				SampleRate: o.rate,
			}
			if float != nil {
				frame.Float = float[lo:hi]
			}
			if !yield(frame, nil) {
				return
			}
		}
	}
}

// packetDecoder hides the difference between the Vorbis and Opus decoders.
type packetDecoder interface {
	headers() int64
	header(data []byte) error
	// decode returns the packet's samples, plus the float samples they
	// were quantized from when the codec decodes to float.
	decode(data []byte) ([]int16, []float32, error)
	close()
}

func (o *oggDecoder) newPacketDecoder() (packetDecoder, error) {
	switch o.codec {
	case CodecVorbis:
		d, err := vorbis.NewDecoder()
		if err != nil {
			return nil, err
		}
		return &vorbisPackets{d: d}, nil
	case CodecOpus:
		d, err := opus.NewDecoder(opusRate, o.channels)
		if err != nil {
			return nil, err
		}
		return &opusPackets{d: d}, nil
	}
	return nil, fmt.Errorf("%w: codec %s", ErrUnsupported, o.codec)
}

type vorbisPackets struct {
	d *vorbis.Decoder
}

func (v *vorbisPackets) headers() int64 { return 3 }

func (v *vorbisPackets) header(data []byte) error { return v.d.Header(data) }

func (v *vorbisPackets) decode(data []byte) ([]int16, []float32, error) {
	samples, err := v.d.Decode(data)
	if err != nil {
		return nil, nil, err
	}
	return pcm.Float32ToInt16(samples), samples, nil
}

func (v *vorbisPackets) close() { v.d.Close() }

type opusPackets struct {
	d *opus.Decoder
}

func (p *opusPackets) headers() int64 { return 2 }

func (p *opusPackets) header(data []byte) error {
	if len(data) > 0 && !opus.IsHead(data) && !opus.IsTags(data) {
		return errors.New("unexpected opus header packet")
	}
	return nil
}

func (p *opusPackets) decode(data []byte) ([]int16, []float32, error) {
	samples, err := p.d.Decode(data)
	return samples, nil, err
}

func (p *opusPackets) close() { p.d.Close() }
