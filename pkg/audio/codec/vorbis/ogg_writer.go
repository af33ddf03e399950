package vorbis

import (
	"errors"
	"io"

	"github.com/haivivi/voicekit/pkg/audio/codec/ogg"
)

// OggWriter encodes audio into an Ogg Vorbis stream.
type OggWriter struct {
	enc    *Encoder
	mux    *ogg.Encoder
	closed bool
}

// NewOggWriter writes the stream headers to w and returns a writer for
// interleaved float audio of the given format.
func NewOggWriter(w io.Writer, sampleRate, channels int, quality float32) (*OggWriter, error) {
	enc, err := NewEncoder(sampleRate, channels, quality)
	if err != nil {
		return nil, err
	}
	mux, err := ogg.NewEncoder(w)
	if err != nil {
		enc.Close()
		return nil, err
	}
	ow := &OggWriter{enc: enc, mux: mux}
	if err := ow.writeHeaders(); err != nil {
		enc.Close()
		mux.Close()
		return nil, err
	}
	return ow, nil
}

func (w *OggWriter) writeHeaders() error {
	headers, err := w.enc.Headers()
	if err != nil {
		return err
	}
	for _, h := range headers {
		if err := w.mux.WritePacket(h.Data, 0, false); err != nil {
			return err
		}
	}
	// Audio must start on its own page.
	return w.mux.Flush()
}

// Write encodes interleaved samples in [-1, 1].
func (w *OggWriter) Write(pcm []float32) error {
	if w.closed {
		return ErrClosed
	}
	packets, err := w.enc.Write(pcm)
	if err != nil {
		return err
	}
	return w.writePackets(packets)
}

// Close flushes the encoder, ending the stream, and releases resources. It
// does not close the underlying writer.
func (w *OggWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	packets, err := w.enc.Flush()
	if err == nil {
		err = w.writePackets(packets)
	}
	return errors.Join(err, w.mux.Close(), w.enc.Close())
}

func (w *OggWriter) writePackets(packets []Packet) error {
	for _, p := range packets {
		if err := w.mux.WritePacket(p.Data, p.Granule, p.EOS); err != nil {
			return err
		}
	}
	return nil
}
