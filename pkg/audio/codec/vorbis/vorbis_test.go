package vorbis

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/haivivi/voicekit/pkg/audio/codec/ogg"
)

func sine(rate, channels, frames int) []float32 {
	out := make([]float32, frames*channels)
	for i := range frames {
		v := float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(rate)))
		for c := range channels {
			out[i*channels+c] = v
		}
	}
	return out
}

func encodeAll(t *testing.T, rate, channels int, pcm []float32) ([3]Packet, []Packet) {
	t.Helper()
	enc, err := NewEncoder(rate, channels, DefaultQuality)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	headers, err := enc.Headers()
	if err != nil {
		t.Fatal(err)
	}
	var packets []Packet
	for off := 0; off < len(pcm); off += 1024 * channels {
		p, err := enc.Write(pcm[off:min(off+1024*channels, len(pcm))])
		if err != nil {
			t.Fatal(err)
		}
		packets = append(packets, p...)
	}
	tail, err := enc.Flush()
	if err != nil {
		t.Fatal(err)
	}
	return headers, append(packets, tail...)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, channels := range []int{1, 2} {
		const rate = 16000
		pcm := sine(rate, channels, rate)
		headers, packets := encodeAll(t, rate, channels, pcm)

		if !IsIdentification(headers[0].Data) {
			t.Fatal("first header is not an identification header")
		}
		if len(packets) == 0 || !packets[len(packets)-1].EOS {
			t.Fatal("stream does not end with an EOS packet")
		}
		if g := packets[len(packets)-1].Granule; g != rate {
			t.Errorf("final granule = %d, want %d", g, rate)
		}

		dec, err := NewDecoder()
		if err != nil {
			t.Fatal(err)
		}
		for _, h := range headers {
			if err := dec.Header(h.Data); err != nil {
				t.Fatal(err)
			}
		}
		if dec.SampleRate() != rate || dec.Channels() != channels {
			t.Fatalf("decoder format %d Hz %d ch", dec.SampleRate(), dec.Channels())
		}
		var out []float32
		for _, p := range packets {
			s, err := dec.Decode(p.Data)
			if err != nil {
				t.Fatal(err)
			}
			out = append(out, s...)
		}
		dec.Close()

		// The decoder emits whole blocks; trimming to the final granule is
		// the container's job.
		if frames := len(out) / channels; frames < rate || frames > rate+2048 {
			t.Errorf("%d ch: decoded %d frames, want about %d", channels, frames, rate)
		}
		var peak float32
		for _, v := range out[:len(out)/2] {
			peak = max(peak, v)
		}
		if peak < 0.35 || peak > 0.65 {
			t.Errorf("%d ch: peak %v, want about 0.5", channels, peak)
		}
	}
}

func TestNewEncoderRejects(t *testing.T) {
	tests := []struct {
		name           string
		rate, channels int
		quality        float32
	}{
		{"zero rate", 0, 1, 0.3},
		{"zero channels", 16000, 0, 0.3},
		{"quality too high", 16000, 1, 1.5},
		{"too many channels", 16000, 256, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if e, err := NewEncoder(tt.rate, tt.channels, tt.quality); err == nil {
				e.Close()
				t.Error("expected error")
			}
		})
	}
}

func TestEncoderWriteAfterFlush(t *testing.T) {
	enc, err := NewEncoder(8000, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	if _, err := enc.Write([]float32{0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Flush(); err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Write([]float32{0}); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after Flush = %v", err)
	}
	stereo, _ := NewEncoder(8000, 2, 0)
	defer stereo.Close()
	if _, err := stereo.Write([]float32{0, 0, 0}); err == nil {
		t.Error("expected error for partial frame")
	}
}

func TestDecoderRejectsNonVorbis(t *testing.T) {
	dec, err := NewDecoder()
	if err != nil {
		t.Fatal(err)
	}
	defer dec.Close()
	if err := dec.Header([]byte("OpusHead\x01\x01")); !errors.Is(err, ErrNotVorbis) {
		t.Errorf("Header = %v", err)
	}
	if _, err := dec.Decode([]byte{0}); err == nil {
		t.Error("Decode before headers succeeded")
	}
}

func TestOggWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewOggWriter(&buf, 22050, 2, DefaultQuality)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(sine(22050, 2, 22050/2)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Write after Close = %v", err)
	}

	var (
		n       int
		last    *ogg.StreamPacket
		headers int
	)
	for pkt, err := range ogg.ReadPackets(&buf) {
		if err != nil {
			t.Fatal(err)
		}
		if pkt.Index < 3 {
			headers++
		}
		n++
		last = pkt
	}
	if headers != 3 || n < 4 {
		t.Fatalf("read %d packets, %d headers", n, headers)
	}
	if !last.EOS || last.Granule != 22050/2 {
		t.Errorf("last packet EOS=%v granule=%d", last.EOS, last.Granule)
	}
}
