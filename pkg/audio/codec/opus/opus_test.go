package opus

import (
	"errors"
	"math"
	"testing"
)

func tone(rate, channels, n int) []int16 {
	pcm := make([]int16, n*channels)
	for i := range n {
		v := int16(math.Sin(2*math.Pi*440*float64(i)/float64(rate)) * 16000)
		for c := range channels {
			pcm[i*channels+c] = v
		}
	}
	return pcm
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		rate, channels int
	}{
		{48000, 1},
		{48000, 2},
		{16000, 1},
	}
	for _, tt := range tests {
		enc, err := NewEncoder(tt.rate, tt.channels)
		if err != nil {
			t.Fatal(err)
		}
		dec, err := NewDecoder(tt.rate, tt.channels)
		if err != nil {
			t.Fatal(err)
		}
		frame := tt.rate / 50
		packet, err := enc.Encode(tone(tt.rate, tt.channels, frame))
		if err != nil {
			t.Fatalf("%d/%d encode: %v", tt.rate, tt.channels, err)
		}
		pcm, err := dec.Decode(packet)
		if err != nil {
			t.Fatalf("%d/%d decode: %v", tt.rate, tt.channels, err)
		}
		if len(pcm) != frame*tt.channels {
			t.Errorf("%d/%d: decoded %d samples, want %d", tt.rate, tt.channels, len(pcm), frame*tt.channels)
		}
		loss, err := dec.DecodeLoss(frame)
		if err != nil || len(loss) != frame*tt.channels {
			t.Errorf("DecodeLoss = %d samples, %v", len(loss), err)
		}
		enc.Close()
		dec.Close()
		if _, err := dec.Decode(packet); !errors.Is(err, errClosed) {
			t.Errorf("Decode after Close = %v", err)
		}
	}
}

func TestEncoderRejectsPartialFrame(t *testing.T) {
	enc, err := NewEncoder(48000, 2)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	if _, err := enc.Encode([]int16{1, 2, 3}); err == nil {
		t.Error("expected error for odd sample count")
	}
	if err := enc.SetBitrate(24000); err != nil {
		t.Errorf("SetBitrate: %v", err)
	}
}

func TestNewDecoderBadRate(t *testing.T) {
	if _, err := NewDecoder(44100, 1); err == nil {
		t.Error("expected error for 44100 Hz")
	}
}

func TestHead(t *testing.T) {
	h := &Head{Channels: 2, PreSkip: 312, InputSampleRate: 44100, OutputGain: -256}
	got, err := ParseHead(h.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if got.Channels != 2 || got.PreSkip != 312 || got.InputSampleRate != 44100 || got.OutputGain != -256 || got.Version != 1 {
		t.Errorf("ParseHead = %+v", got)
	}
	if !IsTags(Tags("voicekit")) || IsHead(Tags("voicekit")) {
		t.Error("Tags packet misdetected")
	}

	bad := []struct {
		name string
		data []byte
	}{
		{"not head", []byte("OpusTags\x00\x00\x00\x00")},
		{"short", []byte("OpusHead\x01\x01")},
		{"zero channels", (&Head{Channels: 0}).Marshal()},
		{"family 0 surround", (&Head{Channels: 6}).Marshal()},
	}
	for _, tt := range bad {
		if _, err := ParseHead(tt.data); err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
