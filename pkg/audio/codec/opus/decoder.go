// Package opus provides Go bindings for libopus, plus parsing of the Ogg
// Opus identification header.
package opus

/*
#cgo pkg-config: opus
#include <opus.h>
#include <stdlib.h>
*/
import "C"
import (
	"errors"
	"fmt"
	"unsafe"
)

// MaxFrameSamples is the longest Opus packet, 120 ms at 48 kHz, in samples
// per channel.
const MaxFrameSamples = 5760

var errClosed = errors.New("opus: decoder is closed")

func opusError(op string, code C.int) error {
	return fmt.Errorf("opus: %s: %s", op, C.GoString(C.opus_strerror(code)))
}

// Decoder wraps an OpusDecoder.
type Decoder struct {
	sampleRate int
	channels   int
	cDec       *C.OpusDecoder
	buf        []int16
}

// NewDecoder returns a decoder producing interleaved int16 audio at
// sampleRate (8000, 12000, 16000, 24000 or 48000) with 1 or 2 channels.
func NewDecoder(sampleRate, channels int) (*Decoder, error) {
	var code C.int
	cDec := C.opus_decoder_create(C.opus_int32(sampleRate), C.int(channels), &code)
	if code != C.OPUS_OK {
		return nil, opusError("create decoder", code)
	}
	return &Decoder{
		sampleRate: sampleRate,
		channels:   channels,
		cDec:       cDec,
		buf:        make([]int16, MaxFrameSamples*channels),
	}, nil
}

// Close releases the decoder.
func (d *Decoder) Close() {
	if d.cDec != nil {
		C.opus_decoder_destroy(d.cDec)
		d.cDec = nil
	}
}

// Decode decodes one packet into a new slice of interleaved samples.
func (d *Decoder) Decode(packet []byte) ([]int16, error) {
	if len(packet) == 0 {
		return nil, errors.New("opus: empty packet")
	}
	return d.decode(packet, MaxFrameSamples)
}

// DecodeLoss synthesises samples per channel of audio for a lost packet.
func (d *Decoder) DecodeLoss(samples int) ([]int16, error) {
	return d.decode(nil, min(samples, MaxFrameSamples))
}

func (d *Decoder) decode(packet []byte, frameSize int) ([]int16, error) {
	if d.cDec == nil {
		return nil, errClosed
	}
	var (
		data *C.uchar
		size C.opus_int32
	)
	if len(packet) > 0 {
		data = (*C.uchar)(unsafe.Pointer(&packet[0]))
		size = C.opus_int32(len(packet))
	}
	n := C.opus_decode(d.cDec, data, size, (*C.opus_int16)(unsafe.Pointer(&d.buf[0])), C.int(frameSize), 0)
	if n < 0 {
		return nil, opusError("decode", n)
	}
	out := make([]int16, int(n)*d.channels)
	copy(out, d.buf)
	return out, nil
}

func (d *Decoder) SampleRate() int { return d.sampleRate }

func (d *Decoder) Channels() int { return d.channels }
