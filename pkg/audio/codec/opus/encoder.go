package opus

/*
#cgo pkg-config: opus
#include <opus.h>

static int encoder_set_bitrate(OpusEncoder *enc, opus_int32 bitrate) {
    return opus_encoder_ctl(enc, OPUS_SET_BITRATE(bitrate));
}
*/
import "C"
import (
	"errors"
	"fmt"
	"unsafe"
)

// Encoder wraps an OpusEncoder configured for speech.
type Encoder struct {
	sampleRate int
	channels   int
	cEnc       *C.OpusEncoder
	buf        []byte
}

// NewEncoder returns a VoIP encoder for interleaved int16 input.
func NewEncoder(sampleRate, channels int) (*Encoder, error) {
	var code C.int
	cEnc := C.opus_encoder_create(C.opus_int32(sampleRate), C.int(channels), C.OPUS_APPLICATION_VOIP, &code)
	if code != C.OPUS_OK {
		return nil, opusError("create encoder", code)
	}
	return &Encoder{sampleRate: sampleRate, channels: channels, cEnc: cEnc, buf: make([]byte, 4000)}, nil
}

// Close releases the encoder.
func (e *Encoder) Close() {
	if e.cEnc != nil {
		C.opus_encoder_destroy(e.cEnc)
		e.cEnc = nil
	}
}

// Encode encodes one frame. len(pcm) must be a valid Opus frame size (2.5 to
// 60 ms) times the channel count.
func (e *Encoder) Encode(pcm []int16) ([]byte, error) {
	if e.cEnc == nil {
		return nil, errors.New("opus: encoder is closed")
	}
	if len(pcm) == 0 || len(pcm)%e.channels != 0 {
		return nil, fmt.Errorf("opus: %d samples is not a whole frame", len(pcm))
	}
	n := C.opus_encode(e.cEnc, (*C.opus_int16)(unsafe.Pointer(&pcm[0])), C.int(len(pcm)/e.channels),
		(*C.uchar)(unsafe.Pointer(&e.buf[0])), C.opus_int32(len(e.buf)))
	if n < 0 {
		return nil, opusError("encode", n)
	}
	out := make([]byte, int(n))
	copy(out, e.buf)
	return out, nil
}

// SetBitrate sets the target bitrate in bits per second.
func (e *Encoder) SetBitrate(bitrate int) error {
	if code := C.encoder_set_bitrate(e.cEnc, C.opus_int32(bitrate)); code != C.OPUS_OK {
		return opusError("set bitrate", code)
	}
	return nil
}

func (e *Encoder) SampleRate() int { return e.sampleRate }

func (e *Encoder) Channels() int { return e.channels }
