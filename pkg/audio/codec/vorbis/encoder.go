package vorbis

/*
#include <stdlib.h>
#include "vorbis_bridge.h"
*/
import "C"
import (
	"fmt"
	"runtime"
	"unsafe"
)

// DefaultQuality is the VBR quality used when none is given. It matches
// oggenc's default of 3 on its -1..10 scale.
const DefaultQuality = 0.3

// Encoder is a VBR Vorbis encoder. It is not safe for concurrent use.
type Encoder struct {
	v        *C.vk_state
	channels int
	rate     int
	finished bool
	cleanup  runtime.Cleanup
}

func freeState(ptr uintptr) {
	C.vk_free((*C.vk_state)(unsafe.Pointer(ptr)))
}

// NewEncoder returns an encoder for interleaved float audio. quality ranges
// from -0.1 (smallest) to 1.0 (best). libvorbisenc rejects rates and channel
// counts it has no mode for.
func NewEncoder(sampleRate, channels int, quality float32) (*Encoder, error) {
	if sampleRate <= 0 || channels <= 0 || channels > 255 {
		return nil, fmt.Errorf("vorbis: invalid format %d Hz, %d channels", sampleRate, channels)
	}
	if quality < -0.1 || quality > 1 {
		return nil, fmt.Errorf("vorbis: quality %.2f outside [-0.1, 1]", quality)
	}
	vendor := C.CString(Vendor)
	defer C.free(unsafe.Pointer(vendor))

	var code C.int
	v := C.vk_new_encoder(C.long(channels), C.long(sampleRate), C.float(quality), vendor, &code)
	if v == nil {
		return nil, vorbisError(fmt.Sprintf("init %d Hz %d ch", sampleRate, channels), code)
	}
	e := &Encoder{v: v, channels: channels, rate: sampleRate}
	e.cleanup = runtime.AddCleanup(e, freeState, uintptr(unsafe.Pointer(v)))
	return e, nil
}

func (e *Encoder) SampleRate() int { return e.rate }

func (e *Encoder) Channels() int { return e.channels }

// Headers returns the identification, comment and setup header packets.
// They must be written before any audio packet.
func (e *Encoder) Headers() ([3]Packet, error) {
	var out [3]Packet
	if e.v == nil {
		return out, ErrClosed
	}
	var id, comment, code C.ogg_packet
	if r := C.vk_headerout(e.v, &id, &comment, &code); r != 0 {
		return out, vorbisError("headers", r)
	}
	for i, p := range []*C.ogg_packet{&id, &comment, &code} {
		out[i] = Packet{Data: C.GoBytes(unsafe.Pointer(p.packet), C.int(p.bytes)), Granule: -1}
	}
	return out, nil
}

// Write feeds interleaved samples in [-1, 1] and returns the packets that
// became ready. len(pcm) must be a multiple of the channel count.
func (e *Encoder) Write(pcm []float32) ([]Packet, error) {
	if e.v == nil || e.finished {
		return nil, ErrClosed
	}
	if len(pcm)%e.channels != 0 {
		return nil, fmt.Errorf("vorbis: %d samples is not a whole number of %d-channel frames", len(pcm), e.channels)
	}
	frames := len(pcm) / e.channels
	if frames == 0 {
		return nil, nil
	}
	if r := C.vk_write(e.v, (*C.float)(unsafe.Pointer(&pcm[0])), C.int(frames)); r != 0 {
		return nil, vorbisError("write", r)
	}
	return e.drain()
}

// Flush marks the end of the input and returns the remaining packets. The
// last one has EOS set. Write fails after Flush.
func (e *Encoder) Flush() ([]Packet, error) {
	if e.v == nil {
		return nil, ErrClosed
	}
	if e.finished {
		return nil, nil
	}
	e.finished = true
	if r := C.vk_finish(e.v); r != 0 {
		return nil, vorbisError("flush", r)
	}
	return e.drain()
}

func (e *Encoder) drain() ([]Packet, error) {
	var (
		out []Packet
		op  C.ogg_packet
	)
	for {
		r := C.vk_next_packet(e.v, &op)
		if r == 0 {
			return out, nil
		}
		if r < 0 {
			return out, vorbisError("analysis", r)
		}
		out = append(out, Packet{
			Data:    C.GoBytes(unsafe.Pointer(op.packet), C.int(op.bytes)),
			Granule: int64(op.granulepos),
			EOS:     op.e_o_s != 0,
		})
	}
}

// Close releases the encoder. It does not flush.
func (e *Encoder) Close() error {
	if e.v != nil {
		e.cleanup.Stop()
		C.vk_free(e.v)
		e.v = nil
	}
	return nil
}
