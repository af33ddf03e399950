package vorbis

/*
#include <stdlib.h>
#include "vorbis_bridge.h"
*/
import "C"
import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"
)

// Decoder decodes the packets of one Vorbis stream into interleaved float
// samples. Feed the three header packets with Header first.
type Decoder struct {
	v        *C.vk_state
	headers  int
	packetNo int64
	cleanup  runtime.Cleanup
}

// NewDecoder returns a decoder awaiting header packets.
func NewDecoder() (*Decoder, error) {
	v := C.vk_new_decoder()
	if v == nil {
		return nil, errors.New("vorbis: failed to allocate decoder")
	}
	d := &Decoder{v: v}
	d.cleanup = runtime.AddCleanup(d, freeState, uintptr(unsafe.Pointer(v)))
	return d, nil
}

// Header consumes the next header packet.
func (d *Decoder) Header(packet []byte) error {
	if d.v == nil {
		return ErrClosed
	}
	if d.headers == 3 {
		return errors.New("vorbis: headers already complete")
	}
	if d.headers == 0 && !IsIdentification(packet) {
		return ErrNotVorbis
	}
	if len(packet) == 0 {
		return fmt.Errorf("vorbis: empty header %d", d.headers)
	}
	if r := C.vk_header_in(d.v, (*C.uchar)(unsafe.Pointer(&packet[0])), C.long(len(packet))); r != 0 {
		return vorbisError(fmt.Sprintf("header %d", d.headers), r)
	}
	d.headers++
	d.packetNo = int64(d.headers)
	return nil
}

// Ready reports whether all three headers were consumed.
func (d *Decoder) Ready() bool {
	return d.headers == 3
}

// SampleRate returns the stream rate; valid after the first header.
func (d *Decoder) SampleRate() int {
	if d.v == nil || d.headers == 0 {
		return 0
	}
	return int(C.vk_rate(d.v))
}

// Channels returns the stream channel count; valid after the first header.
func (d *Decoder) Channels() int {
	if d.v == nil || d.headers == 0 {
		return 0
	}
	return int(C.vk_channels(d.v))
}

// Decode decodes one audio packet. The first packet of a stream yields no
// samples since Vorbis needs two blocks to overlap.
func (d *Decoder) Decode(packet []byte) ([]float32, error) {
	if d.v == nil {
		return nil, ErrClosed
	}
	if !d.Ready() {
		return nil, errors.New("vorbis: decode before headers")
	}
	if len(packet) == 0 {
		return nil, ErrBadPacket
	}
	no := d.packetNo
	d.packetNo++
	if r := C.vk_decode(d.v, (*C.uchar)(unsafe.Pointer(&packet[0])), C.long(len(packet)), C.ogg_int64_t(no)); r != 0 {
		return nil, vorbisError("decode", r)
	}
	ch := d.Channels()
	var out []float32
	for {
		n := int(C.vk_pending(d.v))
		if n <= 0 {
			return out, nil
		}
		start := len(out)
		out = append(out, make([]float32, n*ch)...)
		got := int(C.vk_read(d.v, (*C.float)(unsafe.Pointer(&out[start])), C.int(n)))
		out = out[:start+got*ch]
	}
}

// Close releases the decoder.
func (d *Decoder) Close() error {
	if d.v != nil {
		d.cleanup.Stop()
		C.vk_free(d.v)
		d.v = nil
	}
	return nil
}
