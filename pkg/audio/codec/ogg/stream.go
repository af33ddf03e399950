package ogg

/*
#include <ogg/ogg.h>
#include <stdlib.h>

static ogg_stream_state* new_stream_state(int serialno) {
    ogg_stream_state* s = (ogg_stream_state*)calloc(1, sizeof(ogg_stream_state));
    if (s && ogg_stream_init(s, serialno) != 0) {
        free(s);
        return NULL;
    }
    return s;
}

static void free_stream_state(ogg_stream_state* s) {
    if (s) {
        ogg_stream_clear(s);
        free(s);
    }
}
*/
import "C"
import (
	"errors"
	"runtime"
	"sync/atomic"
	"unsafe"
)

var (
	// ErrStream indicates libogg rejected a page or packet.
	ErrStream = errors.New("ogg: stream error")
	// ErrNoPacket indicates no packet (or page, when encoding) is ready.
	ErrNoPacket = errors.New("ogg: no packet available")
	// ErrHole indicates a gap in the data, usually a lost page.
	ErrHole = errors.New("ogg: hole in data")
)

// StreamState is one logical bitstream. Call Clear when done.
type StreamState struct {
	state    *C.ogg_stream_state
	serialNo int32
	page     C.ogg_page
	packet   C.ogg_packet
	cleared  atomic.Bool
	cleanup  runtime.Cleanup
}

func freeStreamState(ptr uintptr) {
	C.free_stream_state((*C.ogg_stream_state)(unsafe.Pointer(ptr)))
}

// NewStreamState returns a stream with the given serial number.
func NewStreamState(serialNo int32) (*StreamState, error) {
	state := C.new_stream_state(C.int(serialNo))
	if state == nil {
		return nil, errors.New("ogg: failed to allocate stream state")
	}
	s := &StreamState{state: state, serialNo: serialNo}
	s.cleanup = runtime.AddCleanup(s, freeStreamState, uintptr(unsafe.Pointer(state)))
	return s, nil
}

// Clear releases the C state. Safe to call more than once.
func (s *StreamState) Clear() {
	if s.cleared.CompareAndSwap(false, true) {
		s.cleanup.Stop()
		C.free_stream_state(s.state)
		s.state = nil
	}
}

// SerialNo returns the serial number the stream was created with.
func (s *StreamState) SerialNo() int32 {
	return s.serialNo
}

// PageIn submits a page for packet extraction.
func (s *StreamState) PageIn(page *Page) error {
	if C.ogg_stream_pagein(s.state, &page.page) != 0 {
		return ErrStream
	}
	return nil
}

// PacketOut moves the next complete packet into packet. It returns
// ErrNoPacket when more pages are needed and ErrHole after a gap.
func (s *StreamState) PacketOut(packet *Packet) error {
	return s.takePacket(C.ogg_stream_packetout(s.state, &s.packet), packet)
}

func (s *StreamState) takePacket(result C.int, packet *Packet) error {
	switch {
	case result == 0:
		return ErrNoPacket
	case result < 0:
		return ErrHole
	}
	*packet = Packet{
		Data:    C.GoBytes(unsafe.Pointer(s.packet.packet), C.int(s.packet.bytes)),
		Granule: int64(s.packet.granulepos),
		Number:  int64(s.packet.packetno),
		BOS:     s.packet.b_o_s != 0,
		EOS:     s.packet.e_o_s != 0,
	}
	return nil
}

// EOS reports whether the end-of-stream packet has been seen.
func (s *StreamState) EOS() bool {
	return C.ogg_stream_eos(s.state) != 0
}

// PacketIn queues a packet for paging. libogg copies data.
func (s *StreamState) PacketIn(data []byte, granulePos, packetNo int64, bos, eos bool) error {
	if len(data) == 0 {
		return errors.New("ogg: empty packet data")
	}
	buf := C.CBytes(data)
	defer C.free(buf)

	var p C.ogg_packet
	p.packet = (*C.uchar)(buf)
	p.bytes = C.long(len(data))
	p.granulepos = C.ogg_int64_t(granulePos)
	p.packetno = C.ogg_int64_t(packetNo)
	if bos {
		p.b_o_s = 1
	}
	if eos {
		p.e_o_s = 1
	}
	if C.ogg_stream_packetin(s.state, &p) != 0 {
		return ErrStream
	}
	return nil
}

// PageOut returns the next full page, or ErrNoPacket when libogg wants more
// packets first.
func (s *StreamState) PageOut() (header, body []byte, err error) {
	return s.takePage(C.ogg_stream_pageout(s.state, &s.page))
}

// Flush forces queued packets into a page regardless of its size.
func (s *StreamState) Flush() (header, body []byte, err error) {
	return s.takePage(C.ogg_stream_flush(s.state, &s.page))
}

func (s *StreamState) takePage(result C.int) (header, body []byte, err error) {
	if result == 0 {
		return nil, nil, ErrNoPacket
	}
	header = C.GoBytes(unsafe.Pointer(s.page.header), C.int(s.page.header_len))
	body = C.GoBytes(unsafe.Pointer(s.page.body), C.int(s.page.body_len))
	return header, body, nil
}
