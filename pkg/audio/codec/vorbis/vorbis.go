// Package vorbis provides Go bindings for libvorbis and libvorbisenc.
//
// [Encoder] turns interleaved float PCM into Vorbis packets and [Decoder]
// turns them back. Neither knows about containers; [OggWriter] muxes an
// encoder's packets into an Ogg stream and package media demuxes them.
package vorbis

/*
#cgo pkg-config: vorbisenc vorbis ogg
#include "vorbis_bridge.h"
*/
import "C"
import (
	"bytes"
	"errors"
	"fmt"
)

// Vendor is written to the ENCODER comment of encoded streams.
const Vendor = "voicekit"

var (
	// ErrNotVorbis is returned for a header packet that is not Vorbis.
	ErrNotVorbis = errors.New("vorbis: not a vorbis stream")
	// ErrBadPacket is returned for an audio packet that cannot be decoded.
	ErrBadPacket = errors.New("vorbis: bad packet")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("vorbis: closed")
)

// Packet is an encoded Vorbis packet.
type Packet struct {
	Data []byte
	// Granule is the PCM sample position at the end of the packet, or -1
	// for header packets.
	Granule int64
	EOS     bool
}

// IsIdentification reports whether packet is a Vorbis identification
// header, the first packet of every Vorbis stream.
func IsIdentification(packet []byte) bool {
	return len(packet) >= 7 && packet[0] == 1 && bytes.Equal(packet[1:7], []byte("vorbis"))
}

func vorbisError(op string, code C.int) error {
	var msg string
	switch code {
	case C.OV_EFAULT:
		msg = "internal fault"
	case C.OV_EIMPL:
		msg = "unsupported mode"
	case C.OV_EINVAL:
		msg = "invalid argument"
	case C.OV_ENOTVORBIS:
		return fmt.Errorf("vorbis: %s: %w", op, ErrNotVorbis)
	case C.OV_EBADHEADER:
		msg = "bad header"
	case C.OV_ENOTAUDIO, C.OV_EBADPACKET:
		return fmt.Errorf("vorbis: %s: %w", op, ErrBadPacket)
	default:
		msg = fmt.Sprintf("error %d", int(code))
	}
	return fmt.Errorf("vorbis: %s: %s", op, msg)
}
