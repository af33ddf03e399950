package opus

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	headMagic = []byte("OpusHead")
	tagsMagic = []byte("OpusTags")
)

// ErrNotHead is returned when a packet is not an OpusHead packet.
var ErrNotHead = errors.New("opus: not an OpusHead packet")

// Head is the identification header that opens an Ogg Opus stream.
type Head struct {
	Version         uint8
	Channels        int
	PreSkip         int
	InputSampleRate int
	OutputGain      int16
	MappingFamily   uint8
}

// IsHead reports whether packet starts with the OpusHead magic.
func IsHead(packet []byte) bool {
	return bytes.HasPrefix(packet, headMagic)
}

// IsTags reports whether packet starts with the OpusTags magic.
func IsTags(packet []byte) bool {
	return bytes.HasPrefix(packet, tagsMagic)
}

// ParseHead parses an OpusHead packet.
func ParseHead(packet []byte) (*Head, error) {
	if !IsHead(packet) {
		return nil, ErrNotHead
	}
	if len(packet) < 19 {
		return nil, fmt.Errorf("opus: OpusHead too short (%d bytes)", len(packet))
	}
	h := &Head{
		Version:         packet[8],
		Channels:        int(packet[9]),
		PreSkip:         int(binary.LittleEndian.Uint16(packet[10:])),
		InputSampleRate: int(binary.LittleEndian.Uint32(packet[12:])),
		OutputGain:      int16(binary.LittleEndian.Uint16(packet[16:])),
		MappingFamily:   packet[18],
	}
	if h.Version>>4 != 0 {
		return nil, fmt.Errorf("opus: unsupported OpusHead version %d", h.Version)
	}
	if h.Channels == 0 {
		return nil, errors.New("opus: OpusHead has zero channels")
	}
	if h.MappingFamily == 0 && h.Channels > 2 {
		return nil, fmt.Errorf("opus: mapping family 0 with %d channels", h.Channels)
	}
	return h, nil
}

// Marshal encodes h as an OpusHead packet. Only mapping family 0 is
// supported.
func (h *Head) Marshal() []byte {
	b := make([]byte, 19)
	copy(b, headMagic)
	b[8] = 1
	b[9] = byte(h.Channels)
	binary.LittleEndian.PutUint16(b[10:], uint16(h.PreSkip))
	binary.LittleEndian.PutUint32(b[12:], uint32(h.InputSampleRate))
	binary.LittleEndian.PutUint16(b[16:], uint16(h.OutputGain))
	return b
}

// Tags returns a minimal OpusTags packet naming vendor.
func Tags(vendor string) []byte {
	b := make([]byte, 0, 16+len(vendor))
	b = append(b, tagsMagic...)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(vendor)))
	b = append(b, vendor...)
	return binary.LittleEndian.AppendUint32(b, 0)
}
