package ogg

import (
	"crypto/rand"
	"encoding/binary"
	"io"
)

// Encoder muxes the packets of one logical stream into Ogg pages written to
// an io.Writer.
type Encoder struct {
	w        io.Writer
	stream   *StreamState
	packetNo int64
}

// NewEncoder returns an Encoder with a random serial number.
func NewEncoder(w io.Writer) (*Encoder, error) {
	var serialNo int32
	if err := binary.Read(rand.Reader, binary.LittleEndian, &serialNo); err != nil {
		return nil, err
	}
	return NewEncoderWithSerial(w, serialNo)
}

// NewEncoderWithSerial returns an Encoder for the given serial number.
func NewEncoderWithSerial(w io.Writer, serialNo int32) (*Encoder, error) {
	stream, err := NewStreamState(serialNo)
	if err != nil {
		return nil, err
	}
	return &Encoder{w: w, stream: stream}, nil
}

// WritePacket queues a packet and writes every page that is complete. The
// first packet is marked as beginning of stream.
func (e *Encoder) WritePacket(data []byte, granulePos int64, eos bool) error {
	if err := e.stream.PacketIn(data, granulePos, e.packetNo, e.packetNo == 0, eos); err != nil {
		return err
	}
	e.packetNo++
	return e.drain(e.stream.PageOut)
}

// Flush forces queued packets into pages. Codecs call it after their header
// packets so audio data starts on a fresh page.
func (e *Encoder) Flush() error {
	return e.drain(e.stream.Flush)
}

func (e *Encoder) drain(next func() ([]byte, []byte, error)) error {
	for {
		header, body, err := next()
		if err == ErrNoPacket {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := e.w.Write(header); err != nil {
			return err
		}
		if _, err := e.w.Write(body); err != nil {
			return err
		}
	}
}

// Close flushes and releases the stream. It does not close the writer.
func (e *Encoder) Close() error {
	err := e.Flush()
	e.stream.Clear()
	return err
}
