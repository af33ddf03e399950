package ogg

import (
	"errors"
	"io"
	"iter"
)

// StreamPacket is a packet read from a (possibly multiplexed) Ogg stream.
type StreamPacket struct {
	Data []byte

	// SerialNo identifies the logical stream.
	SerialNo int32

	// Index is the position of the packet within its logical stream. Codec
	// header packets come first, so Index 0..2 are the Vorbis headers and
	// Index 0..1 the Opus ones.
	Index int64

	// Granule is the granule position of the page the packet ends on, or
	// -1 when the page ends no packet there.
	Granule int64

	BOS bool
	EOS bool
}

// ReadPackets iterates over every packet of every logical stream in r, in
// file order. A lost page yields ErrHole and reading goes on; other errors
// end the iteration. The caller closes r.
//
//	for pkt, err := range ogg.ReadPackets(f) {
//	    if err != nil {
//	        return err
//	    }
//	    // pkt.Data
//	}
func ReadPackets(r io.Reader) iter.Seq2[*StreamPacket, error] {
	return func(yield func(*StreamPacket, error) bool) {
		pages, err := NewPageReader(r)
		if err != nil {
			yield(nil, err)
			return
		}
		defer pages.Close()

		streams := make(map[int32]*StreamState)
		counts := make(map[int32]int64)
		defer func() {
			for _, s := range streams {
				s.Clear()
			}
		}()

		var packet Packet
		for {
			page, err := pages.Next()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield(nil, err)
				}
				return
			}
			serial := page.SerialNo()
			stream := streams[serial]
			if stream == nil || page.IsBOS() {
				if stream != nil {
					stream.Clear()
				}
				if stream, err = NewStreamState(serial); err != nil {
					yield(nil, err)
					return
				}
				streams[serial] = stream
				counts[serial] = 0
			}
			if err := stream.PageIn(page); err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			for {
				err := stream.PacketOut(&packet)
				if err == ErrNoPacket {
					break
				}
				if err != nil {
					if !yield(nil, err) {
						return
					}
					continue
				}
				pkt := &StreamPacket{
					Data:     packet.Data,
					SerialNo: serial,
					Index:    counts[serial],
					Granule:  packet.Granule,
					BOS:      packet.BOS,
					EOS:      packet.EOS,
				}
				counts[serial]++
				if !yield(pkt, nil) {
					return
				}
			}
		}
	}
}
