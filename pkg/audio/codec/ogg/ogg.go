// Package ogg wraps libogg for muxing and demuxing Ogg streams.
//
// [Encoder] writes the packets of a single logical stream to an io.Writer.
// [ReadPackets] walks every logical stream multiplexed in an io.Reader.
// [SyncState] and [StreamState] expose the page and packet layers those
// two are built on.
//
// Packet data returned by this package is owned by Go and outlives the
// libogg buffers it was read from.
package ogg

/*
#cgo pkg-config: ogg
#include <ogg/ogg.h>
*/
import "C"

// Page is one Ogg page as returned by a SyncState. It refers to libogg
// memory and is only valid until the next read.
type Page struct {
	page C.ogg_page
}

// SerialNo identifies the logical stream the page belongs to.
func (p *Page) SerialNo() int32 {
	return int32(C.ogg_page_serialno(&p.page))
}

// IsBOS reports whether the page opens its logical stream.
func (p *Page) IsBOS() bool {
	return C.ogg_page_bos(&p.page) != 0
}

// Packet is a packet taken out of a StreamState.
type Packet struct {
	Data    []byte
	Granule int64
	Number  int64
	BOS     bool
	EOS     bool
}
