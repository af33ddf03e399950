package ogg

/*
#include <ogg/ogg.h>
#include <stdlib.h>

static ogg_sync_state* new_sync(void) {
    ogg_sync_state* oy = calloc(1, sizeof(ogg_sync_state));
    if (oy != NULL) ogg_sync_init(oy);
    return oy;
}

static void delete_sync(ogg_sync_state* oy) {
    if (oy == NULL) return;
    ogg_sync_clear(oy);
    free(oy);
}
*/
import "C"
import (
	"errors"
	"io"
	"runtime"
	"sync/atomic"
	"unsafe"
)

var (
	// ErrSync is returned when bytes had to be skipped to find a page.
	ErrSync = errors.New("ogg: lost sync")
	// ErrNeedMore is returned when no full page is buffered yet.
	ErrNeedMore = errors.New("ogg: need more data")
)

// SyncState buffers raw bytes and cuts them into pages.
type SyncState struct {
	oy      *C.ogg_sync_state
	cleared atomic.Bool
	cleanup runtime.Cleanup
}

// NewSyncState allocates a SyncState. Clear releases it; a finalizer does
// so otherwise.
func NewSyncState() (*SyncState, error) {
	oy := C.new_sync()
	if oy == nil {
		return nil, errors.New("ogg: out of memory")
	}
	s := &SyncState{oy: oy}
	s.cleanup = runtime.AddCleanup(s, deleteSync, uintptr(unsafe.Pointer(oy)))
	return s, nil
}

func deleteSync(p uintptr) {
	C.delete_sync((*C.ogg_sync_state)(unsafe.Pointer(p)))
}

// Clear frees the libogg state. Further calls are no-ops.
func (s *SyncState) Clear() {
	if !s.cleared.CompareAndSwap(false, true) {
		return
	}
	s.cleanup.Stop()
	C.delete_sync(s.oy)
	s.oy = nil
}

// Reset drops all buffered bytes.
func (s *SyncState) Reset() {
	C.ogg_sync_reset(s.oy)
}

// Write copies p into the libogg buffer.
func (s *SyncState) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	buf := C.ogg_sync_buffer(s.oy, C.long(len(p)))
	if buf == nil {
		return 0, ErrSync
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(buf)), len(p)), p)
	if C.ogg_sync_wrote(s.oy, C.long(len(p))) != 0 {
		return 0, ErrSync
	}
	return len(p), nil
}

// NextPage fills page with the next buffered page. When bytes before it
// are not a page, they are dropped and NextPage returns their count with
// ErrSync; call it again to continue. ErrNeedMore means Write more data.
func (s *SyncState) NextPage(page *Page) (int, error) {
	switch n := C.ogg_sync_pageseek(s.oy, &page.page); {
	case n > 0:
		return 0, nil
	case n == 0:
		return 0, ErrNeedMore
	default:
		return int(-n), ErrSync
	}
}

// PageReader reads the pages of an Ogg byte stream.
type PageReader struct {
	r       io.Reader
	sync    *SyncState
	buf     []byte
	page    Page
	pages   int
	skipped int
}

// NewPageReader returns a PageReader over r.
func NewPageReader(r io.Reader) (*PageReader, error) {
	s, err := NewSyncState()
	if err != nil {
		return nil, err
	}
	return &PageReader{r: r, sync: s, buf: make([]byte, 4096)}, nil
}

// Close frees the underlying SyncState. It does not close r.
func (pr *PageReader) Close() error {
	pr.sync.Clear()
	return nil
}

// Next returns the next page, valid until the following call. Bytes that
// are not part of a page are skipped and counted. At the end of r Next
// returns io.EOF, or ErrSync if r held bytes but not a single page.
func (pr *PageReader) Next() (*Page, error) {
	for {
		n, err := pr.sync.NextPage(&pr.page)
		switch err {
		case nil:
			pr.pages++
			return &pr.page, nil
		case ErrSync:
			pr.skipped += n
			continue
		}

		read, rerr := pr.r.Read(pr.buf)
		if read > 0 {
			if _, err := pr.sync.Write(pr.buf[:read]); err != nil {
				return nil, err
			}
			continue
		}
		if rerr == io.EOF && pr.pages == 0 && pr.skipped > 0 {
			return nil, ErrSync
		}
		if rerr != nil {
			return nil, rerr
		}
	}
}

// Skipped is the number of bytes dropped between pages so far.
func (pr *PageReader) Skipped() int {
	return pr.skipped
}
