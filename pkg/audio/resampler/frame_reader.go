package resampler

import "io"

// frameReader returns whole frames from r. Bytes of an incomplete frame are
// held back until the rest arrives.
type frameReader struct {
	r         io.Reader
	frameSize int
	pending   []byte
}

func newFrameReader(r io.Reader, frameSize int) *frameReader {
	return &frameReader{r: r, frameSize: frameSize, pending: make([]byte, 0, frameSize)}
}

// Read returns a multiple of frameSize bytes. A stream ending inside a frame
// returns the partial bytes with io.ErrUnexpectedEOF.
func (fr *frameReader) Read(p []byte) (int, error) {
	if len(p) < fr.frameSize {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)/fr.frameSize*fr.frameSize]
	n := copy(p, fr.pending)
	fr.pending = fr.pending[:0]

	rn, err := fr.r.Read(p[n:])
	n += rn
	rem := n % fr.frameSize
	if err != nil {
		if rem != 0 && err == io.EOF {
			return n, io.ErrUnexpectedEOF
		}
		return n, err
	}
	if rem != 0 {
		n -= rem
		fr.pending = append(fr.pending, p[n:n+rem]...)
	}
	return n, nil
}
