//go:build !js

package resampler

import (
	"fmt"
	"io"
	"math"
	"sync"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/haivivi/voicekit/pkg/audio/pcm"
)

// Resampler is a resampled audio stream. It must be closed to release the
// underlying filter.
type Resampler interface {
	io.ReadCloser
	CloseWithError(error) error
}

// Stream reads s16le audio of srcFmt from src and yields it in dstFmt.
type Stream struct {
	srcFmt pcm.Format
	dstFmt pcm.Format
	src    io.Reader

	readBuf []byte

	mu       sync.Mutex
	closeErr error

	// filters holds one resampler per destination channel, none when the
	// rates match.
	filters   []*resampling.SimpleResampler
	flushed   bool
	inFrames  int64
	outFrames int64
	leftover  []byte
}

// New returns a Resampler converting src from srcFmt to dstFmt. Both formats
// must be mono or stereo. The output holds round(in * dstRate / srcRate)
// frames; the filter tail is flushed when src ends.
func New(src io.Reader, srcFmt, dstFmt pcm.Format) (Resampler, error) {
	for _, f := range []pcm.Format{srcFmt, dstFmt} {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("resampler: %w", err)
		}
		if f.Channels > 2 {
			return nil, fmt.Errorf("resampler: %d channels not supported", f.Channels)
		}
	}
	s := &Stream{
		srcFmt: srcFmt,
		dstFmt: dstFmt,
		src:    newFrameReader(src, srcFmt.FrameSize()),
	}
	if srcFmt.SampleRate != dstFmt.SampleRate {
		for range dstFmt.Channels {
			f, err := newFilter(srcFmt.SampleRate, dstFmt.SampleRate)
			if err != nil {
				return nil, err
			}
			s.filters = append(s.filters, f)
		}
	}
	return s, nil
}

func newFilter(from, to int) (*resampling.SimpleResampler, error) {
	f, err := resampling.NewEngine(float64(from), float64(to), resampling.QualityHigh)
	if err != nil {
		return nil, fmt.Errorf("resampler: %d -> %d Hz: %w", from, to, err)
	}
	return f, nil
}

// Read fills p with whole frames of resampled audio. Read is not safe for
// concurrent use.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	frame := s.dstFmt.FrameSize()
	if len(p) < frame {
		return 0, io.ErrShortBuffer
	}
	p = p[:len(p)/frame*frame]

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.leftover) > 0 {
		n := copy(p, s.leftover)
		s.leftover = s.leftover[n:]
		return n, nil
	}
	if s.closeErr != nil {
		return 0, s.closeErr
	}
	if len(s.filters) == 0 {
		return s.readChannels(len(p), p)
	}
	return s.readResampled(p)
}

func (s *Stream) readResampled(p []byte) (int, error) {
	ratio := float64(s.srcFmt.SampleRate) / float64(s.dstFmt.SampleRate)
	want := int(float64(len(p))*ratio) + s.srcFmt.FrameSize()*4

	for !s.flushed {
		n, readErr := s.readChannels(want, nil)
		if n > 0 {
			out, err := s.process(s.readBuf[:n])
			if err != nil {
				return 0, err
			}
			s.leftover = append(s.leftover, out...)
		}
		if readErr == io.EOF {
			tail, err := s.flush()
			if err != nil {
				return 0, err
			}
			s.leftover = append(s.leftover, tail...)
		}
		if len(s.leftover) > 0 || (readErr != nil && readErr != io.EOF) {
			c := copy(p, s.leftover)
			s.leftover = s.leftover[c:]
			if readErr == io.EOF {
				readErr = nil
			}
			return c, readErr
		}
	}
	return 0, io.EOF
}

// process resamples interleaved s16le frames in the destination layout.
func (s *Stream) process(b []byte) ([]byte, error) {
	channels := len(s.filters)
	frames := len(b) / 2 / channels
	outs := make([][]float64, channels)
	for c, f := range s.filters {
		in := make([]float64, frames)
		for i := range in {
			j := (i*channels + c) * 2
			in[i] = float64(int16(b[j])|int16(b[j+1])<<8) / 32768
		}
		out, err := f.Process(in)
		if err != nil {
			return nil, fmt.Errorf("resampler: %w", err)
		}
		outs[c] = out
	}
	s.inFrames += int64(frames)
	return s.interleave(outs, shortest(outs)), nil
}

// flush drains the filters once and trims or pads the tail so the stream
// holds exactly the frame count the rate ratio implies.
func (s *Stream) flush() ([]byte, error) {
	s.flushed = true
	outs := make([][]float64, len(s.filters))
	for c, f := range s.filters {
		out, err := f.Flush()
		if err != nil {
			return nil, fmt.Errorf("resampler: flush: %w", err)
		}
		outs[c] = out
	}
	expected := int64(math.Round(float64(s.inFrames) * float64(s.dstFmt.SampleRate) / float64(s.srcFmt.SampleRate)))
	n := int(max(expected-s.outFrames, 0))
	for c, out := range outs {
		if len(out) < n {
			out = append(out, make([]float64, n-len(out))...)
		}
		outs[c] = out[:n]
	}
	return s.interleave(outs, n), nil
}

func (s *Stream) interleave(outs [][]float64, frames int) []byte {
	channels := len(outs)
	b := make([]byte, frames*channels*2)
	for c, out := range outs {
		for i := range frames {
			x := int16(max(-32768, min(32767, math.Round(out[i]*32768))))
			j := (i*channels + c) * 2
			b[j] = byte(x)
			b[j+1] = byte(uint16(x) >> 8)
		}
	}
	s.outFrames += int64(frames)
	return b
}

func shortest(outs [][]float64) int {
	n := len(outs[0])
	for _, o := range outs[1:] {
		n = min(n, len(o))
	}
	return n
}

// readChannels reads up to dstLen bytes of source audio converted to the
// destination channel layout into s.readBuf, copying into p when non-nil.
func (s *Stream) readChannels(dstLen int, p []byte) (int, error) {
	srcLen := dstLen * s.srcFmt.Channels / s.dstFmt.Channels
	if cap(s.readBuf) < max(srcLen, dstLen) {
		s.readBuf = make([]byte, max(srcLen, dstLen))
	}
	buf := s.readBuf[:cap(s.readBuf)]

	var (
		n   int
		err error
	)
	switch {
	case s.srcFmt.Channels == s.dstFmt.Channels:
		n, err = s.src.Read(buf[:srcLen])
	case s.srcFmt.Channels == 2:
		var rn int
		rn, err = s.src.Read(buf[:srcLen])
		n = stereoToMono(buf[:rn])
	default:
		var rn int
		rn, err = s.src.Read(buf[:srcLen])
		n = monoToStereo(buf[:rn*2])
	}
	if p != nil {
		copy(p, buf[:n])
	}
	return n, err
}

// Close releases the filter. Later reads return io.ErrClosedPipe.
func (s *Stream) Close() error {
	return s.CloseWithError(fmt.Errorf("resampler: %w", io.ErrClosedPipe))
}

// CloseWithError releases the filter. Later reads return err.
func (s *Stream) CloseWithError(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closeErr == nil {
		s.closeErr = err
	}
	s.filters = nil
	return nil
}

// stereoToMono averages L and R of each frame in place and returns the
// number of mono bytes.
func stereoToMono(b []byte) int {
	frames := len(b) / 4
	for i := range frames {
		l := int16(b[i*4]) | int16(b[i*4+1])<<8
		r := int16(b[i*4+2]) | int16(b[i*4+3])<<8
		m := int16((int32(l) + int32(r)) / 2)
		b[i*2] = byte(m)
		b[i*2+1] = byte(uint16(m) >> 8)
	}
	return frames * 2
}

// monoToStereo duplicates each sample of the first half of b in place and
// returns len(b).
func monoToStereo(b []byte) int {
	for i := len(b)/4 - 1; i >= 0; i-- {
		lo, hi := b[i*2], b[i*2+1]
		b[i*4], b[i*4+1] = lo, hi
		b[i*4+2], b[i*4+3] = lo, hi
	}
	return len(b)
}

// Float32 resamples a mono signal from one rate to another. The result has
// round(len(samples) * to / from) samples.
func Float32(samples []float32, from, to int) ([]float32, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("resampler: invalid rates %d -> %d", from, to)
	}
	if from == to || len(samples) == 0 {
		return samples, nil
	}
	f, err := newFilter(from, to)
	if err != nil {
		return nil, err
	}
	want := int(math.Round(float64(len(samples)) * float64(to) / float64(from)))

	in := make([]float64, len(samples))
	for i, v := range samples {
		in[i] = float64(v)
	}
	out, err := f.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resampler: %w", err)
	}
	tail, err := f.Flush()
	if err != nil {
		return nil, fmt.Errorf("resampler: flush: %w", err)
	}
	out = append(out, tail...)
	res := make([]float32, want)
	for i := range min(want, len(out)) {
		res[i] = float32(out[i])
	}
	return res, nil
}
