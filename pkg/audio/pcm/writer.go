package pcm

import (
	"bufio"
	"fmt"
	"io"
)

// Writer writes interleaved frames as s16le.
type Writer struct {
	w       *bufio.Writer
	format  Format
	samples int64
	buf     []byte
}

// NewWriter returns a Writer emitting audio of format f to w.
func NewWriter(w io.Writer, f Format) *Writer {
	return &Writer{w: bufio.NewWriter(w), format: f}
}

// Format returns the format being written.
func (w *Writer) Format() Format {
	return w.format
}

// Write writes whole frames. len(samples) must be a multiple of the channel
// count.
func (w *Writer) Write(samples []int16) error {
	if len(samples)%w.format.Channels != 0 {
		return fmt.Errorf("pcm: %d samples is not a whole number of %d-channel frames", len(samples), w.format.Channels)
	}
	n := len(samples) * 2
	if cap(w.buf) < n {
		w.buf = make([]byte, n)
	}
	buf := w.buf[:n]
	for i, s := range samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(uint16(s) >> 8)
	}
	if _, err := w.w.Write(buf); err != nil {
		return err
	}
	w.samples += int64(len(samples))
	return nil
}

// Samples returns the number of samples written so far.
func (w *Writer) Samples() int64 {
	return w.samples
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
