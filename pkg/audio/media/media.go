// Package media opens audio files and decodes them into PCM frames.
//
// The container is detected from the leading bytes of the file, not from
// its extension. Supported inputs:
//
//   - RIFF/WAVE with 8, 16, 24 or 32 bit integer PCM
//   - MPEG audio layer III, with or without an ID3v2 tag
//   - Ogg with a Vorbis or Opus logical stream
//
// Decoded frames carry interleaved 16-bit samples, and float samples as well
// when the source is more precise than that (see [Frame.Float32]):
//
//	c, err := media.Open("speech.ogg")
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//	for frame, err := range c.Frames() {
//	    if err != nil {
//	        // a damaged frame; decoding goes on
//	        continue
//	    }
//	    _ = frame.Samples
//	}
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"time"

	"github.com/haivivi/voicekit/pkg/audio/pcm"
)

var (
	// ErrNoAudioStream is returned for an input that holds no audio stream,
	// such as an empty file or an Ogg file without logical streams.
	ErrNoAudioStream = errors.New("media: no audio stream")

	// ErrUnsupported is returned for containers and codecs this package
	// cannot decode.
	ErrUnsupported = errors.New("media: unsupported format")
)

// Codec identifies the encoding of an audio stream.
type Codec string

const (
	CodecPCM    Codec = "pcm_s16le"
	CodecMP3    Codec = "mp3"
	CodecVorbis Codec = "vorbis"
	CodecOpus   Codec = "opus"
)

// StreamInfo describes the decoded form of the audio stream.
type StreamInfo struct {
	Codec      Codec `json:"codec" yaml:"codec"`
	SampleRate int   `json:"sample_rate" yaml:"sample_rate"`
	Channels   int   `json:"channels" yaml:"channels"`

	// BitDepth is the stored sample width for PCM input, 0 otherwise.
	BitDepth int `json:"bit_depth,omitempty" yaml:"bit_depth,omitempty"`
}

// Frame is a run of decoded samples.
type Frame struct {
	// Samples are interleaved by channel.
	Samples []int16
	// Float holds the same samples at full precision for sources with more
	// than 16 bits (Vorbis, 24 and 32 bit WAV). It is nil otherwise.
	Float      []float32
	Channels   int
	SampleRate int
}

// Float32 returns the samples in [-1, 1), at full precision when the source
// has it.
func (f Frame) Float32() []float32 {
	if f.Float != nil {
		return f.Float
	}
	return pcm.Int16ToFloat32(f.Samples)
}

// Len returns the number of samples per channel.
func (f Frame) Len() int {
	if f.Channels <= 0 {
		return 0
	}
	return len(f.Samples) / f.Channels
}

// Duration returns the playback time of the frame.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.Len()) * time.Second / time.Duration(f.SampleRate)
}

// decoder produces the frames of one opened stream.
type decoder interface {
	info() StreamInfo
	frames(r io.ReadSeeker) iter.Seq2[Frame, error]
}

// Container is an opened audio file.
type Container struct {
	path string
	f    *os.File
	dec  decoder
}

// Open opens path and probes its audio stream.
func Open(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	dec, err := probe(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("media: open %s: %w", path, err)
	}
	return &Container{path: path, f: f, dec: dec}, nil
}

// Probe returns the stream description of path without decoding it.
func Probe(path string) (StreamInfo, error) {
	c, err := Open(path)
	if err != nil {
		return StreamInfo{}, err
	}
	defer c.Close()
	return c.Stream(), nil
}

// Path returns the file path passed to Open.
func (c *Container) Path() string {
	return c.path
}

// Stream returns the audio stream description.
func (c *Container) Stream() StreamInfo {
	return c.dec.info()
}

// Frames decodes the stream from the start. A frame that fails to decode
// is yielded as an error and decoding continues with the next one when
// the codec allows it; errors of the underlying file end the iteration.
func (c *Container) Frames() iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		if _, err := c.f.Seek(0, io.SeekStart); err != nil {
			yield(Frame{}, fmt.Errorf("media: rewind %s: %w", c.path, err))
			return
		}
		for frame, err := range c.dec.frames(c.f) {
			if !yield(frame, err) {
				return
			}
		}
	}
}

// Close closes the underlying file.
func (c *Container) Close() error {
	return c.f.Close()
}

func probe(f *os.File) (decoder, error) {
	head := make([]byte, 12)
	n, err := io.ReadFull(f, head)
	switch {
	case n == 0 && (err == io.EOF || err == nil):
		return nil, ErrNoAudioStream
	case err != nil && err != io.ErrUnexpectedEOF:
		return nil, err
	}
	head = head[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	switch {
	case isWAV(head):
		return probeWAV(f)
	case bytes.HasPrefix(head, []byte("OggS")):
		return probeOgg(f)
	case isMP3(head):
		return probeMP3(f)
	}
	return nil, ErrUnsupported
}

func isWAV(head []byte) bool {
	return len(head) >= 12 && string(head[:4]) == "RIFF" && string(head[8:12]) == "WAVE"
}

func isMP3(head []byte) bool {
	if bytes.HasPrefix(head, []byte("ID3")) {
		return true
	}
	// MPEG-1/2 layer III frame sync.
	return len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0 && head[1]&0x06 == 0x02
}
