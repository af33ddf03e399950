// Package resampler converts audio between sample rates using the pure Go
// github.com/tphakala/go-audio-resampling library.
//
// Two entry points are provided. [New] wraps an io.Reader of s16le audio
// and streams it out at another rate, also converting between mono and
// stereo. [Float32] resamples an in-memory mono signal in one call, which is
// what the audio loader uses.
//
// Example usage:
//
//	src := pcm.Format{SampleRate: 44100, Channels: 2}
//	dst := pcm.Format{SampleRate: 16000, Channels: 1}
//	r, err := resampler.New(audioReader, src, dst)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	io.Copy(output, r)
package resampler
