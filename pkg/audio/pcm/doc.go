// Package pcm provides types and utilities for working with raw 16-bit PCM
// audio.
//
// Key types:
//   - Format: sample rate and channel count of interleaved s16le audio
//   - Writer: writes int16 frames to an io.Writer as s16le
//
// Sample helpers convert between int16 and normalised float32, downmix
// interleaved frames to mono and pack samples to and from bytes.
//
// Example usage:
//
//	f := pcm.Format{SampleRate: 16000, Channels: 1}
//
//	// Bytes needed for 20ms of audio
//	n := f.BytesInDuration(20 * time.Millisecond)
//
//	// Mono float samples in [-1, 1)
//	mono := pcm.Int16ToFloat32(pcm.Downmix(frames, 2))
package pcm
