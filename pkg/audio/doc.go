// Package audio is the root of the audio sub-packages:
//
//   - pcm: sample formats, conversions and s16le encoding
//   - resampler: sample rate conversion
//   - codec/ogg, codec/vorbis, codec/opus: cgo bindings to libogg,
//     libvorbis and libopus
//   - codec/silk: the external SILK v3 encoder
//   - media: container probing and frame decoding for WAV, MP3 and Ogg
//   - mel: log mel spectrograms
//
// Most callers want media.Load:
//
//	samples, err := media.Load("speech.ogg", 22050)
package audio
