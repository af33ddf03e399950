// Package silk encodes PCM into SILK v3, the voice codec used by Tencent
// messengers, by driving an external silk_v3_encoder binary.
package silk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
)

// DefaultBinary is the encoder executable looked up in PATH.
const DefaultBinary = "silk_v3_encoder"

// DefaultBitrate is the target bitrate in bits per second.
const DefaultBitrate = 24000

// ErrInvalidRate is returned for PCM rates the SILK API does not accept.
var ErrInvalidRate = errors.New("silk: unsupported sample rate")

// Rates lists the input rates accepted by the SILK encoder API.
var Rates = []int{8000, 12000, 16000, 24000, 32000, 44100, 48000}

// ValidRate reports whether rate is one of Rates.
func ValidRate(rate int) bool {
	return slices.Contains(Rates, rate)
}

// Encoder encodes a raw s16le mono PCM file into a SILK file.
type Encoder interface {
	Encode(ctx context.Context, pcmPath, silkPath string, rate int) error
}

// EncoderFunc adapts a function to Encoder.
type EncoderFunc func(ctx context.Context, pcmPath, silkPath string, rate int) error

func (f EncoderFunc) Encode(ctx context.Context, pcmPath, silkPath string, rate int) error {
	return f(ctx, pcmPath, silkPath, rate)
}

// Exec runs a silk_v3_encoder compatible binary.
type Exec struct {
	// Binary is the executable name or path. Empty means DefaultBinary.
	Binary string
	// Bitrate in bits per second. Zero means DefaultBitrate.
	Bitrate int
	// Tencent writes the 0x02 prefix expected by QQ and WeChat.
	Tencent bool
}

// Encode runs the binary on pcmPath and writes silkPath.
func (e *Exec) Encode(ctx context.Context, pcmPath, silkPath string, rate int) error {
	if !ValidRate(rate) {
		return fmt.Errorf("%w: %d Hz", ErrInvalidRate, rate)
	}
	bin := e.Binary
	if bin == "" {
		bin = DefaultBinary
	}
	bitrate := e.Bitrate
	if bitrate <= 0 {
		bitrate = DefaultBitrate
	}
	args := []string{
		pcmPath, silkPath,
		"-Fs_API", strconv.Itoa(rate),
		"-rate", strconv.Itoa(bitrate),
		"-quiet",
	}
	if e.Tencent {
		args = append(args, "-tencent")
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("silk: %s: %w: %s", bin, err, msg)
		}
		return fmt.Errorf("silk: %s: %w", bin, err)
	}
	return checkOutput(silkPath)
}

// checkOutput guards against encoders that exit zero without writing a
// SILK file.
func checkOutput(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("silk: encoder wrote no output: %w", err)
	}
	defer f.Close()
	head := make([]byte, len(magic)+1)
	n, _ := f.Read(head)
	if !IsSILK(head[:n]) {
		return fmt.Errorf("silk: %s is not a SILK file", path)
	}
	return nil
}

var magic = []byte("#!SILK_V3")

// IsSILK reports whether data starts with a SILK v3 header, with or without
// the Tencent prefix byte.
func IsSILK(data []byte) bool {
	if len(data) > 0 && data[0] == 0x02 {
		data = data[1:]
	}
	return bytes.HasPrefix(data, magic)
}

// Header returns the SILK v3 file header.
func Header(tencent bool) []byte {
	if tencent {
		return append([]byte{0x02}, magic...)
	}
	return slices.Clone(magic)
}
