package convert

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/haivivi/voicekit/pkg/audio/media"
	"github.com/haivivi/voicekit/pkg/audio/pcm"
	"github.com/haivivi/voicekit/pkg/audio/resampler"
)

// Report counts what a conversion decoded.
type Report struct {
	Frames  int   `json:"frames" yaml:"frames"`
	Samples int64 `json:"samples" yaml:"samples"`

	// Skipped frames failed to decode and were left out of the output.
	Skipped  int   `json:"skipped" yaml:"skipped"`
	FirstErr error `json:"-" yaml:"-"`
}

// PCMResult describes a file written by ToPCM.
type PCMResult struct {
	Path       string `json:"path" yaml:"path"`
	SampleRate int    `json:"sample_rate" yaml:"sample_rate"`
	Report     Report `json:"report" yaml:"report"`
}

// PCMPath returns the path ToPCM writes for in: the same path with a .pcm
// extension.
func PCMPath(in string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + ".pcm"
}

// ToPCM decodes in and writes it as mono s16le next to it. The output keeps
// the source rate unless WithSampleRate is given. Frames that fail to
// decode are skipped and counted in the report.
func ToPCM(in string, opts ...Option) (res PCMResult, err error) {
	o := newOptions(opts)
	out := PCMPath(in)
	if out == in {
		return PCMResult{}, fmt.Errorf("convert: %s already has a .pcm extension", in)
	}

	c, err := media.Open(in)
	if err != nil {
		return PCMResult{}, fmt.Errorf("convert: %w", err)
	}
	defer c.Close()

	src := pcm.Format{SampleRate: c.Stream().SampleRate, Channels: 1}
	dst := src
	if o.sampleRate > 0 {
		dst.SampleRate = o.sampleRate
	}

	f, err := os.Create(out)
	if err != nil {
		return PCMResult{}, fmt.Errorf("convert: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("convert: %w", cerr)
		}
		if err != nil {
			os.Remove(out)
		}
	}()

	var report Report
	if dst == src {
		report, err = writeMono(c, f, src)
	} else {
		report, err = writeResampled(c, f, src, dst)
	}
	if err != nil {
		return PCMResult{}, err
	}
	return PCMResult{Path: out, SampleRate: dst.SampleRate, Report: report}, nil
}

func writeMono(c *media.Container, w io.Writer, f pcm.Format) (Report, error) {
	var report Report
	pw := pcm.NewWriter(w, f)
	for frame, err := range c.Frames() {
		if err != nil {
			report.Skipped++
			if report.FirstErr == nil {
				report.FirstErr = err
			}
			continue
		}
		if err := pw.Write(pcm.Downmix(frame.Samples, frame.Channels)); err != nil {
			return report, fmt.Errorf("convert: write pcm: %w", err)
		}
		report.Frames++
	}
	if err := pw.Flush(); err != nil {
		return report, fmt.Errorf("convert: write pcm: %w", err)
	}
	report.Samples = pw.Samples()
	return report, nil
}

func writeResampled(c *media.Container, w io.Writer, src, dst pcm.Format) (Report, error) {
	pr, pw := io.Pipe()
	rs, err := resampler.New(pr, src, dst)
	if err != nil {
		return Report{}, fmt.Errorf("convert: %w", err)
	}
	defer rs.Close()

	type result struct {
		report Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := writeMono(c, pw, src)
		pw.CloseWithError(err)
		done <- result{report, err}
	}()

	n, copyErr := io.Copy(w, rs)
	// Unblock the decoder if the copy stopped early.
	pr.CloseWithError(errors.New("convert: resampled output closed"))
	r := <-done
	if copyErr != nil {
		return r.report, fmt.Errorf("convert: resample: %w", copyErr)
	}
	if r.err != nil {
		return r.report, r.err
	}
	r.report.Samples = n / 2
	return r.report, nil
}
