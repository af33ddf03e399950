package mel

import (
	"errors"
	"math"
	"testing"

	"github.com/haivivi/voicekit/pkg/hparams"
)

func sine(freq float64, rate, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func TestMelConversion(t *testing.T) {
	// HTK scale: 1000 Hz is about 1000 mel.
	m := hzToMel(1000)
	if math.Abs(m-1000.45) > 1.0 {
		t.Errorf("hzToMel(1000) = %f, want ~1000.45", m)
	}
	if hz := melToHz(m); math.Abs(hz-1000) > 0.1 {
		t.Errorf("melToHz(hzToMel(1000)) = %f, want 1000", hz)
	}
}

func TestFFT(t *testing.T) {
	// DC + one cycle of cosine over 8 samples.
	n := 8
	re := make([]float64, n)
	im := make([]float64, n)
	for i := range re {
		re[i] = 1.0 + math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	fft(re, im)

	if math.Abs(re[0]-float64(n)) > 1e-9 {
		t.Errorf("DC = %f, want %d", re[0], n)
	}
	if math.Abs(re[1]-float64(n)/2) > 1e-9 || math.Abs(re[n-1]-float64(n)/2) > 1e-9 {
		t.Errorf("H1 = %f / %f, want %f", re[1], re[n-1], float64(n)/2)
	}
	for k := 2; k < n-1; k++ {
		if math.Hypot(re[k], im[k]) > 1e-9 {
			t.Errorf("bin %d = %f%+fi, want 0", k, re[k], im[k])
		}
	}
}

func TestCenteredHann(t *testing.T) {
	w := centeredHann(4, 8)
	want := []float64{0, 0, 0, 0.5, 1, 0.5, 0, 0}
	for i := range want {
		if math.Abs(w[i]-want[i]) > 1e-12 {
			t.Fatalf("window = %v, want %v", w, want)
		}
	}
}

func TestFilterBank(t *testing.T) {
	bank := filterBank(80, 1024, 22050, 0, 11025)
	if len(bank) != 80 {
		t.Fatalf("got %d filters", len(bank))
	}
	for i, f := range bank {
		if len(f) != 513 {
			t.Fatalf("filter %d has %d bins", i, len(f))
		}
		nonzero := false
		for _, v := range f {
			if v < 0 {
				t.Fatalf("filter %d has negative weight", i)
			}
			nonzero = nonzero || v > 0
		}
		if !nonzero {
			t.Errorf("filter %d is all zeros", i)
		}
	}
}

func TestFromData(t *testing.T) {
	fmax := 8000.0
	cfg := FromData(hparams.DataConfig{
		SamplingRate: 16000,
		FilterLength: 512,
		HopLength:    128,
		NMelChannels: 64,
		MelFmax:      &fmax,
	})
	want := Config{SampleRate: 16000, FFTSize: 512, HopSize: 128, WindowSize: 512, NumMels: 64, FMax: 8000}
	if cfg != want {
		t.Errorf("FromData = %+v, want %+v", cfg, want)
	}
	if got := FromData(hparams.DataConfig{}); got != DefaultConfig() {
		t.Errorf("FromData(empty) = %+v", got)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"fft not power of two", func(c *Config) { c.FFTSize = 1000 }},
		{"zero hop", func(c *Config) { c.HopSize = 0 }},
		{"window too long", func(c *Config) { c.WindowSize = 2048 }},
		{"no mels", func(c *Config) { c.NumMels = 0 }},
		{"fmax above nyquist", func(c *Config) { c.FMax = 20000 }},
		{"fmin above fmax", func(c *Config) { c.FMin, c.FMax = 5000, 4000 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(&cfg)
			if _, err := New(cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSpectrogram(t *testing.T) {
	ext, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	n := 256 * 40
	spec, err := ext.Spectrogram(sine(1000, 22050, n))
	if err != nil {
		t.Fatal(err)
	}
	if spec.Shape[0] != 80 || spec.Shape[1] != 40 || ext.Frames(n) != 40 {
		t.Fatalf("shape = %v, Frames = %d", spec.Shape, ext.Frames(n))
	}

	// The loudest bin of a middle frame should sit near 1000 Hz.
	frames := spec.Shape[1]
	best, bestVal := 0, float32(math.Inf(-1))
	for m := range 80 {
		if v := spec.Data[m*frames+20]; v > bestVal {
			best, bestVal = m, v
		}
	}
	hi := hzToMel(11025)
	lo := melToHz(hi * float64(best) / 81)
	up := melToHz(hi * float64(best+2) / 81)
	if 1000 < lo || 1000 > up {
		t.Errorf("peak in bin %d covering %.0f-%.0f Hz, want 1000 Hz", best, lo, up)
	}
}

func TestSpectrogramSilence(t *testing.T) {
	ext, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	spec, err := ext.Spectrogram(make([]float32, 2048))
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range spec.Data {
		if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
			t.Fatalf("silence produced %v", v)
		}
	}
}

func TestSpectrogramTooShort(t *testing.T) {
	ext, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ext.Spectrogram(make([]float32, 100)); !errors.Is(err, ErrTooShort) {
		t.Errorf("err = %v, want ErrTooShort", err)
	}
}

func TestNormalize(t *testing.T) {
	ext, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	spec, err := ext.Spectrogram(sine(440, 22050, 8192))
	if err != nil {
		t.Fatal(err)
	}
	if err := Normalize(spec); err != nil {
		t.Fatal(err)
	}
	frames := spec.Shape[1]
	for m := range spec.Shape[0] {
		var sum float64
		for _, v := range spec.Data[m*frames : (m+1)*frames] {
			sum += float64(v)
		}
		if mean := sum / float64(frames); math.Abs(mean) > 1e-4 {
			t.Fatalf("bin %d mean = %g after normalize", m, mean)
		}
	}
}
