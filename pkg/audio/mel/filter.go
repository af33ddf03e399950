package mel

import "math"

// centeredHann returns a periodic Hann window of length n zero padded to
// size with the window in the middle.
func centeredHann(n, size int) []float64 {
	w := make([]float64, size)
	off := (size - n) / 2
	for i := range n {
		w[off+i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// filterBank returns numMels triangular filters over fftSize/2+1 bins,
// spaced evenly on the mel scale between fmin and fmax. Filters are area
// normalized so wide high-frequency bands do not dominate.
func filterBank(numMels, fftSize, sampleRate int, fmin, fmax float64) [][]float64 {
	bins := fftSize/2 + 1
	lo, hi := hzToMel(fmin), hzToMel(fmax)
	edges := make([]float64, numMels+2)
	for i := range edges {
		edges[i] = melToHz(lo + (hi-lo)*float64(i)/float64(numMels+1))
	}

	binHz := float64(sampleRate) / float64(fftSize)
	bank := make([][]float64, numMels)
	for m := range bank {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		norm := 2 / (right - left)
		f := make([]float64, bins)
		for k := range f {
			hz := float64(k) * binHz
			var w float64
			switch {
			case hz > left && hz <= center:
				w = (hz - left) / (center - left)
			case hz > center && hz < right:
				w = (right - hz) / (right - center)
			}
			f[k] = w * norm
		}
		bank[m] = f
	}
	return bank
}
