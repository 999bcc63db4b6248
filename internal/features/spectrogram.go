package features

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/aykutaksit/marine-animals/internal/audio"
)

// spectrogram holds per-frame magnitude spectra (FrameSize/2+1 bins).
type spectrogram struct {
	mags  [][]float64
	binHz float64
}

// frameAt copies the centered frame t into dst, zero-filling outside the clip.
func frameAt(samples []float64, t int, cfg Config, dst []float64) {
	start := t*cfg.HopSize - cfg.FrameSize/2
	for i := range dst {
		j := start + i
		if j < 0 || j >= len(samples) {
			dst[i] = 0
			continue
		}
		dst[i] = samples[j]
	}
}

func computeSpectrogram(c audio.Clip, cfg Config) spectrogram {
	numFrames := cfg.NumFrames(c.Len())
	fft := fourier.NewFFT(cfg.FrameSize)
	window := hannWindow(cfg.FrameSize)

	frame := make([]float64, cfg.FrameSize)
	coeffs := make([]complex128, cfg.FrameSize/2+1)
	mags := make([][]float64, numFrames)

	for t := 0; t < numFrames; t++ {
		frameAt(c.Samples, t, cfg, frame)
		for i := range frame {
			frame[i] *= window[i]
		}

		coeffs = fft.Coefficients(coeffs, frame)

		spectrum := make([]float64, len(coeffs))
		for k, v := range coeffs {
			spectrum[k] = cmplx.Abs(v)
		}
		mags[t] = spectrum
	}

	return spectrogram{
		mags:  mags,
		binHz: float64(c.SampleRate) / float64(cfg.FrameSize),
	}
}

// hannWindow returns a periodic Hann window, the usual choice for STFT.
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}
