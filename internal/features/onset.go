package features

import (
	"math"

	"github.com/aykutaksit/marine-animals/internal/audio"
)

// OnsetEnvelope is a non-negative per-frame rhythmic strength signal.
type OnsetEnvelope []float64

// ExtractOnset computes half-wave rectified spectral flux on a log-mel
// spectrogram, averaged over mel bands. The first frame is always 0.
func ExtractOnset(c audio.Clip, cfg Config) (OnsetEnvelope, error) {
	if err := checkInput(c, cfg); err != nil {
		return nil, err
	}
	return onsetFromSpectrogram(computeSpectrogram(c, cfg), c.SampleRate, cfg), nil
}

func onsetFromSpectrogram(s spectrogram, sampleRate int, cfg Config) OnsetEnvelope {
	bank := melFilterBank(cfg.NumMels, cfg.FrameSize, sampleRate, 0, float64(sampleRate)/2)

	db := make([][]float64, len(s.mags))
	peak := math.Inf(-1)
	for t, spectrum := range s.mags {
		bands := make([]float64, len(bank))
		for m, filter := range bank {
			var sum float64
			for k, w := range filter {
				if w != 0 {
					sum += w * spectrum[k] * spectrum[k]
				}
			}
			bands[m] = powerToDB(sum)
			peak = math.Max(peak, bands[m])
		}
		db[t] = bands
	}

	// dB relative to the loudest cell, floored at -TopDB.
	floor := -cfg.TopDB
	for _, bands := range db {
		for m := range bands {
			bands[m] = math.Max(bands[m]-peak, floor)
		}
	}

	env := make(OnsetEnvelope, len(db))
	for t := 1; t < len(db); t++ {
		var flux float64
		for m := range db[t] {
			if d := db[t][m] - db[t-1][m]; d > 0 {
				flux += d
			}
		}
		env[t] = flux / float64(len(db[t]))
	}
	return env
}

func powerToDB(p float64) float64 {
	return 10 * math.Log10(math.Max(p, 1e-10))
}

// hzToMel converts frequency in Hz to the HTK mel scale.
func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1.0+hz/700.0)
}

// melToHz converts an HTK mel value back to Hz.
func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0)
}

// melFilterBank creates [numMels][fftSize/2+1] triangular filters.
func melFilterBank(numMels, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	halfFFT := fftSize/2 + 1
	lowMel := hzToMel(lowFreq)
	highMel := hzToMel(highFreq)

	step := (highMel - lowMel) / float64(numMels+1)
	bins := make([]int, numMels+2)
	for i := range bins {
		hz := melToHz(lowMel + float64(i)*step)
		bins[i] = min(int(math.Round(hz*float64(fftSize)/float64(sampleRate))), halfFFT-1)
	}

	// Every filter spans at least one bin.
	for i := 1; i < len(bins); i++ {
		if bins[i] <= bins[i-1] {
			bins[i] = bins[i-1] + 1
		}
	}

	bank := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		filter := make([]float64, halfFFT)
		left, center, right := bins[m], bins[m+1], bins[m+2]

		for k := left; k < center && k < halfFFT; k++ {
			filter[k] = float64(k-left) / float64(center-left)
		}
		for k := center; k <= right && k < halfFFT; k++ {
			filter[k] = float64(right-k) / float64(right-center)
		}
		bank[m] = filter
	}
	return bank
}
