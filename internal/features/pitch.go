package features

import (
	"errors"
	"math"

	"github.com/aykutaksit/marine-animals/internal/audio"
)

// ErrUndefinedPitch is returned by PitchTrack.Mean when no frame carries a
// pitch estimate with positive magnitude (e.g. digital silence).
var ErrUndefinedPitch = errors.New("features: mean pitch undefined, no voiced frames")

// PitchFrame is the dominant frequency estimate of one frame.
// Magnitude is zero when the frame has no usable peak.
type PitchFrame struct {
	Frequency float64
	Magnitude float64
}

// PitchTrack is an ordered per-frame pitch estimate.
type PitchTrack struct {
	Frames []PitchFrame
}

// Len returns the number of frames.
func (p PitchTrack) Len() int { return len(p.Frames) }

// Mean averages the frequency of every frame whose magnitude is strictly
// positive.
func (p PitchTrack) Mean() (float64, error) {
	var sum float64
	var n int
	for _, f := range p.Frames {
		if f.Magnitude > 0 {
			sum += f.Frequency
			n++
		}
	}
	if n == 0 {
		return 0, ErrUndefinedPitch
	}
	return sum / float64(n), nil
}

// ExtractPitch estimates the dominant frequency of every frame.
func ExtractPitch(c audio.Clip, cfg Config) (PitchTrack, error) {
	if err := checkInput(c, cfg); err != nil {
		return PitchTrack{}, err
	}
	return pitchFromSpectrogram(computeSpectrogram(c, cfg), cfg), nil
}

func pitchFromSpectrogram(s spectrogram, cfg Config) PitchTrack {
	frames := make([]PitchFrame, len(s.mags))
	for t, spectrum := range s.mags {
		frames[t] = dominantPeak(spectrum, s.binHz, cfg)
	}
	return PitchTrack{Frames: frames}
}

// dominantPeak picks the strongest local maximum inside the pitch range,
// refining its position with parabolic interpolation.
func dominantPeak(spectrum []float64, binHz float64, cfg Config) PitchFrame {
	var frameMax float64
	for _, m := range spectrum {
		frameMax = math.Max(frameMax, m)
	}
	if frameMax <= 0 || binHz <= 0 {
		return PitchFrame{}
	}

	lo := max(int(math.Ceil(cfg.MinFrequency/binHz)), 1)
	hi := min(int(math.Floor(cfg.MaxFrequency/binHz)), len(spectrum)-2)
	threshold := cfg.PeakThreshold * frameMax

	var best PitchFrame
	for k := lo; k <= hi; k++ {
		a, b, c := spectrum[k-1], spectrum[k], spectrum[k+1]
		if b <= threshold || b <= a || b < c {
			continue
		}

		shift := 0.0
		if denom := a - 2*b + c; denom != 0 {
			shift = 0.5 * (a - c) / denom
		}
		mag := b - 0.25*(a-c)*shift
		if mag > best.Magnitude {
			best = PitchFrame{Frequency: (float64(k) + shift) * binHz, Magnitude: mag}
		}
	}
	return best
}
