package audio

import (
	"fmt"
	"math"
	"time"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Align brings two clips onto the same time grid: the lower-rate clip is
// resampled to the higher rate, then both are truncated to the shorter
// length. Neither input is modified.
func Align(a, b Clip) (Clip, Clip, error) {
	var err error
	switch {
	case a.SampleRate < b.SampleRate:
		a, err = Resample(a, b.SampleRate)
	case b.SampleRate < a.SampleRate:
		b, err = Resample(b, a.SampleRate)
	}
	if err != nil {
		return Clip{}, Clip{}, fmt.Errorf("failed to align clips: %w", err)
	}

	n := min(a.Len(), b.Len())
	if n == 0 {
		return Clip{}, Clip{}, ErrEmptyClip
	}
	return a.Truncate(n), b.Truncate(n), nil
}

// Resample converts c to rate with a band-limited polyphase filter.
func Resample(c Clip, rate int) (Clip, error) {
	if rate <= 0 || c.SampleRate <= 0 {
		return Clip{}, fmt.Errorf("cannot resample from %d Hz to %d Hz", c.SampleRate, rate)
	}
	if c.SampleRate == rate {
		return c, nil
	}
	if c.Len() == 0 {
		return Clip{SampleRate: rate}, nil
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(c.SampleRate),
		OutputRate: float64(rate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return Clip{}, fmt.Errorf("failed to create resampler: %w", err)
	}

	out, err := rs.Process(c.Samples)
	if err != nil {
		return Clip{}, fmt.Errorf("resample error: %w", err)
	}
	tail, err := rs.Flush()
	if err != nil {
		return Clip{}, fmt.Errorf("resample flush error: %w", err)
	}
	out = append(out, tail...)

	// The output length always matches the duration at the new rate.
	want := int(math.Round(float64(c.Len()) * float64(rate) / float64(c.SampleRate)))
	switch {
	case len(out) > want:
		out = out[:want:want]
	case len(out) < want:
		out = append(out, make([]float64, want-len(out))...)
	}
	return Clip{Samples: out, SampleRate: rate}, nil
}

// Fit loops a short clip and trims it so the result lasts exactly d.
func Fit(c Clip, d time.Duration) (Clip, error) {
	if c.Len() == 0 {
		return Clip{}, ErrEmptyClip
	}
	target := c.SamplesIn(d)
	if target <= 0 {
		return Clip{}, fmt.Errorf("invalid target duration %s", d)
	}

	out := make([]float64, target)
	for i := 0; i < target; i += c.Len() {
		copy(out[i:], c.Samples)
	}
	return Clip{Samples: out, SampleRate: c.SampleRate}, nil
}
