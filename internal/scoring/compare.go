package scoring

import (
	"fmt"
	"math"

	"github.com/aykutaksit/marine-animals/internal/audio"
	"github.com/aykutaksit/marine-animals/internal/features"
)

// Compare computes the per-feature distances and the combined score of two
// feature sets. Onset and energy are compared frame by frame over the
// shorter sequence.
func (c Config) Compare(ref, attempt features.Set) (Breakdown, error) {
	refPitch, err := ref.Pitch.Mean()
	if err != nil {
		return Breakdown{}, fmt.Errorf("reference pitch: %w", err)
	}
	attemptPitch, err := attempt.Pitch.Mean()
	if err != nil {
		return Breakdown{}, fmt.Errorf("attempt pitch: %w", err)
	}

	rhythmDiff, err := meanAbsDiff(ref.Onset, attempt.Onset)
	if err != nil {
		return Breakdown{}, fmt.Errorf("onset envelope: %w", err)
	}
	energyDiff, err := meanAbsDiff(ref.Energy, attempt.Energy)
	if err != nil {
		return Breakdown{}, fmt.Errorf("energy envelope: %w", err)
	}

	b := Breakdown{
		PitchDiff:  math.Abs(refPitch - attemptPitch),
		RhythmDiff: rhythmDiff,
		EnergyDiff: energyDiff,
	}
	b.PitchScore = math.Max(0, 100-b.PitchDiff/c.PitchScale)
	b.RhythmScore = math.Max(0, 100-b.RhythmDiff*c.RhythmScale)
	b.EnergyScore = math.Max(0, 100-b.EnergyDiff*c.EnergyScale)
	b.Penalized = c.penalized(b)
	b.Final = c.Combine(b)
	return b, nil
}

// Combine weights the sub-scores of b and applies the penalty when any
// distance exceeds its threshold. The result is not rounded.
func (c Config) Combine(b Breakdown) float64 {
	final := c.PitchWeight*b.PitchScore + c.RhythmWeight*b.RhythmScore + c.EnergyWeight*b.EnergyScore
	if c.penalized(b) {
		final *= c.PenaltyFactor
	}
	return final
}

func (c Config) penalized(b Breakdown) bool {
	t := c.PenaltyThresholds
	return b.PitchDiff > t.Pitch || b.RhythmDiff > t.Rhythm || b.EnergyDiff > t.Energy
}

func meanAbsDiff(a, b []float64) (float64, error) {
	n := min(len(a), len(b))
	if n == 0 {
		return 0, audio.ErrEmptyClip
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(a[i] - b[i])
	}
	return sum / float64(n), nil
}
