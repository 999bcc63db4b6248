package features

import (
	"math"

	"github.com/aykutaksit/marine-animals/internal/audio"
)

// EnergyEnvelope is the per-frame root-mean-square amplitude.
type EnergyEnvelope []float64

// ExtractEnergy computes RMS over the same centered frames as the
// spectral extractors.
func ExtractEnergy(c audio.Clip, cfg Config) (EnergyEnvelope, error) {
	if err := checkInput(c, cfg); err != nil {
		return nil, err
	}

	numFrames := cfg.NumFrames(c.Len())
	frame := make([]float64, cfg.FrameSize)
	env := make(EnergyEnvelope, numFrames)
	for t := range env {
		frameAt(c.Samples, t, cfg, frame)
		var sum float64
		for _, v := range frame {
			sum += v * v
		}
		env[t] = math.Sqrt(sum / float64(cfg.FrameSize))
	}
	return env, nil
}
