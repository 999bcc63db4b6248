package features

import (
	"fmt"

	"github.com/aykutaksit/marine-animals/internal/audio"
)

// Set bundles the three feature sequences of one clip. All sequences have
// the same number of frames.
type Set struct {
	Pitch  PitchTrack
	Onset  OnsetEnvelope
	Energy EnergyEnvelope
}

// Frames returns the shared frame count.
func (s Set) Frames() int { return s.Pitch.Len() }

// Extract runs every extractor over one spectrogram of c.
func Extract(c audio.Clip, cfg Config) (Set, error) {
	if err := checkInput(c, cfg); err != nil {
		return Set{}, err
	}

	sg := computeSpectrogram(c, cfg)
	energy, err := ExtractEnergy(c, cfg)
	if err != nil {
		return Set{}, err
	}

	return Set{
		Pitch:  pitchFromSpectrogram(sg, cfg),
		Onset:  onsetFromSpectrogram(sg, c.SampleRate, cfg),
		Energy: energy,
	}, nil
}

func checkInput(c audio.Clip, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid feature config: %w", err)
	}
	if c.Len() == 0 {
		return audio.ErrEmptyClip
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}
	return nil
}
