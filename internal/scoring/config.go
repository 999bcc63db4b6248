package scoring

import (
	"fmt"
	"sort"
)

// Tier maps a minimum score to a feedback message.
type Tier struct {
	Min      float64 `yaml:"min"`
	Feedback string  `yaml:"feedback"`
}

// Thresholds are the per-feature distances above which the penalty applies.
type Thresholds struct {
	Pitch  float64 `yaml:"pitch"`
	Rhythm float64 `yaml:"rhythm"`
	Energy float64 `yaml:"energy"`
}

// Config holds every coefficient of the scoring formula. The defaults are
// empirically tuned calibration values, not physical constants.
type Config struct {
	PitchWeight  float64 `yaml:"pitch_weight"`
	RhythmWeight float64 `yaml:"rhythm_weight"`
	EnergyWeight float64 `yaml:"energy_weight"`

	PitchScale  float64 `yaml:"pitch_scale"`  // pitch_score = 100 - pitch_diff/PitchScale
	RhythmScale float64 `yaml:"rhythm_scale"` // rhythm_score = 100 - rhythm_diff*RhythmScale
	EnergyScale float64 `yaml:"energy_scale"` // energy_score = 100 - energy_diff*EnergyScale

	PenaltyFactor     float64    `yaml:"penalty_factor"`
	PenaltyThresholds Thresholds `yaml:"penalty_thresholds"`

	Tiers []Tier `yaml:"tiers"`

	FallbackFeedback         string `yaml:"fallback_feedback"`
	MissingReferenceFeedback string `yaml:"missing_reference_feedback"`
}

// DefaultConfig returns the standard scoring table.
func DefaultConfig() Config {
	return Config{
		PitchWeight:   0.5,
		RhythmWeight:  0.3,
		EnergyWeight:  0.2,
		PitchScale:    10,
		RhythmScale:   20,
		EnergyScale:   30,
		PenaltyFactor: 0.8,
		PenaltyThresholds: Thresholds{
			Pitch:  20,
			Rhythm: 0.5,
			Energy: 0.3,
		},
		Tiers: []Tier{
			{Min: 90, Feedback: "Perfect! You're a marine animal sound expert! 🌟"},
			{Min: 75, Feedback: "Very good! You're getting really close! 🎯"},
			{Min: 50, Feedback: "Not bad! Keep practicing to match the sound better! 🎵"},
			{Min: 0, Feedback: "Keep trying! Focus on matching the pitch and rhythm! 💪"},
		},
		FallbackFeedback:         "Let's try again! Make sure to record a clear sound impression. 🎤",
		MissingReferenceFeedback: "Oops! Couldn't find the original sound. Please try another animal! 🐋",
	}
}

// Validate checks the configuration for values the formula cannot use.
func (c Config) Validate() error {
	for name, w := range map[string]float64{
		"pitch_weight":  c.PitchWeight,
		"rhythm_weight": c.RhythmWeight,
		"energy_weight": c.EnergyWeight,
	} {
		if w < 0 {
			return fmt.Errorf("%s cannot be negative, got %.2f", name, w)
		}
	}
	if c.PitchScale <= 0 {
		return fmt.Errorf("pitch_scale must be positive, got %.2f", c.PitchScale)
	}
	if c.RhythmScale < 0 || c.EnergyScale < 0 {
		return fmt.Errorf("rhythm_scale and energy_scale cannot be negative")
	}
	if c.PenaltyFactor < 0 || c.PenaltyFactor > 1 {
		return fmt.Errorf("penalty_factor must be between 0.0 and 1.0, got %.2f", c.PenaltyFactor)
	}
	if len(c.Tiers) == 0 {
		return fmt.Errorf("at least one feedback tier is required")
	}
	for _, t := range c.Tiers {
		if t.Feedback == "" {
			return fmt.Errorf("tier with min %.1f has empty feedback", t.Min)
		}
	}
	if c.FallbackFeedback == "" {
		return fmt.Errorf("fallback_feedback cannot be empty")
	}
	return nil
}

// Feedback returns the message of the highest tier whose minimum is met.
// Scores below every tier get the lowest tier's message.
func (c Config) Feedback(score float64) string {
	tiers := c.sortedTiers()
	if len(tiers) == 0 {
		return c.FallbackFeedback
	}
	for _, t := range tiers {
		if score >= t.Min {
			return t.Feedback
		}
	}
	return tiers[len(tiers)-1].Feedback
}

func (c Config) sortedTiers() []Tier {
	tiers := make([]Tier, len(c.Tiers))
	copy(tiers, c.Tiers)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Min > tiers[j].Min })
	return tiers
}
