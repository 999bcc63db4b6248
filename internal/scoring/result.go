package scoring

import (
	"errors"
	"math"

	"github.com/aykutaksit/marine-animals/internal/audio"
	"github.com/aykutaksit/marine-animals/internal/features"
)

// ErrReferenceNotFound reports that a reference identifier has no backing clip.
var ErrReferenceNotFound = errors.New("reference not found")

// Failure tags why a Result is a fallback.
type Failure int

const (
	FailureNone Failure = iota
	FailureDecode
	FailureAlignment
	FailureUndefinedFeature
	FailureReferenceNotFound
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureDecode:
		return "decode"
	case FailureAlignment:
		return "alignment"
	case FailureUndefinedFeature:
		return "undefined_feature"
	case FailureReferenceNotFound:
		return "reference_not_found"
	default:
		return "unknown"
	}
}

// failureOf maps an error from the loading or analysis steps to its tag.
func failureOf(err error) Failure {
	var decodeErr *audio.DecodeError
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrReferenceNotFound):
		return FailureReferenceNotFound
	case errors.As(err, &decodeErr):
		return FailureDecode
	case errors.Is(err, audio.ErrEmptyClip):
		return FailureAlignment
	case errors.Is(err, features.ErrUndefinedPitch):
		return FailureUndefinedFeature
	default:
		return FailureDecode
	}
}

// Breakdown carries the intermediate values of one comparison.
type Breakdown struct {
	PitchDiff  float64 `json:"pitch_diff"`
	RhythmDiff float64 `json:"rhythm_diff"`
	EnergyDiff float64 `json:"energy_diff"`

	PitchScore  float64 `json:"pitch_score"`
	RhythmScore float64 `json:"rhythm_score"`
	EnergyScore float64 `json:"energy_score"`

	Penalized bool    `json:"penalized"`
	Final     float64 `json:"final"`
}

// Result is what the game shows the player. Score is always finite and
// rounded to one decimal.
type Result struct {
	Score     float64    `json:"score"`
	Feedback  string     `json:"feedback"`
	Failure   Failure    `json:"-"`
	Breakdown *Breakdown `json:"-"`
}

// OK reports whether the result came from a successful comparison.
func (r Result) OK() bool { return r.Failure == FailureNone }

// round1 rounds half away from zero to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
