// Package scoring compares a player's recording with a reference clip and
// turns the distance between their features into a 0-100 score with a
// feedback message.
//
// The scorer is total: every failure while loading or analyzing audio
// becomes a fallback Result with score 0.
package scoring

import (
	"fmt"
	"io"
	"math"

	"github.com/aykutaksit/marine-animals/internal/audio"
	"github.com/aykutaksit/marine-animals/internal/features"
	"github.com/aykutaksit/marine-animals/internal/logger"
)

// Reference is the clip an attempt is judged against. Features, when set,
// were extracted from the whole of Clip.
type Reference struct {
	ID       string
	Clip     audio.Clip
	Features *features.Set
}

// NewReference builds a Reference with its features precomputed.
func NewReference(id string, clip audio.Clip, cfg features.Config) (Reference, error) {
	set, err := features.Extract(clip, cfg)
	if err != nil {
		return Reference{}, fmt.Errorf("failed to analyze reference %q: %w", id, err)
	}
	return Reference{ID: id, Clip: clip, Features: &set}, nil
}

// Scorer scores attempts with a fixed configuration.
type Scorer struct {
	Config   Config
	Features features.Config
	Logger   *logger.Logger
}

// New creates a Scorer.
func New(cfg Config, featCfg features.Config, log *logger.Logger) *Scorer {
	return &Scorer{
		Config:   cfg,
		Features: featCfg,
		Logger:   log,
	}
}

// Score compares two clips.
func (s *Scorer) Score(ref, attempt audio.Clip) Result {
	return s.ScoreReference(Reference{Clip: ref}, attempt)
}

// ScoreBytes decodes the attempt from r and scores it against ref.
func (s *Scorer) ScoreBytes(ref Reference, r io.Reader) Result {
	attempt, err := audio.Load(r)
	if err != nil {
		return s.Fallback(ref.ID, err)
	}
	return s.ScoreReference(ref, attempt)
}

// ScoreReference aligns the attempt with ref, extracts features from both
// and combines the distances into a Result.
func (s *Scorer) ScoreReference(ref Reference, attempt audio.Clip) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("Scoring %q panicked: %v", ref.ID, r)
			res = s.fallbackResult(FailureDecode)
		}
	}()

	b, err := s.analyze(ref, attempt)
	if err != nil {
		return s.Fallback(ref.ID, err)
	}

	if math.IsNaN(b.Final) || math.IsInf(b.Final, 0) {
		s.Logger.Warn("Scoring %q produced a non-finite score", ref.ID)
		return s.fallbackResult(FailureUndefinedFeature)
	}

	s.Logger.Debug("Scored %q: pitch=%.1f (diff %.2f) rhythm=%.1f (diff %.3f) energy=%.1f (diff %.3f) penalized=%v final=%.2f",
		ref.ID, b.PitchScore, b.PitchDiff, b.RhythmScore, b.RhythmDiff, b.EnergyScore, b.EnergyDiff, b.Penalized, b.Final)

	return Result{
		Score:     round1(b.Final),
		Feedback:  s.Config.Feedback(b.Final),
		Breakdown: &b,
	}
}

// Fallback converts err into the apology result for its failure kind.
func (s *Scorer) Fallback(id string, err error) Result {
	f := failureOf(err)
	if f == FailureNone {
		f = FailureDecode
	}
	s.Logger.Warn("Could not score %q (%s): %v", id, f, err)
	return s.fallbackResult(f)
}

func (s *Scorer) fallbackResult(f Failure) Result {
	msg := s.Config.FallbackFeedback
	if f == FailureReferenceNotFound && s.Config.MissingReferenceFeedback != "" {
		msg = s.Config.MissingReferenceFeedback
	}
	return Result{Score: 0, Feedback: msg, Failure: f}
}

func (s *Scorer) analyze(ref Reference, attempt audio.Clip) (Breakdown, error) {
	alignedRef, alignedAttempt, err := audio.Align(ref.Clip, attempt)
	if err != nil {
		return Breakdown{}, fmt.Errorf("failed to align clips: %w", err)
	}

	var refSet features.Set
	if ref.Features != nil && sameClip(alignedRef, ref.Clip) {
		refSet = *ref.Features
	} else {
		refSet, err = features.Extract(alignedRef, s.Features)
		if err != nil {
			return Breakdown{}, fmt.Errorf("failed to analyze reference: %w", err)
		}
	}

	attemptSet, err := features.Extract(alignedAttempt, s.Features)
	if err != nil {
		return Breakdown{}, fmt.Errorf("failed to analyze attempt: %w", err)
	}

	return s.Config.Compare(refSet, attemptSet)
}

// sameClip reports whether alignment left the reference untouched.
func sameClip(aligned, orig audio.Clip) bool {
	return aligned.SampleRate == orig.SampleRate && aligned.Len() == orig.Len()
}
