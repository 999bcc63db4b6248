// Package audio decodes audio sources into mono PCM clips and normalizes
// pairs of clips so they can be compared frame for frame.
package audio

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyClip is returned when a clip has no samples left to compare.
var ErrEmptyClip = errors.New("audio: clip is empty")

// DecodeError reports a byte stream that could not be parsed as audio.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("audio: cannot decode %s stream: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Clip is mono PCM audio with samples in [-1, 1].
// Clips are treated as immutable: every operation returns a new Clip.
type Clip struct {
	Samples    []float64
	SampleRate int
}

// Len returns the number of samples.
func (c Clip) Len() int { return len(c.Samples) }

// Duration returns len(samples)/rate.
func (c Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Truncate returns the first n samples. The result cannot grow into the
// original backing array.
func (c Clip) Truncate(n int) Clip {
	if n >= len(c.Samples) {
		return c
	}
	if n < 0 {
		n = 0
	}
	return Clip{Samples: c.Samples[:n:n], SampleRate: c.SampleRate}
}

// SamplesIn returns how many samples cover d at the clip's rate.
func (c Clip) SamplesIn(d time.Duration) int {
	return int(int64(c.SampleRate) * int64(d) / int64(time.Second))
}
