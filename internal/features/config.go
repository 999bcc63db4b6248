// Package features extracts frame-aligned acoustic features from a clip:
// a pitch track, an onset (rhythm) envelope and an RMS energy envelope.
//
// All extractors share one framing. Frames are centered on multiples of
// HopSize with FrameSize/2 samples of zero padding on each side, so a clip
// of n samples always yields 1 + n/HopSize frames.
//
// Default parameters:
//
//	FrameSize:     2048
//	HopSize:       512
//	MinFrequency:  150 Hz
//	MaxFrequency:  4000 Hz
//	PeakThreshold: 0.1 (relative to the loudest bin of the frame)
//	NumMels:       128
//	TopDB:         80
package features

import "fmt"

// Config controls framing and extractor parameters.
type Config struct {
	FrameSize     int     `yaml:"frame_size"`     // analysis window length in samples
	HopSize       int     `yaml:"hop_size"`       // distance between frame centers
	MinFrequency  float64 `yaml:"min_frequency"`  // lowest pitch candidate in Hz
	MaxFrequency  float64 `yaml:"max_frequency"`  // highest pitch candidate in Hz
	PeakThreshold float64 `yaml:"peak_threshold"` // pitch peaks below this fraction of the frame max are ignored
	NumMels       int     `yaml:"num_mels"`       // mel bands for the onset envelope
	TopDB         float64 `yaml:"top_db"`         // dynamic range floor for the onset spectrogram
}

// DefaultConfig returns the standard analysis configuration.
func DefaultConfig() Config {
	return Config{
		FrameSize:     2048,
		HopSize:       512,
		MinFrequency:  150,
		MaxFrequency:  4000,
		PeakThreshold: 0.1,
		NumMels:       128,
		TopDB:         80,
	}
}

// Validate checks that the configuration describes a usable framing.
func (c Config) Validate() error {
	if c.FrameSize < 4 {
		return fmt.Errorf("frame_size must be at least 4, got %d", c.FrameSize)
	}
	if c.HopSize < 1 || c.HopSize > c.FrameSize {
		return fmt.Errorf("hop_size must be between 1 and frame_size (%d), got %d", c.FrameSize, c.HopSize)
	}
	if c.MinFrequency <= 0 || c.MaxFrequency <= c.MinFrequency {
		return fmt.Errorf("pitch range must satisfy 0 < min_frequency < max_frequency, got %.1f-%.1f", c.MinFrequency, c.MaxFrequency)
	}
	if c.PeakThreshold < 0 || c.PeakThreshold >= 1 {
		return fmt.Errorf("peak_threshold must be in [0, 1), got %.2f", c.PeakThreshold)
	}
	if c.NumMels < 1 {
		return fmt.Errorf("num_mels must be positive, got %d", c.NumMels)
	}
	if c.TopDB <= 0 {
		return fmt.Errorf("top_db must be positive, got %.1f", c.TopDB)
	}
	return nil
}

// NumFrames returns how many frames a clip of n samples produces.
func (c Config) NumFrames(n int) int {
	if n <= 0 {
		return 0
	}
	return 1 + n/c.HopSize
}
