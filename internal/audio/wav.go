package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// WriteWAV encodes c as 16-bit mono PCM.
func WriteWAV(w io.WriteSeeker, c Clip) error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.SampleRate)
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(c.SampleRate),
		NumChannels: 1,
		Precision:   2,
	}

	pos := 0
	streamer := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(c.Samples) {
			return 0, false
		}
		n := 0
		for n < len(samples) && pos < len(c.Samples) {
			v := clamp(c.Samples[pos])
			samples[n][0] = v
			samples[n][1] = v
			n++
			pos++
		}
		return n, true
	})

	if err := wav.Encode(w, streamer, format); err != nil {
		return fmt.Errorf("failed to encode wav: %w", err)
	}
	return nil
}

// WriteWAVFile writes c to path through a temporary file in the same
// directory, so readers of path never see a partial clip.
func WriteWAVFile(path string, c Clip) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	f, err := os.CreateTemp(dir, ".partial-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create temporary file for %s: %w", path, err)
	}
	defer os.Remove(f.Name())

	if err := WriteWAV(f, c); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(f.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}

	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
