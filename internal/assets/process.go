package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aykutaksit/marine-animals/internal/animals"
	"github.com/aykutaksit/marine-animals/internal/audio"
	"github.com/aykutaksit/marine-animals/pkg/utils"
)

// ProcessFile decodes src, loops or trims it to exactly d and writes the
// tagged reference WAV for a into dstDir. It returns the written path.
func ProcessFile(src, dstDir string, a animals.Animal, d time.Duration) (string, error) {
	clip, err := audio.LoadFile(src)
	if err != nil {
		return "", err
	}

	fitted, err := audio.Fit(clip, d)
	if err != nil {
		return "", fmt.Errorf("failed to fit %s to %s: %w", filepath.Base(src), d, err)
	}

	// Encode and tag under a hidden name, then move the finished clip over dst.
	dst := filepath.Join(dstDir, animals.SoundFile(a.Name))
	tmp := filepath.Join(dstDir, ".partial-"+animals.SoundFile(a.Name))
	if err := audio.WriteWAVFile(tmp, fitted); err != nil {
		return "", err
	}
	defer os.Remove(tmp)

	tagErr := animals.WriteTags(tmp, a)
	if err := os.Rename(tmp, dst); err != nil {
		return "", fmt.Errorf("failed to move %s into place: %w", filepath.Base(dst), err)
	}
	if tagErr != nil {
		// The clip is usable without tags.
		return dst, fmt.Errorf("%w: %v", ErrTagging, tagErr)
	}
	return dst, nil
}

// CleanupDir removes downloaded audio from dir, keeping processed
// reference clips. It returns the removed paths.
func CleanupDir(dir string) ([]string, error) {
	files, err := utils.FindAudioFiles(dir)
	if err != nil {
		return nil, err
	}

	var removed []string
	var firstErr error
	for _, f := range files {
		if animals.IsProcessedSound(f) {
			continue
		}
		if err := os.Remove(f); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to remove %s: %w", f, err)
			}
			continue
		}
		removed = append(removed, f)
	}
	return removed, firstErr
}
