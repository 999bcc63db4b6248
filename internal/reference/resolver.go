// Package reference resolves an animal identifier to its processed
// reference clip and keeps decoded references in memory.
package reference

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aykutaksit/marine-animals/internal/animals"
	"github.com/aykutaksit/marine-animals/internal/audio"
	"github.com/aykutaksit/marine-animals/internal/features"
	"github.com/aykutaksit/marine-animals/internal/logger"
	"github.com/aykutaksit/marine-animals/internal/scoring"
)

// ErrReferenceNotFound is returned when an identifier has no processed clip.
var ErrReferenceNotFound = scoring.ErrReferenceNotFound

// Location is where a reference clip lives on disk.
type Location struct {
	ID   string
	Path string
}

// Resolver maps identifiers to processed reference WAVs under Dir.
type Resolver struct {
	Dir      string
	Features features.Config
	Logger   *logger.Logger

	cache *scoring.Cache
}

// NewResolver creates a resolver whose loads go through a scoring.Cache.
func NewResolver(dir string, featCfg features.Config, log *logger.Logger) *Resolver {
	r := &Resolver{
		Dir:      dir,
		Features: featCfg,
		Logger:   log,
	}
	r.cache = scoring.NewCache(r.loadFromDisk)
	return r
}

// Resolve returns the location of the reference clip for id, which may be
// a display name or an already normalized key.
func (r *Resolver) Resolve(id string) (Location, error) {
	key := animals.CleanFilename(id)
	if key == "" {
		return Location{}, fmt.Errorf("empty reference id %q: %w", id, ErrReferenceNotFound)
	}

	path := filepath.Join(r.Dir, animals.SoundFile(key))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Location{}, fmt.Errorf("%s: %w", path, ErrReferenceNotFound)
	}
	return Location{ID: key, Path: path}, nil
}

// Load returns the decoded reference with precomputed features.
func (r *Resolver) Load(ctx context.Context, id string) (scoring.Reference, error) {
	return r.cache.Get(ctx, animals.CleanFilename(id))
}

// Forget drops a cached reference, e.g. after the asset pipeline rewrote it.
func (r *Resolver) Forget(id string) {
	r.cache.Invalidate(animals.CleanFilename(id))
}

func (r *Resolver) loadFromDisk(key string) (scoring.Reference, error) {
	loc, err := r.Resolve(key)
	if err != nil {
		return scoring.Reference{}, err
	}

	clip, err := audio.LoadFile(loc.Path)
	if err != nil {
		return scoring.Reference{}, err
	}

	ref, err := scoring.NewReference(loc.ID, clip, r.Features)
	if err != nil {
		return scoring.Reference{}, err
	}
	r.Logger.Debug("Loaded reference %s (%.2fs at %d Hz)", loc.ID, clip.Duration().Seconds(), clip.SampleRate)
	return ref, nil
}
