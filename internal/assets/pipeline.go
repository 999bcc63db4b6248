package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aykutaksit/marine-animals/internal/animals"
	"github.com/aykutaksit/marine-animals/internal/config"
	"github.com/aykutaksit/marine-animals/internal/logger"
	"github.com/aykutaksit/marine-animals/pkg/utils"
)

var (
	// ErrTagging is returned alongside a written clip whose tags could not be set.
	ErrTagging = errors.New("failed to tag reference clip")

	errNoAudio = errors.New("no usable audio found")
)

// Hooks let callers observe a run. All fields are optional.
type Hooks struct {
	OnStart   func(total int)
	OnItem    func(name string, err error)
	OnWarning func(msg string)
}

// Stats summarizes a run.
type Stats struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Pipeline downloads and normalizes reference clips for configured sources.
type Pipeline struct {
	Config       config.AssetsConfig
	ProcessedDir string
	Catalog      *animals.Catalog
	Logger       *logger.Logger
	Client       *Client
	Hooks        Hooks

	mu   sync.Mutex
	used map[string]bool
}

// New creates a Pipeline from the application configuration.
func New(cfg config.Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		Config:       cfg.Assets,
		ProcessedDir: cfg.Server.ProcessedDir,
		Catalog:      animals.Default(),
		Logger:       log,
		Client:       NewClient(cfg.Assets.RequestTimeout, cfg.Assets.UserAgent),
	}
}

// Run fetches every source whose reference clip does not exist yet.
// Sources are handled concurrently, bounded by ParallelJobs.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	var pending []config.Source
	stats := Stats{Total: len(p.Config.Sources)}
	for _, src := range p.Config.Sources {
		if p.exists(src.Name) {
			p.Logger.Info("Skipping %s - sound already exists", src.Name)
			stats.Skipped++
			continue
		}
		pending = append(pending, src)
	}

	if p.Hooks.OnStart != nil {
		p.Hooks.OnStart(len(pending))
	}
	if len(pending) == 0 {
		p.Logger.Info("All %d reference sounds present", stats.Total)
		return stats, nil
	}

	tmpDir, err := utils.CreateTempDir()
	if err != nil {
		return stats, err
	}
	defer utils.Cleanup(tmpDir)

	if err := os.MkdirAll(p.ProcessedDir, 0755); err != nil {
		return stats, fmt.Errorf("failed to create processed directory: %w", err)
	}

	p.mu.Lock()
	p.used = make(map[string]bool)
	p.mu.Unlock()

	jobs := max(1, p.Config.ParallelJobs)
	p.Logger.Info("=== Fetching %d reference sounds (%d parallel) ===", len(pending), jobs)

	var wg sync.WaitGroup
	var statsMu sync.Mutex
	semaphore := make(chan struct{}, jobs)

	for i, src := range pending {
		select {
		case <-ctx.Done():
			p.Logger.Warn("Sync cancelled, waiting for active downloads to finish...")
			wg.Wait()
			return stats, fmt.Errorf("sync cancelled")
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(idx int, src config.Source) {
			defer wg.Done()
			defer func() { <-semaphore }()

			p.Logger.Debug("Processing [%d/%d]: %s", idx+1, len(pending), src.Name)
			err := p.syncSource(ctx, src, tmpDir)

			statsMu.Lock()
			if err != nil && !errors.Is(err, ErrTagging) {
				stats.Failed++
			} else {
				stats.Processed++
			}
			statsMu.Unlock()

			if err != nil {
				p.warn(fmt.Sprintf("%s: %v", src.Name, err))
			}
			if p.Hooks.OnItem != nil {
				p.Hooks.OnItem(src.Name, err)
			}

			p.pause(ctx)
		}(i, src)
	}

	wg.Wait()

	p.Logger.Info("Sync completed: %d processed, %d skipped, %d failed", stats.Processed, stats.Skipped, stats.Failed)
	if stats.Failed > 0 && stats.Failed == len(pending) {
		return stats, fmt.Errorf("all %d sources failed", len(pending))
	}
	return stats, nil
}

// Process normalizes every audio file in dir into a processed reference
// clip. The animal is taken from the file name.
func (p *Pipeline) Process(ctx context.Context, dir string) (Stats, error) {
	files, err := utils.FindAudioFiles(dir)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(files)}
	if p.Hooks.OnStart != nil {
		p.Hooks.OnStart(len(files))
	}

	for _, f := range files {
		if ctx.Err() != nil {
			return stats, fmt.Errorf("processing cancelled")
		}

		a := p.animalFor(animals.NameFromSoundFile(f))
		out, err := ProcessFile(f, p.ProcessedDir, a, p.Config.TargetDuration)
		switch {
		case err == nil || errors.Is(err, ErrTagging):
			stats.Processed++
			p.Logger.Info("Processed: %s", filepath.Base(out))
		default:
			stats.Failed++
		}
		if err != nil {
			p.warn(fmt.Sprintf("%s: %v", filepath.Base(f), err))
		}
		if p.Hooks.OnItem != nil {
			p.Hooks.OnItem(a.Name, err)
		}
	}
	return stats, nil
}

func (p *Pipeline) syncSource(ctx context.Context, src config.Source, tmpDir string) error {
	page, err := p.Client.FetchPage(ctx, src.URL)
	if err != nil {
		return err
	}

	urls := ExtractAudioURLs(src.URL, page)
	if len(urls) == 0 {
		return errNoAudio
	}

	a := p.animalFor(src.Name)
	for _, u := range urls {
		if !p.claim(u) {
			continue
		}
		p.Logger.Debug("Found audio URL for %s: %s", src.Name, u)

		tmp := filepath.Join(tmpDir, "temp_"+animals.CleanFilename(src.Name)+filepath.Ext(stripQuery(u)))
		if err := p.Client.Download(ctx, u, tmp); err != nil {
			p.Logger.Debug("Download failed %s: %v", u, err)
			p.release(u)
			continue
		}

		out, err := ProcessFile(tmp, p.ProcessedDir, a, p.Config.TargetDuration)
		if err != nil && !errors.Is(err, ErrTagging) {
			os.Remove(tmp)
			p.Logger.Debug("Could not process %s: %v", u, err)
			p.release(u)
			continue
		}
		p.Logger.Info("Converted and processed: %s", filepath.Base(out))
		p.keepOriginal(tmp, a)
		return err
	}
	return errNoAudio
}

// claim reserves an audio URL so two animals never share one clip.
func (p *Pipeline) claim(u string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.used[u] {
		return false
	}
	p.used[u] = true
	return true
}

func (p *Pipeline) release(u string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.used, u)
}

// keepOriginal moves the raw download into DownloadDir as <key><ext>.
func (p *Pipeline) keepOriginal(tmp string, a animals.Animal) {
	if p.Config.DownloadDir == "" {
		os.Remove(tmp)
		return
	}
	dst := filepath.Join(p.Config.DownloadDir, a.Key()+filepath.Ext(tmp))
	if err := utils.MoveFile(tmp, dst); err != nil {
		p.Logger.Debug("Could not keep original for %s: %v", a.Name, err)
		os.Remove(tmp)
	}
}

func (p *Pipeline) exists(name string) bool {
	_, err := os.Stat(filepath.Join(p.ProcessedDir, animals.SoundFile(name)))
	return err == nil
}

func (p *Pipeline) animalFor(name string) animals.Animal {
	if a, ok := p.Catalog.Lookup(name); ok {
		return a
	}
	return animals.Animal{Name: name}
}

func (p *Pipeline) pause(ctx context.Context) {
	if p.Config.Delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(p.Config.Delay):
	}
}

func (p *Pipeline) warn(msg string) {
	p.Logger.Warn("%s", msg)
	if p.Hooks.OnWarning != nil {
		p.Hooks.OnWarning(msg)
	}
}

func stripQuery(u string) string {
	for i, c := range u {
		if c == '?' || c == '#' {
			return u[:i]
		}
	}
	return u
}
