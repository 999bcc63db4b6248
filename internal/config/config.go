package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aykutaksit/marine-animals/internal/features"
	"github.com/aykutaksit/marine-animals/internal/scoring"
)

const appName = "marine-animals"

// Config contains the program configuration
type Config struct {
	Verbose  bool            `yaml:"verbose"`
	LogFile  string          `yaml:"log_file"`
	Server   ServerConfig    `yaml:"server"`
	Scoring  ScoringConfig   `yaml:"scoring"`
	Features features.Config `yaml:"features"`
	Assets   AssetsConfig    `yaml:"assets"`
}

// ServerConfig configures the web game.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	StaticDir      string        `yaml:"static_dir"`
	SoundsDir      string        `yaml:"sounds_dir"`
	ProcessedDir   string        `yaml:"processed_dir"`
	ImagesDir      string        `yaml:"images_dir"`
	RecordingsDir  string        `yaml:"recordings_dir"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// ScoringConfig holds the scoring coefficients plus the concurrency limit
// for analyses running at once.
type ScoringConfig struct {
	scoring.Config `yaml:",inline"`
	MaxConcurrent  int `yaml:"max_concurrent"`
}

// Source is one sound library page to fetch a reference clip from.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// AssetsConfig configures the offline asset pipeline.
type AssetsConfig struct {
	Sources        []Source      `yaml:"sources"`
	DownloadDir    string        `yaml:"download_dir"`
	TargetDuration time.Duration `yaml:"target_duration"`
	ParallelJobs   int           `yaml:"parallel_jobs"`
	UserAgent      string        `yaml:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Delay          time.Duration `yaml:"delay"`
}

// DefaultSources lists the sound library pages of the built-in animals.
func DefaultSources() []Source {
	const base = "https://ocr.org/sound-library/"
	pages := []struct{ slug, name string }{
		{"right-whale", "Right Whale"},
		{"orca", "Orca"},
		{"cuviers-beaked-whale", "Cuvier's Beaked Whale"},
		{"leopard-seal", "Leopard Seal"},
		{"manatee", "Manatee"},
		{"dolphin", "Dolphin"},
		{"humpback-whale", "Humpback Whale"},
		{"gray-whale", "Gray Whale"},
		{"bowhead-whale", "Bowhead Whale"},
		{"weddell-seal", "Weddell Seal"},
		{"sperm-whale", "Sperm Whale"},
		{"minke-whale", "Minke Whale"},
		{"ringed-seal", "Ringed Seal"},
		{"belugas", "Beluga"},
		{"rissos-dolphin", "Risso's Dolphin"},
		{"harbor-seal", "Harbor Seal"},
		{"pilot-whale", "Pilot Whale"},
		{"walrus", "Walrus"},
	}

	sources := make([]Source, len(pages))
	for i, p := range pages {
		sources[i] = Source{Name: p.name, URL: base + p.slug + "/"}
	}
	return sources
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:           "0.0.0.0:10000",
			StaticDir:      "static",
			SoundsDir:      filepath.Join("static", "sounds"),
			ProcessedDir:   filepath.Join("static", "sounds", "processed"),
			ImagesDir:      filepath.Join("static", "images"),
			RecordingsDir:  "recordings",
			RequestTimeout: 120 * time.Second,
			SessionTTL:     24 * time.Hour,
			MaxUploadBytes: 32 << 20,
		},
		Scoring: ScoringConfig{
			Config:        scoring.DefaultConfig(),
			MaxConcurrent: 8,
		},
		Features: features.DefaultConfig(),
		Assets: AssetsConfig{
			Sources:        DefaultSources(),
			DownloadDir:    filepath.Join("static", "sounds"),
			TargetDuration: 5 * time.Second,
			ParallelJobs:   4,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout: 30 * time.Second,
			Delay:          2 * time.Second,
		},
	}
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.expandPaths()
	return cfg, nil
}

func (c *Config) expandPaths() {
	c.LogFile = ExpandHome(c.LogFile)
	c.Server.StaticDir = ExpandHome(c.Server.StaticDir)
	c.Server.SoundsDir = ExpandHome(c.Server.SoundsDir)
	c.Server.ProcessedDir = ExpandHome(c.Server.ProcessedDir)
	c.Server.ImagesDir = ExpandHome(c.Server.ImagesDir)
	c.Server.RecordingsDir = ExpandHome(c.Server.RecordingsDir)
	c.Assets.DownloadDir = ExpandHome(c.Assets.DownloadDir)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./" + appName + ".yaml",
		"./" + appName + ".yml",
		filepath.Join(home, ".config", appName, "config.yaml"),
		filepath.Join(home, ".config", appName, "config.yml"),
		filepath.Join(home, "."+appName+".yaml"),
		filepath.Join(home, "."+appName+".yml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", appName, "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", appName, "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Server.validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if c.Scoring.MaxConcurrent < 1 {
		return fmt.Errorf("scoring: max_concurrent must be at least 1, got %d", c.Scoring.MaxConcurrent)
	}
	if err := c.Features.Validate(); err != nil {
		return fmt.Errorf("features: %w", err)
	}
	if err := c.Assets.validate(); err != nil {
		return fmt.Errorf("assets: %w", err)
	}
	return nil
}

func (s *ServerConfig) validate() error {
	if s.Addr == "" {
		return fmt.Errorf("addr cannot be empty")
	}
	dirs := map[string]string{
		"static_dir":     s.StaticDir,
		"processed_dir":  s.ProcessedDir,
		"recordings_dir": s.RecordingsDir,
	}
	for name, dir := range dirs {
		if dir == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", s.RequestTimeout)
	}
	if s.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive, got %s", s.SessionTTL)
	}
	if s.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", s.MaxUploadBytes)
	}
	return nil
}

func (a *AssetsConfig) validate() error {
	if a.ParallelJobs < 1 {
		return fmt.Errorf("parallel jobs must be at least 1, got %d", a.ParallelJobs)
	}
	if a.ParallelJobs > 10 {
		return fmt.Errorf("parallel jobs cannot exceed 10 (to avoid rate limiting), got %d", a.ParallelJobs)
	}
	if a.TargetDuration <= 0 {
		return fmt.Errorf("target_duration must be positive, got %s", a.TargetDuration)
	}
	if a.DownloadDir == "" {
		return fmt.Errorf("download_dir cannot be empty")
	}
	if a.RequestTimeout < 0 || a.Delay < 0 {
		return fmt.Errorf("request_timeout and delay cannot be negative")
	}

	seen := make(map[string]bool)
	for _, src := range a.Sources {
		if src.Name == "" {
			return fmt.Errorf("source %q has no name", src.URL)
		}
		u, err := url.Parse(src.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("source %q: URL must start with http:// or https://", src.Name)
		}
		if seen[src.Name] {
			return fmt.Errorf("duplicate source %q", src.Name)
		}
		seen[src.Name] = true
	}
	return nil
}
