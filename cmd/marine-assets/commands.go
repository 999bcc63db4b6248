package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aykutaksit/marine-animals/internal/assets"
	"github.com/aykutaksit/marine-animals/internal/audio"
	"github.com/aykutaksit/marine-animals/internal/config"
	"github.com/aykutaksit/marine-animals/internal/progress"
	"github.com/aykutaksit/marine-animals/internal/scoring"
)

var parallel int

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch missing reference sounds",
	Long: `Fetch missing reference sounds.

Every configured source page is scanned for audio links. The first clip
not already used by another animal is downloaded, normalized to the
target duration and tagged. Animals whose processed file exists are
skipped.

Examples:
  marine-assets sync
  marine-assets sync -p 8 -v`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if parallel > 0 {
			cfg.Assets.ParallelJobs = parallel
		}

		p := assets.New(cfg, log)
		finish := attachProgress(p, "Syncing")
		stats, err := p.Run(sh.Context())
		finish()

		if err != nil {
			return err
		}
		log.Info("=== Sync completed: %d processed, %d skipped, %d failed ===", stats.Processed, stats.Skipped, stats.Failed)
		return nil
	},
}

var processCmd = &cobra.Command{
	Use:   "process <dir>",
	Short: "Normalize downloaded audio files into reference sounds",
	Long: `Normalize downloaded audio files into reference sounds.

Each audio file in <dir> is named after its animal. Files are looped or
trimmed to the target duration and written to the processed directory.

Examples:
  marine-assets process static/sounds`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := assets.New(cfg, log)
		finish := attachProgress(p, "Processing")
		stats, err := p.Process(sh.Context(), args[0])
		finish()

		if err != nil {
			return err
		}
		log.Info("=== Processed %d of %d files (%d failed) ===", stats.Processed, stats.Total, stats.Failed)
		return nil
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup <dir>",
	Short: "Remove unprocessed audio files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := assets.CleanupDir(args[0])
		for _, f := range removed {
			log.Info("Removed: %s", filepath.Base(f))
		}
		if err != nil {
			return err
		}
		log.Info("=== Removed %d files ===", len(removed))
		return nil
	},
}

// scoreOutput adds the failure kind and breakdown to the public result.
type scoreOutput struct {
	scoring.Result
	Failure   string             `json:"failure,omitempty"`
	Breakdown *scoring.Breakdown `json:"breakdown,omitempty"`
}

var scoreCmd = &cobra.Command{
	Use:   "score <reference> <attempt>",
	Short: "Score an attempt against a reference clip",
	Long: `Score an attempt against a reference clip.

Prints the result as JSON, including the per-feature breakdown.

Examples:
  marine-assets score static/sounds/processed/processed_orca.wav my_orca.wav`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		scorer := scoring.New(cfg.Scoring.Config, cfg.Features, log)

		var res scoring.Result
		ref, err := audio.LoadFile(args[0])
		if errors.Is(err, fs.ErrNotExist) {
			err = fmt.Errorf("%s: %w", args[0], scoring.ErrReferenceNotFound)
		}
		if err != nil {
			res = scorer.Fallback(args[0], err)
		} else if f, err := os.Open(args[1]); err != nil {
			res = scorer.Fallback(args[1], err)
		} else {
			res = scorer.ScoreBytes(scoring.Reference{ID: args[0], Clip: ref}, f)
			f.Close()
		}

		out := scoreOutput{Result: res, Breakdown: res.Breakdown}
		if !res.OK() {
			out.Failure = res.Failure.String()
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Create a default config file",
	Args:  cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.GetDefaultConfigPath()
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Config file already exists at: %s\n", path)
			fmt.Fprintln(cmd.OutOrStdout(), "Delete it first if you want to recreate it.")
			return nil
		}

		if err := config.SaveConfigFile(config.DefaultConfig(), path); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created default config file at: %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "Edit it to change directories, scoring weights, feedback tiers or sources.")
		return nil
	},
}

func init() {
	syncCmd.Flags().IntVarP(&parallel, "parallel", "p", 0, "number of parallel downloads (overrides assets.parallel_jobs)")
}

// attachProgress wires a terminal progress bar to the pipeline hooks unless
// verbose output is on. The returned func closes the bar.
func attachProgress(p *assets.Pipeline, label string) func() {
	var bar *progress.Bar
	p.Hooks = assets.Hooks{
		OnStart: func(total int) {
			if !cfg.Verbose && total > 0 {
				bar = progress.New(total, label)
				log.SetProgressBar(true)
			}
		},
		OnItem: func(name string, err error) {
			if bar != nil {
				bar.Increment(err == nil || errors.Is(err, assets.ErrTagging))
			}
		},
	}

	return func() {
		if bar != nil {
			bar.Finish()
			log.SetProgressBar(false)
		}
	}
}
