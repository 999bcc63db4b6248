// Command marine-assets prepares the reference sounds used by the game and
// scores recordings offline.
//
// Usage:
//
//	marine-assets [flags] <command> [args]
//
// Commands:
//
//	sync         - fetch and normalize missing reference sounds
//	process      - normalize already downloaded audio files
//	cleanup      - remove unprocessed audio from a directory
//	score        - compare an attempt with a reference clip
//	init-config  - write a default config file
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aykutaksit/marine-animals/internal/config"
	"github.com/aykutaksit/marine-animals/internal/logger"
	"github.com/aykutaksit/marine-animals/internal/shutdown"
)

var (
	configPath string
	verbose    bool

	cfg config.Config
	log *logger.Logger
	sh  *shutdown.Handler
)

var rootCmd = &cobra.Command{
	Use:   "marine-assets",
	Short: "Manage reference sounds for the marine animal imitation game",
	Long: `Manage reference sounds for the marine animal imitation game.

Reference clips are downloaded from the configured sound library pages,
looped or trimmed to a fixed length and stored as processed_<animal>.wav.

Config file locations (checked in order):
  ./marine-animals.yaml
  ~/.config/marine-animals/config.yaml
  ~/.marine-animals.yaml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfigFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if verbose {
			cfg.Verbose = true
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		log = logger.New(cfg.Verbose)
		if !cfg.Verbose {
			setupFileLog()
		}
		if configPath == "" {
			configPath = config.FindConfigFile()
		}
		if configPath != "" {
			log.Debug("Loaded configuration from: %s", configPath)
		}

		sh = shutdown.New()
		sh.Listen()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if sh != nil {
			sh.Shutdown()
			sh.Wait()
		}
		if log != nil {
			log.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show detailed output instead of a progress bar")

	rootCmd.AddCommand(syncCmd, processCmd, cleanupCmd, scoreCmd, initConfigCmd)
}

func setupFileLog() {
	path := cfg.LogFile
	if path == "" {
		logDir := config.GetDefaultLogPath()
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to create log directory: %v\n", err)
			return
		}
		path = filepath.Join(logDir, fmt.Sprintf("marine-assets_%s.log", time.Now().Format("2006-01-02_15-04-05")))
	}
	if err := log.SetFileLog(path); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] Failed to setup file logging: %v\n", err)
		return
	}
	log.Debug("Logging to file: %s", path)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if log != nil {
			log.Close()
		}
		os.Exit(1)
	}
}
