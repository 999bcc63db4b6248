package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/aykutaksit/marine-animals/internal/config"
	"github.com/aykutaksit/marine-animals/internal/logger"
	"github.com/aykutaksit/marine-animals/internal/shutdown"
	"github.com/aykutaksit/marine-animals/internal/web"
)

func main() {
	var (
		addr       string
		configPath string
		verbose    bool
	)

	pflag.StringVarP(&addr, "addr", "a", "", "listen address (overrides server.addr)")
	pflag.StringVarP(&configPath, "config", "c", "", "config file path")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "log requests and scoring details")
	pflag.Parse()

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	l := logger.New(cfg.Verbose)
	setupFileLog(l, cfg)
	defer l.Close()

	sh := shutdown.New()
	sh.Listen()

	server := web.NewServer(sh.Context(), cfg, l)
	server.Start()

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       cfg.Server.RequestTimeout,
		WriteTimeout:      cfg.Server.RequestTimeout,
		IdleTimeout:       60 * time.Second,
	}

	stopped := make(chan struct{})
	sh.AddCleanup(func() {
		defer close(stopped)
		l.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			l.Error("Server shutdown error: %v", err)
		}
	})

	l.Info("Starting web server on %s (references in %s)", cfg.Server.Addr, cfg.Server.ProcessedDir)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("Server error: %v", err)
		sh.Shutdown()
		os.Exit(1)
	}

	// ListenAndServe returns as soon as Shutdown starts.
	<-stopped
	l.Info("Server stopped")
}

func setupFileLog(l *logger.Logger, cfg config.Config) {
	path := cfg.LogFile
	if path == "" {
		logDir := config.GetDefaultLogPath()
		if err := os.MkdirAll(logDir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to create log directory: %v\n", err)
			return
		}
		path = filepath.Join(logDir, fmt.Sprintf("marine-web-%d.log", time.Now().Unix()))
	}
	if err := l.SetFileLog(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to setup file logging: %v\n", err)
	}
}
