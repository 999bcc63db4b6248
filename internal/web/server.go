// Package web serves the imitation game: static assets, the random animal
// picker, recording ingestion and scoring, and asset-sync jobs with
// websocket progress.
package web

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/aykutaksit/marine-animals/internal/animals"
	"github.com/aykutaksit/marine-animals/internal/assets"
	"github.com/aykutaksit/marine-animals/internal/config"
	"github.com/aykutaksit/marine-animals/internal/logger"
	"github.com/aykutaksit/marine-animals/internal/reference"
	"github.com/aykutaksit/marine-animals/internal/scoring"
)

type Server struct {
	ctx      context.Context
	jobMgr   *JobManager
	sessions *SessionStore
	config   config.Config
	logger   *logger.Logger
	catalog  *animals.Catalog
	resolver *reference.Resolver
	scorer   *scoring.Scorer

	// slots bounds the analyses running at once.
	slots chan struct{}

	newPipeline func(config.Config, *logger.Logger) *assets.Pipeline
}

func NewServer(ctx context.Context, cfg config.Config, log *logger.Logger) *Server {
	return &Server{
		ctx:         ctx,
		jobMgr:      NewJobManager(),
		sessions:    NewSessionStore(cfg.Server.SessionTTL),
		config:      cfg,
		logger:      log,
		catalog:     animals.Default(),
		resolver:    reference.NewResolver(cfg.Server.ProcessedDir, cfg.Features, log),
		scorer:      scoring.New(cfg.Scoring.Config, cfg.Features, log),
		slots:       make(chan struct{}, max(1, cfg.Scoring.MaxConcurrent)),
		newPipeline: assets.New,
	}
}

// Start runs the background cleanup loops until ctx is cancelled.
func (s *Server) Start() {
	s.jobMgr.StartCleanup(s.ctx)
	s.sessions.StartCleanup(s.ctx, 10*time.Minute)
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/", http.FileServer(http.Dir(s.config.Server.StaticDir)))
	mux.Handle("/sounds/", http.StripPrefix("/sounds/", http.FileServer(http.Dir(s.config.Server.SoundsDir))))
	mux.Handle("/sounds/processed/", http.StripPrefix("/sounds/processed/", http.FileServer(http.Dir(s.config.Server.ProcessedDir))))
	mux.Handle("/images/", http.StripPrefix("/images/", http.FileServer(http.Dir(s.config.Server.ImagesDir))))

	// Game
	mux.HandleFunc("/api/random-animal", s.handleRandomAnimal)
	mux.HandleFunc("/api/analyze_recording", s.handleAnalyzeRecording)
	mux.HandleFunc("/api/save_recording", s.handleSaveRecording)
	mux.HandleFunc("/api/recordings", s.handleListRecordings)

	// Asset jobs
	mux.HandleFunc("/api/assets/sync", s.handleSync)
	mux.HandleFunc("/api/assets/process", s.handleProcess)
	mux.HandleFunc("/api/jobs", s.handleListJobs)
	mux.HandleFunc("/api/jobs/", s.handleJobAction)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return s.loggingMiddleware(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack exposes the underlying connection for websocket upgrades.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Millisecond))
	})
}
