package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aykutaksit/marine-animals/internal/animals"
	"github.com/aykutaksit/marine-animals/internal/assets"
)

type JobResponse struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Status      JobStatus `json:"status"`
	Progress    int       `json:"progress"`
	Total       int       `json:"total"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Warnings    []string  `json:"warnings,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   string    `json:"created_at"`
	StartedAt   *string   `json:"started_at,omitempty"`
	CompletedAt *string   `json:"completed_at,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	s.startAssetJob(w, r, KindSync)
}

// handleProcess re-normalizes the clips already in the download directory.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	s.startAssetJob(w, r, KindProcess)
}

func (s *Server) startAssetJob(w http.ResponseWriter, r *http.Request, kind string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	job, err := s.jobMgr.CreateJob(kind)
	if err != nil {
		if errors.Is(err, ErrJobActive) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Cancel = cancel
	})
	s.logger.Info("Created asset %s job %s", kind, job.ID)

	go s.runAssetJob(ctx, cancel, job.ID, kind)

	job, _ = s.jobMgr.GetJob(job.ID)
	writeJSON(w, http.StatusOK, s.jobToResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobs := s.jobMgr.ListJobs()
	responses := make([]*JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = s.jobToResponse(job)
	}
	writeJSON(w, http.StatusOK, responses)
}

func (s *Server) handleJobAction(w http.ResponseWriter, r *http.Request) {
	// Extract job ID from path: /api/jobs/{id} or /api/jobs/{id}/cancel
	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]

	// GET /api/jobs/{id}
	if r.Method == http.MethodGet && len(parts) == 1 {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, s.jobToResponse(job))
		return
	}

	// POST /api/jobs/{id}/cancel
	if r.Method == http.MethodPost && len(parts) == 2 && parts[1] == "cancel" {
		job, err := s.jobMgr.GetJob(jobID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if job.Status.Done() {
			writeJSON(w, http.StatusOK, map[string]string{"status": string(job.Status)})
			return
		}

		if job.Cancel != nil {
			job.Cancel()
		}
		s.jobMgr.UpdateJob(jobID, func(j *Job) {
			j.Status = StatusCancelled
		})
		s.logger.Info("Cancelled job %s", jobID)

		writeJSON(w, http.StatusOK, map[string]string{"status": string(StatusCancelled)})
		return
	}

	http.Error(w, "Invalid request", http.StatusBadRequest)
}

// runAssetJob runs the pipeline for kind (fetching missing references, or
// processing DownloadDir) and mirrors its progress into the job.
func (s *Server) runAssetJob(ctx context.Context, cancel context.CancelFunc, jobID, kind string) {
	defer cancel()

	s.jobMgr.UpdateJob(jobID, func(j *Job) {
		j.Status = StatusRunning
	})
	s.logger.Info("Starting job %s", jobID)

	p := s.newPipeline(s.config, s.logger)
	p.Hooks = assets.Hooks{
		OnStart: func(total int) {
			s.jobMgr.UpdateJob(jobID, func(j *Job) { j.Total = total })
		},
		OnItem: func(name string, err error) {
			if err == nil || errors.Is(err, assets.ErrTagging) {
				// A fresh clip replaces whatever the cache holds.
				s.resolver.Forget(animals.CleanFilename(name))
			}
			s.jobMgr.UpdateJob(jobID, func(j *Job) {
				j.Progress++
				if err != nil && !errors.Is(err, assets.ErrTagging) {
					j.Failed++
				}
			})
		},
		OnWarning: func(msg string) {
			s.jobMgr.UpdateJob(jobID, func(j *Job) { j.Warnings = append(j.Warnings, msg) })
		},
	}

	var stats assets.Stats
	var err error
	if kind == KindProcess {
		stats, err = p.Process(ctx, s.config.Assets.DownloadDir)
	} else {
		stats, err = p.Run(ctx)
	}

	s.jobMgr.UpdateJob(jobID, func(j *Job) {
		j.Skipped = stats.Skipped
		switch {
		case ctx.Err() != nil:
			j.Status = StatusCancelled
		case err != nil:
			j.Status = StatusFailed
			j.Error = err.Error()
		default:
			j.Status = StatusCompleted
		}
	})

	if err != nil {
		s.logger.Error("Job %s finished with error: %v", jobID, err)
		return
	}
	s.logger.Info("Job %s completed: %d processed, %d skipped, %d failed", jobID, stats.Processed, stats.Skipped, stats.Failed)
}

func (s *Server) jobToResponse(job *Job) *JobResponse {
	resp := &JobResponse{
		ID:        job.ID,
		Kind:      job.Kind,
		Status:    job.Status,
		Progress:  job.Progress,
		Total:     job.Total,
		Failed:    job.Failed,
		Skipped:   job.Skipped,
		Warnings:  job.Warnings,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	}

	if job.StartedAt != nil {
		started := job.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &started
	}
	if job.CompletedAt != nil {
		completed := job.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	return resp
}
