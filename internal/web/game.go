package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aykutaksit/marine-animals/internal/scoring"
	"github.com/aykutaksit/marine-animals/pkg/utils"
)

type AnimalResponse struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description"`
	Sound       string `json:"sound"`
	Image       string `json:"image,omitempty"`
}

type RecordingResponse struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Created  string `json:"created"`
}

func (s *Server) handleRandomAnimal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	entries, err := s.catalog.Available(s.config.Server.ProcessedDir, s.config.Server.ImagesDir)
	if err != nil {
		s.logger.Error("Failed to list animals: %v", err)
		http.Error(w, "Failed to list animals", http.StatusInternalServerError)
		return
	}
	if len(entries) == 0 {
		http.Error(w, "No animals available", http.StatusNotFound)
		return
	}

	e := entries[rand.IntN(len(entries))]
	s.sessions.Bind(w, r, e.Key)

	resp := AnimalResponse{
		Key:         e.Key,
		Name:        e.Name,
		Category:    string(e.Category),
		Description: e.Description,
		Sound:       "/sounds/processed/" + e.Sound,
	}
	if e.Image != "" {
		resp.Image = "/images/" + e.Image
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAnalyzeRecording scores an uploaded imitation against the chosen
// animal. Once the request carries audio and an animal the answer is
// always 200 with a score and feedback.
func (s *Server) handleAnalyzeRecording(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.Server.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "Recording too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "No audio file provided", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		http.Error(w, "No audio file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	animal := strings.TrimSpace(r.FormValue("animal"))
	if animal == "" {
		animal = s.sessions.Animal(r)
	}
	if animal == "" {
		http.Error(w, "No animal selected", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read recording", http.StatusBadRequest)
		return
	}

	name := recordingName(filepath.Ext(header.Filename))
	if _, err := utils.WriteFile(filepath.Join(s.config.Server.RecordingsDir, name), bytes.NewReader(data), 0); err != nil {
		s.logger.Warn("Failed to keep recording %s: %v", name, err)
	}

	writeJSON(w, http.StatusOK, s.score(r, animal, data))
}

func (s *Server) score(r *http.Request, animal string, data []byte) scoring.Result {
	ctx := r.Context()

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		return s.scorer.Fallback(animal, ctx.Err())
	}

	ref, err := s.resolver.Load(ctx, animal)
	if err != nil {
		return s.scorer.Fallback(animal, err)
	}

	start := time.Now()
	res := s.scorer.ScoreBytes(ref, bytes.NewReader(data))
	s.logger.Info("Scored imitation of %s: %.1f (%s)", animal, res.Score, time.Since(start).Round(time.Millisecond))
	return res
}

func (s *Server) handleSaveRecording(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := recordingName(".wav")
	path := filepath.Join(s.config.Server.RecordingsDir, name)
	n, err := utils.WriteFile(path, r.Body, s.config.Server.MaxUploadBytes)
	if err != nil {
		s.logger.Error("Failed to save recording: %v", err)
		http.Error(w, "Failed to save recording", http.StatusInternalServerError)
		return
	}
	if n == 0 {
		os.Remove(path)
		http.Error(w, "Empty recording", http.StatusBadRequest)
		return
	}

	s.logger.Info("Saved recording %s (%d bytes)", name, n)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "filename": name})
}

func (s *Server) handleListRecordings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	files, err := utils.ListFiles(s.config.Server.RecordingsDir, utils.IsAudioFile)
	if err != nil {
		s.logger.Error("Failed to list recordings: %v", err)
		http.Error(w, "Failed to list recordings", http.StatusInternalServerError)
		return
	}

	resp := make([]RecordingResponse, len(files))
	for i, f := range files {
		resp[i] = RecordingResponse{
			Filename: f.Name,
			Size:     f.Size,
			Created:  f.Modified.Format("2006-01-02 15:04:05"),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func recordingName(ext string) string {
	ext = strings.ToLower(ext)
	if !utils.IsAudioFile(ext) {
		ext = ".wav"
	}
	return fmt.Sprintf("recording_%s_%s%s", time.Now().Format("20060102_150405"), uuid.NewString()[:8], ext)
}
