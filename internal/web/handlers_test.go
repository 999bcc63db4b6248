package web

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aykutaksit/marine-animals/internal/animals"
	"github.com/aykutaksit/marine-animals/internal/audio"
	"github.com/aykutaksit/marine-animals/internal/config"
	"github.com/aykutaksit/marine-animals/internal/logger"
	"github.com/aykutaksit/marine-animals/internal/scoring"
)

func newTestServer(t *testing.T) (*Server, config.Config) {
	t.Helper()
	root := t.TempDir()

	cfg := config.DefaultConfig()
	cfg.Server.StaticDir = filepath.Join(root, "static")
	cfg.Server.SoundsDir = filepath.Join(root, "static", "sounds")
	cfg.Server.ProcessedDir = filepath.Join(root, "static", "sounds", "processed")
	cfg.Server.ImagesDir = filepath.Join(root, "static", "images")
	cfg.Server.RecordingsDir = filepath.Join(root, "recordings")
	cfg.Assets.DownloadDir = cfg.Server.SoundsDir
	cfg.Assets.Sources = nil

	return NewServer(context.Background(), cfg, logger.New(false)), cfg
}

func toneWAV(t *testing.T, freq float64, d time.Duration) []byte {
	t.Helper()
	const rate = 22050
	clip := audio.Clip{Samples: make([]float64, int(rate*d.Seconds())), SampleRate: rate}
	for i := range clip.Samples {
		tt := float64(i) / rate
		clip.Samples[i] = 0.5*math.Sin(2*math.Pi*freq*tt) + 0.1*math.Sin(4*math.Pi*freq*tt)
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := audio.WriteWAVFile(path, clip); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func addReference(t *testing.T, cfg config.Config, file string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(cfg.Server.ProcessedDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Server.ProcessedDir, file), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func uploadRequest(t *testing.T, animal string, audioData []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if animal != "" {
		mw.WriteField("animal", animal)
	}
	if audioData != nil {
		fw, err := mw.CreateFormFile("audio", "imitation.wav")
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(audioData)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/analyze_recording", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return got
}

func TestAnalyzeRecordingBadRequests(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	tests := []struct {
		name string
		req  *http.Request
		want int
	}{
		{"missing audio", uploadRequest(t, "Orca", nil), http.StatusBadRequest},
		{"missing animal", uploadRequest(t, "", []byte("RIFF")), http.StatusBadRequest},
		{"not multipart", httptest.NewRequest(http.MethodPost, "/api/analyze_recording", strings.NewReader("x")), http.StatusBadRequest},
		{"wrong method", httptest.NewRequest(http.MethodGet, "/api/analyze_recording", nil), http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, tt.req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAnalyzeRecordingIdentical(t *testing.T) {
	s, cfg := newTestServer(t)
	data := toneWAV(t, 440, time.Second)
	addReference(t, cfg, "processed_orca.wav", data)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, uploadRequest(t, "Orca", data))

	got := decodeResult(t, rec)
	if got["score"] != 100.0 {
		t.Errorf("score = %v, want 100", got["score"])
	}
	if got["feedback"] != cfg.Scoring.Tiers[0].Feedback {
		t.Errorf("feedback = %v", got["feedback"])
	}
	if len(got) != 2 {
		t.Errorf("response should only carry score and feedback: %v", got)
	}

	saved, _ := os.ReadDir(cfg.Server.RecordingsDir)
	if len(saved) != 1 {
		t.Errorf("expected upload to be kept, found %d files", len(saved))
	}
}

func TestAnalyzeRecordingFallbacks(t *testing.T) {
	s, cfg := newTestServer(t)
	addReference(t, cfg, "processed_orca.wav", toneWAV(t, 440, time.Second))
	sc := scoring.DefaultConfig()

	tests := []struct {
		name     string
		animal   string
		audio    []byte
		feedback string
	}{
		{"garbage audio", "Orca", []byte("definitely not audio"), sc.FallbackFeedback},
		{"unknown animal", "Kraken", toneWAV(t, 440, time.Second), sc.MissingReferenceFeedback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Router().ServeHTTP(rec, uploadRequest(t, tt.animal, tt.audio))

			got := decodeResult(t, rec)
			if got["score"] != 0.0 {
				t.Errorf("score = %v, want 0", got["score"])
			}
			if got["feedback"] != tt.feedback {
				t.Errorf("feedback = %v, want %q", got["feedback"], tt.feedback)
			}
		})
	}
}

func TestRandomAnimalNoneAvailable(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/random-animal", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRandomAnimalBindsSession(t *testing.T) {
	s, cfg := newTestServer(t)
	data := toneWAV(t, 600, time.Second)
	addReference(t, cfg, "processed_humpback_whale.wav", data)
	h := s.Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/random-animal", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var animal AnimalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &animal); err != nil {
		t.Fatal(err)
	}
	if animal.Name != "Humpback Whale" || animal.Sound != "/sounds/processed/processed_humpback_whale.wav" {
		t.Errorf("animal = %+v", animal)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookie {
		t.Fatalf("cookies = %v", cookies)
	}

	// The upload names no animal, so the session's pick is used.
	req := uploadRequest(t, "", data)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := decodeResult(t, rec); got["score"] != 100.0 {
		t.Errorf("score = %v, want 100", got["score"])
	}

	// The reference itself is served under the returned path.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, animal.Sound, nil))
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), data) {
		t.Errorf("GET %s: status %d, %d bytes", animal.Sound, rec.Code, rec.Body.Len())
	}
}

func TestSaveAndListRecordings(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/save_recording", bytes.NewReader(toneWAV(t, 300, 200*time.Millisecond))))
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", rec.Code, rec.Body.String())
	}
	var saved struct {
		Success  bool   `json:"success"`
		Filename string `json:"filename"`
	}
	json.Unmarshal(rec.Body.Bytes(), &saved)
	if !saved.Success || !strings.HasPrefix(saved.Filename, "recording_") {
		t.Errorf("save response = %+v", saved)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/save_recording", strings.NewReader("")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty save status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recordings", nil))
	var list []RecordingResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Filename != saved.Filename || list[0].Size == 0 {
		t.Errorf("recordings = %+v", list)
	}
}

func waitForJob(t *testing.T, s *Server, id string) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := s.jobMgr.GetJob(id)
		if err != nil {
			t.Fatal(err)
		}
		if job.Status.Done() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", id)
	return nil
}

func TestSyncJobLifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/assets/sync", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var created JobResponse
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Kind != KindSync || created.ID == "" {
		t.Fatalf("job = %+v", created)
	}

	if job := waitForJob(t, s, created.ID); job.Status != StatusCompleted {
		t.Errorf("status = %s, error = %s", job.Status, job.Error)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+created.ID, nil))
	var fetched JobResponse
	json.Unmarshal(rec.Body.Bytes(), &fetched)
	if fetched.Status != StatusCompleted || fetched.CompletedAt == nil {
		t.Errorf("fetched = %+v", fetched)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs", nil))
	var all []JobResponse
	json.Unmarshal(rec.Body.Bytes(), &all)
	if len(all) != 1 {
		t.Errorf("jobs = %+v", all)
	}
}

func TestProcessJobLifecycle(t *testing.T) {
	s, cfg := newTestServer(t)
	h := s.Router()

	if err := os.MkdirAll(cfg.Assets.DownloadDir, 0755); err != nil {
		t.Fatal(err)
	}
	raw := toneWAV(t, 500, 1500*time.Millisecond)
	if err := os.WriteFile(filepath.Join(cfg.Assets.DownloadDir, "humpback_whale.wav"), raw, 0644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/assets/process", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var created JobResponse
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.Kind != KindProcess {
		t.Fatalf("job = %+v", created)
	}

	job := waitForJob(t, s, created.ID)
	if job.Status != StatusCompleted || job.Total != 1 || job.Progress != 1 || job.Failed != 0 {
		t.Errorf("job = %+v", job)
	}

	out := filepath.Join(cfg.Server.ProcessedDir, "processed_humpback_whale.wav")
	clip, err := audio.LoadFile(out)
	if err != nil {
		t.Fatalf("processed clip: %v", err)
	}
	if want := clip.SamplesIn(cfg.Assets.TargetDuration); clip.Len() != want {
		t.Errorf("processed length = %d, want %d", clip.Len(), want)
	}
}

func TestRandomAnimalKeyResolvesTitledClip(t *testing.T) {
	s, cfg := newTestServer(t)
	data := toneWAV(t, 450, time.Second)
	addReference(t, cfg, "processed_kraken.wav", data)
	if err := animals.WriteTags(filepath.Join(cfg.Server.ProcessedDir, "processed_kraken.wav"), animals.Animal{Name: "The Kraken"}); err != nil {
		t.Fatal(err)
	}
	tagged, err := os.ReadFile(filepath.Join(cfg.Server.ProcessedDir, "processed_kraken.wav"))
	if err != nil {
		t.Fatal(err)
	}
	h := s.Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/random-animal", nil))
	var animal AnimalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &animal); err != nil {
		t.Fatal(err)
	}
	if animal.Name != "The Kraken" || animal.Key != "kraken" {
		t.Fatalf("animal = %+v", animal)
	}

	// Scoring through the session finds the clip the name was read from.
	req := uploadRequest(t, "", tagged)
	req.AddCookie(rec.Result().Cookies()[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	got := decodeResult(t, rec)
	if got["score"] != 100.0 {
		t.Errorf("session score = %v (%v), want 100", got["score"], got["feedback"])
	}

	// The key sent back by the page resolves the same way.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, animal.Key, tagged))
	if got := decodeResult(t, rec); got["score"] != 100.0 {
		t.Errorf("form score = %v, want 100", got["score"])
	}
}

func TestJobActionErrors(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Router()

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/jobs/job_missing", http.StatusNotFound},
		{http.MethodPost, "/api/jobs/job_missing/cancel", http.StatusNotFound},
		{http.MethodGet, "/api/jobs/", http.StatusBadRequest},
		{http.MethodDelete, "/api/jobs/job_missing", http.StatusBadRequest},
		{http.MethodGet, "/api/assets/sync", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/assets/process", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestCancelPendingJob(t *testing.T) {
	s, _ := newTestServer(t)
	job := mustCreate(t, s.jobMgr, KindSync)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/jobs/"+job.ID+"/cancel", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if j, _ := s.jobMgr.GetJob(job.ID); j.Status != StatusCancelled {
		t.Errorf("status = %s, want cancelled", j.Status)
	}
}

func TestWebSocketStreamsJob(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	job := mustCreate(t, s.jobMgr, KindSync)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?job_id=" + job.ID

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg JobResponse
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.ID != job.ID || msg.Status != StatusPending {
		t.Errorf("initial message = %+v", msg)
	}

	s.jobMgr.UpdateJob(job.ID, func(j *Job) {
		j.Status = StatusCompleted
		j.Total = 2
		j.Progress = 2
	})

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Status != StatusCompleted || msg.Progress != 2 {
		t.Errorf("update = %+v", msg)
	}
}

func TestWebSocketUnknownJob(t *testing.T) {
	s, _ := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?job_id=nope", nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v", resp)
	}
}
