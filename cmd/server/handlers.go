package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/himanishpuri/ImpactSync/pkg/impactsync"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/audio"
	"github.com/himanishpuri/ImpactSync/pkg/logger"
	"github.com/himanishpuri/ImpactSync/pkg/models"
	"github.com/himanishpuri/ImpactSync/pkg/utils"
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service impactsync.Service
	config  *ServerConfig
	log     impactsync.Logger
	probe   func(ctx context.Context, path string) (*audio.Metadata, error)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	TempDir        string
	OutputDir      string
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service impactsync.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		log:     logger.GetLogger().With("http"),
		probe:   audio.ReadMetadataFFmpeg,
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes an error response
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, impactsync.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, impactsync.ErrJobNotFound):
		return http.StatusNotFound
	case impactsync.IsClientError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "ImpactSync API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":    "GET /health",
			"sync":      "POST /api/sync",
			"jobs":      "GET /api/jobs",
			"getJob":    "GET /api/jobs/{id}",
			"jobOutput": "GET /api/jobs/{id}/output",
			"deleteJob": "DELETE /api/jobs/{id}",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// saveUpload copies a multipart file into dir under its base name.
func saveUpload(file multipart.File, name, dir string) (string, error) {
	path := filepath.Join(dir, filepath.Base(name))
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		return "", err
	}
	return path, out.Close()
}

// formUpload saves the optional upload under field. It returns "" when the
// field is absent.
func (s *Server) formUpload(r *http.Request, field, dir string, validate func(string) error) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer file.Close()

	if validate != nil {
		if err := validate(header.Filename); err != nil {
			return "", err
		}
	}
	return saveUpload(file, field+"_"+filepath.Base(header.Filename), dir)
}

func formFloat(r *http.Request, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, raw)
	}
	return v, nil
}

func effectsFromForm(r *http.Request) (models.EffectConfig, error) {
	cfg := models.NeutralEffects()
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"volume", &cfg.VolumePercent},
		{"reverb", &cfg.ReverbAmount},
		{"pitch", &cfg.PitchSlider},
		{"noise_reduction", &cfg.NoiseReduction},
	} {
		v, err := formFloat(r, f.name, *f.dst)
		if err != nil {
			return cfg, err
		}
		*f.dst = v
	}
	return cfg, cfg.Validate()
}

// checkDuration rejects media longer than limit seconds.
func (s *Server) checkDuration(ctx context.Context, path, kind string, limit float64) error {
	meta, err := s.probe(ctx, path)
	if err != nil {
		return fmt.Errorf("could not read %s: %v", kind, err)
	}
	if meta.DurationSec > limit {
		return fmt.Errorf("%s is %.2fs long, maximum is %.2fs", kind, meta.DurationSec, limit)
	}
	return nil
}

// handleSync handles POST /api/sync (multipart: video, audio, optional
// trajectory or collisions CSV, effect sliders)
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.log.Errorf("Failed to parse form: %v", err)
		s.respondError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	ws, err := utils.NewWorkspace(s.config.TempDir)
	if err != nil {
		s.log.Errorf("Failed to create upload workspace: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to process upload")
		return
	}
	defer ws.Release()

	video, err := s.formUpload(r, "video", ws.Dir, validateVideoName)
	if err == nil && video == "" {
		err = errors.New("video file is required")
	}
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sound, err := s.formUpload(r, "audio", ws.Dir, validateAudioName)
	if err == nil && sound == "" {
		err = errors.New("audio file is required")
	}
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	traj, err := s.formUpload(r, "trajectory", ws.Dir, nil)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	collisions, err := s.formUpload(r, "collisions", ws.Dir, nil)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := effectsFromForm(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.checkDuration(ctx, video, "video", MaxVideoDuration); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.checkDuration(ctx, sound, "audio", MaxAudioDuration); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	outDir := filepath.Join(s.config.OutputDir, ws.ID)
	if err := utils.MakeDir(outDir); err != nil {
		s.log.Errorf("Failed to create output dir: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to prepare output")
		return
	}
	output := utils.SiblingPath(filepath.Join(outDir, filepath.Base(video)), "_result.mp4")

	s.log.Infof("Synchronizing %s with %s", filepath.Base(video), filepath.Base(sound))
	res, err := s.service.Synchronize(ctx, impactsync.SyncRequest{
		VideoPath:      video,
		SoundPath:      sound,
		TrajectoryPath: traj,
		CollisionsPath: collisions,
		OutputPath:     output,
		Effects:        cfg,
	})
	if err != nil {
		utils.DeleteDir(outDir)
		s.log.Errorf("Synchronize failed: %v", err)
		s.respondError(w, statusFor(err), fmt.Sprintf("Failed to synchronize: %v", err))
		return
	}

	s.log.Infof("Job %s complete: %d collisions", res.JobID, len(res.Events))
	s.respondJSON(w, http.StatusCreated, syncResponse(res))
}

// handleListJobs handles GET /api/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	jobs, err := s.service.ListJobs(limit)
	if err != nil {
		s.log.Errorf("Failed to list jobs: %v", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to retrieve jobs")
		return
	}

	dtos := make([]JobDTO, len(jobs))
	for i, j := range jobs {
		dtos[i] = jobDTO(j)
	}
	s.respondJSON(w, http.StatusOK, ListJobsResponse{Jobs: dtos, Count: len(dtos)})
}

// handleGetJob handles GET /api/jobs/{id}
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := s.service.GetJob(jobID)
	if err != nil {
		s.log.Warnf("Job not found: %s", jobID)
		s.respondError(w, statusFor(err), fmt.Sprintf("Job %s not found", jobID))
		return
	}
	s.respondJSON(w, http.StatusOK, jobDetailDTO(job))
}

// handleJobOutput handles GET /api/jobs/{id}/output
func (s *Server) handleJobOutput(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := s.service.GetJob(jobID)
	if err != nil {
		s.respondError(w, statusFor(err), fmt.Sprintf("Job %s not found", jobID))
		return
	}
	if job.Status != models.JobSucceeded {
		s.respondError(w, http.StatusConflict, fmt.Sprintf("Job %s is %s", jobID, job.Status))
		return
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		s.respondError(w, http.StatusGone, "Output no longer available")
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	http.ServeFile(w, r, job.OutputPath)
}

// handleDeleteJob handles DELETE /api/jobs/{id}
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := s.service.GetJob(jobID)
	if err != nil {
		s.respondError(w, statusFor(err), fmt.Sprintf("Job %s not found", jobID))
		return
	}
	if err := s.service.DeleteJob(jobID); err != nil {
		s.log.Errorf("Failed to delete job %s: %v", jobID, err)
		s.respondError(w, http.StatusInternalServerError, "Failed to delete job")
		return
	}
	// outputs produced by this server live in their own directory
	if job.OutputPath != "" && strings.HasPrefix(job.OutputPath, s.config.OutputDir+string(os.PathSeparator)) {
		utils.DeleteDir(filepath.Dir(job.OutputPath))
	}

	s.log.Infof("Deleted job %s", jobID)
	s.respondJSON(w, http.StatusOK, DeleteJobResponse{Message: "Job deleted successfully", ID: jobID})
}

// handleJobs routes requests to /api/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.handleListJobs(w, r)
}

// handleJob routes requests to /api/jobs/{id} and /api/jobs/{id}/output
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/jobs/"), "/")
	if rest == "" {
		s.respondError(w, http.StatusBadRequest, "Job ID required")
		return
	}
	jobID, sub, _ := strings.Cut(rest, "/")

	switch {
	case sub == "output" && r.Method == http.MethodGet:
		s.handleJobOutput(w, r, jobID)
	case sub != "":
		http.NotFound(w, r)
	case r.Method == http.MethodGet:
		s.handleGetJob(w, r, jobID)
	case r.Method == http.MethodDelete:
		s.handleDeleteJob(w, r, jobID)
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
