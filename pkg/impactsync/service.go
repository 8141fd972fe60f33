package impactsync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/himanishpuri/ImpactSync/pkg/impactsync/audio"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/composite"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/diagnostics"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/effects"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/trajectory"
	"github.com/himanishpuri/ImpactSync/pkg/logger"
	"github.com/himanishpuri/ImpactSync/pkg/models"
	"github.com/himanishpuri/ImpactSync/pkg/utils"
)

const (
	resultSuffix     = "_result.mp4"
	collisionsSuffix = "_collision_detection.csv"
)

// impactService is the default implementation of the Service interface.
type impactService struct {
	storage   Storage
	log       Logger
	config    *Config
	detector  *trajectory.Detector
	processor *effects.Processor
	sync      *composite.Synchronizer
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.GainPolicy == nil {
		cfg.GainPolicy = composite.VelocityGain{}
	}
	if cfg.Muxer == nil {
		cfg.Muxer = audio.FFmpegMuxer{}
	}
	if cfg.Prober == nil {
		cfg.Prober = ffprobe{}
	}

	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	var detOpts []trajectory.DetectorOption
	if len(cfg.Rules) > 0 {
		detOpts = append(detOpts, trajectory.WithRules(cfg.Rules...))
	}
	procOpts := []effects.Option{effects.WithLogger(cfg.Logger)}
	if cfg.Reverberator != nil {
		procOpts = append(procOpts, effects.WithReverberator(cfg.Reverberator))
	} else {
		procOpts = append(procOpts, effects.WithReverberator(&effects.SoxReverb{TempDir: cfg.TempDir}))
	}

	return &impactService{
		storage:   stor,
		log:       cfg.Logger,
		config:    cfg,
		detector:  trajectory.NewDetector(detOpts...),
		processor: effects.NewProcessor(procOpts...),
		sync: composite.NewSynchronizer(
			composite.WithGainPolicy(cfg.GainPolicy),
			composite.WithLogger(cfg.Logger),
		),
	}, nil
}

// Detect loads or tracks a trajectory and runs collision detection on it.
func (s *impactService) Detect(ctx context.Context, req DetectRequest) (*DetectResult, error) {
	ws, err := utils.NewWorkspace(s.config.TempDir)
	if err != nil {
		return nil, err
	}
	defer ws.Release()

	traj, err := s.loadTrajectory(ctx, req.TrajectoryPath, req.VideoPath, ws)
	if err != nil {
		return nil, err
	}

	res := &DetectResult{Trajectory: traj, Events: s.detector.Detect(traj)}
	s.log.Infof("Detected %d collisions in %d samples", len(res.Events), len(traj))

	if req.CollisionsPath != "" {
		if err := trajectory.SaveCollisions(req.CollisionsPath, res.Events); err != nil {
			return nil, err
		}
		res.CollisionsPath = req.CollisionsPath
	}
	return res, nil
}

// ProcessSound runs the effect chain on a sound file and writes a WAV.
func (s *impactService) ProcessSound(ctx context.Context, soundPath, outputPath string, cfg models.EffectConfig) (*EffectResult, error) {
	ws, err := utils.NewWorkspace(s.config.TempDir)
	if err != nil {
		return nil, err
	}
	defer ws.Release()

	src, err := s.decodeSound(ctx, soundPath, ws)
	if err != nil {
		return nil, err
	}
	processed, rep, err := s.processor.Apply(ctx, src, cfg)
	if err != nil {
		return nil, err
	}
	if err := audio.WriteWav(outputPath, processed); err != nil {
		return nil, err
	}

	s.log.Infof("Processed %s -> %s (reverb %s)", soundPath, outputPath, rep.Reverb.Status)
	return &EffectResult{OutputPath: outputPath, Duration: processed.Duration(), Report: rep}, nil
}

// Synchronize detects collisions, shapes the sound, places one copy per
// collision and muxes the mixed track onto the video. Every run is recorded
// as a job; failures keep their reason and leave no output behind.
func (s *impactService) Synchronize(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	if req.VideoPath == "" || req.SoundPath == "" {
		return nil, fmt.Errorf("%w: video and sound are required", ErrInvalidRequest)
	}
	if req.OutputPath == "" {
		req.OutputPath = utils.SiblingPath(req.VideoPath, resultSuffix)
	}

	jobID, err := s.storage.CreateJob(models.Job{
		VideoPath:  req.VideoPath,
		SoundPath:  req.SoundPath,
		OutputPath: req.OutputPath,
		Effects:    req.Effects,
		GainPolicy: s.config.GainPolicy.Name(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	s.log.Infof("Job %s: %s + %s", jobID, req.VideoPath, req.SoundPath)

	res, err := s.synchronize(ctx, req)
	if err != nil {
		s.log.Errorf("Job %s failed: %v", jobID, err)
		if ferr := s.storage.FinishJob(jobID, models.JobFailed, err.Error(), 0, 0); ferr != nil {
			s.log.Warnf("Failed to record job %s failure: %v", jobID, ferr)
		}
		return nil, err
	}
	res.JobID = jobID

	if err := s.storage.StoreCollisions(jobID, jobCollisions(res.Events, res.Plan)); err != nil {
		s.log.Warnf("Failed to store collisions for job %s: %v", jobID, err)
	}
	if err := s.storage.FinishJob(jobID, models.JobSucceeded, "", len(res.Events), res.Plan.Anchor); err != nil {
		s.log.Warnf("Failed to record job %s: %v", jobID, err)
	}

	s.log.Infof("Job %s done: %d collisions -> %s", jobID, len(res.Events), res.OutputPath)
	return res, nil
}

func (s *impactService) synchronize(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	ws, err := utils.NewWorkspace(s.config.TempDir)
	if err != nil {
		return nil, err
	}
	defer ws.Release()

	// 1. Collisions
	var traj models.Trajectory
	var events []models.CollisionEvent
	if req.CollisionsPath != "" {
		events, err = trajectory.LoadCollisions(req.CollisionsPath)
		if err != nil {
			return nil, err
		}
	} else {
		traj, err = s.loadTrajectory(ctx, req.TrajectoryPath, req.VideoPath, ws)
		if err != nil {
			return nil, err
		}
		events = s.detector.Detect(traj)
	}
	s.log.Infof("Using %d collisions", len(events))

	auditTmp := ws.Path("collisions.csv")
	if err := trajectory.SaveCollisions(auditTmp, events); err != nil {
		return nil, err
	}

	// 2. Source sound and effects
	src, err := s.decodeSound(ctx, req.SoundPath, ws)
	if err != nil {
		return nil, err
	}
	processed, rep, err := s.processor.Apply(ctx, src, req.Effects)
	if err != nil {
		return nil, err
	}

	// 3. Video timing
	fps, duration, err := s.videoTiming(ctx, req)
	if err != nil {
		return nil, err
	}

	// 4. Placement and mix
	track, plan, err := s.sync.Compose(events, &processed, fps, duration)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		s.log.Warnf("No collisions detected, output carries a silent track")
	}

	trackPath := ws.Path("composite.wav")
	if err := audio.WriteWav(trackPath, track); err != nil {
		return nil, err
	}

	// 5. Mux and publish
	if err := utils.MakeDir(filepath.Dir(req.OutputPath)); err != nil {
		return nil, err
	}
	if err := s.config.Muxer.ReplaceAudio(ctx, req.VideoPath, trackPath, req.OutputPath); err != nil {
		return nil, fmt.Errorf("mux: %w", err)
	}

	res := &SyncResult{
		OutputPath:     req.OutputPath,
		CollisionsPath: collisionsPath(req),
		Events:         events,
		Plan:           plan,
		Reverb:         rep.Reverb,
	}
	if err := utils.MoveFile(auditTmp, res.CollisionsPath); err != nil {
		s.log.Warnf("Failed to publish collision table: %v", err)
		res.CollisionsPath = ""
	}

	s.writeDiagnostics(req, traj, events, track, res)
	return res, nil
}

// collisionsPath places <video>_collision_detection.csv next to the output.
func collisionsPath(req SyncRequest) string {
	return utils.SiblingPath(filepath.Join(filepath.Dir(req.OutputPath), filepath.Base(req.VideoPath)), collisionsSuffix)
}

func (s *impactService) loadTrajectory(ctx context.Context, trajectoryPath, videoPath string, ws *utils.Workspace) (models.Trajectory, error) {
	switch {
	case trajectoryPath != "":
		return trajectory.LoadCSV(trajectoryPath)
	case videoPath != "" && s.config.Tracker != nil:
		s.log.Infof("Tracking object in %s", videoPath)
		return s.config.Tracker.Track(ctx, videoPath, ws.Dir)
	default:
		return nil, fmt.Errorf("%w: no trajectory, collision table or tracker", ErrInvalidRequest)
	}
}

// decodeSound reads WAV sources directly and converts anything else with ffmpeg.
func (s *impactService) decodeSound(ctx context.Context, path string, ws *utils.Workspace) (models.Waveform, error) {
	if utils.HasExtension(path, "wav") {
		return audio.ReadWav(path)
	}

	wavPath := ws.Path("source.wav")
	if err := audio.ConvertToMonoWAV(ctx, path, wavPath, audio.ConvertWAVConfig{
		SampleRate: s.config.SampleRate,
	}); err != nil {
		return models.Waveform{}, fmt.Errorf("audio conversion failed: %w", err)
	}
	return audio.ReadWav(wavPath)
}

func (s *impactService) videoTiming(ctx context.Context, req SyncRequest) (fps, duration float64, err error) {
	fps, duration = req.FPS, req.Duration
	if fps > 0 && duration > 0 {
		return fps, duration, nil
	}
	if s.config.Prober == nil {
		return 0, 0, fmt.Errorf("%w: fps and duration unknown and no prober configured", ErrInvalidTiming)
	}

	meta, err := s.config.Prober.Probe(ctx, req.VideoPath)
	if err != nil {
		return 0, 0, fmt.Errorf("probing video: %w", err)
	}
	if fps <= 0 {
		fps = meta.FPS
	}
	if duration <= 0 {
		duration = meta.DurationSec
	}
	s.log.Debugf("Video timing: %.3f fps, %.3fs", fps, duration)
	return fps, duration, nil
}

// writeDiagnostics is best-effort; failures are logged only.
func (s *impactService) writeDiagnostics(req SyncRequest, traj models.Trajectory, events []models.CollisionEvent, track models.Waveform, res *SyncResult) {
	dir := s.config.DiagnosticsDir
	if dir == "" {
		return
	}
	stem := utils.SiblingPath(filepath.Join(dir, filepath.Base(req.VideoPath)), "")

	if len(traj) > 0 {
		path := stem + "_trajectory.png"
		if err := diagnostics.PlotTrajectory(trajectory.Filter(traj), events, path); err != nil {
			s.log.Warnf("Trajectory plot failed: %v", err)
		} else {
			res.PlotPath = path
		}
	}

	path := stem + "_spectrogram.png"
	if err := diagnostics.RenderSpectrogram(track, path); err != nil {
		s.log.Warnf("Spectrogram failed: %v", err)
	} else {
		res.SpectrogramPath = path
	}

	path = stem + "_report.html"
	if err := writeReport(path, traj, events, res.Plan); err != nil {
		s.log.Warnf("Report failed: %v", err)
	} else {
		res.ReportPath = path
	}
}

func writeReport(path string, traj models.Trajectory, events []models.CollisionEvent, plan *composite.Plan) error {
	if err := utils.MakeDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	var instances []models.CompositeInstance
	if plan != nil {
		instances = plan.Instances
	}
	if err := diagnostics.RenderReport(f, trajectory.Filter(traj), events, instances); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func jobCollisions(events []models.CollisionEvent, plan *composite.Plan) []models.JobCollision {
	out := make([]models.JobCollision, len(events))
	for i, e := range events {
		out[i] = models.JobCollision{
			CollisionID: e.ID,
			Frame:       e.Frame,
			Type:        e.Type,
			Velocity:    e.Velocity,
			HasVelocity: e.HasVelocity,
		}
		if plan != nil && i < len(plan.Instances) {
			inst := plan.Instances[i]
			out[i].Gain = inst.Gain
			out[i].StartTime = inst.StartTime
			out[i].TrimStart = inst.TrimStart
		}
	}
	return out
}

func (s *impactService) GetJob(jobID string) (*JobDetail, error) {
	job, err := s.storage.GetJob(jobID)
	if err != nil {
		return nil, err
	}
	collisions, err := s.storage.GetCollisions(jobID)
	if err != nil {
		return nil, err
	}
	return &JobDetail{Job: *job, Collisions: collisions}, nil
}

func (s *impactService) ListJobs(limit int) ([]models.Job, error) {
	return s.storage.ListJobs(limit)
}

func (s *impactService) DeleteJob(jobID string) error {
	return s.storage.DeleteJob(jobID)
}

// Close releases all resources held by the service.
func (s *impactService) Close() error {
	return s.storage.Close()
}

// IsClientError reports whether err was caused by the request rather than the host.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrDataFormat) ||
		errors.Is(err, ErrInvalidAudio) ||
		errors.Is(err, ErrInvalidTiming)
}
