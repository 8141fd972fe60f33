package impactsync

import (
	"context"

	"github.com/himanishpuri/ImpactSync/pkg/impactsync/audio"
	"github.com/himanishpuri/ImpactSync/pkg/models"
)

type Service interface {
	Detect(ctx context.Context, req DetectRequest) (*DetectResult, error)
	ProcessSound(ctx context.Context, soundPath, outputPath string, cfg models.EffectConfig) (*EffectResult, error)
	Synchronize(ctx context.Context, req SyncRequest) (*SyncResult, error)
	GetJob(jobID string) (*JobDetail, error)
	ListJobs(limit int) ([]models.Job, error)
	DeleteJob(jobID string) error
	Close() error
}

type Storage interface {
	CreateJob(job models.Job) (string, error)
	FinishJob(jobID string, status models.JobStatus, reason string, collisionCount int, anchor float64) error
	StoreCollisions(jobID string, collisions []models.JobCollision) error
	GetJob(jobID string) (*models.Job, error)
	GetCollisions(jobID string) ([]models.JobCollision, error)
	ListJobs(limit int) ([]models.Job, error)
	DeleteJob(jobID string) error
	Close() error
}

// Tracker produces the trajectory of the tracked object in a video.
// Scratch files go in workDir, which the caller removes afterwards.
type Tracker interface {
	Track(ctx context.Context, videoPath, workDir string) (models.Trajectory, error)
}

// Prober reads container metadata (frame rate, duration).
type Prober interface {
	Probe(ctx context.Context, path string) (*audio.Metadata, error)
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

type ffprobe struct{}

func (ffprobe) Probe(ctx context.Context, path string) (*audio.Metadata, error) {
	return audio.ReadMetadataFFmpeg(ctx, path)
}
