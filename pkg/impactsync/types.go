package impactsync

import (
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/composite"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/effects"
	"github.com/himanishpuri/ImpactSync/pkg/models"
)

// DetectRequest names the trajectory source. TrajectoryPath wins over
// VideoPath, which is handed to the configured Tracker.
type DetectRequest struct {
	TrajectoryPath string
	VideoPath      string
	CollisionsPath string // optional audit CSV output
}

type DetectResult struct {
	Trajectory     models.Trajectory
	Events         []models.CollisionEvent
	CollisionsPath string
}

type EffectResult struct {
	OutputPath string
	Duration   float64
	Report     effects.Report
}

// SyncRequest describes one synchronize run. Collisions come from
// CollisionsPath when set, otherwise from TrajectoryPath, otherwise from the
// Tracker run on the video. FPS and Duration override the probed values
// when positive.
type SyncRequest struct {
	VideoPath      string
	SoundPath      string
	TrajectoryPath string
	CollisionsPath string
	OutputPath     string // defaults to <video>_result.mp4
	Effects        models.EffectConfig
	FPS            float64
	Duration       float64
}

type SyncResult struct {
	JobID           string
	OutputPath      string
	CollisionsPath  string
	Events          []models.CollisionEvent
	Plan            *composite.Plan
	Reverb          effects.ReverbOutcome
	PlotPath        string
	SpectrogramPath string
	ReportPath      string
}

// JobDetail is a stored job with its placed collisions.
type JobDetail struct {
	models.Job
	Collisions []models.JobCollision
}
