package models

import "time"

// JobStatus is the lifecycle state of one synchronize request.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is the audit record of one synchronize request.
type Job struct {
	ID             string
	VideoPath      string
	SoundPath      string
	OutputPath     string
	Effects        EffectConfig
	GainPolicy     string
	Status         JobStatus
	Reason         string // failure reason, empty on success
	CollisionCount int
	AnchorTime     float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// JobCollision is one placed collision of a job.
type JobCollision struct {
	CollisionID int
	Frame       int
	Type        CollisionType
	Velocity    Velocity
	HasVelocity bool
	Gain        float64
	StartTime   float64
	TrimStart   float64
}
