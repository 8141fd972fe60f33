package main

import (
	"fmt"
	"time"

	"github.com/himanishpuri/ImpactSync/pkg/impactsync"
	"github.com/himanishpuri/ImpactSync/pkg/models"
	"github.com/himanishpuri/ImpactSync/pkg/utils"
)

// Upload limits
const (
	// MaxVideoDuration is the longest accepted clip in seconds
	MaxVideoDuration = 20.0

	// MaxAudioDuration is the longest accepted impact sound in seconds
	MaxAudioDuration = 0.5

	// MaxUploadBytes bounds the whole multipart body
	MaxUploadBytes = 200 << 20
)

var (
	videoExtensions = []string{"mp4"}
	audioExtensions = []string{"mp3", "wav"}
)

func validateVideoName(name string) error {
	if !utils.HasExtension(name, videoExtensions...) {
		return fmt.Errorf("unsupported video file %q (allowed: %v)", name, videoExtensions)
	}
	return nil
}

func validateAudioName(name string) error {
	if !utils.HasExtension(name, audioExtensions...) {
		return fmt.Errorf("unsupported audio file %q (allowed: %v)", name, audioExtensions)
	}
	return nil
}

// SyncResponse is the response for POST /api/sync
type SyncResponse struct {
	JobID       string         `json:"job_id"`
	OutputURL   string         `json:"output_url"`
	Collisions  []CollisionDTO `json:"collisions"`
	Count       int            `json:"count"`
	AnchorTime  float64        `json:"anchor_time"`
	GainPolicy  string         `json:"gain_policy"`
	Reverb      string         `json:"reverb"`
	ReverbNotes string         `json:"reverb_notes,omitempty"`
}

// CollisionDTO represents one placed collision
type CollisionDTO struct {
	ID        int     `json:"id"`
	Frame     int     `json:"frame"`
	Type      string  `json:"type"`
	Gain      float64 `json:"gain"`
	StartTime float64 `json:"start_time"`
	TrimStart float64 `json:"trim_start,omitempty"`
}

// JobDTO represents a job in API responses
type JobDTO struct {
	ID             string         `json:"id"`
	Status         string         `json:"status"`
	Reason         string         `json:"reason,omitempty"`
	Video          string         `json:"video"`
	Sound          string         `json:"sound"`
	Effects        EffectsDTO     `json:"effects"`
	GainPolicy     string         `json:"gain_policy"`
	CollisionCount int            `json:"collision_count"`
	AnchorTime     float64        `json:"anchor_time"`
	CreatedAt      time.Time      `json:"created_at"`
	Collisions     []CollisionDTO `json:"collisions,omitempty"`
}

// EffectsDTO mirrors the effect sliders of a job
type EffectsDTO struct {
	Volume         float64 `json:"volume"`
	Reverb         float64 `json:"reverb"`
	Pitch          float64 `json:"pitch"`
	NoiseReduction float64 `json:"noise_reduction"`
}

// ListJobsResponse is the response for GET /api/jobs
type ListJobsResponse struct {
	Jobs  []JobDTO `json:"jobs"`
	Count int      `json:"count"`
}

// DeleteJobResponse is the response for DELETE /api/jobs/{id}
type DeleteJobResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

func jobDTO(j models.Job) JobDTO {
	return JobDTO{
		ID:     j.ID,
		Status: string(j.Status),
		Reason: j.Reason,
		Video:  j.VideoPath,
		Sound:  j.SoundPath,
		Effects: EffectsDTO{
			Volume:         j.Effects.VolumePercent,
			Reverb:         j.Effects.ReverbAmount,
			Pitch:          j.Effects.PitchSlider,
			NoiseReduction: j.Effects.NoiseReduction,
		},
		GainPolicy:     j.GainPolicy,
		CollisionCount: j.CollisionCount,
		AnchorTime:     j.AnchorTime,
		CreatedAt:      j.CreatedAt,
	}
}

func jobDetailDTO(d *impactsync.JobDetail) JobDTO {
	dto := jobDTO(d.Job)
	dto.Collisions = make([]CollisionDTO, len(d.Collisions))
	for i, c := range d.Collisions {
		dto.Collisions[i] = CollisionDTO{
			ID:        c.CollisionID,
			Frame:     c.Frame,
			Type:      c.Type.String(),
			Gain:      c.Gain,
			StartTime: c.StartTime,
			TrimStart: c.TrimStart,
		}
	}
	return dto
}

func syncResponse(res *impactsync.SyncResult) SyncResponse {
	out := SyncResponse{
		JobID:      res.JobID,
		OutputURL:  "/api/jobs/" + res.JobID + "/output",
		Collisions: make([]CollisionDTO, len(res.Events)),
		Count:      len(res.Events),
		AnchorTime: res.Plan.Anchor,
		GainPolicy: res.Plan.Gain,
		Reverb:     res.Reverb.Status.String(),
	}
	if res.Reverb.Reason != "" {
		out.ReverbNotes = res.Reverb.Reason
	}
	for i, e := range res.Events {
		c := CollisionDTO{ID: e.ID, Frame: e.Frame, Type: e.Type.String()}
		if i < len(res.Plan.Instances) {
			inst := res.Plan.Instances[i]
			c.Gain, c.StartTime, c.TrimStart = inst.Gain, inst.StartTime, inst.TrimStart
		}
		out.Collisions[i] = c
	}
	return out
}
