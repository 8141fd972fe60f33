package impactsync

import (
	"errors"

	"github.com/himanishpuri/ImpactSync/pkg/impactsync/composite"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/effects"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/storage"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/trajectory"
	"github.com/himanishpuri/ImpactSync/pkg/models"
)

var (
	ErrInvalidAudio          = models.ErrInvalidAudio
	ErrDataFormat            = trajectory.ErrDataFormat
	ErrCapabilityUnavailable = effects.ErrCapabilityUnavailable
	ErrInvalidTiming         = composite.ErrInvalidTiming
	ErrJobNotFound           = storage.ErrJobNotFound

	// ErrInvalidRequest reports missing or contradictory request fields.
	ErrInvalidRequest = errors.New("invalid request")
)
