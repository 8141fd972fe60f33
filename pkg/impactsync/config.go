package impactsync

import (
	"os"

	"github.com/himanishpuri/ImpactSync/pkg/impactsync/audio"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/composite"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/effects"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/trajectory"
)

type Config struct {
	DBPath         string
	TempDir        string
	SampleRate     int
	DiagnosticsDir string
	Logger         Logger
	Storage        Storage
	Reverberator   effects.Reverberator
	Muxer          audio.Muxer
	Prober         Prober
	Tracker        Tracker
	GainPolicy     composite.GainPolicy
	Rules          []trajectory.Rule
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

// WithSampleRate sets the rate compressed source sounds are decoded at.
// WAV sources keep their own rate.
func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

// WithDiagnosticsDir enables trajectory plots and composite spectrograms.
func WithDiagnosticsDir(dir string) Option {
	return func(c *Config) {
		c.DiagnosticsDir = dir
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func WithReverberator(r effects.Reverberator) Option {
	return func(c *Config) {
		c.Reverberator = r
	}
}

func WithMuxer(m audio.Muxer) Option {
	return func(c *Config) {
		c.Muxer = m
	}
}

func WithProber(p Prober) Option {
	return func(c *Config) {
		c.Prober = p
	}
}

func WithTracker(t Tracker) Option {
	return func(c *Config) {
		c.Tracker = t
	}
}

func WithGainPolicy(g composite.GainPolicy) Option {
	return func(c *Config) {
		c.GainPolicy = g
	}
}

// WithRules replaces the collision rules, evaluated in order.
func WithRules(rules ...trajectory.Rule) Option {
	return func(c *Config) {
		c.Rules = rules
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:     "impactsync.sqlite3",
		TempDir:    os.TempDir(),
		SampleRate: audio.DefaultSampleRate,
		Muxer:      audio.FFmpegMuxer{},
		Prober:     ffprobe{},
		GainPolicy: composite.VelocityGain{},
	}
}
