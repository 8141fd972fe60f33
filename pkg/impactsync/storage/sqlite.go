package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/himanishpuri/ImpactSync/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "impactsync.sqlite3"
const errDBClientNil = "db client is nil"

// ErrJobNotFound is returned when no job has the requested ID.
var ErrJobNotFound = errors.New("job not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Job struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	VideoPath      string
	SoundPath      string
	OutputPath     string
	Volume         float64
	Reverb         float64
	Pitch          float64
	NoiseReduction float64
	GainPolicy     string
	Status         string `gorm:"index:idx_job_status"`
	Reason         string
	CollisionCount int
	AnchorTime     float64
	CreatedAt      time.Time `gorm:"index:idx_job_created"`
	UpdatedAt      time.Time
}

type Collision struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	JobID       string `gorm:"type:varchar(36);index:idx_collision_job"`
	CollisionID int
	Frame       int
	Type        string
	VX          float64
	VY          float64
	HasVelocity bool
	Gain        float64
	StartTime   float64
	TrimStart   float64
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("IMPACT_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Job{}, &Collision{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// CreateJob inserts job as running and returns its new ID.
func (c *DBClient) CreateJob(job models.Job) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	row := jobRow(job)
	row.ID = uuid.NewString()
	row.Status = string(models.JobRunning)
	if err := c.DB.Create(&row).Error; err != nil {
		return "", fmt.Errorf("creating job: %w", err)
	}
	return row.ID, nil
}

// FinishJob records the terminal state of a job.
func (c *DBClient) FinishJob(jobID string, status models.JobStatus, reason string, collisionCount int, anchor float64) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	res := c.DB.Model(&Job{}).Where("id = ?", jobID).Updates(map[string]any{
		"status":          string(status),
		"reason":          reason,
		"collision_count": collisionCount,
		"anchor_time":     anchor,
	})
	if res.Error != nil {
		return fmt.Errorf("updating job: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	return nil
}

// StoreCollisions replaces the collision rows of a job.
func (c *DBClient) StoreCollisions(jobID string, collisions []models.JobCollision) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}

	rows := make([]Collision, 0, len(collisions))
	for _, jc := range collisions {
		rows = append(rows, Collision{
			JobID:       jobID,
			CollisionID: jc.CollisionID,
			Frame:       jc.Frame,
			Type:        jc.Type.String(),
			VX:          jc.Velocity.VX,
			VY:          jc.Velocity.VY,
			HasVelocity: jc.HasVelocity,
			Gain:        jc.Gain,
			StartTime:   jc.StartTime,
			TrimStart:   jc.TrimStart,
		})
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", jobID).Delete(&Collision{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, 500).Error; err != nil {
			return fmt.Errorf("batch insert collisions: %w", err)
		}
		return nil
	})
}

func (c *DBClient) GetJob(jobID string) (*models.Job, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var row Job
	err := c.DB.Where("id = ?", jobID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying job: %w", err)
	}
	job := row.model()
	return &job, nil
}

// ListJobs returns jobs newest first. limit <= 0 returns all.
func (c *DBClient) ListJobs(limit int) ([]models.Job, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	q := c.DB.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []Job
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}

	jobs := make([]models.Job, len(rows))
	for i, r := range rows {
		jobs[i] = r.model()
	}
	return jobs, nil
}

// GetCollisions returns the collision rows of a job in collision order.
func (c *DBClient) GetCollisions(jobID string) ([]models.JobCollision, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var rows []Collision
	if err := c.DB.Where("job_id = ?", jobID).Order("collision_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying collisions: %w", err)
	}

	out := make([]models.JobCollision, 0, len(rows))
	for _, r := range rows {
		typ, err := models.ParseCollisionType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("collision %d: %w", r.CollisionID, err)
		}
		out = append(out, models.JobCollision{
			CollisionID: r.CollisionID,
			Frame:       r.Frame,
			Type:        typ,
			Velocity:    models.Velocity{VX: r.VX, VY: r.VY},
			HasVelocity: r.HasVelocity,
			Gain:        r.Gain,
			StartTime:   r.StartTime,
			TrimStart:   r.TrimStart,
		})
	}
	return out, nil
}

func (c *DBClient) DeleteJob(jobID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", jobID).Delete(&Collision{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", jobID).Delete(&Job{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
		}
		return nil
	})
}

func jobRow(j models.Job) Job {
	return Job{
		ID:             j.ID,
		VideoPath:      j.VideoPath,
		SoundPath:      j.SoundPath,
		OutputPath:     j.OutputPath,
		Volume:         j.Effects.VolumePercent,
		Reverb:         j.Effects.ReverbAmount,
		Pitch:          j.Effects.PitchSlider,
		NoiseReduction: j.Effects.NoiseReduction,
		GainPolicy:     j.GainPolicy,
		Status:         string(j.Status),
		Reason:         j.Reason,
		CollisionCount: j.CollisionCount,
		AnchorTime:     j.AnchorTime,
	}
}

func (r Job) model() models.Job {
	return models.Job{
		ID:         r.ID,
		VideoPath:  r.VideoPath,
		SoundPath:  r.SoundPath,
		OutputPath: r.OutputPath,
		Effects: models.EffectConfig{
			VolumePercent:  r.Volume,
			ReverbAmount:   r.Reverb,
			PitchSlider:    r.Pitch,
			NoiseReduction: r.NoiseReduction,
		},
		GainPolicy:     r.GainPolicy,
		Status:         models.JobStatus(r.Status),
		Reason:         r.Reason,
		CollisionCount: r.CollisionCount,
		AnchorTime:     r.AnchorTime,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
