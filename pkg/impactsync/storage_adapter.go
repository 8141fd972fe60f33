package impactsync

import (
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/storage"
	"github.com/himanishpuri/ImpactSync/pkg/models"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) CreateJob(job models.Job) (string, error) {
	return s.db.CreateJob(job)
}

func (s *storageAdapter) FinishJob(jobID string, status models.JobStatus, reason string, collisionCount int, anchor float64) error {
	return s.db.FinishJob(jobID, status, reason, collisionCount, anchor)
}

func (s *storageAdapter) StoreCollisions(jobID string, collisions []models.JobCollision) error {
	return s.db.StoreCollisions(jobID, collisions)
}

func (s *storageAdapter) GetJob(jobID string) (*models.Job, error) {
	return s.db.GetJob(jobID)
}

func (s *storageAdapter) GetCollisions(jobID string) ([]models.JobCollision, error) {
	return s.db.GetCollisions(jobID)
}

func (s *storageAdapter) ListJobs(limit int) ([]models.Job, error) {
	return s.db.ListJobs(limit)
}

func (s *storageAdapter) DeleteJob(jobID string) error {
	return s.db.DeleteJob(jobID)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
