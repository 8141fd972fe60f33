package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/himanishpuri/ImpactSync/pkg/models"
)

// Helper function to create a temporary test database
func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_impactsync.sqlite3")
	t.Setenv("IMPACT_DB_PATH", dbPath)

	client, err := NewDBClient()
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	return client, dbPath
}

func sampleJob() models.Job {
	return models.Job{
		VideoPath:  "/clips/rally.mp4",
		SoundPath:  "/sounds/thwack.wav",
		OutputPath: "/clips/rally_result.mp4",
		Effects:    models.EffectConfig{VolumePercent: 120, ReverbAmount: 30, PitchSlider: 60, NoiseReduction: 10},
		GainPolicy: "velocity",
	}
}

// TestNewDBClient tests database initialization
func TestNewDBClient(t *testing.T) {
	client, dbPath := setupTestDB(t)

	if client.DB == nil {
		t.Fatal("Expected non-nil GORM DB handle")
	}
	if client.db == nil {
		t.Fatal("Expected non-nil sql.DB handle")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at %s", dbPath)
	}
}

// TestNewDBClientWithCustomPath tests that missing parent directories are created
func TestNewDBClientWithCustomPath(t *testing.T) {
	customPath := filepath.Join(t.TempDir(), "subdir", "custom.db")

	client, err := NewDBClientWithPath(customPath)
	if err != nil {
		t.Fatalf("Failed to create DB with custom path: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(customPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at custom path %s", customPath)
	}
}

func TestCreateAndGetJob(t *testing.T) {
	client, _ := setupTestDB(t)

	id, err := client.CreateJob(sampleJob())
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}
	if id == "" {
		t.Fatal("Expected non-empty job ID")
	}

	job, err := client.GetJob(id)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if job.Status != models.JobRunning {
		t.Errorf("Expected status running, got %s", job.Status)
	}
	if job.Effects != sampleJob().Effects {
		t.Errorf("Effects mismatch: got %+v", job.Effects)
	}
	if job.VideoPath != "/clips/rally.mp4" || job.GainPolicy != "velocity" {
		t.Errorf("Unexpected job fields: %+v", job)
	}
	if job.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestFinishJob(t *testing.T) {
	client, _ := setupTestDB(t)

	id, err := client.CreateJob(sampleJob())
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}
	if err := client.FinishJob(id, models.JobFailed, "decode sound: invalid audio", 3, 0.125); err != nil {
		t.Fatalf("Failed to finish job: %v", err)
	}

	job, err := client.GetJob(id)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if job.Status != models.JobFailed {
		t.Errorf("Expected status failed, got %s", job.Status)
	}
	if job.Reason != "decode sound: invalid audio" {
		t.Errorf("Unexpected reason %q", job.Reason)
	}
	if job.CollisionCount != 3 || job.AnchorTime != 0.125 {
		t.Errorf("Expected 3 collisions at anchor 0.125, got %d at %v", job.CollisionCount, job.AnchorTime)
	}
}

func TestFinishJobNotFound(t *testing.T) {
	client, _ := setupTestDB(t)

	err := client.FinishJob("missing", models.JobSucceeded, "", 0, 0)
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
	if _, err := client.GetJob("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}
}

func TestStoreCollisions(t *testing.T) {
	client, _ := setupTestDB(t)

	id, err := client.CreateJob(sampleJob())
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}

	want := []models.JobCollision{
		{CollisionID: 1, Frame: 12, Velocity: models.Velocity{VX: 1.5, VY: 4}, HasVelocity: true, Gain: 1, StartTime: 0.3},
		{CollisionID: 2, Frame: 40, Velocity: models.Velocity{VX: 0.5, VY: 2}, HasVelocity: true, Gain: 0.5, StartTime: 1.2},
		{CollisionID: 3, Frame: 2, Gain: 1, TrimStart: 0.05},
	}
	// insert out of order to check ordering on read
	if err := client.StoreCollisions(id, []models.JobCollision{want[2], want[0], want[1]}); err != nil {
		t.Fatalf("Failed to store collisions: %v", err)
	}

	got, err := client.GetCollisions(id)
	if err != nil {
		t.Fatalf("Failed to get collisions: %v", err)
	}
	want = []models.JobCollision{want[0], want[1], want[2]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Collisions mismatch (-want +got):\n%s", diff)
	}

	// storing again replaces the previous rows
	if err := client.StoreCollisions(id, want[:1]); err != nil {
		t.Fatalf("Failed to replace collisions: %v", err)
	}
	got, _ = client.GetCollisions(id)
	if len(got) != 1 {
		t.Errorf("Expected 1 collision after replace, got %d", len(got))
	}
}

func TestStoreCollisionsEmpty(t *testing.T) {
	client, _ := setupTestDB(t)

	id, _ := client.CreateJob(sampleJob())
	if err := client.StoreCollisions(id, nil); err != nil {
		t.Fatalf("Storing no collisions should not fail: %v", err)
	}
	got, err := client.GetCollisions(id)
	if err != nil {
		t.Fatalf("Failed to get collisions: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected no collisions, got %d", len(got))
	}
}

func TestListJobs(t *testing.T) {
	client, _ := setupTestDB(t)

	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		id, err := client.CreateJob(sampleJob())
		if err != nil {
			t.Fatalf("Failed to create job %d: %v", i, err)
		}
		ids[id] = true
	}

	jobs, err := client.ListJobs(0)
	if err != nil {
		t.Fatalf("Failed to list jobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("Expected 3 jobs, got %d", len(jobs))
	}
	for _, j := range jobs {
		if !ids[j.ID] {
			t.Errorf("Unexpected job ID %s", j.ID)
		}
	}

	limited, err := client.ListJobs(2)
	if err != nil {
		t.Fatalf("Failed to list jobs with limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 jobs with limit, got %d", len(limited))
	}
}

func TestDeleteJob(t *testing.T) {
	client, _ := setupTestDB(t)

	id, _ := client.CreateJob(sampleJob())
	if err := client.StoreCollisions(id, []models.JobCollision{{CollisionID: 1, Frame: 5, Gain: 1}}); err != nil {
		t.Fatalf("Failed to store collisions: %v", err)
	}

	if err := client.DeleteJob(id); err != nil {
		t.Fatalf("Failed to delete job: %v", err)
	}
	if _, err := client.GetJob(id); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected job to be deleted, got %v", err)
	}

	var count int64
	client.DB.Model(&Collision{}).Where("job_id = ?", id).Count(&count)
	if count != 0 {
		t.Errorf("Expected 0 collisions after job deletion, found %d", count)
	}

	if err := client.DeleteJob(id); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Expected ErrJobNotFound on second delete, got %v", err)
	}
}

// TestNilClient tests that methods handle nil client gracefully
func TestNilClient(t *testing.T) {
	var client *DBClient

	if err := client.Close(); err != nil {
		t.Errorf("Close on nil client should not error, got: %v", err)
	}
	if _, err := client.CreateJob(sampleJob()); err == nil {
		t.Error("Expected error when creating job with nil client")
	}
	if _, err := client.ListJobs(0); err == nil {
		t.Error("Expected error when listing jobs with nil client")
	}
	if err := client.StoreCollisions("x", nil); err == nil {
		t.Error("Expected error when storing collisions with nil client")
	}
}
