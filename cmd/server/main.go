package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/ImpactSync/pkg/impactsync"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/effects"
	"github.com/himanishpuri/ImpactSync/pkg/logger"
)

var (
	port           int
	dbPath         string
	tempDir        string
	outputDir      string
	sampleRate     int
	soxPath        string
	trackerCmd     string
	diagDir        string
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("IMPACT_DB_PATH", "impactsync.sqlite3"), "Path to SQLite database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("IMPACT_TEMP_DIR", os.TempDir()), "Temporary directory")
	flag.StringVar(&outputDir, "out", getEnvOrDefault("IMPACT_OUTPUT_DIR", "outputs"), "Directory for result videos")
	flag.IntVar(&sampleRate, "rate", 44100, "Decode rate for compressed source sounds")
	flag.StringVar(&soxPath, "sox", getEnvOrDefault("IMPACT_SOX_PATH", "sox"), "SoX binary used for reverb")
	flag.StringVar(&trackerCmd, "tracker", os.Getenv("IMPACT_TRACKER_CMD"), "Tracker command with {video} and {out} placeholders")
	flag.StringVar(&diagDir, "diag", "", "Write trajectory plots and spectrograms to this directory")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseOrigins(list string) []string {
	if list == "*" {
		return []string{"*"}
	}
	origins := strings.Split(list, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

func main() {
	flag.Parse()
	log := logger.GetLogger()

	outDir, err := filepath.Abs(outputDir)
	if err != nil {
		log.Fatalf("Invalid output directory: %v", err)
	}

	opts := []impactsync.Option{
		impactsync.WithDBPath(dbPath),
		impactsync.WithTempDir(tempDir),
		impactsync.WithSampleRate(sampleRate),
		impactsync.WithReverberator(&effects.SoxReverb{Binary: soxPath, TempDir: tempDir}),
		impactsync.WithDiagnosticsDir(diagDir),
		impactsync.WithLogger(log.With("service")),
	}
	if trackerCmd != "" {
		opts = append(opts, impactsync.WithTracker(impactsync.NewCommandTracker(trackerCmd)))
	}

	service, err := impactsync.NewService(opts...)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	config := &ServerConfig{
		Port:           port,
		DBPath:         dbPath,
		TempDir:        tempDir,
		OutputDir:      outDir,
		AllowedOrigins: parseOrigins(allowedOrigins),
	}

	server := NewServer(service, config)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
