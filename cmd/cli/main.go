package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/himanishpuri/ImpactSync/pkg/impactsync"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/composite"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/effects"
	"github.com/himanishpuri/ImpactSync/pkg/impactsync/trajectory"
	"github.com/himanishpuri/ImpactSync/pkg/logger"
	"github.com/himanishpuri/ImpactSync/pkg/models"
)

// Global flags
var (
	dbPath     string
	tempDir    string
	sampleRate int
	soxPath    string
	trackerCmd string
	diagDir    string
)

func init() {
	flag.StringVar(&dbPath, "db", getEnvOrDefault("IMPACT_DB_PATH", "impactsync.sqlite3"), "Path to the SQLite job database")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("IMPACT_TEMP_DIR", os.TempDir()), "Root for per-run scratch directories")
	flag.IntVar(&sampleRate, "rate", 44100, "Decode rate for compressed source sounds")
	flag.StringVar(&soxPath, "sox", getEnvOrDefault("IMPACT_SOX_PATH", "sox"), "SoX binary used for reverb")
	flag.StringVar(&trackerCmd, "tracker", os.Getenv("IMPACT_TRACKER_CMD"), "Tracker command with {video} and {out} placeholders")
	flag.StringVar(&diagDir, "diag", "", "Write trajectory plots and spectrograms to this directory")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// createService creates a new ImpactSync service with configured options
func createService(extra ...impactsync.Option) (impactsync.Service, error) {
	opts := []impactsync.Option{
		impactsync.WithDBPath(dbPath),
		impactsync.WithTempDir(tempDir),
		impactsync.WithSampleRate(sampleRate),
		impactsync.WithReverberator(&effects.SoxReverb{Binary: soxPath, TempDir: tempDir}),
		impactsync.WithDiagnosticsDir(diagDir),
	}
	if trackerCmd != "" {
		opts = append(opts, impactsync.WithTracker(impactsync.NewCommandTracker(trackerCmd)))
	}
	return impactsync.NewService(append(opts, extra...)...)
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	log := logger.GetLogger()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]
	log.Debugf("Executing command: %s", command)

	switch command {
	case "detect":
		handleDetect(args)
	case "effect":
		handleEffect(args)
	case "sync":
		handleSync(args)
	case "jobs":
		handleJobs(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// splitArgs separates leading positional arguments from flags so that
// "sync clip.mp4 --sound hit.wav" works with the flag package.
func splitArgs(args []string) (positional, flags []string) {
	for i, arg := range args {
		if strings.HasPrefix(arg, "-") {
			return positional, args[i:]
		}
		positional = append(positional, arg)
	}
	return positional, nil
}

func fail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Printf("❌ %s\n", msg)
	logger.GetLogger().Errorf("%s", msg)
	os.Exit(1)
}

// effectFlags registers the four effect sliders on fs.
func effectFlags(fs *flag.FlagSet) *models.EffectConfig {
	cfg := models.NeutralEffects()
	fs.Float64Var(&cfg.VolumePercent, "volume", cfg.VolumePercent, "Volume percent (100 = unity)")
	fs.Float64Var(&cfg.ReverbAmount, "reverb", cfg.ReverbAmount, "Reverb amount 0-100")
	fs.Float64Var(&cfg.PitchSlider, "pitch", cfg.PitchSlider, "Pitch slider 0-100 (50 = no shift, +/-5 semitones)")
	fs.Float64Var(&cfg.NoiseReduction, "noise", cfg.NoiseReduction, "Noise reduction (pre-emphasis) 0-100")
	return &cfg
}

func parseRules(list string) ([]trajectory.Rule, error) {
	if list == "" {
		return nil, nil
	}
	var rules []trajectory.Rule
	for _, name := range strings.Split(list, ",") {
		r, ok := trajectory.RuleByName(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown rule %q", name)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

func handleDetect(args []string) {
	positional, flagArgs := splitArgs(args)

	cmd := flag.NewFlagSet("detect", flag.ExitOnError)
	video := cmd.String("video", "", "Video to run the tracker on instead of a trajectory CSV")
	out := cmd.String("out", "", "Write the collision table (Collision,Frame,Type) here")
	rules := cmd.String("rules", "", "Comma-separated rules: y-peak, vertical-jump, x-reversal, xy-reversal")
	cmd.Parse(flagArgs)

	var trajPath string
	if len(positional) > 0 {
		trajPath = positional[0]
	}
	if trajPath == "" && *video == "" {
		fmt.Println("Usage: impactsync detect <trajectory.csv> [--out collisions.csv] [--rules y-peak]")
		fmt.Println("   OR: impactsync --tracker <cmd> detect --video <clip.mp4>")
		os.Exit(1)
	}

	ruleSet, err := parseRules(*rules)
	if err != nil {
		fail("%v", err)
	}
	var extra []impactsync.Option
	if len(ruleSet) > 0 {
		extra = append(extra, impactsync.WithRules(ruleSet...))
	}

	svc, err := createService(extra...)
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	res, err := svc.Detect(ctx, impactsync.DetectRequest{
		TrajectoryPath: trajPath,
		VideoPath:      *video,
		CollisionsPath: *out,
	})
	if err != nil {
		fail("Detection failed: %v", err)
	}

	fmt.Printf("\n✅ %d collision(s) in %d trajectory samples\n\n", len(res.Events), len(res.Trajectory))
	for _, e := range res.Events {
		fmt.Printf("%3d. frame %-6d %s", e.ID, e.Frame, e.Type)
		if e.HasVelocity {
			fmt.Printf("  v=(%.2f, %.2f) px/frame", e.Velocity.VX, e.Velocity.VY)
		}
		fmt.Println()
	}
	if res.CollisionsPath != "" {
		fmt.Printf("\n📄 Collision table: %s\n", res.CollisionsPath)
	}
}

func handleEffect(args []string) {
	positional, flagArgs := splitArgs(args)

	cmd := flag.NewFlagSet("effect", flag.ExitOnError)
	out := cmd.String("out", "", "Output WAV path (required)")
	cfg := effectFlags(cmd)
	cmd.Parse(flagArgs)

	if len(positional) == 0 || *out == "" {
		fmt.Println("Usage: impactsync effect <sound> --out processed.wav [--volume 100] [--reverb 0] [--pitch 50] [--noise 0]")
		os.Exit(1)
	}

	svc, err := createService()
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	res, err := svc.ProcessSound(ctx, positional[0], *out, *cfg)
	if err != nil {
		fail("Effect processing failed: %v", err)
	}

	fmt.Println("\n✅ Processed sound written")
	fmt.Printf("   Output:   %s (%.3fs)\n", res.OutputPath, res.Duration)
	fmt.Printf("   Volume:   x%.2f\n", res.Report.Volume)
	if res.Report.PitchSemitones != 0 {
		fmt.Printf("   Pitch:    %+.1f semitones\n", res.Report.PitchSemitones)
	}
	if res.Report.PreEmphasis != 0 {
		fmt.Printf("   Emphasis: %.2f\n", res.Report.PreEmphasis)
	}
	fmt.Printf("   Reverb:   %s", res.Report.Reverb.Status)
	if res.Report.Reverb.Status == effects.ReverbUnavailable {
		fmt.Printf(" (%s)", res.Report.Reverb.Reason)
	}
	fmt.Println()
	if res.Report.Fade != nil {
		fmt.Printf("   Impact:   %.3fs\n", res.Report.Fade.Time)
	}
}

func handleSync(args []string) {
	positional, flagArgs := splitArgs(args)

	cmd := flag.NewFlagSet("sync", flag.ExitOnError)
	sound := cmd.String("sound", "", "Impact sound (.wav or .mp3, required)")
	traj := cmd.String("trajectory", "", "Trajectory CSV (Frame,X,Y)")
	collisions := cmd.String("collisions", "", "Precomputed collision table (Collision,Frame,Type)")
	out := cmd.String("out", "", "Output video (default <video>_result.mp4)")
	fps := cmd.Float64("fps", 0, "Override the probed frame rate")
	duration := cmd.Float64("duration", 0, "Override the probed duration in seconds")
	gain := cmd.String("gain", "velocity", "Gain policy: velocity or table")
	cfg := effectFlags(cmd)
	cmd.Parse(flagArgs)

	if len(positional) == 0 || *sound == "" {
		fmt.Println("Usage: impactsync sync <video.mp4> --sound <hit.wav> [--trajectory t.csv | --collisions c.csv] [--out out.mp4]")
		os.Exit(1)
	}

	policy, ok := composite.GainPolicyByName(*gain)
	if !ok {
		fail("Unknown gain policy %q", *gain)
	}

	fmt.Println("\n🔧 Initializing service...")
	svc, err := createService(impactsync.WithGainPolicy(policy))
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	fmt.Println("🎬 Synchronizing impact sounds...")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Minute)
	defer cancel()

	res, err := svc.Synchronize(ctx, impactsync.SyncRequest{
		VideoPath:      positional[0],
		SoundPath:      *sound,
		TrajectoryPath: *traj,
		CollisionsPath: *collisions,
		OutputPath:     *out,
		Effects:        *cfg,
		FPS:            *fps,
		Duration:       *duration,
	})
	if err != nil {
		fail("Synchronize failed: %v", err)
	}

	fmt.Println("\n✅ Done!")
	fmt.Printf("   Job:        %s\n", res.JobID)
	fmt.Printf("   Output:     %s\n", res.OutputPath)
	fmt.Printf("   Collisions: %d\n", len(res.Events))
	fmt.Printf("   Anchor:     %.3fs (gain: %s)\n", res.Plan.Anchor, res.Plan.Gain)
	if res.CollisionsPath != "" {
		fmt.Printf("   Table:      %s\n", res.CollisionsPath)
	}
	if res.PlotPath != "" {
		fmt.Printf("   Plot:       %s\n", res.PlotPath)
	}
	if res.SpectrogramPath != "" {
		fmt.Printf("   Spectrum:   %s\n", res.SpectrogramPath)
	}
}

func handleJobs(args []string) {
	positional, flagArgs := splitArgs(args)

	cmd := flag.NewFlagSet("jobs", flag.ExitOnError)
	limit := cmd.Int("limit", 20, "Maximum number of jobs to list")
	cmd.Parse(flagArgs)

	action := "list"
	if len(positional) > 0 {
		action = positional[0]
	}

	svc, err := createService()
	if err != nil {
		fail("Failed to create service: %v", err)
	}
	defer svc.Close()

	switch action {
	case "list":
		jobs, err := svc.ListJobs(*limit)
		if err != nil {
			fail("Failed to list jobs: %v", err)
		}
		if len(jobs) == 0 {
			fmt.Println("\n📭 No jobs recorded")
			return
		}
		fmt.Printf("\n📚 %d job(s):\n\n", len(jobs))
		for _, j := range jobs {
			fmt.Printf("%s  %-9s  %3d collisions  %s\n", j.ID, j.Status, j.CollisionCount, j.VideoPath)
			if j.Reason != "" {
				fmt.Printf("   reason: %s\n", j.Reason)
			}
		}
	case "show":
		if len(positional) < 2 {
			fail("Usage: impactsync jobs show <job_id>")
		}
		job, err := svc.GetJob(positional[1])
		if err != nil {
			fail("Job not found: %v", err)
		}
		printJob(job)
	case "delete":
		if len(positional) < 2 {
			fail("Usage: impactsync jobs delete <job_id>")
		}
		if err := svc.DeleteJob(positional[1]); err != nil {
			fail("Failed to delete job: %v", err)
		}
		fmt.Printf("\n✅ Deleted job %s\n", positional[1])
	default:
		fail("Unknown jobs action: %s", action)
	}
}

func printJob(job *impactsync.JobDetail) {
	fmt.Printf("\nJob %s (%s)\n", job.ID, job.Status)
	fmt.Printf("   Created: %s\n", job.CreatedAt.Format(time.RFC3339))
	fmt.Printf("   Video:   %s\n", job.VideoPath)
	fmt.Printf("   Sound:   %s\n", job.SoundPath)
	fmt.Printf("   Output:  %s\n", job.OutputPath)
	fmt.Printf("   Effects: volume=%.0f reverb=%.0f pitch=%.0f noise=%.0f\n",
		job.Effects.VolumePercent, job.Effects.ReverbAmount, job.Effects.PitchSlider, job.Effects.NoiseReduction)
	fmt.Printf("   Gain:    %s, anchor %.3fs\n", job.GainPolicy, job.AnchorTime)
	if job.Reason != "" {
		fmt.Printf("   Reason:  %s\n", job.Reason)
	}
	if len(job.Collisions) == 0 {
		return
	}
	fmt.Println()
	for _, c := range job.Collisions {
		fmt.Printf("   %3d. frame %-6d start %.3fs gain %.2f", c.CollisionID, c.Frame, c.StartTime, c.Gain)
		if c.TrimStart > 0 {
			fmt.Printf(" (trimmed %.3fs)", c.TrimStart)
		}
		fmt.Println()
	}
}

func printUsage() {
	fmt.Println("ImpactSync - collision-synchronized impact sounds")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --db <path>        SQLite job database (env: IMPACT_DB_PATH, default: impactsync.sqlite3)")
	fmt.Println("  --temp <dir>       Scratch root (env: IMPACT_TEMP_DIR, default: system temp)")
	fmt.Println("  --rate <hz>        Decode rate for compressed sounds (default: 44100)")
	fmt.Println("  --sox <path>       SoX binary for reverb (env: IMPACT_SOX_PATH)")
	fmt.Println("  --tracker <cmd>    Tracker command, e.g. \"python track.py {video} {out}\" (env: IMPACT_TRACKER_CMD)")
	fmt.Println("  --diag <dir>       Write trajectory plot and spectrogram")
	fmt.Println("\nUsage:")
	fmt.Println("  impactsync [global-options] detect <trajectory.csv> [--out collisions.csv] [--rules y-peak]")
	fmt.Println("  impactsync [global-options] effect <sound> --out processed.wav [effect options]")
	fmt.Println("  impactsync [global-options] sync <video.mp4> --sound <hit.wav> [--trajectory t.csv | --collisions c.csv] [effect options]")
	fmt.Println("  impactsync [global-options] jobs [list|show <id>|delete <id>] [--limit 20]")
	fmt.Println("\nEffect options:")
	fmt.Println("  --volume 100  --reverb 0  --pitch 50  --noise 0")
	fmt.Println("\nExamples:")
	fmt.Println("  impactsync sync rally.mp4 --sound thwack.wav --trajectory rally_ball.csv --reverb 30")
	fmt.Println("  impactsync --tracker \"tracknet --video {video} --csv {out}\" sync rally.mp4 --sound thwack.mp3")
}
