package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/himanishpuri/ImpactSync/pkg/utils"
)

// DefaultSampleRate keeps the source sound close to its native resolution.
const DefaultSampleRate = 44100

type ConvertWAVConfig struct {
	SampleRate int // e.g. 22050, 44100, 48000
}

// ConvertToMonoWAV decodes any ffmpeg-readable input into a mono 16-bit PCM
// WAV at outputPath. The file only appears once ffmpeg has succeeded.
func ConvertToMonoWAV(
	ctx context.Context,
	inputPath string,
	outputPath string,
	cfg ConvertWAVConfig,
) error {

	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	if err := utils.MakeDir(filepath.Dir(outputPath)); err != nil {
		return err
	}

	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-v", "quiet",
		"-i", inputPath,
		"-vn",
		"-ac", "1", // mono
		"-ar", fmt.Sprintf("%d", cfg.SampleRate),
		"-c:a", "pcm_s16le",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	return utils.MoveFile(tmpPath, outputPath)
}
