package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/himanishpuri/ImpactSync/pkg/utils"
)

// Muxer replaces the audio of a video while preserving its visual stream.
type Muxer interface {
	ReplaceAudio(ctx context.Context, videoPath, audioPath, outputPath string) error
}

// FFmpegMuxer copies the first video stream and encodes the new audio as AAC.
type FFmpegMuxer struct {
	Binary string // defaults to "ffmpeg"
}

func (m FFmpegMuxer) ReplaceAudio(ctx context.Context, videoPath, audioPath, outputPath string) error {
	bin := m.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
	}

	tmpPath := outputPath + ".tmp.mp4"
	defer os.Remove(tmpPath)

	cmd := exec.CommandContext(
		ctx,
		bin,
		"-y",
		"-v", "quiet",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-f", "mp4",
		tmpPath,
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg mux failed: %v (%s)", err, out)
	}

	return utils.MoveFile(tmpPath, outputPath)
}
