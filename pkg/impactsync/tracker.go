package impactsync

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/himanishpuri/ImpactSync/pkg/impactsync/trajectory"
	"github.com/himanishpuri/ImpactSync/pkg/models"
)

// CommandTracker runs an external tracking model. Command is split on
// whitespace; the placeholders {video} and {out} are replaced by the input
// video and the CSV path the command must write (columns Frame,X,Y).
type CommandTracker struct {
	Command string
	Timeout time.Duration // default 10 minutes
}

func NewCommandTracker(command string) *CommandTracker {
	return &CommandTracker{Command: command}
}

func (t *CommandTracker) Track(ctx context.Context, videoPath, workDir string) (models.Trajectory, error) {
	fields := strings.Fields(t.Command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty tracker command", ErrInvalidRequest)
	}

	if _, ok := ctx.Deadline(); !ok {
		timeout := t.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Minute
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	outPath := filepath.Join(workDir, "trajectory.csv")
	r := strings.NewReplacer("{video}", videoPath, "{out}", outPath)
	args := make([]string, len(fields))
	for i, f := range fields {
		args[i] = r.Replace(f)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = workDir
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("tracker failed: %v (%s)", err, out)
	}

	traj, err := trajectory.LoadCSV(outPath)
	if err != nil {
		return nil, fmt.Errorf("tracker output: %w", err)
	}
	return traj, nil
}
