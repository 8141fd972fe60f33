package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Metadata describes a media file as reported by ffprobe.
type Metadata struct {
	Filename    string
	DurationSec float64
	Format      string

	HasVideo bool
	FPS      float64
	Width    int
	Height   int

	HasAudio   bool
	SampleRate int
	Channels   int
}

type ffprobeOutput struct {
	Format struct {
		Filename string `json:"filename"`
		Duration string `json:"duration"`
		Format   string `json:"format_name"`
	} `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	Duration     string `json:"duration"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
}

func (p *ffprobeOutput) firstStream(codecType string) *ffprobeStream {
	for i := range p.Streams {
		if p.Streams[i].CodecType == codecType {
			return &p.Streams[i]
		}
	}
	return nil
}

// parseRate parses ffprobe rationals such as "30000/1001" or "25".
func parseRate(s string) (float64, error) {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate %q", s)
	}
	if !found {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("invalid rate %q", s)
	}
	return n / d, nil
}

// parseProbe turns raw ffprobe JSON into Metadata.
func parseProbe(path string, raw []byte) (*Metadata, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}

	meta := &Metadata{
		Filename: filepath.Base(path),
		Format:   probe.Format.Format,
	}
	meta.DurationSec, _ = strconv.ParseFloat(probe.Format.Duration, 64)

	if v := probe.firstStream("video"); v != nil {
		meta.HasVideo = true
		meta.Width = v.Width
		meta.Height = v.Height
		fps, err := parseRate(v.AvgFrameRate)
		if err != nil || fps == 0 {
			fps, err = parseRate(v.RFrameRate)
			if err != nil {
				return nil, err
			}
		}
		meta.FPS = fps
		if meta.DurationSec == 0 {
			meta.DurationSec, _ = strconv.ParseFloat(v.Duration, 64)
		}
	}
	if a := probe.firstStream("audio"); a != nil {
		meta.HasAudio = true
		meta.SampleRate, _ = strconv.Atoi(a.SampleRate)
		meta.Channels = a.Channels
		if meta.DurationSec == 0 {
			meta.DurationSec, _ = strconv.ParseFloat(a.Duration, 64)
		}
	}

	if !meta.HasVideo && !meta.HasAudio {
		return nil, errors.New("no audio or video stream found")
	}
	return meta, nil
}

// ReadMetadataFFmpeg probes path with ffprobe.
func ReadMetadataFFmpeg(ctx context.Context, path string) (*Metadata, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(
		ctx,
		"ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	return parseProbe(path, out)
}
