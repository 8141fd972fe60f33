package trajectory

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/himanishpuri/ImpactSync/pkg/models"
)

// Column names of the tracker output.
const (
	ColFrame = "Frame"
	ColX     = "X"
	ColY     = "Y"
)

// headerIndex maps required column names to their position in header.
func headerIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, &FormatError{Column: col, Reason: "missing column"}
		}
	}
	return idx, nil
}

// ReadCSV parses a tracker table with at least the columns Frame, X and Y.
// Extra columns (e.g. Visibility) are ignored. Rows must be frame-ascending.
func ReadCSV(r io.Reader) (models.Trajectory, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FormatError{Reason: "empty table"}
		}
		return nil, fmt.Errorf("%w: reading header: %v", ErrDataFormat, err)
	}
	idx, err := headerIndex(header, ColFrame, ColX, ColY)
	if err != nil {
		return nil, err
	}

	var out models.Trajectory
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrDataFormat, line, err)
		}

		s, err := parseSample(rec, idx, line)
		if err != nil {
			return nil, err
		}
		if n := len(out); n > 0 && s.Frame <= out[n-1].Frame {
			return nil, &FormatError{Line: line, Column: ColFrame, Reason: "frames must be strictly increasing"}
		}
		out = append(out, s)
	}
	return out, nil
}

func parseSample(rec []string, idx map[string]int, line int) (models.PositionSample, error) {
	field := func(col string) (string, error) {
		i := idx[col]
		if i >= len(rec) {
			return "", &FormatError{Line: line, Column: col, Reason: "missing value"}
		}
		return strings.TrimSpace(rec[i]), nil
	}

	var s models.PositionSample
	raw, err := field(ColFrame)
	if err != nil {
		return s, err
	}
	frame, err := strconv.Atoi(raw)
	if err != nil {
		// some trackers emit integral frames as floats
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return s, &FormatError{Line: line, Column: ColFrame, Reason: fmt.Sprintf("not an integer: %q", raw)}
		}
		frame = int(f)
	}
	s.Frame = frame

	for _, c := range []struct {
		col string
		dst *float64
	}{{ColX, &s.X}, {ColY, &s.Y}} {
		raw, err := field(c.col)
		if err != nil {
			return s, err
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return s, &FormatError{Line: line, Column: c.col, Reason: fmt.Sprintf("not a number: %q", raw)}
		}
		*c.dst = v
	}
	return s, nil
}

// LoadCSV reads a tracker table from path.
func LoadCSV(path string) (models.Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	traj, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("reading trajectory %s: %w", path, err)
	}
	return traj, nil
}

// Filter drops samples where the tracker reported no detection (X or Y == 0).
// The input is not modified.
func Filter(traj models.Trajectory) models.Trajectory {
	out := make(models.Trajectory, 0, len(traj))
	for _, s := range traj {
		if s.X == 0 || s.Y == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}
