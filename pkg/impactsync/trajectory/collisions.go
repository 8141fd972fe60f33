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

// Column names of the collision audit table.
const (
	ColCollision = "Collision"
	ColType      = "Type"
)

// WriteCollisions writes events as a Collision,Frame,Type table.
func WriteCollisions(w io.Writer, events []models.CollisionEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColCollision, ColFrame, ColType}); err != nil {
		return err
	}
	for _, ev := range events {
		row := []string{
			strconv.Itoa(ev.ID),
			strconv.Itoa(ev.Frame),
			ev.Type.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCollisions writes the collision table to path.
func SaveCollisions(path string, events []models.CollisionEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCollisions(f, events); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing collisions %s: %w", path, err)
	}
	return f.Close()
}

// ReadCollisions parses a collision table. Velocity is not part of the table,
// so loaded events carry HasVelocity == false.
func ReadCollisions(r io.Reader) ([]models.CollisionEvent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// a run with zero collisions may be persisted as an empty file
			return []models.CollisionEvent{}, nil
		}
		return nil, fmt.Errorf("%w: reading header: %v", ErrDataFormat, err)
	}
	idx, err := headerIndex(header, ColCollision, ColFrame)
	if err != nil {
		return nil, err
	}

	events := []models.CollisionEvent{}
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

		ev, err := parseCollision(rec, idx, line)
		if err != nil {
			return nil, err
		}
		if n := len(events); n > 0 && ev.Frame <= events[n-1].Frame {
			return nil, &FormatError{Line: line, Column: ColFrame, Reason: "frames must be strictly increasing"}
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseCollision(rec []string, idx map[string]int, line int) (models.CollisionEvent, error) {
	var ev models.CollisionEvent
	get := func(col string) (string, bool) {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}

	for _, c := range []struct {
		col string
		dst *int
	}{{ColCollision, &ev.ID}, {ColFrame, &ev.Frame}} {
		raw, ok := get(c.col)
		if !ok {
			return ev, &FormatError{Line: line, Column: c.col, Reason: "missing value"}
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return ev, &FormatError{Line: line, Column: c.col, Reason: fmt.Sprintf("not an integer: %q", raw)}
		}
		*c.dst = v
	}
	if ev.ID < 1 {
		return ev, &FormatError{Line: line, Column: ColCollision, Reason: "collision id must be >= 1"}
	}

	if raw, ok := get(ColType); ok {
		t, err := models.ParseCollisionType(raw)
		if err != nil {
			return ev, &FormatError{Line: line, Column: ColType, Reason: err.Error()}
		}
		ev.Type = t
	}
	return ev, nil
}

// LoadCollisions reads a collision table from path.
func LoadCollisions(path string) ([]models.CollisionEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	events, err := ReadCollisions(f)
	if err != nil {
		return nil, fmt.Errorf("reading collisions %s: %w", path, err)
	}
	return events, nil
}
