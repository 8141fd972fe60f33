package trajectory

import "github.com/himanishpuri/ImpactSync/pkg/models"

// DefaultVelocityWindow is the number of backward steps averaged for the
// velocity estimate attached to each collision.
const DefaultVelocityWindow = 5

// Series is the filtered trajectory split into columns.
type Series struct {
	Frames []int
	X      []float64
	Y      []float64
}

func newSeries(traj models.Trajectory) Series {
	s := Series{
		Frames: make([]int, len(traj)),
		X:      make([]float64, len(traj)),
		Y:      make([]float64, len(traj)),
	}
	for i, p := range traj {
		s.Frames[i] = p.Frame
		s.X[i] = p.X
		s.Y[i] = p.Y
	}
	return s
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Frames) }

// Rule decides whether interior index f of a series is a collision.
// detected is the number of collisions already emitted before f.
type Rule interface {
	Name() string
	Match(s Series, f int, detected int) bool
}

// Detector turns a trajectory into collision events. A Detector only holds
// configuration, so Detect is safe to call concurrently and repeatedly.
type Detector struct {
	rules          []Rule
	velocityWindow int
}

// DetectorOption configures a Detector.
type DetectorOption func(*Detector)

// WithRules replaces the rule set. Rules are tried in order and the first
// match wins.
func WithRules(rules ...Rule) DetectorOption {
	return func(d *Detector) {
		d.rules = rules
	}
}

// WithVelocityWindow sets the backward window used for velocity estimates.
func WithVelocityWindow(n int) DetectorOption {
	return func(d *Detector) {
		d.velocityWindow = n
	}
}

// NewDetector returns a detector using the vertical peak rule unless
// overridden.
func NewDetector(opts ...DetectorOption) *Detector {
	d := &Detector{
		rules:          []Rule{YPeakRule{}},
		velocityWindow: DefaultVelocityWindow,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.velocityWindow < 1 {
		d.velocityWindow = DefaultVelocityWindow
	}
	return d
}

// Detect filters out undetected samples and emits frame-ascending collision
// events with sequential IDs starting at 1.
func (d *Detector) Detect(traj models.Trajectory) []models.CollisionEvent {
	s := newSeries(Filter(traj))
	if s.Len() < 3 {
		return []models.CollisionEvent{}
	}

	events := []models.CollisionEvent{}
	for f := 1; f < s.Len()-1; f++ {
		if !d.matches(s, f, len(events)) {
			continue
		}
		ev := models.CollisionEvent{
			ID:    len(events) + 1,
			Frame: s.Frames[f],
			Type:  models.CollisionUnknown,
		}
		ev.Velocity, ev.HasVelocity = estimateVelocity(s, f, d.velocityWindow)
		events = append(events, ev)
	}
	return events
}

func (d *Detector) matches(s Series, f, detected int) bool {
	for _, r := range d.rules {
		if r.Match(s, f, detected) {
			return true
		}
	}
	return false
}

// Detect runs the default detector.
func Detect(traj models.Trajectory) []models.CollisionEvent {
	return NewDetector().Detect(traj)
}

// estimateVelocity averages finite differences over the window samples
// ending at f. It reports false when fewer than window samples precede f.
func estimateVelocity(s Series, f, window int) (models.Velocity, bool) {
	st := f - window
	if st < 0 {
		return models.Velocity{}, false
	}
	var dx, dy float64
	dt := 0
	for i := st; i < f; i++ {
		dx += s.X[i+1] - s.X[i]
		dy += s.Y[i+1] - s.Y[i]
		dt += s.Frames[i+1] - s.Frames[i]
	}
	if dt == 0 {
		return models.Velocity{}, false
	}
	return models.Velocity{VX: dx / float64(dt), VY: dy / float64(dt)}, true
}
