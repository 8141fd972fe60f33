package trajectory

// YPeakRule flags a local maximum of the vertical coordinate. Image y grows
// downward, so this is the lowest point of a bounce.
type YPeakRule struct{}

func (YPeakRule) Name() string { return "y-peak" }

func (YPeakRule) Match(s Series, f int, _ int) bool {
	return s.Y[f-1] <= s.Y[f] && s.Y[f] > s.Y[f+1]
}

// VerticalJumpRule flags a sudden downward jump of at least Threshold pixels
// to the next sample.
type VerticalJumpRule struct {
	Threshold float64
}

func (VerticalJumpRule) Name() string { return "vertical-jump" }

func (r VerticalJumpRule) Match(s Series, f int, _ int) bool {
	return s.Y[f+1]-s.Y[f] >= r.Threshold
}

// HorizontalReversalRule flags a local maximum of x once Warmup collisions
// have been seen.
type HorizontalReversalRule struct {
	Warmup int
}

func (HorizontalReversalRule) Name() string { return "x-reversal" }

func (r HorizontalReversalRule) Match(s Series, f int, detected int) bool {
	return detected >= r.Warmup && s.X[f-1] < s.X[f] && s.X[f] > s.X[f+1]
}

// CombinedReversalRule flags a vertical minimum that coincides with a
// horizontal maximum.
type CombinedReversalRule struct{}

func (CombinedReversalRule) Name() string { return "xy-reversal" }

func (CombinedReversalRule) Match(s Series, f int, _ int) bool {
	yMin := s.Y[f-1] > s.Y[f] && s.Y[f] <= s.Y[f+1]
	xMax := s.X[f-1] < s.X[f] && s.X[f] > s.X[f+1]
	return yMin && xMax
}

// RuleByName resolves a rule for configuration surfaces (CLI flags).
func RuleByName(name string) (Rule, bool) {
	switch name {
	case "y-peak":
		return YPeakRule{}, true
	case "vertical-jump":
		return VerticalJumpRule{Threshold: 300}, true
	case "x-reversal":
		return HorizontalReversalRule{Warmup: 2}, true
	case "xy-reversal":
		return CombinedReversalRule{}, true
	}
	return nil, false
}
