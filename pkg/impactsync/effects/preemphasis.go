package effects

// PreEmphasis applies y[n] = x[n] - coef*x[n-1]. The sample before x[0] is
// extrapolated linearly as 2*x[0] - x[1].
func PreEmphasis(x []float64, coef float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}

	prev := x[0]
	if len(x) > 1 {
		prev = 2*x[0] - x[1]
	}
	for i, v := range x {
		out[i] = v - coef*prev
		prev = v
	}
	return out
}
