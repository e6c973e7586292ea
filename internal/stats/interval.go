package stats

import "math"

// Z95 is the normal quantile for a two-sided 95% interval.
const Z95 = 1.959963984540054

// WilsonInterval returns the Wilson score interval for a binomial proportion,
// as fractions in [0, 1]. It returns (0, 0) when there are no trials.
func WilsonInterval(successes, trials int, z float64) (float64, float64) {
	if trials <= 0 {
		return 0, 0
	}
	n := float64(trials)
	p := float64(successes) / n
	z2 := z * z

	denom := 1 + z2/n
	center := (p + z2/(2*n)) / denom
	half := z * math.Sqrt(p*(1-p)/n+z2/(4*n*n)) / denom

	return math.Max(0, center-half), math.Min(1, center+half)
}

// StandardError returns the standard error of a proportion estimated from trials.
func StandardError(successes, trials int) float64 {
	if trials <= 0 {
		return 0
	}
	p := float64(successes) / float64(trials)
	return math.Sqrt(p * (1 - p) / float64(trials))
}
