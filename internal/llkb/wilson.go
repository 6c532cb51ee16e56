package llkb

import "math"

// z for a 95% two-sided interval.
const wilsonZ = 1.96

// wilsonLower computes the Wilson score lower bound for a Bernoulli
// proportion. It is deliberately pessimistic for small samples: 5/5
// successes score about 0.565, not 1.0, so young patterns are not trusted
// prematurely. With no observations it returns the 0.5 prior.
func wilsonLower(success, fail int) float64 {
	n := float64(success + fail)
	if n == 0 {
		return 0.5
	}
	p := float64(success) / n
	z2 := wilsonZ * wilsonZ

	center := p + z2/(2*n)
	margin := wilsonZ * math.Sqrt(p*(1-p)/n+z2/(4*n*n))
	bound := (center - margin) / (1 + z2/n)

	return math.Max(0, math.Min(1, bound))
}
