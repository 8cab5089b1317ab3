package pricing

import "math"

// FindStrikeForDelta returns the call strike whose Black-Scholes delta equals target.
//
// Inverts N(d1) = target analytically:
// K = S / exp(d1*vol*sqrt(t) - (r + vol^2/2)*t).
// Returns s unchanged when target is outside (0, 1) or t/vol are not positive.
func FindStrikeForDelta(s, t, r, vol, target float64) float64 {
	if target <= 0 || target >= 1 || t <= 0 || vol <= 0 {
		return s
	}
	d1 := NormInv(target)
	k := s / math.Exp(d1*vol*math.Sqrt(t)-(r+0.5*vol*vol)*t)
	if math.IsNaN(k) || math.IsInf(k, 0) || k <= 0 {
		return s
	}
	return k
}
