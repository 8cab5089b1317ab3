// Package pricing implements Black-Scholes pricing primitives for European options.
//
// All functions are pure. Time is in years, rate and volatility are annualized
// decimals. Degenerate inputs never error: expired options settle at intrinsic
// value. With no volatility d1 and d2 are zero and the closed form is still
// evaluated, so a call is 0.5*(S - K*exp(-rT)) and may be negative out of the money.
package pricing

import "math"

// D1 returns the d1 term. Zero when t <= 0 or vol <= 0.
func D1(s, k, t, r, vol float64) float64 {
	if t <= 0 || vol <= 0 || s <= 0 || k <= 0 {
		return 0
	}
	return (math.Log(s/k) + (r+0.5*vol*vol)*t) / (vol * math.Sqrt(t))
}

// D2 returns d1 - vol*sqrt(t). Zero when t <= 0 or vol <= 0.
func D2(s, k, t, r, vol float64) float64 {
	if t <= 0 || vol <= 0 || s <= 0 || k <= 0 {
		return 0
	}
	return D1(s, k, t, r, vol) - vol*math.Sqrt(t)
}

// CallPrice returns the per-share price of a European call.
func CallPrice(s, k, t, r, vol float64) float64 {
	if t <= 0 {
		return math.Max(0, s-k)
	}
	d1 := D1(s, k, t, r, vol)
	d2 := D2(s, k, t, r, vol)
	return s*NormCDF(d1) - k*math.Exp(-r*t)*NormCDF(d2)
}

// PutPrice returns the per-share price of a European put.
func PutPrice(s, k, t, r, vol float64) float64 {
	if t <= 0 {
		return math.Max(0, k-s)
	}
	d1 := D1(s, k, t, r, vol)
	d2 := D2(s, k, t, r, vol)
	return k*math.Exp(-r*t)*NormCDF(-d2) - s*NormCDF(-d1)
}

// CallDelta returns dC/dS. At or after expiry it is 1 when in the money, else 0.
func CallDelta(s, k, t, r, vol float64) float64 {
	if t <= 0 {
		if s > k {
			return 1
		}
		return 0
	}
	return NormCDF(D1(s, k, t, r, vol))
}

// PutDelta returns dP/dS, equal to CallDelta - 1.
func PutDelta(s, k, t, r, vol float64) float64 {
	return CallDelta(s, k, t, r, vol) - 1
}

// NormCDF is the standard normal cumulative distribution function.
func NormCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// NormPDF is the standard normal density.
func NormPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// NormInv is the inverse of NormCDF for p in (0, 1).
func NormInv(p float64) float64 {
	return math.Sqrt2 * math.Erfinv(2*p-1)
}
