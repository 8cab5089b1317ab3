package pricing

import "math"

// Greeks holds per-share sensitivities of a single option.
type Greeks struct {
	Delta float64
	Gamma float64
	Theta float64 // per calendar day
	Vega  float64 // per 1 volatility point
}

// Gamma is identical for calls and puts. Zero at expiry or with no volatility.
func Gamma(s, k, t, r, vol float64) float64 {
	if t <= 0 || vol <= 0 || s <= 0 {
		return 0
	}
	return NormPDF(D1(s, k, t, r, vol)) / (s * vol * math.Sqrt(t))
}

// Vega is identical for calls and puts, scaled to a 1 point move in volatility.
func Vega(s, k, t, r, vol float64) float64 {
	if t <= 0 || vol <= 0 {
		return 0
	}
	return s * NormPDF(D1(s, k, t, r, vol)) * math.Sqrt(t) / 100
}

// CallTheta returns the one-day time decay of a call.
func CallTheta(s, k, t, r, vol float64) float64 {
	if t <= 0 || vol <= 0 {
		return 0
	}
	d1 := D1(s, k, t, r, vol)
	d2 := d1 - vol*math.Sqrt(t)
	decay := -(s * NormPDF(d1) * vol) / (2 * math.Sqrt(t))
	carry := r * k * math.Exp(-r*t) * NormCDF(d2)
	return (decay - carry) / 365
}

// PutTheta returns the one-day time decay of a put.
func PutTheta(s, k, t, r, vol float64) float64 {
	if t <= 0 || vol <= 0 {
		return 0
	}
	d1 := D1(s, k, t, r, vol)
	d2 := d1 - vol*math.Sqrt(t)
	decay := -(s * NormPDF(d1) * vol) / (2 * math.Sqrt(t))
	carry := r * k * math.Exp(-r*t) * NormCDF(-d2)
	return (decay + carry) / 365
}

// CallGreeks returns all call sensitivities.
func CallGreeks(s, k, t, r, vol float64) Greeks {
	return Greeks{
		Delta: CallDelta(s, k, t, r, vol),
		Gamma: Gamma(s, k, t, r, vol),
		Theta: CallTheta(s, k, t, r, vol),
		Vega:  Vega(s, k, t, r, vol),
	}
}

// PutGreeks returns all put sensitivities.
func PutGreeks(s, k, t, r, vol float64) Greeks {
	return Greeks{
		Delta: PutDelta(s, k, t, r, vol),
		Gamma: Gamma(s, k, t, r, vol),
		Theta: PutTheta(s, k, t, r, vol),
		Vega:  Vega(s, k, t, r, vol),
	}
}
