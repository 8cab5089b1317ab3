// Package marketsim generates synthetic daily price tables with geometric Brownian motion.
package marketsim

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"leap-portfolio-lab/internal/domain"
)

// Path constants.
const (
	InitialPrice  = 100.0
	TradingDays   = 252.0
	DefaultVolume = 1_000_000.0
	bandWidth     = 0.01 // max relative high/low band around open/close
)

// Generator produces synthetic price tables from its own random stream.
// A Generator is not safe for concurrent use; create one per Monte Carlo run.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator seeded with (seed, stream).
// Distinct streams with the same seed give independent paths.
func NewGenerator(seed, stream uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewPCG(seed, stream))}
}

// NewGeneratorFromRand wraps an existing source.
func NewGeneratorFromRand(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// GenerateScenario generates a path with the drift/volatility of a named preset.
// Unknown names fall back to the neutral preset; validated configs never carry one.
func (g *Generator) GenerateScenario(symbol string, start, end time.Time, scenario string) (domain.PriceTable, error) {
	preset := domain.ScenarioOrNeutral(scenario)
	return g.GenerateCustom(symbol, start, end, preset.Drift, preset.Volatility)
}

// GenerateCustom generates one row per calendar day in [start, end).
//
// S(t) = S0 * exp((mu - sigma^2/2) * t + sigma * W(t)), with W the cumulative
// sum of standard normal draws scaled by sqrt(1/252) and t spaced evenly over
// [0, days/365].
func (g *Generator) GenerateCustom(_ string, start, end time.Time, mu, sigma float64) (domain.PriceTable, error) {
	start = domain.TruncateDay(start)
	days := domain.DaysBetween(start, end)
	if days <= 0 {
		return nil, fmt.Errorf("%w: %s to %s spans %d days",
			domain.ErrInvalidDateRange, start.Format(domain.DateLayout), end.Format(domain.DateLayout), days)
	}

	closes := g.closes(days, mu, sigma)

	table := make(domain.PriceTable, days)
	prev := InitialPrice
	for i, c := range closes {
		open := prev
		high := math.Max(open, c) * (1 + g.rng.Float64()*bandWidth)
		low := math.Min(open, c) * (1 - g.rng.Float64()*bandWidth)
		table[i] = domain.PriceRow{
			Date:   start.AddDate(0, 0, i),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  c,
			Volume: DefaultVolume,
		}
		prev = c
	}

	return table, nil
}

// closes draws the close series for steps days.
func (g *Generator) closes(steps int, mu, sigma float64) []float64 {
	dt := 1 / TradingDays
	horizon := float64(steps) / 365.0
	sqrtDt := math.Sqrt(dt)

	out := make([]float64, steps)
	w := 0.0
	for i := 0; i < steps; i++ {
		w += g.rng.NormFloat64() * sqrtDt
		out[i] = InitialPrice * math.Exp((mu-0.5*sigma*sigma)*linspace(i, steps, horizon)+sigma*w)
	}
	return out
}

// linspace returns the i-th of n evenly spaced points over [0, stop].
func linspace(i, n int, stop float64) float64 {
	if n <= 1 {
		return 0
	}
	return stop * float64(i) / float64(n-1)
}
