package normalization

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leap-portfolio-lab/internal/domain"
)

func TestRollingVolatility_ShortSeriesUsesDefault(t *testing.T) {
	closes := make([]float64, VolatilityWindow)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	vols := RollingVolatility(closes, VolatilityWindow)
	for i, v := range vols {
		assert.Equal(t, DefaultVolatility, v, "index %d", i)
	}
}

func TestRollingVolatility_BackfillsLeadingValues(t *testing.T) {
	closes := make([]float64, 40)
	price := 100.0
	for i := range closes {
		if i%2 == 0 {
			price *= 1.01
		} else {
			price *= 0.99
		}
		closes[i] = price
	}

	vols := RollingVolatility(closes, VolatilityWindow)
	require.Len(t, vols, 40)

	first := vols[VolatilityWindow]
	assert.Greater(t, first, 0.0)
	for i := 0; i < VolatilityWindow; i++ {
		assert.Equal(t, first, vols[i], "index %d", i)
	}
	for _, v := range vols {
		assert.False(t, math.IsNaN(v))
	}
}

func TestRollingVolatility_FlatSeriesIsZero(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 50
	}
	for _, v := range RollingVolatility(closes, VolatilityWindow) {
		assert.Equal(t, 0.0, v)
	}
}

func TestMovingAverage(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}
	ma := MovingAverage(closes, 3)
	assert.Equal(t, []float64{2, 2, 2, 3, 4, 5}, ma)

	short := MovingAverage([]float64{10, 20}, 5)
	assert.Equal(t, []float64{0, 0}, short)

	exact := MovingAverage([]float64{10, 20, 30}, 3)
	assert.Equal(t, []float64{20, 20, 20}, exact)
}

func TestPrepare(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	table := make(domain.PriceTable, 60)
	for i := range table {
		table[i] = domain.PriceRow{Date: start.AddDate(0, 0, i), Close: 100 + float64(i%5)}
	}

	cfg := domain.DefaultConfig()
	cfg.Wheel.Enabled = true
	cfg.Wheel.MAShort = 5
	cfg.Wheel.MALong = 10

	out := Prepare(table, cfg)
	require.Len(t, out, len(table))

	for i := range out {
		assert.Greater(t, out[i].Volatility, 0.0)
		assert.NotZero(t, out[i].MAShort)
		assert.NotZero(t, out[i].MALong)
		assert.Zero(t, table[i].Volatility, "source table must stay untouched")
	}
}

func TestPrepare_KeepsSuppliedVolatility(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	table := domain.PriceTable{
		{Date: start, Close: 100, Volatility: 0.35},
		{Date: start.AddDate(0, 0, 1), Close: 101, Volatility: 0.36},
	}

	out := Prepare(table, domain.DefaultConfig())
	assert.Equal(t, 0.35, out[0].Volatility)
	assert.Equal(t, 0.36, out[1].Volatility)
	assert.Zero(t, out[0].MAShort)
}
