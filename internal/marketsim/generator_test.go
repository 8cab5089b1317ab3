package marketsim

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leap-portfolio-lab/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateRowCount(t *testing.T) {
	g := NewGenerator(1, 0)
	table, err := g.GenerateScenario("SYN", day(2020, 1, 1), day(2021, 1, 1), domain.ScenarioNeutral)
	require.NoError(t, err)

	assert.Len(t, table, 366)
	assert.Equal(t, day(2020, 1, 1), table[0].Date)
	assert.Equal(t, day(2020, 12, 31), table[len(table)-1].Date)
	require.NoError(t, table.Validate())
}

func TestGenerateOHLCShape(t *testing.T) {
	g := NewGenerator(7, 3)
	table, err := g.GenerateCustom("SYN", day(2020, 1, 1), day(2020, 3, 1), 0.1, 0.3)
	require.NoError(t, err)

	assert.Equal(t, InitialPrice, table[0].Open)
	for i, row := range table {
		if i > 0 {
			assert.Equal(t, table[i-1].Close, row.Open, "row %d open", i)
		}
		assert.GreaterOrEqual(t, row.High, row.Open)
		assert.GreaterOrEqual(t, row.High, row.Close)
		assert.LessOrEqual(t, row.Low, row.Open)
		assert.LessOrEqual(t, row.Low, row.Close)
		assert.Equal(t, DefaultVolume, row.Volume)
		assert.Greater(t, row.Close, 0.0)
	}
}

func TestGenerateFirstCloseStartsAtS0(t *testing.T) {
	// With zero volatility the path is deterministic and starts at t=0.
	g := NewGenerator(1, 1)
	table, err := g.GenerateCustom("SYN", day(2020, 1, 1), day(2020, 1, 11), 0.5, 0)
	require.NoError(t, err)

	assert.InDelta(t, InitialPrice, table[0].Close, 1e-9)
	for i := 1; i < len(table); i++ {
		assert.Greater(t, table[i].Close, table[i-1].Close)
	}
}

func TestGenerateInvalidRange(t *testing.T) {
	g := NewGenerator(1, 0)

	_, err := g.GenerateScenario("SYN", day(2020, 1, 1), day(2020, 1, 1), domain.ScenarioBull)
	assert.True(t, errors.Is(err, domain.ErrInvalidDateRange))

	_, err = g.GenerateCustom("SYN", day(2020, 2, 1), day(2020, 1, 1), 0, 0.2)
	assert.True(t, errors.Is(err, domain.ErrInvalidDateRange))
}

func TestGenerateDeterministicPerSeed(t *testing.T) {
	a, err := NewGenerator(42, 5).GenerateScenario("SYN", day(2020, 1, 1), day(2020, 6, 1), domain.ScenarioHighVol)
	require.NoError(t, err)
	b, err := NewGenerator(42, 5).GenerateScenario("SYN", day(2020, 1, 1), day(2020, 6, 1), domain.ScenarioHighVol)
	require.NoError(t, err)
	c, err := NewGenerator(42, 6).GenerateScenario("SYN", day(2020, 1, 1), day(2020, 6, 1), domain.ScenarioHighVol)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a[len(a)-1].Close, c[len(c)-1].Close)
}

func TestBullBeatsBearOnAverage(t *testing.T) {
	const runs = 200
	var bull, bear float64
	for i := uint64(0); i < runs; i++ {
		up, err := NewGenerator(99, i).GenerateScenario("SYN", day(2020, 1, 1), day(2022, 1, 1), domain.ScenarioBull)
		require.NoError(t, err)
		down, err := NewGenerator(99, i).GenerateScenario("SYN", day(2020, 1, 1), day(2022, 1, 1), domain.ScenarioBear)
		require.NoError(t, err)
		bull += up[len(up)-1].Close
		bear += down[len(down)-1].Close
	}
	assert.Greater(t, bull/runs, bear/runs)
}

func TestUnknownScenarioFallsBackToNeutral(t *testing.T) {
	a, err := NewGenerator(3, 0).GenerateScenario("SYN", day(2020, 1, 1), day(2020, 2, 1), "sideways")
	require.NoError(t, err)
	b, err := NewGenerator(3, 0).GenerateScenario("SYN", day(2020, 1, 1), day(2020, 2, 1), domain.ScenarioNeutral)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
