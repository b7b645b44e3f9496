package normalize

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateGenerationByType(t *testing.T) {
	table := &Table[GenerationRow]{Rows: []GenerationRow{
		{Type: "Rüzgar", Value: 10.111},
		{Type: "Rüzgar", Value: 20.222},
		{Type: "Güneş", Value: 5},
		{Type: "Rüzgar", Value: 0.1},
	}}

	got := AggregateGenerationByType(table)

	require.Len(t, got, 2)
	assert.Equal(t, GenerationSummary{Type: "Güneş", Count: 1, Total: 5, Mean: 5, Max: 5, Min: 5}, got[0])
	assert.Equal(t, GenerationSummary{Type: "Rüzgar", Count: 3, Total: 30.43, Mean: 10.14, Max: 20.22, Min: 0.1}, got[1])
}

func TestAggregateGenerationByType_Empty(t *testing.T) {
	assert.Nil(t, AggregateGenerationByType(&Table[GenerationRow]{}))
}

func TestPriceStatistics(t *testing.T) {
	stats, ok := PriceStatistics([]float64{4, 1, 3, 2})
	require.True(t, ok)

	assert.Equal(t, 4, stats.Count)
	assert.InDelta(t, 2.5, stats.Mean, 1e-9)
	assert.InDelta(t, 2.5, stats.Median, 1e-9)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 4.0, stats.Max)
	// Sample std of 1..4 is sqrt(5/3).
	assert.InDelta(t, math.Sqrt(5.0/3.0), stats.Std, 1e-9)
	assert.InDelta(t, math.Sqrt(5.0/3.0)/2.5*100, stats.Volatility, 1e-9)
}

func TestPriceStatistics_EdgeCases(t *testing.T) {
	_, ok := PriceStatistics(nil)
	assert.False(t, ok)

	single, ok := PriceStatistics([]float64{7})
	require.True(t, ok)
	assert.Equal(t, 7.0, single.Median)
	assert.Equal(t, 0.0, single.Std)

	negative, ok := PriceStatistics([]float64{-1, -3})
	require.True(t, ok)
	assert.Equal(t, 0.0, negative.Volatility)
}

func TestPriceStatistics_FromTable(t *testing.T) {
	table := PTF(content(t, `[{"date":"2024-01-01","price":100},{"date":"2024-01-01T01:00:00","price":"300"},{"date":"2024-01-01T02:00:00","price":200}]`))

	stats, ok := PriceStatistics(Column(table, func(r PriceRow) float64 { return r.Price }))
	require.True(t, ok)
	assert.InDelta(t, 200, stats.Mean, 1e-9)
	assert.InDelta(t, 200, stats.Median, 1e-9)
	assert.Equal(t, time.Date(2024, 1, 1, 2, 0, 0, 0, table.Rows[2].Time.Location()), table.Rows[2].Time)
}
