package normalize

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// GenerationSummary aggregates generation values of one generation type.
// Figures are rounded to 2 decimal places.
type GenerationSummary struct {
	Type  string
	Count int
	Total float64
	Mean  float64
	Max   float64
	Min   float64
}

// AggregateGenerationByType groups rows by generation type, ordered by type.
func AggregateGenerationByType(t *Table[GenerationRow]) []GenerationSummary {
	if t.Len() == 0 {
		return nil
	}

	type acc struct {
		total    decimal.Decimal
		count    int
		min, max float64
	}
	groups := make(map[string]*acc)
	for _, r := range t.Rows {
		a, ok := groups[r.Type]
		if !ok {
			a = &acc{min: r.Value, max: r.Value}
			groups[r.Type] = a
		}
		a.total = a.total.Add(decimal.NewFromFloat(r.Value))
		a.count++
		a.min = math.Min(a.min, r.Value)
		a.max = math.Max(a.max, r.Value)
	}

	out := make([]GenerationSummary, 0, len(groups))
	for typ, a := range groups {
		mean := a.total.Div(decimal.NewFromInt(int64(a.count)))
		out = append(out, GenerationSummary{
			Type:  typ,
			Count: a.count,
			Total: a.total.Round(2).InexactFloat64(),
			Mean:  mean.Round(2).InexactFloat64(),
			Max:   round2(a.max),
			Min:   round2(a.min),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// PriceStats summarizes a price series.
type PriceStats struct {
	Count  int
	Mean   float64
	Median float64
	// Std is the sample standard deviation; 0 for fewer than two values.
	Std float64
	Min float64
	Max float64
	// Volatility is Std as a percentage of Mean; 0 unless Mean is positive.
	Volatility float64
}

// PriceStatistics summarizes prices. ok is false for an empty series.
func PriceStatistics(prices []float64) (stats PriceStats, ok bool) {
	n := len(prices)
	if n == 0 {
		return PriceStats{}, false
	}

	sorted := make([]float64, n)
	copy(sorted, prices)
	sort.Float64s(sorted)

	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(decimal.NewFromFloat(p))
	}
	mean := sum.Div(decimal.NewFromInt(int64(n))).InexactFloat64()

	stats = PriceStats{
		Count: n,
		Mean:  mean,
		Min:   sorted[0],
		Max:   sorted[n-1],
	}
	if n%2 == 1 {
		stats.Median = sorted[n/2]
	} else {
		stats.Median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	if n > 1 {
		var ss float64
		for _, p := range prices {
			ss += (p - mean) * (p - mean)
		}
		stats.Std = math.Sqrt(ss / float64(n-1))
	}
	if mean > 0 {
		stats.Volatility = stats.Std / mean * 100
	}
	return stats, true
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
