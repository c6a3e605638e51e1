package query

import (
	"errors"
	"math"
)

// ErrNoData is returned when a coin has no observations yet.
var ErrNoData = errors.New("no data yet")

// SummaryStats summarizes the price column of one coin's series.
type SummaryStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Max    float64 `json:"max"`
	Min    float64 `json:"min"`
	StdDev float64 `json:"stddev"` // population standard deviation
}

// ComputeStats returns ErrNoData for an empty slice instead of NaN statistics.
func ComputeStats(prices []float64) (SummaryStats, error) {
	if len(prices) == 0 {
		return SummaryStats{}, ErrNoData
	}

	st := SummaryStats{
		Count: len(prices),
		Max:   prices[0],
		Min:   prices[0],
	}

	var sum float64
	for _, p := range prices {
		sum += p
		st.Max = math.Max(st.Max, p)
		st.Min = math.Min(st.Min, p)
	}
	st.Mean = sum / float64(st.Count)

	// two-pass variance
	var sq float64
	for _, p := range prices {
		d := p - st.Mean
		sq += d * d
	}
	st.StdDev = math.Sqrt(sq / float64(st.Count))

	return st, nil
}
