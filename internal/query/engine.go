// Package query answers read requests against the series store. It is the only
// surface the API and dashboard use.
package query

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"cryptometrics/internal/market"
	"cryptometrics/pkg/storage"
)

type Engine struct {
	store storage.Reader
}

func NewEngine(store storage.Reader) *Engine {
	return &Engine{store: store}
}

// LatestSnapshot maps every coin to its most recent observation. An empty
// store yields an empty map.
func (e *Engine) LatestSnapshot(ctx context.Context) (map[string]market.Observation, error) {
	all, err := e.store.QueryAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}

	latest := make(map[string]market.Observation)
	for _, o := range all {
		// rows arrive ascending, so a later row at the same instant wins
		if cur, ok := latest[o.CoinID]; !ok || !o.ObservedAt.Before(cur.ObservedAt) {
			latest[o.CoinID] = o
		}
	}
	return latest, nil
}

// SeriesFor returns one coin's observations oldest first; unknown coins give
// an empty slice.
func (e *Engine) SeriesFor(ctx context.Context, coinID string) ([]market.Observation, error) {
	series, err := e.store.QueryByEntity(ctx, coinID)
	if err != nil {
		return nil, fmt.Errorf("series for %s: %w", coinID, err)
	}
	if series == nil {
		series = []market.Observation{}
	}
	return series, nil
}

// SummaryStats computes price statistics over SeriesFor(coinID).
func (e *Engine) SummaryStats(ctx context.Context, coinID string) (SummaryStats, error) {
	series, err := e.SeriesFor(ctx, coinID)
	if err != nil {
		return SummaryStats{}, err
	}

	prices := make([]float64, len(series))
	for i, o := range series {
		prices[i] = o.Price
	}
	return ComputeStats(prices)
}

// Log returns the raw structured log, newest first.
func (e *Engine) Log(ctx context.Context) ([]market.Observation, error) {
	all, err := e.store.QueryAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("raw log: %w", err)
	}
	slices.Reverse(all)
	if all == nil {
		all = []market.Observation{}
	}
	return all, nil
}

// SortByMarketCap orders a snapshot for display: largest market cap first,
// coin id breaking ties.
func SortByMarketCap(snapshot map[string]market.Observation) []market.Observation {
	out := make([]market.Observation, 0, len(snapshot))
	for _, o := range snapshot {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b market.Observation) int {
		if c := cmp.Compare(b.MarketCap, a.MarketCap); c != 0 {
			return c
		}
		return cmp.Compare(a.CoinID, b.CoinID)
	})
	return out
}

// UpdatedAt is the newest observation time in a snapshot.
func UpdatedAt(snapshot map[string]market.Observation) (time.Time, bool) {
	var (
		at time.Time
		ok bool
	)
	for _, o := range snapshot {
		if !ok || o.ObservedAt.After(at) {
			at, ok = o.ObservedAt, true
		}
	}
	return at, ok
}
