// Package dashboard renders query results as a plain-text terminal view.
package dashboard

import (
	"context"
	"errors"
	"time"

	"cryptometrics/internal/market"
	"cryptometrics/internal/query"
)

// View is everything one render needs. It is built from query results only.
type View struct {
	UpdatedAt time.Time
	Latest    []market.Observation // largest market cap first
	Coin      market.Observation   // selected coin's latest row
	Series    []market.Observation
	Stats     *query.SummaryStats // nil when the coin has no data
}

// Empty reports whether nothing has been collected yet.
func (v View) Empty() bool {
	return len(v.Latest) == 0
}

// Build queries engine for the snapshot and the coin's trend. When coinID is
// not in the snapshot the largest coin is shown instead.
func Build(ctx context.Context, engine *query.Engine, coinID string) (View, error) {
	snapshot, err := engine.LatestSnapshot(ctx)
	if err != nil {
		return View{}, err
	}

	var v View
	v.Latest = query.SortByMarketCap(snapshot)
	if at, ok := query.UpdatedAt(snapshot); ok {
		v.UpdatedAt = at
	}
	if v.Empty() {
		return v, nil
	}

	coin, ok := snapshot[coinID]
	if !ok {
		coin = v.Latest[0]
	}
	v.Coin = coin

	if v.Series, err = engine.SeriesFor(ctx, coin.CoinID); err != nil {
		return View{}, err
	}

	st, err := engine.SummaryStats(ctx, coin.CoinID)
	switch {
	case errors.Is(err, query.ErrNoData):
	case err != nil:
		return View{}, err
	default:
		v.Stats = &st
	}
	return v, nil
}
