// Package storage defines the append-only series store shared by the
// collector (sole writer) and the query engine (readers).
package storage

import (
	"context"
	"errors"

	"cryptometrics/internal/market"
)

// ErrUnavailable wraps any failure to reach or write the backing medium.
var ErrUnavailable = errors.New("store unavailable")

// Writer persists observation batches.
type Writer interface {
	// Append stores every observation in batch or none of them.
	// Failures wrap ErrUnavailable, or market.ErrInvalidBatch for a malformed batch.
	Append(ctx context.Context, batch []market.Observation) error
}

// Reader serves ordered scans. Implementations never expose part of a batch.
type Reader interface {
	// QueryAll returns every observation ascending by ObservedAt, insertion order breaking ties.
	QueryAll(ctx context.Context) ([]market.Observation, error)

	// QueryByEntity returns one coin's observations ascending by ObservedAt.
	QueryByEntity(ctx context.Context, coinID string) ([]market.Observation, error)
}

// Store is a series store with its lifecycle.
type Store interface {
	Writer
	Reader

	// Count returns the number of stored observations.
	Count(ctx context.Context) (int64, error)

	Close() error
}

// HealthChecker is implemented by stores that can report reachability.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}
