// Package memory is an in-process series store. Rows live only as long as the process.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"cryptometrics/internal/market"
	"cryptometrics/pkg/storage"
)

type Store struct {
	mu     sync.RWMutex
	rows   []market.Observation
	byCoin map[string][]int // coin id -> indexes into rows
	closed bool
}

var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		rows:   make([]market.Observation, 0),
		byCoin: make(map[string][]int),
	}
}

// Append validates the whole batch before taking the write lock, so readers
// see either every row of it or none.
func (s *Store) Append(ctx context.Context, batch []market.Observation) error {
	if err := market.ValidateBatch(batch); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("%w: store closed", storage.ErrUnavailable)
	}

	for _, o := range batch {
		s.byCoin[o.CoinID] = append(s.byCoin[o.CoinID], len(s.rows))
		s.rows = append(s.rows, o)
	}
	return nil
}

func (s *Store) QueryAll(ctx context.Context) ([]market.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("%w: store closed", storage.ErrUnavailable)
	}

	out := make([]market.Observation, len(s.rows))
	copy(out, s.rows)
	sortStable(out)
	return out, nil
}

func (s *Store) QueryByEntity(ctx context.Context, coinID string) ([]market.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("%w: store closed", storage.ErrUnavailable)
	}

	idx := s.byCoin[coinID]
	out := make([]market.Observation, 0, len(idx))
	for _, i := range idx {
		out = append(out, s.rows[i])
	}
	sortStable(out)
	return out, nil
}

// Count returns the total number of observations stored across all coins.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.rows)), nil
}

func (s *Store) IsHealthy(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// sortStable orders by ObservedAt, keeping insertion order for equal timestamps.
func sortStable(rows []market.Observation) {
	slices.SortStableFunc(rows, func(a, b market.Observation) int {
		return a.ObservedAt.Compare(b.ObservedAt)
	})
}
