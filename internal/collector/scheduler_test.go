package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cryptometrics/internal/market"
	"cryptometrics/pkg/coingecko"
	"cryptometrics/pkg/storage"
	"cryptometrics/pkg/storage/memory"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var coins = []string{"bitcoin", "ethereum"}

var twoCoins = []coingecko.RawRecord{
	coingecko.RawRecord(`{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":67000}`),
	coingecko.RawRecord(`{"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":2600}`),
}

// scriptedFetcher fails on the listed call numbers (1-based) and records call times.
type scriptedFetcher struct {
	mu      sync.Mutex
	failOn  map[int]bool
	calls   []time.Time
	records []coingecko.RawRecord
}

func (f *scriptedFetcher) FetchMarkets(ctx context.Context, ids []string) ([]coingecko.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, time.Now())
	if f.failOn[len(f.calls)] {
		return nil, &coingecko.FetchError{Kind: coingecko.KindNetwork, Err: errors.New("connection reset")}
	}
	return f.records, nil
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type failingStore struct{}

func (failingStore) Append(ctx context.Context, batch []market.Observation) error {
	return storage.ErrUnavailable
}

// clock hands out one second later on every call.
func clock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

// go test -v --run TestTickAppendsOneBatch
func TestTickAppendsOneBatch(t *testing.T) {
	store := memory.NewStore()
	metrics := NewMetrics()
	s := NewScheduler(&scriptedFetcher{records: twoCoins}, store, zaptest.NewLogger(t),
		Options{Coins: coins, Metrics: metrics, Now: clock()})

	assert.Equal(t, OutcomeAppended, s.Tick(context.Background()))
	assert.Equal(t, StateIdle, s.State())

	all, err := store.QueryAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].ObservedAt.Equal(all[1].ObservedAt))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ticks.WithLabelValues(OutcomeAppended)))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.appended))
}

// go test -v --run TestTickFetchFailureAppendsNothing
func TestTickFetchFailureAppendsNothing(t *testing.T) {
	store := memory.NewStore()
	s := NewScheduler(&scriptedFetcher{records: twoCoins, failOn: map[int]bool{1: true}}, store,
		zaptest.NewLogger(t), Options{Coins: coins, Now: clock()})

	assert.Equal(t, OutcomeFetchFailed, s.Tick(context.Background()))

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

// go test -v --run TestTickEmptySnapshotSkipsAppend
func TestTickEmptySnapshotSkipsAppend(t *testing.T) {
	s := NewScheduler(&scriptedFetcher{}, failingStore{}, zaptest.NewLogger(t),
		Options{Coins: coins, Now: clock()})

	// failingStore would turn an append into store_failed.
	assert.Equal(t, OutcomeEmpty, s.Tick(context.Background()))
}

// go test -v --run TestTickStoreFailureIsNotFatal
func TestTickStoreFailureIsNotFatal(t *testing.T) {
	s := NewScheduler(&scriptedFetcher{records: twoCoins}, failingStore{}, zaptest.NewLogger(t),
		Options{Coins: coins, Now: clock()})

	assert.Equal(t, OutcomeStoreFailed, s.Tick(context.Background()))
	assert.Equal(t, StateIdle, s.State())
}

// go test -v --run TestRunKeepsCadenceAcrossFetchFailure
func TestRunKeepsCadenceAcrossFetchFailure(t *testing.T) {
	store := memory.NewStore()
	fetcher := &scriptedFetcher{records: twoCoins, failOn: map[int]bool{2: true}}
	interval := 20 * time.Millisecond
	s := NewScheduler(fetcher, store, zaptest.NewLogger(t),
		Options{Coins: coins, Interval: interval, Now: clock()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return fetcher.callCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// Tick 2 failed: of the first three ticks only 1 and 3 contributed rows.
	fetcher.mu.Lock()
	calls := append([]time.Time(nil), fetcher.calls...)
	fetcher.mu.Unlock()

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2*(len(calls)-1), n)

	// The tick after the failure still waited roughly one interval.
	gap := calls[2].Sub(calls[1])
	assert.GreaterOrEqual(t, gap, interval)
}

// go test -v --run TestRunStopsBeforeFirstTickWhenCancelled
func TestRunStopsBeforeFirstTickWhenCancelled(t *testing.T) {
	fetcher := &scriptedFetcher{records: twoCoins}
	s := NewScheduler(fetcher, memory.NewStore(), zaptest.NewLogger(t), Options{Coins: coins})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)

	assert.Zero(t, fetcher.callCount())
}

// go test -v --run TestTickKeepsTimestampsMonotonicWhenClockStepsBack
func TestTickKeepsTimestampsMonotonicWhenClockStepsBack(t *testing.T) {
	base := time.Date(2026, 10, 18, 12, 0, 30, 0, time.UTC)
	times := []time.Time{base, base.Add(-10 * time.Second), base.Add(time.Minute)}
	var i int
	now := func() time.Time {
		at := times[i]
		i++
		return at
	}

	store := memory.NewStore()
	s := NewScheduler(&scriptedFetcher{records: twoCoins}, store, zaptest.NewLogger(t),
		Options{Coins: coins, Now: now})

	for range times {
		require.Equal(t, OutcomeAppended, s.Tick(context.Background()))
	}

	series, err := store.QueryByEntity(context.Background(), "bitcoin")
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, base, series[0].ObservedAt)
	assert.Equal(t, base, series[1].ObservedAt)
	assert.Equal(t, base.Add(time.Minute), series[2].ObservedAt)
}
