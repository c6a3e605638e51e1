// Package collector runs the ingestion loop: fetch a market snapshot,
// normalize it, and append it to the series store on a fixed interval.
package collector

import (
	"context"
	"sync/atomic"
	"time"

	"cryptometrics/internal/market"
	"cryptometrics/pkg/coingecko"
	"cryptometrics/pkg/storage"

	"go.uber.org/zap"
)

// Fetcher is the upstream snapshot source.
type Fetcher interface {
	FetchMarkets(ctx context.Context, ids []string) ([]coingecko.RawRecord, error)
}

// State of the loop.
type State int32

const (
	StateIdle State = iota
	StateFetching
)

func (s State) String() string {
	if s == StateFetching {
		return "fetching"
	}
	return "idle"
}

type Options struct {
	Coins         []string
	Interval      time.Duration
	AppendTimeout time.Duration
	Metrics       *Metrics         // optional
	Now           func() time.Time // defaults to time.Now
}

// Scheduler is the only writer of the series store.
type Scheduler struct {
	fetcher Fetcher
	store   storage.Writer
	logger  *zap.Logger
	opts    Options

	state atomic.Int32

	lastCommitted time.Time // observed_at of the last appended batch; only touched by Tick
}

func NewScheduler(fetcher Fetcher, store storage.Writer, logger *zap.Logger, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.AppendTimeout <= 0 {
		opts.AppendTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scheduler{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		opts:    opts,
	}
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Run ticks immediately and then Interval after each tick finishes, until ctx
// is cancelled. Cancellation is only observed between ticks; a tick in flight
// runs to completion under its own fetch and append timeouts.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("collector started",
		zap.Strings("coins", s.opts.Coins),
		zap.Duration("interval", s.opts.Interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("collector stopped")
			return
		case <-timer.C:
			if ctx.Err() != nil {
				s.logger.Info("collector stopped")
				return
			}
		}

		s.Tick(context.WithoutCancel(ctx))
		timer.Reset(s.opts.Interval)
	}
}

// Tick performs one fetch, normalize, append cycle and reports its outcome.
// Every failure degrades to "no rows this tick"; nothing is retried.
// Tick is not safe for concurrent use; Run calls it from one goroutine.
func (s *Scheduler) Tick(ctx context.Context) string {
	s.state.Store(int32(StateFetching))
	defer s.state.Store(int32(StateIdle))

	start := time.Now()

	raw, err := s.fetcher.FetchMarkets(ctx, s.opts.Coins)
	if err != nil {
		s.logger.Warn("fetch failed, skipping tick", zap.Error(err))
		s.opts.Metrics.observeTick(OutcomeFetchFailed, time.Since(start), 0, 0, start)
		return OutcomeFetchFailed
	}

	observedAt := s.stamp()
	batch := coingecko.Normalize(raw, observedAt, s.opts.Coins)
	dropped := len(raw) - len(batch)
	if dropped > 0 {
		s.logger.Debug("dropped upstream records", zap.Int("count", dropped))
	}

	if len(batch) == 0 {
		s.logger.Warn("empty snapshot, nothing to append", zap.Int("raw", len(raw)))
		s.opts.Metrics.observeTick(OutcomeEmpty, time.Since(start), 0, dropped, observedAt)
		return OutcomeEmpty
	}

	appendCtx, cancel := context.WithTimeout(ctx, s.opts.AppendTimeout)
	err = s.store.Append(appendCtx, batch)
	cancel()
	if err != nil {
		s.logger.Warn("append failed, skipping tick", zap.Int("rows", len(batch)), zap.Error(err))
		s.opts.Metrics.observeTick(OutcomeStoreFailed, time.Since(start), 0, dropped, observedAt)
		return OutcomeStoreFailed
	}

	s.lastCommitted = observedAt

	s.logger.Info("inserted records",
		zap.Int("rows", len(batch)),
		zap.String("observed_at", market.FormatTime(observedAt)),
		zap.Duration("next_in", s.opts.Interval))
	s.opts.Metrics.observeTick(OutcomeAppended, time.Since(start), len(batch), dropped, observedAt)
	return OutcomeAppended
}

// stamp returns the batch timestamp, never earlier than the last committed
// one, so a wall clock stepping back cannot reorder a coin's series.
func (s *Scheduler) stamp() time.Time {
	now := market.Truncate(s.opts.Now())
	if now.Before(s.lastCommitted) {
		s.logger.Warn("clock moved backwards, reusing last batch time",
			zap.Time("now", now), zap.Time("last", s.lastCommitted))
		return s.lastCommitted
	}
	return now
}
