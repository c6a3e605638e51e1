package dashboard

import (
	"context"
	"io"
	"time"

	"cryptometrics/internal/query"

	"go.uber.org/zap"
)

// Poller re-renders the view on its own cadence, independent of the collector.
type Poller struct {
	Engine  *query.Engine
	CoinID  string
	Refresh time.Duration
	Out     io.Writer
	Logger  *zap.Logger
}

// Run renders immediately and then every Refresh until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	refresh := p.Refresh
	if refresh <= 0 {
		refresh = 15 * time.Second
	}
	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	for {
		p.renderOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Poller) renderOnce(ctx context.Context) {
	v, err := Build(ctx, p.Engine, p.CoinID)
	if err != nil {
		p.Logger.Warn("dashboard query failed", zap.Error(err))
		if err := RenderUnavailable(p.Out, time.Now()); err != nil {
			p.Logger.Warn("dashboard render failed", zap.Error(err))
		}
		return
	}
	if err := Render(p.Out, v); err != nil {
		p.Logger.Warn("dashboard render failed", zap.Error(err))
	}
}
