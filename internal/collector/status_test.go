package collector

import (
	"context"
	"testing"
	"time"

	"cryptometrics/pkg/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// go test -v --run TestStatusReporterLogsCount
func TestStatusReporterLogsCount(t *testing.T) {
	store := memory.NewStore()
	s := NewScheduler(&scriptedFetcher{records: twoCoins}, store, zap.NewNop(), Options{Coins: coins, Now: clock()})
	require.Equal(t, OutcomeAppended, s.Tick(context.Background()))

	core, logs := observer.New(zap.InfoLevel)
	c, err := StartStatusReporter("@every 1s", store, s, zap.New(core))
	require.NoError(t, err)
	defer c.Stop()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("current saved observations").Len() > 0
	}, 3*time.Second, 50*time.Millisecond)

	entry := logs.FilterMessage("current saved observations").All()[0]
	assert.EqualValues(t, 2, entry.ContextMap()["count"])
	assert.Equal(t, "idle", entry.ContextMap()["state"])
}

// go test -v --run TestStatusReporterRejectsBadSpec
func TestStatusReporterRejectsBadSpec(t *testing.T) {
	_, err := StartStatusReporter("every now and then", memory.NewStore(), nil, zap.NewNop())
	assert.Error(t, err)
}
