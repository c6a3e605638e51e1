package app

import (
	"context"
	"testing"

	"cryptometrics/config"
	"cryptometrics/pkg/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// go test -v --run TestOpenMemoryStore
func TestOpenMemoryStore(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.DriverMemory}}

	store, err := OpenStore(cfg, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	assert.IsType(t, &memory.Store{}, store)
	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

// go test -v --run TestOpenUnknownStore
func TestOpenUnknownStore(t *testing.T) {
	_, err := OpenStore(&config.Config{Store: config.StoreConfig{Driver: "sqlite"}}, zap.NewNop())
	assert.Error(t, err)
}

// go test -v --run TestOpenReadStoreRefusesMemory
func TestOpenReadStoreRefusesMemory(t *testing.T) {
	_, err := OpenReadStore(&config.Config{Store: config.StoreConfig{Driver: config.DriverMemory}})
	assert.Error(t, err)

	_, err = OpenReadStore(&config.Config{Store: config.StoreConfig{Driver: "sqlite"}})
	assert.Error(t, err)
}
