package coingecko

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func records(raw ...string) []RawRecord {
	out := make([]RawRecord, 0, len(raw))
	for _, r := range raw {
		out = append(out, RawRecord(r))
	}
	return out
}

// go test -v --run TestNormalizeZeroFillsMissingAmounts
func TestNormalizeZeroFillsMissingAmounts(t *testing.T) {
	at := time.Date(2026, 10, 18, 12, 0, 0, 750_000_000, time.UTC)

	obs := Normalize(records(
		`{"id":"cardano","symbol":"ada","name":"Cardano","current_price":0.35}`,
		`{"id":"solana","symbol":"sol","name":"Solana","current_price":150,"market_cap":null,"total_volume":null,"price_change_percentage_24h":null}`,
	), at, nil)

	require.Len(t, obs, 2)
	for _, o := range obs {
		assert.Zero(t, o.MarketCap, o.CoinID)
		assert.Zero(t, o.TotalVolume, o.CoinID)
		assert.Zero(t, o.PriceChange24h, o.CoinID)
		assert.Equal(t, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC), o.ObservedAt)
	}
	assert.Equal(t, 0.35, obs[0].Price)
	assert.Equal(t, "ada", obs[0].Symbol)
}

// go test -v --run TestNormalizeSkipsBadRecordsIndividually
func TestNormalizeSkipsBadRecordsIndividually(t *testing.T) {
	at := time.Now()

	obs := Normalize(records(
		`{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":67000}`,
		`["not","an","object"]`,
		`{"symbol":"xxx","current_price":1}`,
		`{"id":42,"current_price":1}`,
		`{"id":"ethereum","current_price":"2600"}`,
		`{"id":"tether","current_price":-1}`,
		`{"id":"solana","current_price":150`,
		`{"id":"cardano","current_price":1e400}`,
		`{"id":"tron","current_price":1,"total_volume":1e400}`,
		`{"id":"ripple","current_price":1,"price_change_percentage_24h":-1e400}`,
		`{"id":"binancecoin","symbol":"bnb","name":"BNB","current_price":580}`,
	), at, nil)

	require.Len(t, obs, 2)
	assert.Equal(t, "bitcoin", obs[0].CoinID)
	assert.Equal(t, "binancecoin", obs[1].CoinID)
}

// go test -v --run TestNormalizeFiltersAndDeduplicates
func TestNormalizeFiltersAndDeduplicates(t *testing.T) {
	obs := Normalize(records(
		`{"id":"bitcoin","current_price":67000}`,
		`{"id":"dogecoin","current_price":0.1}`,
		`{"id":"bitcoin","current_price":1}`,
	), time.Now(), []string{"bitcoin", "ethereum"})

	require.Len(t, obs, 1)
	assert.Equal(t, "bitcoin", obs[0].CoinID)
	assert.Equal(t, 67000.0, obs[0].Price)
}

// go test -v --run TestNormalizeEmpty
func TestNormalizeEmpty(t *testing.T) {
	assert.Empty(t, Normalize(nil, time.Now(), nil))
}
