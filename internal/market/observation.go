// Package market holds the observation model shared by the ingestion and query paths.
package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// TimeLayout is the second-precision layout observations are persisted with.
const TimeLayout = "2006-01-02 15:04:05"

// Observation is one immutable sample of one coin at one instant.
type Observation struct {
	ObservedAt     time.Time `json:"observed_at"`
	CoinID         string    `json:"coin_id"`          // stable upstream id, e.g. "bitcoin"
	Symbol         string    `json:"symbol"`           // display only, e.g. "btc"
	Name           string    `json:"name"`             // display only, e.g. "Bitcoin"
	Price          float64   `json:"current_price"`    // unit price in the quote currency
	MarketCap      float64   `json:"market_cap"`       // 0 when unknown
	TotalVolume    float64   `json:"total_volume"`     // 0 when unknown
	PriceChange24h float64   `json:"price_change_24h"` // percentage, signed
}

// ErrInvalidBatch is returned for batches that break the one-row-per-coin,
// one-timestamp rule or carry an unusable row.
var ErrInvalidBatch = errors.New("invalid observation batch")

// Truncate returns t normalized to UTC at second precision.
func Truncate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// FormatTime renders t in TimeLayout (UTC).
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a TimeLayout string as UTC.
func ParseTime(s string) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, s, time.UTC)
}

// ValidateBatch checks that batch is a single tick's worth of rows.
func ValidateBatch(batch []Observation) error {
	if len(batch) == 0 {
		return nil
	}

	at := batch[0].ObservedAt
	seen := make(map[string]struct{}, len(batch))
	for i, o := range batch {
		if o.CoinID == "" {
			return fmt.Errorf("%w: row %d has empty coin id", ErrInvalidBatch, i)
		}
		if !o.ObservedAt.Equal(at) {
			return fmt.Errorf("%w: row %d (%s) observed at %s, batch at %s",
				ErrInvalidBatch, i, o.CoinID, FormatTime(o.ObservedAt), FormatTime(at))
		}
		if !finite(o.Price, o.MarketCap, o.TotalVolume, o.PriceChange24h) {
			return fmt.Errorf("%w: row %d (%s) has a non-finite amount", ErrInvalidBatch, i, o.CoinID)
		}
		if o.Price < 0 || o.MarketCap < 0 || o.TotalVolume < 0 {
			return fmt.Errorf("%w: row %d (%s) has a negative amount", ErrInvalidBatch, i, o.CoinID)
		}
		if _, dup := seen[o.CoinID]; dup {
			return fmt.Errorf("%w: coin %s appears twice", ErrInvalidBatch, o.CoinID)
		}
		seen[o.CoinID] = struct{}{}
	}
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return false
		}
	}
	return true
}
