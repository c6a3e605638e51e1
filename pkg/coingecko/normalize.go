package coingecko

import (
	"math"
	"time"

	"cryptometrics/internal/market"

	"github.com/tidwall/gjson"
)

// Normalize turns raw markets entries into one tick's observations, all
// stamped observedAt (truncated to the second, UTC).
//
// Missing or null numeric fields become 0. Entries for coins outside wanted
// (nil keeps everything), repeated coins, and entries that cannot be read are
// dropped one by one; Normalize itself never fails.
func Normalize(raw []RawRecord, observedAt time.Time, wanted []string) []market.Observation {
	at := market.Truncate(observedAt)

	var allow map[string]struct{}
	if wanted != nil {
		allow = make(map[string]struct{}, len(wanted))
		for _, id := range wanted {
			allow[id] = struct{}{}
		}
	}

	out := make([]market.Observation, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		o, ok := normalizeRecord(r, at)
		if !ok {
			continue
		}
		if allow != nil {
			if _, want := allow[o.CoinID]; !want {
				continue
			}
		}
		if _, dup := seen[o.CoinID]; dup {
			continue
		}
		seen[o.CoinID] = struct{}{}
		out = append(out, o)
	}
	return out
}

func normalizeRecord(r RawRecord, at time.Time) (market.Observation, bool) {
	if !gjson.ValidBytes(r) {
		return market.Observation{}, false
	}
	rec := gjson.ParseBytes(r)
	if !rec.IsObject() {
		return market.Observation{}, false
	}

	id := rec.Get(fieldID)
	if id.Type != gjson.String || id.Str == "" {
		return market.Observation{}, false
	}

	price, ok1 := amount(rec, fieldPrice)
	mcap, ok2 := amount(rec, fieldMarketCap)
	volume, ok3 := amount(rec, fieldTotalVolume)
	change, ok4 := amount(rec, fieldChange24h)
	if !(ok1 && ok2 && ok3 && ok4) {
		return market.Observation{}, false
	}
	if price < 0 || mcap < 0 || volume < 0 {
		return market.Observation{}, false
	}

	return market.Observation{
		ObservedAt:     at,
		CoinID:         id.Str,
		Symbol:         text(rec, fieldSymbol),
		Name:           text(rec, fieldName),
		Price:          price,
		MarketCap:      mcap,
		TotalVolume:    volume,
		PriceChange24h: change,
	}, true
}

// amount reads a numeric field; absent and null read as 0. Numbers that
// overflow float64 are rejected.
func amount(rec gjson.Result, field string) (float64, bool) {
	v := rec.Get(field)
	switch v.Type {
	case gjson.Null:
		return 0, true
	case gjson.Number:
		f := v.Float()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func text(rec gjson.Result, field string) string {
	v := rec.Get(field)
	if v.Type == gjson.Null {
		return ""
	}
	return v.String()
}
