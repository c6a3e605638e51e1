package coingecko

import (
	"encoding/json"
	"fmt"
)

// RawRecord is one untouched element of the /coins/markets array.
type RawRecord json.RawMessage

// FetchKind classifies why a fetch failed.
type FetchKind string

const (
	KindNetwork   FetchKind = "network"   // transport failure, connection refused, reset
	KindTimeout   FetchKind = "timeout"   // request or rate-limit wait hit the deadline
	KindStatus    FetchKind = "status"    // non-200 HTTP status
	KindMalformed FetchKind = "malformed" // body is not a JSON array
)

// FetchError is the only error FetchMarkets returns.
type FetchError struct {
	Kind       FetchKind
	StatusCode int // set for KindStatus
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("coingecko fetch %s %d: %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("coingecko fetch %s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
