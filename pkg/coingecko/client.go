package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

type Options struct {
	BaseURL    string
	APIKey     string
	VsCurrency string
	Order      string
	Timeout    time.Duration // bounds one whole fetch, including the rate-limit wait
	RatePerMin int           // 0 disables pacing
}

// Client reads market snapshots from the CoinGecko REST API.
type Client struct {
	http       *resty.Client
	vsCurrency string
	order      string
	timeout    time.Duration
	limiter    *rate.Limiter
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.VsCurrency == "" {
		opts.VsCurrency = "usd"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")
	if opts.APIKey != "" {
		client.SetHeader(apiKeyHeader, opts.APIKey)
	}

	c := &Client{
		http:       client,
		vsCurrency: opts.VsCurrency,
		order:      opts.Order,
		timeout:    opts.Timeout,
	}
	if opts.RatePerMin > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RatePerMin)), 1)
	}
	return c
}

// FetchMarkets requests one snapshot for ids. It makes a single attempt and
// returns a *FetchError on any failure.
func (c *Client) FetchMarkets(ctx context.Context, ids []string) ([]RawRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &FetchError{Kind: KindTimeout, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}

	params := map[string]string{
		"vs_currency": c.vsCurrency,
		"ids":         strings.Join(ids, ","),
	}
	if c.order != "" {
		params["order"] = c.order
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(MarketsPath)
	if err != nil {
		kind := KindNetwork
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			kind = KindTimeout
		}
		return nil, &FetchError{Kind: kind, Err: fmt.Errorf("http request failed: %w", err)}
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &FetchError{
			Kind:       KindStatus,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("coingecko error: %s", snippet(resp.Body())),
		}
	}

	return decodeMarkets(resp.Body())
}

// decodeMarkets splits the array body into records without interpreting them.
func decodeMarkets(body []byte) ([]RawRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, &FetchError{Kind: KindMalformed, Err: errors.New("response is not valid JSON")}
	}
	result := gjson.ParseBytes(body)
	if !result.IsArray() {
		return nil, &FetchError{Kind: KindMalformed, Err: fmt.Errorf("expected JSON array, got %s", result.Type)}
	}

	var out []RawRecord
	result.ForEach(func(_, value gjson.Result) bool {
		out = append(out, RawRecord(value.Raw))
		return true
	})
	return out, nil
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
