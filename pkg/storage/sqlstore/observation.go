package sqlstore

import (
	"context"
	"fmt"

	"cryptometrics/internal/market"
	"cryptometrics/pkg/storage"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seriesOrder = clause.OrderBy{Columns: []clause.OrderByColumn{
	{Column: clause.Column{Name: "timestamp"}},
	{Column: clause.Column{Name: "id"}},
}}

// Append inserts the batch in one transaction; on any error nothing is committed.
func (p *Client) Append(ctx context.Context, batch []market.Observation) error {
	if err := market.ValidateBatch(batch); err != nil {
		return err
	}
	if len(batch) == 0 {
		return nil
	}

	records := make([]ObservationRecord, 0, len(batch))
	for _, o := range batch {
		records = append(records, ToObservationRecord(o))
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	err := p.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&records).Error
	})
	if err != nil {
		return fmt.Errorf("%w: insert %d observations: %w", storage.ErrUnavailable, len(records), err)
	}
	return nil
}

func (p *Client) QueryAll(ctx context.Context) ([]market.Observation, error) {
	var records []ObservationRecord
	err := p.DB.WithContext(ctx).
		Clauses(seriesOrder).
		Find(&records).Error

	return p.toSeries(records, err)
}

func (p *Client) QueryByEntity(ctx context.Context, coinID string) ([]market.Observation, error) {
	var records []ObservationRecord
	err := p.DB.WithContext(ctx).
		Where("coin_id = ?", coinID).
		Clauses(seriesOrder).
		Find(&records).Error

	return p.toSeries(records, err)
}

func (p *Client) Count(ctx context.Context) (int64, error) {
	var n int64
	err := p.DB.WithContext(ctx).Model(&ObservationRecord{}).Count(&n).Error
	if err != nil {
		if isMissingTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: count observations: %w", storage.ErrUnavailable, err)
	}
	return n, nil
}

// toSeries maps a scan result. A table that does not exist yet reads as empty.
func (p *Client) toSeries(records []ObservationRecord, err error) ([]market.Observation, error) {
	if err != nil {
		if isMissingTable(err) {
			return []market.Observation{}, nil
		}
		return nil, fmt.Errorf("%w: query observations: %w", storage.ErrUnavailable, err)
	}

	out := make([]market.Observation, 0, len(records))
	for _, r := range records {
		o, err := r.ToObservation()
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// ToObservationRecord converts an observation into a row for insertion.
func ToObservationRecord(o market.Observation) ObservationRecord {
	return ObservationRecord{
		Timestamp:      market.FormatTime(o.ObservedAt),
		CoinID:         o.CoinID,
		Symbol:         o.Symbol,
		Name:           o.Name,
		CurrentPrice:   o.Price,
		MarketCap:      o.MarketCap,
		TotalVolume:    o.TotalVolume,
		PriceChange24h: o.PriceChange24h,
	}
}

func (r ObservationRecord) ToObservation() (market.Observation, error) {
	at, err := market.ParseTime(r.Timestamp)
	if err != nil {
		return market.Observation{}, fmt.Errorf("row %d: bad timestamp %q: %w", r.ID, r.Timestamp, err)
	}
	return market.Observation{
		ObservedAt:     at,
		CoinID:         r.CoinID,
		Symbol:         r.Symbol,
		Name:           r.Name,
		Price:          r.CurrentPrice,
		MarketCap:      r.MarketCap,
		TotalVolume:    r.TotalVolume,
		PriceChange24h: r.PriceChange24h,
	}, nil
}
