package sqlstore

// ObservationRecord is one row of crypto_metrics. Rows are only ever inserted.
type ObservationRecord struct {
	// Surrogate key; gives a stable insertion order for rows sharing a timestamp.
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	// "YYYY-MM-DD HH:MM:SS" in UTC, so lexical order is time order.
	Timestamp string `gorm:"column:timestamp;type:varchar(19);not null;index:idx_crypto_metrics_timestamp;index:idx_crypto_metrics_coin_timestamp,priority:2"`
	CoinID    string `gorm:"column:coin_id;type:varchar(64);not null;index:idx_crypto_metrics_coin_timestamp,priority:1"`
	Symbol    string `gorm:"column:symbol;type:varchar(32);not null"`
	Name      string `gorm:"column:name;type:varchar(128);not null"`

	CurrentPrice   float64 `gorm:"column:current_price;type:double precision;not null"`
	MarketCap      float64 `gorm:"column:market_cap;type:double precision;not null"`
	TotalVolume    float64 `gorm:"column:total_volume;type:double precision;not null"`
	PriceChange24h float64 `gorm:"column:price_change_24h;type:double precision;not null"`
}

// TableName overrides the default table name for GORM.
func (ObservationRecord) TableName() string {
	return "crypto_metrics"
}
