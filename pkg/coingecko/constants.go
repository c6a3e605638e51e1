package coingecko

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	MarketsPath    = "/coins/markets"

	// apiKeyHeader carries a demo plan key; the public endpoint works without one.
	apiKeyHeader = "x-cg-demo-api-key"
)

// Fields read from each markets entry. Anything else in the payload is ignored.
const (
	fieldID          = "id"
	fieldSymbol      = "symbol"
	fieldName        = "name"
	fieldPrice       = "current_price"
	fieldMarketCap   = "market_cap"
	fieldTotalVolume = "total_volume"
	fieldChange24h   = "price_change_percentage_24h"
)
