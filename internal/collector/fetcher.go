package collector

import (
	"context"

	"MarketLens/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns bars for symbol covering period (e.g. "1d", "5d",
	// "1mo") at the given bar interval (e.g. "1m", "5m", "1h").
	FetchBars(ctx context.Context, symbol, period, interval string) ([]model.OHLCV, error)
	Name() string
}
