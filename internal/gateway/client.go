// Package gateway defines the exchange client capability the backfill core
// needs, plus the driver lookup table that picks a concrete implementation
// per configured exchange.
package gateway

import (
	"context"

	"candlefill/internal/config"
	"candlefill/internal/market"
)

// HistoryRequest describes one bounded historical fetch. The range is
// half-open in intent but exchanges treat both bounds inclusively; the
// idempotent upsert absorbs the overlap.
type HistoryRequest struct {
	Instrument string
	StartTS    int64 // ms
	EndTS      int64 // ms
	Resolution string
	MarketType string
}

// Client is one exchange connection. A worker owns exactly one client per
// work item: constructed, connected, used, closed.
type Client interface {
	Connect(ctx context.Context) error
	GetHistorical(ctx context.Context, req HistoryRequest) (*market.RawPayload, error)
	Close() error
}

// Factory builds a client from the exchange's static configuration.
type Factory func(cfg config.ExchangeConfig) (Client, error)

// FactoryMap resolves a factory by exchange name.
type FactoryMap map[string]Factory
