package store

import (
	"context"

	"candlefill/internal/market"
)

// CandleStore is the persistence contract the backfill core needs. Upserts
// are idempotent on (exchange, instrument, resolution, tick) so reprocessing
// an already-covered range is harmless.
type CandleStore interface {
	// InstrumentMarketType reports the market type registered for the
	// instrument, or ok=false when the instrument is unknown.
	InstrumentMarketType(ctx context.Context, exchange, instrument string) (string, bool, error)

	// LatestTick returns the newest persisted tick for the series, or
	// ok=false when no candle exists yet.
	LatestTick(ctx context.Context, exchange, instrument, resolution string) (int64, bool, error)

	// BulkUpsertCandles persists a validated batch and returns the number
	// of rows written.
	BulkUpsertCandles(ctx context.Context, candles []market.Candle) (int64, error)
}
