package backfill

import (
	"context"
	"fmt"
	"time"

	"candlefill/internal/gateway"
	"candlefill/internal/logger"
	"candlefill/internal/market"
	"candlefill/internal/store"
)

// Fetcher walks a work item's time range in bounded chunks, transforming and
// persisting each fetched payload. Every branch strictly advances the
// cursor, so the loop always terminates.
type Fetcher struct {
	store  store.CandleStore
	pacing time.Duration
}

func NewFetcher(st store.CandleStore, pacing time.Duration) *Fetcher {
	return &Fetcher{store: st, pacing: pacing}
}

// Fetch persists everything discoverable in [item.StartTS, item.EndTS) and
// returns the number of records upserted.
func (f *Fetcher) Fetch(ctx context.Context, item WorkItem, client gateway.Client) (int64, error) {
	dur, ok := market.ParseResolution(item.Resolution)
	if !ok {
		return 0, fmt.Errorf("unparseable resolution %q", item.Resolution)
	}
	chunkMS := market.ChunkSpanMS(dur)

	logger.Infof("[fetch] %s %s (%s): paginated fetch %d -> %d",
		item.Exchange, item.Instrument, item.Resolution, item.StartTS, item.EndTS)

	cursor := item.StartTS
	var total int64

	for cursor < item.EndTS {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		chunkEnd := min(item.EndTS, cursor+chunkMS)
		logger.Debugf("[fetch] %s chunk %d -> %d", item.Instrument, cursor, chunkEnd)

		payload, err := client.GetHistorical(ctx, gateway.HistoryRequest{
			Instrument: item.Instrument,
			StartTS:    cursor,
			EndTS:      chunkEnd,
			Resolution: item.Resolution,
			MarketType: item.MarketType,
		})
		if err != nil {
			return total, fmt.Errorf("historical fetch for %s failed: %w", item.Instrument, err)
		}

		if payload == nil || len(payload.Ticks) == 0 {
			// A confirmed data-free chunk, not an error.
			logger.Warnf("[fetch] %s returned no data for chunk, advancing", item.Instrument)
			cursor = chunkEnd + 1
			if err := f.pause(ctx); err != nil {
				return total, err
			}
			continue
		}

		candles := market.Transform(payload, item.Exchange, item.Instrument, item.Resolution)
		if len(candles) == 0 {
			// Malformed batch; the cursor must never stall on it.
			logger.Debugf("[fetch] %s transformed zero records, advancing", item.Instrument)
			cursor = chunkEnd + 1
			if err := f.pause(ctx); err != nil {
				return total, err
			}
			continue
		}

		n, err := f.store.BulkUpsertCandles(ctx, candles)
		if err != nil {
			return total, fmt.Errorf("bulk upsert for %s failed: %w", item.Instrument, err)
		}
		total += n
		cursor = candles[len(candles)-1].Tick + 1

		if err := f.pause(ctx); err != nil {
			return total, err
		}
	}

	logger.Infof("[fetch] %s %s (%s): complete, upserted %d records",
		item.Exchange, item.Instrument, item.Resolution, total)
	return total, nil
}

// pause applies the fixed pacing delay between chunks, honoring
// cancellation.
func (f *Fetcher) pause(ctx context.Context) error {
	if f.pacing <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(f.pacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
