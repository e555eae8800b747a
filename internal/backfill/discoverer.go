package backfill

import (
	"context"
	"fmt"
	"time"

	"candlefill/internal/config"
	"candlefill/internal/logger"
	"candlefill/internal/market"
	"candlefill/internal/queue"
	"candlefill/internal/store"

	"github.com/google/uuid"
)

// Discoverer walks the backfill whitelist for one exchange and enqueues a
// bounded work item for every series that is missing (bootstrap) or trailing
// behind (gap fill).
type Discoverer struct {
	store store.CandleStore
	queue queue.WorkQueue
	cfg   config.BackfillConfig

	// now is swappable in tests.
	now func() time.Time
}

func NewDiscoverer(st store.CandleStore, q queue.WorkQueue, cfg config.BackfillConfig) *Discoverer {
	return &Discoverer{store: st, queue: q, cfg: cfg, now: time.Now}
}

// Discover emits zero or more work items for the exchange and returns how
// many were enqueued. An empty whitelist costs no store reads.
func (d *Discoverer) Discover(ctx context.Context, exchange string) (int, error) {
	logger.Infof("[discovery] %s: starting OHLC work discovery", exchange)
	if len(d.cfg.Whitelist) == 0 {
		logger.Warnf("[discovery] %s: backfill whitelist is empty, skipping", exchange)
		return 0, nil
	}

	nowMS := d.now().UTC().UnixMilli()
	enqueued := 0

	for _, instrument := range d.cfg.Whitelist {
		marketType, found, err := d.store.InstrumentMarketType(ctx, exchange, instrument)
		if err != nil {
			return enqueued, fmt.Errorf("market type lookup for %s/%s failed: %w", exchange, instrument, err)
		}
		if !found {
			logger.Warnf("[discovery] instrument %q is not registered for %q, skipping", instrument, exchange)
			continue
		}

		for _, resolution := range d.cfg.Resolutions {
			dur, ok := market.ParseResolution(resolution)
			if !ok {
				logger.Warnf("[discovery] unparseable resolution %q, skipping", resolution)
				continue
			}

			latest, haveTick, err := d.store.LatestTick(ctx, exchange, instrument, resolution)
			if err != nil {
				return enqueued, fmt.Errorf("latest tick lookup for %s/%s/%s failed: %w", exchange, instrument, resolution, err)
			}

			var item *WorkItem
			if !haveTick {
				item = &WorkItem{
					Kind:    KindBootstrap,
					StartTS: nowMS - int64(d.cfg.TargetCandles)*dur.Milliseconds(),
					EndTS:   nowMS,
				}
			} else if next := latest + dur.Milliseconds(); next < nowMS {
				item = &WorkItem{
					Kind:    KindGapFill,
					StartTS: next,
					EndTS:   nowMS,
				}
			}
			if item == nil {
				continue // series is already current
			}

			item.ID = uuid.NewString()
			item.Exchange = exchange
			item.Instrument = instrument
			item.MarketType = marketType
			item.Resolution = resolution

			payload, err := item.Encode()
			if err != nil {
				return enqueued, fmt.Errorf("encoding work item failed: %w", err)
			}
			if err := d.queue.Enqueue(ctx, payload); err != nil {
				return enqueued, fmt.Errorf("enqueueing work item failed: %w", err)
			}
			enqueued++
		}
	}

	logger.Infof("[discovery] %s: discovery complete, enqueued %d tasks", exchange, enqueued)
	return enqueued, nil
}
