package backfill

import (
	"context"
	"errors"
	"fmt"
	"time"

	"candlefill/internal/config"
	"candlefill/internal/gateway"
	"candlefill/internal/logger"
	"candlefill/internal/queue"
)

// Worker pulls work items off the shared queue and drives the paginated
// fetcher. A single bad item never terminates the loop: malformed items and
// configuration gaps are logged and discarded, fetch failures park the
// original payload on the failed-work list. Only cancellation ends Run.
type Worker struct {
	id          int
	queue       queue.WorkQueue
	factories   gateway.FactoryMap
	exchanges   map[string]config.ExchangeConfig
	fetcher     *Fetcher
	idleBackoff time.Duration
}

func NewWorker(id int, q queue.WorkQueue, factories gateway.FactoryMap, exchanges map[string]config.ExchangeConfig, fetcher *Fetcher, idleBackoff time.Duration) *Worker {
	if idleBackoff <= 0 {
		idleBackoff = 5 * time.Second
	}
	return &Worker{
		id:          id,
		queue:       q,
		factories:   factories,
		exchanges:   exchanges,
		fetcher:     fetcher,
		idleBackoff: idleBackoff,
	}
}

// Run loops until ctx is cancelled. It always returns nil: cancellation is a
// clean shutdown, not an error.
func (w *Worker) Run(ctx context.Context) error {
	logger.Infof("[worker-%d] starting", w.id)
	for {
		if ctx.Err() != nil {
			logger.Infof("[worker-%d] cancelled", w.id)
			return nil
		}

		raw, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				logger.Infof("[worker-%d] cancelled", w.id)
				return nil
			}
			logger.Errorf("[worker-%d] dequeue failed: %v", w.id, err)
			if !w.sleep(ctx) {
				return nil
			}
			continue
		}
		if raw == nil {
			if !w.sleep(ctx) {
				return nil
			}
			continue
		}

		item, err := DecodeWorkItem(raw)
		if err != nil {
			// Malformed items are discarded, not requeued: redelivering one
			// would loop forever.
			logger.Errorf("[worker-%d] invalid work item, discarding: %v (payload=%s)", w.id, err, truncate(raw, 256))
			continue
		}

		factory, ok := w.factories[item.Exchange]
		if !ok {
			logger.Errorf("[worker-%d] no client for exchange %q, discarding item %s", w.id, item.Exchange, item.ID)
			continue
		}
		exCfg, ok := w.exchanges[item.Exchange]
		if !ok {
			logger.Errorf("[worker-%d] no config for exchange %q, discarding item %s", w.id, item.Exchange, item.ID)
			continue
		}

		logger.Infof("[worker-%d] processing %s for %s (%s)", w.id, item.Kind, item.Instrument, item.Resolution)
		if err := w.process(ctx, item, factory, exCfg); err != nil {
			if ctx.Err() != nil {
				logger.Infof("[worker-%d] cancelled mid-fetch", w.id)
				return nil
			}
			logger.Errorf("[worker-%d] failed to process item %s (%s %s): %v", w.id, item.ID, item.Instrument, item.Resolution, err)
			if qerr := w.queue.EnqueueFailed(ctx, raw); qerr != nil {
				logger.Errorf("[worker-%d] parking failed item also failed: %v", w.id, qerr)
			}
		}
	}
}

// process owns the client for exactly one work item lifetime: construct,
// connect, fetch, close.
func (w *Worker) process(ctx context.Context, item WorkItem, factory gateway.Factory, exCfg config.ExchangeConfig) error {
	client, err := factory(exCfg)
	if err != nil {
		return fmt.Errorf("constructing %s client failed: %w", item.Exchange, err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logger.Warnf("[worker-%d] closing %s client failed: %v", w.id, item.Exchange, cerr)
		}
	}()

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connecting %s client failed: %w", item.Exchange, err)
	}
	if _, err := w.fetcher.Fetch(ctx, item, client); err != nil {
		return err
	}
	return nil
}

// sleep applies the idle backoff; false means ctx was cancelled.
func (w *Worker) sleep(ctx context.Context) bool {
	timer := time.NewTimer(w.idleBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		logger.Infof("[worker-%d] cancelled", w.id)
		return false
	case <-timer.C:
		return true
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
