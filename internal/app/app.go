// Package app wires configuration, store, queue, exchange drivers and the
// backfill engine into one runnable unit.
package app

import (
	"context"
	"fmt"
	"time"

	"candlefill/internal/backfill"
	"candlefill/internal/config"
	"candlefill/internal/gateway"
	"candlefill/internal/gateway/drivers"
	"candlefill/internal/logger"
	"candlefill/internal/queue/redisqueue"
	"candlefill/internal/store/gormstore"
	storemodel "candlefill/internal/store/model"
	apihttp "candlefill/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg     *config.Config
	store   *gormstore.Store
	queue   *redisqueue.Queue
	disc    *backfill.Discoverer
	workers []*backfill.Worker
	http    *apihttp.Server
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	st, err := gormstore.New(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store failed: %w", err)
	}
	if err := seedInstruments(st, cfg.Backfill.Seed); err != nil {
		_ = st.Close()
		return nil, err
	}

	q, err := redisqueue.New(cfg.Redis)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("opening work queue failed: %w", err)
	}

	factories := gateway.FactoryMap{}
	for name, ex := range cfg.Exchanges {
		factory, ok := drivers.ForDriver(ex.Driver)
		if !ok {
			_ = st.Close()
			_ = q.Close()
			return nil, fmt.Errorf("exchange %q uses unknown driver %q", name, ex.Driver)
		}
		factories[name] = factory
	}

	fetcher := backfill.NewFetcher(st, cfg.Backfill.Pacing())
	workers := make([]*backfill.Worker, 0, cfg.Backfill.Workers)
	for i := 1; i <= cfg.Backfill.Workers; i++ {
		workers = append(workers, backfill.NewWorker(i, q, factories, cfg.Exchanges, fetcher, cfg.Backfill.IdleBackoff()))
	}

	httpSrv, err := apihttp.NewServer(apihttp.ServerConfig{
		Addr:     cfg.App.HTTPAddr,
		Queue:    q,
		Store:    st,
		Backfill: cfg.Backfill,
	})
	if err != nil {
		_ = st.Close()
		_ = q.Close()
		return nil, err
	}

	return &App{
		cfg:     cfg,
		store:   st,
		queue:   q,
		disc:    backfill.NewDiscoverer(st, q, cfg.Backfill),
		workers: workers,
		http:    httpSrv,
	}, nil
}

// Run blocks until ctx is cancelled or a component fails fatally.
func (a *App) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.http.Start(ctx)
	})
	for _, w := range a.workers {
		worker := w
		group.Go(func() error {
			return worker.Run(ctx)
		})
	}
	group.Go(func() error {
		return a.discoveryLoop(ctx)
	})

	err := group.Wait()
	a.Close()
	return err
}

// discoveryLoop runs one discovery pass immediately, then repeats on the
// configured interval. A failed pass is logged and retried next round.
func (a *App) discoveryLoop(ctx context.Context) error {
	a.discoverAll(ctx)
	ticker := time.NewTicker(a.cfg.Backfill.DiscoveryInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.discoverAll(ctx)
		}
	}
}

func (a *App) discoverAll(ctx context.Context) {
	for name := range a.cfg.Exchanges {
		if ctx.Err() != nil {
			return
		}
		if _, err := a.disc.Discover(ctx, name); err != nil {
			logger.Errorf("[discovery] %s: pass failed: %v", name, err)
		}
	}
}

func (a *App) Close() {
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			logger.Warnf("[app] closing queue failed: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logger.Warnf("[app] closing store failed: %v", err)
		}
	}
}

func seedInstruments(st *gormstore.Store, seeds []config.InstrumentSeed) error {
	if len(seeds) == 0 {
		return nil
	}
	rows := make([]storemodel.InstrumentModel, 0, len(seeds))
	for _, s := range seeds {
		rows = append(rows, storemodel.InstrumentModel{
			Exchange:       s.Exchange,
			InstrumentName: s.Instrument,
			MarketType:     s.MarketType,
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := st.UpsertInstruments(ctx, rows); err != nil {
		return fmt.Errorf("seeding instruments failed: %w", err)
	}
	logger.Infof("[app] seeded %d instrument rows", len(rows))
	return nil
}
