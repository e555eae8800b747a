package backfill

import (
	"context"
	"sync"

	"candlefill/internal/config"
	"candlefill/internal/gateway"
	"candlefill/internal/market"
)

// fakeStore implements store.CandleStore with canned answers and call
// counters.
type fakeStore struct {
	mu sync.Mutex

	marketTypes map[string]string // "exchange/instrument" -> market type
	latest      map[string]int64  // "exchange/instrument/resolution" -> tick

	marketTypeCalls int
	latestCalls     int
	upsertCalls     int
	upserted        []market.Candle
	upsertErr       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		marketTypes: make(map[string]string),
		latest:      make(map[string]int64),
	}
}

func (s *fakeStore) InstrumentMarketType(ctx context.Context, exchange, instrument string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marketTypeCalls++
	mt, ok := s.marketTypes[exchange+"/"+instrument]
	return mt, ok, nil
}

func (s *fakeStore) LatestTick(ctx context.Context, exchange, instrument, resolution string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latestCalls++
	tick, ok := s.latest[exchange+"/"+instrument+"/"+resolution]
	return tick, ok, nil
}

func (s *fakeStore) BulkUpsertCandles(ctx context.Context, candles []market.Candle) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	if s.upsertErr != nil {
		return 0, s.upsertErr
	}
	s.upserted = append(s.upserted, candles...)
	return int64(len(candles)), nil
}

// fakeQueue is an in-memory queue.WorkQueue.
type fakeQueue struct {
	mu     sync.Mutex
	items  [][]byte
	failed [][]byte
}

func (q *fakeQueue) Enqueue(ctx context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, payload)
	return nil
}

func (q *fakeQueue) Dequeue(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, nil
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, nil
}

func (q *fakeQueue) EnqueueFailed(ctx context.Context, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed = append(q.failed, payload)
	return nil
}

func (q *fakeQueue) pendingLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *fakeQueue) failedLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.failed)
}

func (q *fakeQueue) decodeAll() ([]WorkItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]WorkItem, 0, len(q.items))
	for _, raw := range q.items {
		item, err := DecodeWorkItem(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// fakeClient scripts GetHistorical responses in order; once the script is
// exhausted it keeps returning empty payloads.
type fakeClient struct {
	mu sync.Mutex

	script     []*market.RawPayload
	fetchErr   error
	connectErr error

	fetchCalls int
	requests   []gateway.HistoryRequest
	closed     int
}

func (c *fakeClient) Connect(ctx context.Context) error { return c.connectErr }

func (c *fakeClient) GetHistorical(ctx context.Context, req gateway.HistoryRequest) (*market.RawPayload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchCalls++
	c.requests = append(c.requests, req)
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	if len(c.script) == 0 {
		return &market.RawPayload{}, nil
	}
	head := c.script[0]
	c.script = c.script[1:]
	return head, nil
}

func (c *fakeClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
	return nil
}

func (c *fakeClient) closedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func clientFactory(c *fakeClient) gateway.Factory {
	return func(cfg config.ExchangeConfig) (gateway.Client, error) {
		return c, nil
	}
}

func payloadWithTicks(ticks ...int64) *market.RawPayload {
	n := len(ticks)
	p := &market.RawPayload{
		Ticks:  ticks,
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
	}
	for i := range ticks {
		p.Open[i] = 1
		p.High[i] = 2
		p.Low[i] = 0.5
		p.Close[i] = 1.5
		p.Volume[i] = 10
	}
	return p
}
