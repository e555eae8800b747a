package backfill

import (
	"context"
	"errors"
	"testing"
	"time"

	"candlefill/internal/config"
	"candlefill/internal/gateway"
	"candlefill/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testExchanges = map[string]config.ExchangeConfig{
	"deribit": {Driver: "binance"},
}

func enqueueItem(t *testing.T, q *fakeQueue, item WorkItem) {
	t.Helper()
	raw, err := item.Encode()
	require.NoError(t, err)
	require.NoError(t, q.Enqueue(context.Background(), raw))
}

func runWorker(t *testing.T, w *Worker) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Run(ctx))
	}()
	return func() {
		stop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("worker did not stop after cancellation")
		}
	}
}

func TestWorkerProcessesValidItem(t *testing.T) {
	st := newFakeStore()
	q := &fakeQueue{}
	client := &fakeClient{script: []*market.RawPayload{payloadWithTicks(1000, 2000)}}

	enqueueItem(t, q, testItem(0, 2000))

	w := NewWorker(1, q, gateway.FactoryMap{"deribit": clientFactory(client)}, testExchanges, NewFetcher(st, 0), 10*time.Millisecond)
	stop := runWorker(t, w)
	defer stop()

	require.Eventually(t, func() bool {
		st.mu.Lock()
		defer st.mu.Unlock()
		return len(st.upserted) == 2
	}, 2*time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return client.closedCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, q.failedLen())
}

func TestWorkerDiscardsMalformedItemAndContinues(t *testing.T) {
	st := newFakeStore()
	q := &fakeQueue{}
	client := &fakeClient{script: []*market.RawPayload{payloadWithTicks(1000)}}

	// Missing resolution: must be discarded, never requeued.
	require.NoError(t, q.Enqueue(context.Background(),
		[]byte(`{"kind":"GAP_FILL","exchange":"deribit","instrument":"BTC-PERP","start_ts":1,"end_ts":2}`)))
	enqueueItem(t, q, testItem(0, 1000))

	w := NewWorker(1, q, gateway.FactoryMap{"deribit": clientFactory(client)}, testExchanges, NewFetcher(st, 0), 10*time.Millisecond)
	stop := runWorker(t, w)
	defer stop()

	// The valid item behind the malformed one still gets processed.
	require.Eventually(t, func() bool {
		st.mu.Lock()
		defer st.mu.Unlock()
		return len(st.upserted) == 1
	}, 2*time.Second, 5*time.Millisecond)

	assert.Zero(t, q.failedLen())
	assert.Zero(t, q.pendingLen())
}

func TestWorkerDiscardsItemForUnknownExchange(t *testing.T) {
	st := newFakeStore()
	q := &fakeQueue{}

	item := testItem(0, 1000)
	item.Exchange = "unknown-venue"
	enqueueItem(t, q, item)
	enqueueItem(t, q, testItem(0, 1000))

	client := &fakeClient{script: []*market.RawPayload{payloadWithTicks(1000)}}
	w := NewWorker(1, q, gateway.FactoryMap{"deribit": clientFactory(client)}, testExchanges, NewFetcher(st, 0), 10*time.Millisecond)
	stop := runWorker(t, w)
	defer stop()

	require.Eventually(t, func() bool {
		st.mu.Lock()
		defer st.mu.Unlock()
		return len(st.upserted) == 1
	}, 2*time.Second, 5*time.Millisecond)

	// Config gaps are operator errors: discarded, not parked as failed work.
	assert.Zero(t, q.failedLen())
}

func TestWorkerReroutesFetchFailureToFailedQueue(t *testing.T) {
	st := newFakeStore()
	q := &fakeQueue{}
	client := &fakeClient{fetchErr: errors.New("exchange down")}

	item := testItem(0, 1000)
	enqueueItem(t, q, item)

	w := NewWorker(1, q, gateway.FactoryMap{"deribit": clientFactory(client)}, testExchanges, NewFetcher(st, 0), 10*time.Millisecond)
	stop := runWorker(t, w)
	defer stop()

	require.Eventually(t, func() bool { return q.failedLen() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return client.closedCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	// The parked payload is the original item, byte for byte decodable.
	q.mu.Lock()
	raw := q.failed[0]
	q.mu.Unlock()
	parked, err := DecodeWorkItem(raw)
	require.NoError(t, err)
	assert.Equal(t, item, parked)
}

func TestWorkerClosesClientWhenConnectFails(t *testing.T) {
	st := newFakeStore()
	q := &fakeQueue{}
	client := &fakeClient{connectErr: errors.New("dial refused")}

	enqueueItem(t, q, testItem(0, 1000))

	w := NewWorker(1, q, gateway.FactoryMap{"deribit": clientFactory(client)}, testExchanges, NewFetcher(st, 0), 10*time.Millisecond)
	stop := runWorker(t, w)
	defer stop()

	require.Eventually(t, func() bool { return q.failedLen() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return client.closedCount() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestWorkerStopsOnCancellationWhileIdle(t *testing.T) {
	w := NewWorker(1, &fakeQueue{}, gateway.FactoryMap{}, testExchanges, NewFetcher(newFakeStore(), 0), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not exit the idle backoff on cancellation")
	}
}
