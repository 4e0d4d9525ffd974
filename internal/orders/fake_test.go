package orders

import (
	"context"
	"robosync/internal/clock"
	"robosync/internal/coordinator"
	"robosync/internal/logger"
	"robosync/internal/metrics"
	"robosync/internal/models"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type orderResult struct {
	order models.Order
	err   error
	// gate, when set, blocks the response until closed.
	gate chan struct{}
}

type fakeClient struct {
	mu      sync.Mutex
	results map[int64][]orderResult
	calls   []int64
	made    []models.MakeRequest
	makeID  int64
	makeErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{results: map[int64][]orderResult{}}
}

// queue appends responses for id; the last one repeats once the queue drains.
func (f *fakeClient) queue(id int64, results ...orderResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[id] = append(f.results[id], results...)
}

func (f *fakeClient) fetchedIDs() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int64, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeClient) BaseURL() string { return "http://fake" }

func (f *fakeClient) GetBook(context.Context) ([]models.Order, error) { return nil, nil }

func (f *fakeClient) GetLimits(context.Context) (models.LimitList, error) { return nil, nil }

func (f *fakeClient) GetInfo(context.Context) (models.Info, error) { return models.Info{}, nil }

func (f *fakeClient) PostUser(context.Context, models.UserRequest) (models.UserResponse, error) {
	return models.UserResponse{}, nil
}

func (f *fakeClient) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	queue := f.results[id]
	var res orderResult
	switch {
	case len(queue) == 0:
		res = orderResult{err: &coordinator.BadRequestError{Reason: "Invalid order id"}}
	case len(queue) == 1:
		res = queue[0]
	default:
		res = queue[0]
		f.results[id] = queue[1:]
	}
	f.mu.Unlock()

	if res.gate != nil {
		select {
		case <-res.gate:
		case <-ctx.Done():
			return models.Order{}, ctx.Err()
		}
	}
	return res.order, res.err
}

func (f *fakeClient) MakeOrder(_ context.Context, req models.MakeRequest) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.made = append(f.made, req)
	if f.makeErr != nil {
		return 0, f.makeErr
	}
	return f.makeID, nil
}

type harness struct {
	engine  *Engine
	client  *fakeClient
	clock   *clock.Fake
	metrics *metrics.Metrics

	mu      sync.Mutex
	current []int64
	updates []View
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		client:  newFakeClient(),
		clock:   clock.NewFake(),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	h.engine = New(Config{}, h.client, logger.Discard(), Options{
		Clock:   h.clock,
		Metrics: h.metrics,
		OnCurrentOrder: func(id int64) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.current = append(h.current, id)
		},
		OnUpdate: func(v View) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.updates = append(h.updates, v)
		},
	})
	t.Cleanup(h.engine.Close)
	return h
}

func (h *harness) lastUpdate() (View, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.updates) == 0 {
		return View{}, 0
	}
	return h.updates[len(h.updates)-1], len(h.updates)
}

// settle waits for every dispatched fetch to be applied.
func (h *harness) settle() {
	h.engine.wg.Wait()
}

// advance fires due timers and waits for the fetches they started.
func (h *harness) advance(d time.Duration) {
	h.clock.Advance(d)
	h.settle()
}

func ok(order models.Order) orderResult {
	return orderResult{order: order}
}
