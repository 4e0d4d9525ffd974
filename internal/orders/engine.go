package orders

import (
	"context"
	"errors"
	"robosync/internal/clock"
	"robosync/internal/coordinator"
	"robosync/internal/logger"
	"robosync/internal/metrics"
	"robosync/internal/models"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrNoOrder = errors.New("no order to renew")

type Config struct {
	// DefaultInterval is the cadence before any status has been observed.
	DefaultInterval time.Duration
	BackoffMin      time.Duration
	BackoffMax      time.Duration
	RequestTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultInterval <= 0 {
		c.DefaultInterval = 60 * time.Second
	}
	if c.BackoffMin <= 0 {
		c.BackoffMin = time.Second
	}
	if c.BackoffMax < c.BackoffMin {
		c.BackoffMax = 60 * time.Second
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	return c
}

// View is what the presentation layer gets to see of the tracked order.
type View struct {
	OrderID       int64
	Order         *models.Order
	Message       string
	HasActiveData bool
	// ReadOnly is set when the robot does not participate in the order.
	ReadOnly bool
	// NextPoll is the delay armed after the last fetch, zero when nothing is scheduled.
	NextPoll time.Duration
}

type Options struct {
	Clock   clock.Clock
	Metrics *metrics.Metrics
	// OnCurrentOrder is told about the order a renewal switched to.
	OnCurrentOrder func(orderID int64)
	// OnUpdate receives a snapshot after every applied response.
	OnUpdate func(View)
}

// Engine polls one order at a cadence derived from its status. There is at
// most one scheduled fetch; every request carries a sequence number and only
// the response to the latest request is applied.
type Engine struct {
	cfg     Config
	clock   clock.Clock
	log     *logger.Logger
	metrics *metrics.Metrics

	onCurrentOrder func(int64)
	onUpdate       func(View)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	client   coordinator.Client
	tracking bool
	orderID  int64
	gen      uint64
	seq      uint64
	timer    clock.Timer
	order    *models.Order
	message  string
	interval time.Duration
	nextPoll time.Duration
	backoff  time.Duration
}

func New(cfg Config, client coordinator.Client, log *logger.Logger, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.Real
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:            cfg,
		clock:          opts.Clock,
		log:            log,
		metrics:        opts.Metrics,
		onCurrentOrder: opts.OnCurrentOrder,
		onUpdate:       opts.OnUpdate,
		ctx:            ctx,
		cancel:         cancel,
		client:         client,
		interval:       cfg.DefaultInterval,
	}
}

// SetClient points the engine at another coordinator. Callers stop the
// current subscription first; the next Track uses the new client.
func (e *Engine) SetClient(client coordinator.Client) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.client = client
}

// Track starts following orderID with an immediate fetch. Any previous
// subscription is retired first.
func (e *Engine) Track(orderID int64) {
	e.mu.Lock()
	req := e.trackLocked(orderID)
	e.mu.Unlock()

	e.logEntry().WithField("order_id", orderID).Info("Tracking order.")
	e.dispatch(req)
}

// Stop retires the current subscription. Responses still in flight are discarded.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.retireLocked()
	e.tracking = false
	e.orderID = 0
	e.order = nil
	e.message = ""
	e.nextPoll = 0
	e.metrics.PollInterval.Set(0)
}

// Close stops polling and aborts requests in flight.
func (e *Engine) Close() {
	e.Stop()
	e.cancel()
	e.wg.Wait()
}

func (e *Engine) OrderID() (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.orderID, e.tracking
}

func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

type fetchRequest struct {
	client  coordinator.Client
	orderID int64
	seq     uint64
}

func (e *Engine) trackLocked(orderID int64) fetchRequest {
	e.retireLocked()
	e.tracking = true
	e.orderID = orderID
	e.order = nil
	e.message = ""
	e.interval = e.cfg.DefaultInterval
	e.backoff = 0
	e.nextPoll = 0
	return e.nextRequestLocked()
}

// retireLocked cancels the pending timer and invalidates every outstanding request.
func (e *Engine) retireLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.gen++
	e.seq++
}

func (e *Engine) nextRequestLocked() fetchRequest {
	e.seq++
	return fetchRequest{client: e.client, orderID: e.orderID, seq: e.seq}
}

func (e *Engine) dispatch(req fetchRequest) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.fetch(req)
	}()
}

func (e *Engine) fetch(req fetchRequest) {
	ctx, cancel := context.WithTimeout(e.ctx, e.cfg.RequestTimeout)
	defer cancel()

	order, err := req.client.GetOrder(ctx, req.orderID)
	e.apply(req, order, err)
}

func (e *Engine) apply(req fetchRequest, order models.Order, err error) {
	e.mu.Lock()
	if !e.tracking || req.seq != e.seq || req.orderID != e.orderID {
		e.mu.Unlock()
		e.metrics.StaleResponses.WithLabelValues("order").Inc()
		e.logEntry().WithFields(logrus.Fields{
			"order_id": req.orderID,
			"seq":      req.seq,
		}).Debug("Discarding stale order response.")
		return
	}

	var delay time.Duration
	entry := e.logEntry().WithField("order_id", req.orderID)
	switch {
	case err == nil:
		e.order = &order
		e.message = ""
		e.backoff = 0
		e.interval = order.Status.RefreshInterval()
		delay = e.interval
		e.metrics.OrderFetches.WithLabelValues("ok").Inc()
		entry = entry.WithFields(logrus.Fields{"status": order.Status.String(), "next": delay})
		entry.Debug("Order refreshed.")
	case errors.Is(err, coordinator.ErrBadRequest):
		e.order = nil
		e.message = coordinator.Reason(err)
		e.backoff = 0
		delay = e.interval
		e.metrics.OrderFetches.WithLabelValues("bad_request").Inc()
		entry.WithField("reason", e.message).Warn("Coordinator rejected order fetch.")
	default:
		e.message = coordinator.Reason(err)
		e.backoff = e.nextBackoff(e.backoff)
		delay = e.backoff
		e.metrics.OrderFetches.WithLabelValues("transport").Inc()
		entry.WithError(err).WithField("retry_in", delay).Warn("Order fetch failed.")
	}
	e.metrics.Backoff.Set(e.backoff.Seconds())

	if delay >= models.UnboundedInterval {
		e.nextPoll = 0
		e.metrics.PollInterval.Set(0)
	} else {
		e.armLocked(delay)
	}

	view := e.viewLocked()
	onUpdate := e.onUpdate
	e.mu.Unlock()

	if onUpdate != nil {
		onUpdate(view)
	}
}

// armLocked replaces the pending timer with one firing after delay.
func (e *Engine) armLocked(delay time.Duration) {
	if e.timer != nil {
		e.timer.Stop()
	}
	gen := e.gen
	e.timer = e.clock.AfterFunc(delay, func() { e.poll(gen) })
	e.nextPoll = delay
	e.metrics.PollInterval.Set(delay.Seconds())
}

func (e *Engine) poll(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || !e.tracking {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.nextPoll = 0
	req := e.nextRequestLocked()
	e.mu.Unlock()

	e.dispatch(req)
}

func (e *Engine) nextBackoff(current time.Duration) time.Duration {
	if current <= 0 {
		return e.cfg.BackoffMin
	}
	next := current * 2
	if next > e.cfg.BackoffMax {
		return e.cfg.BackoffMax
	}
	return next
}

func (e *Engine) viewLocked() View {
	v := View{
		OrderID:       e.orderID,
		Message:       e.message,
		HasActiveData: e.order != nil,
		NextPoll:      e.nextPoll,
	}
	if e.order != nil {
		o := *e.order
		v.Order = &o
		v.ReadOnly = !o.IsParticipant
	}
	return v
}

func (e *Engine) logEntry() *logrus.Entry {
	return e.log.WithComponent("orders")
}
