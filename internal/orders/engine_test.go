package orders

import (
	"context"
	"errors"
	"robosync/internal/coordinator"
	"robosync/internal/models"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicOrderSchedulesNextPoll(t *testing.T) {
	h := newHarness(t)
	h.client.queue(42, ok(models.Order{ID: 42, Status: models.OrderStatusPublic, IsParticipant: false}))

	h.engine.Track(42)
	h.settle()

	view := h.engine.View()
	require.NotNil(t, view.Order)
	assert.True(t, view.HasActiveData)
	assert.True(t, view.ReadOnly)
	assert.Empty(t, view.Message)
	assert.Equal(t, 35*time.Second, view.NextPoll)
	assert.Equal(t, []time.Duration{35 * time.Second}, h.clock.Pending())

	h.advance(34 * time.Second)
	assert.Equal(t, []int64{42}, h.client.fetchedIDs())

	h.advance(time.Second)
	assert.Equal(t, []int64{42, 42}, h.client.fetchedIDs())
	assert.Len(t, h.clock.Pending(), 1)
}

func TestEveryStatusUsesItsInterval(t *testing.T) {
	for _, status := range models.AllOrderStatuses() {
		t.Run(status.String(), func(t *testing.T) {
			h := newHarness(t)
			h.client.queue(1, ok(models.Order{ID: 1, Status: status}))

			h.engine.Track(1)
			h.settle()

			assert.Equal(t, status.RefreshInterval(), h.engine.View().NextPoll)
			assert.Equal(t, []time.Duration{status.RefreshInterval()}, h.clock.Pending())
		})
	}
}

func TestIntervalFollowsNewlyObservedStatus(t *testing.T) {
	h := newHarness(t)
	h.client.queue(5,
		ok(models.Order{ID: 5, Status: models.OrderStatusWaitingMakerBond, IsParticipant: true}),
		ok(models.Order{ID: 5, Status: models.OrderStatusPublic, IsParticipant: true}),
	)

	h.engine.Track(5)
	h.settle()
	assert.Equal(t, 3*time.Second, h.engine.View().NextPoll)

	h.advance(3 * time.Second)
	view := h.engine.View()
	assert.Equal(t, 35*time.Second, view.NextPoll)
	assert.False(t, view.ReadOnly)
}

func TestUnknownStatusStopsPolling(t *testing.T) {
	h := newHarness(t)
	h.client.queue(3, ok(models.Order{ID: 3, Status: models.OrderStatus(19)}))

	h.engine.Track(3)
	h.settle()

	assert.True(t, h.engine.View().HasActiveData)
	assert.Zero(t, h.engine.View().NextPoll)
	assert.Empty(t, h.clock.Pending())
}

func TestBadRequestClearsOrderAndKeepsCadence(t *testing.T) {
	h := newHarness(t)
	h.client.queue(7, orderResult{err: &coordinator.BadRequestError{Reason: "Invalid order id"}})

	h.engine.Track(7)
	h.settle()

	view := h.engine.View()
	assert.Nil(t, view.Order)
	assert.False(t, view.HasActiveData)
	assert.Equal(t, "Invalid order id", view.Message)
	assert.Equal(t, 60*time.Second, view.NextPoll)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.OrderFetches.WithLabelValues("bad_request")))
}

func TestBadRequestAfterStatusKeepsLastKnownCadence(t *testing.T) {
	h := newHarness(t)
	h.client.queue(8,
		ok(models.Order{ID: 8, Status: models.OrderStatusWaitingBuyerInvoice}),
		orderResult{err: &coordinator.BadRequestError{Reason: "This order is not available"}},
	)

	h.engine.Track(8)
	h.settle()
	h.advance(8 * time.Second)

	view := h.engine.View()
	assert.Nil(t, view.Order)
	assert.Equal(t, "This order is not available", view.Message)
	assert.Equal(t, 8*time.Second, view.NextPoll)
}

func TestTransportFailureBacksOff(t *testing.T) {
	h := newHarness(t)
	down := orderResult{err: &coordinator.TransportError{Op: "GET /api/order/", Err: errors.New("connection refused")}}
	h.client.queue(9, ok(models.Order{ID: 9, Status: models.OrderStatusWaitingMakerBond}), down)

	h.engine.Track(9)
	h.settle()
	assert.Equal(t, 3*time.Second, h.engine.View().NextPoll)

	h.advance(3 * time.Second)
	view := h.engine.View()
	assert.Equal(t, time.Second, view.NextPoll)
	assert.True(t, view.HasActiveData, "transport failures keep the last order")
	assert.NotEmpty(t, view.Message)

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second, 60 * time.Second, 60 * time.Second}
	for _, next := range want {
		h.advance(h.engine.View().NextPoll)
		assert.Equal(t, next, h.engine.View().NextPoll)
	}

	h.client.queue(9, ok(models.Order{ID: 9, Status: models.OrderStatusPublic}))
	// drop the repeating failure so the success is served next
	h.client.mu.Lock()
	h.client.results[9] = h.client.results[9][len(h.client.results[9])-1:]
	h.client.mu.Unlock()

	h.advance(60 * time.Second)
	assert.Equal(t, 35*time.Second, h.engine.View().NextPoll)
	assert.Empty(t, h.engine.View().Message)
	assert.Zero(t, testutil.ToFloat64(h.metrics.Backoff))
}

func TestSwitchingOrderLeavesNoTimerForPrevious(t *testing.T) {
	h := newHarness(t)
	h.client.queue(1, ok(models.Order{ID: 1, Status: models.OrderStatusWaitingMakerBond}))
	h.client.queue(2, ok(models.Order{ID: 2, Status: models.OrderStatusPublic}))

	h.engine.Track(1)
	h.settle()
	require.Equal(t, []time.Duration{3 * time.Second}, h.clock.Pending())

	h.engine.Track(2)
	h.settle()
	assert.Equal(t, []time.Duration{35 * time.Second}, h.clock.Pending())

	h.advance(35 * time.Second)
	assert.Equal(t, []int64{1, 2, 2}, h.client.fetchedIDs())
	id, tracking := h.engine.OrderID()
	assert.True(t, tracking)
	assert.Equal(t, int64(2), id)
}

func TestStaleResponseIsDiscarded(t *testing.T) {
	h := newHarness(t)
	gate := make(chan struct{})
	h.client.queue(1, orderResult{order: models.Order{ID: 1, Status: models.OrderStatusPaused}, gate: gate})
	h.client.queue(2, ok(models.Order{ID: 2, Status: models.OrderStatusSendingFiat}))

	h.engine.Track(1)
	h.engine.Track(2)
	require.Eventually(t, func() bool { return h.engine.View().HasActiveData }, time.Second, time.Millisecond)

	close(gate)
	h.settle()

	view := h.engine.View()
	require.NotNil(t, view.Order)
	assert.Equal(t, int64(2), view.Order.ID)
	assert.Equal(t, []time.Duration{10 * time.Second}, h.clock.Pending())
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.StaleResponses.WithLabelValues("order")))
}

func TestStopCancelsTimer(t *testing.T) {
	h := newHarness(t)
	h.client.queue(4, ok(models.Order{ID: 4, Status: models.OrderStatusPublic}))

	h.engine.Track(4)
	h.settle()
	require.Len(t, h.clock.Pending(), 1)

	h.engine.Stop()
	assert.Empty(t, h.clock.Pending())
	_, tracking := h.engine.OrderID()
	assert.False(t, tracking)
	assert.False(t, h.engine.View().HasActiveData)
}

func TestRenewFollowsNewOrder(t *testing.T) {
	h := newHarness(t)
	sats := int64(50000)
	h.client.queue(10, ok(models.Order{
		ID:             10,
		Status:         models.OrderStatusExpired,
		Type:           models.OrderTypeSell,
		Currency:       1,
		Amount:         decimal.NewNullDecimal(decimal.RequireFromString("100")),
		PaymentMethod:  "Revolut",
		IsExplicit:     true,
		Satoshis:       &sats,
		Premium:        decimal.NewNullDecimal(decimal.RequireFromString("2.5")),
		BondSize:       decimal.RequireFromString("3"),
		PublicDuration: 86400,
		EscrowDuration: 10800,
		BondlessTaker:  true,
		IsMaker:        true,
		IsParticipant:  true,
	}))
	h.client.queue(11, ok(models.Order{ID: 11, Status: models.OrderStatusWaitingMakerBond, IsParticipant: true}))
	h.client.makeID = 11

	h.engine.Track(10)
	h.settle()

	id, err := h.engine.Renew(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	h.settle()

	require.Len(t, h.client.made, 1)
	body := h.client.made[0]
	assert.False(t, body.Premium.Valid)
	require.NotNil(t, body.Satoshis)
	assert.Equal(t, sats, *body.Satoshis)
	assert.Equal(t, "Revolut", body.PaymentMethod)
	assert.True(t, body.BondlessTaker)

	orderID, _ := h.engine.OrderID()
	assert.Equal(t, int64(11), orderID)
	assert.Equal(t, int64(11), h.engine.View().Order.ID)
	assert.Equal(t, []time.Duration{3 * time.Second}, h.clock.Pending())
	assert.Equal(t, []int64{11}, h.current)
}

func TestRenewFailureKeepsTrackedOrder(t *testing.T) {
	h := newHarness(t)
	h.client.queue(10, ok(models.Order{ID: 10, Status: models.OrderStatusExpired, IsParticipant: true}))
	h.client.makeErr = &coordinator.BadRequestError{Reason: "You are already maker of an active order"}

	h.engine.Track(10)
	h.settle()

	_, err := h.engine.Renew(context.Background())
	require.Error(t, err)

	view := h.engine.View()
	assert.Equal(t, int64(10), view.OrderID)
	assert.Equal(t, "You are already maker of an active order", view.Message)
	assert.Empty(t, h.current)

	last, n := h.lastUpdate()
	assert.Equal(t, 2, n)
	assert.Equal(t, "You are already maker of an active order", last.Message)
	assert.Equal(t, int64(10), last.OrderID)
	require.NotNil(t, last.Order)
}

func TestRenewWithoutOrder(t *testing.T) {
	h := newHarness(t)
	_, err := h.engine.Renew(context.Background())
	assert.ErrorIs(t, err, ErrNoOrder)
}
