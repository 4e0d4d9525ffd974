package orders

import (
	"context"
	"robosync/internal/coordinator"
	"robosync/internal/models"

	"github.com/shopspring/decimal"
)

// RenewalRequest rebuilds the make body for order. The price is sent in the
// order's pricing mode only, so the coordinator recomputes the other one.
func RenewalRequest(order models.Order) models.MakeRequest {
	req := models.MakeRequest{
		Type:           order.Type,
		Currency:       order.Currency,
		HasRange:       order.HasRange,
		MinAmount:      order.MinAmount,
		MaxAmount:      order.MaxAmount,
		PaymentMethod:  order.PaymentMethod,
		IsExplicit:     order.IsExplicit,
		PublicDuration: order.PublicDuration,
		EscrowDuration: order.EscrowDuration,
		BondSize:       order.BondSize,
		BondlessTaker:  order.BondlessTaker,
	}
	if !order.HasRange {
		req.Amount = order.Amount
	}
	if order.IsExplicit {
		req.Premium = decimal.NullDecimal{}
		if order.Satoshis != nil {
			sats := *order.Satoshis
			req.Satoshis = &sats
		}
	} else {
		req.Premium = order.Premium
	}
	return req
}

// Renew submits a fresh copy of the tracked order. On success the engine
// follows the new order immediately; on failure the reason is surfaced and
// the tracked order is left as is.
func (e *Engine) Renew(ctx context.Context) (int64, error) {
	e.mu.Lock()
	if !e.tracking || e.order == nil {
		e.mu.Unlock()
		return 0, ErrNoOrder
	}
	body := RenewalRequest(*e.order)
	client := e.client
	gen := e.gen
	previous := e.orderID
	e.mu.Unlock()

	id, err := client.MakeOrder(ctx, body)
	if err != nil {
		e.metrics.Renewals.WithLabelValues("failed").Inc()
		e.mu.Lock()
		current := gen == e.gen
		if current {
			e.message = coordinator.Reason(err)
		}
		view := e.viewLocked()
		onUpdate := e.onUpdate
		e.mu.Unlock()
		e.logEntry().WithError(err).WithField("order_id", previous).Warn("Order renewal failed.")
		if current && onUpdate != nil {
			onUpdate(view)
		}
		return 0, err
	}

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		e.metrics.StaleResponses.WithLabelValues("renewal").Inc()
		e.logEntry().WithField("new_order_id", id).Warn("Subscription changed while renewing, not following the new order.")
		return id, nil
	}
	req := e.trackLocked(id)
	e.mu.Unlock()

	e.metrics.Renewals.WithLabelValues("ok").Inc()
	e.logEntry().WithField("order_id", previous).WithField("new_order_id", id).Info("Order renewed.")
	e.dispatch(req)

	if e.onCurrentOrder != nil {
		e.onCurrentOrder(id)
	}
	return id, nil
}
