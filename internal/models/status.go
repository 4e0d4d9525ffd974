package models

import (
	"fmt"
	"time"
)

type OrderStatus int

const (
	OrderStatusWaitingMakerBond OrderStatus = iota
	OrderStatusPublic
	OrderStatusPaused
	OrderStatusWaitingTakerBond
	OrderStatusCancelled
	OrderStatusExpired
	OrderStatusWaitingCollateralAndInvoice
	OrderStatusWaitingSellerCollateral
	OrderStatusWaitingBuyerInvoice
	OrderStatusSendingFiat
	OrderStatusFiatSent
	OrderStatusInDispute
	OrderStatusCollaborativelyCancelled
	OrderStatusSendingSatoshis
	OrderStatusSuccessful
	OrderStatusFailedRouting
	OrderStatusAwaitingResolution
	OrderStatusMakerLostDispute
	OrderStatusTakerLostDispute

	orderStatusCount
)

// OrderStatusUnknown stands for a status the coordinator omitted or sent as null.
const OrderStatusUnknown OrderStatus = -1

// UnboundedInterval disables automatic polling for statuses outside the known range.
const UnboundedInterval = 99999999 * time.Millisecond

var refreshIntervals = [orderStatusCount]time.Duration{
	OrderStatusWaitingMakerBond:            3000 * time.Millisecond,
	OrderStatusPublic:                      35000 * time.Millisecond,
	OrderStatusPaused:                      180000 * time.Millisecond,
	OrderStatusWaitingTakerBond:            3000 * time.Millisecond,
	OrderStatusCancelled:                   999999 * time.Millisecond,
	OrderStatusExpired:                     999999 * time.Millisecond,
	OrderStatusWaitingCollateralAndInvoice: 8000 * time.Millisecond,
	OrderStatusWaitingSellerCollateral:     8000 * time.Millisecond,
	OrderStatusWaitingBuyerInvoice:         8000 * time.Millisecond,
	OrderStatusSendingFiat:                 10000 * time.Millisecond,
	OrderStatusFiatSent:                    10000 * time.Millisecond,
	OrderStatusInDispute:                   100000 * time.Millisecond,
	OrderStatusCollaborativelyCancelled:    999999 * time.Millisecond,
	OrderStatusSendingSatoshis:             10000 * time.Millisecond,
	OrderStatusSuccessful:                  999999 * time.Millisecond,
	OrderStatusFailedRouting:               30000 * time.Millisecond,
	OrderStatusAwaitingResolution:          300000 * time.Millisecond,
	OrderStatusMakerLostDispute:            300000 * time.Millisecond,
	OrderStatusTakerLostDispute:            300000 * time.Millisecond,
}

var statusNames = [orderStatusCount]string{
	OrderStatusWaitingMakerBond:            "waiting for maker bond",
	OrderStatusPublic:                      "public",
	OrderStatusPaused:                      "paused",
	OrderStatusWaitingTakerBond:            "waiting for taker bond",
	OrderStatusCancelled:                   "cancelled",
	OrderStatusExpired:                     "expired",
	OrderStatusWaitingCollateralAndInvoice: "waiting for trade collateral and buyer invoice",
	OrderStatusWaitingSellerCollateral:     "waiting only for seller trade collateral",
	OrderStatusWaitingBuyerInvoice:         "waiting only for buyer invoice",
	OrderStatusSendingFiat:                 "sending fiat - in chatroom",
	OrderStatusFiatSent:                    "fiat sent - in chatroom",
	OrderStatusInDispute:                   "in dispute",
	OrderStatusCollaborativelyCancelled:    "collaboratively cancelled",
	OrderStatusSendingSatoshis:             "sending satoshis to buyer",
	OrderStatusSuccessful:                  "successful trade",
	OrderStatusFailedRouting:               "failed lightning network routing",
	OrderStatusAwaitingResolution:          "wait for dispute resolution",
	OrderStatusMakerLostDispute:            "maker lost dispute",
	OrderStatusTakerLostDispute:            "taker lost dispute",
}

func (s OrderStatus) Valid() bool {
	return s >= 0 && s < orderStatusCount
}

// RefreshInterval is the delay before the next fetch once this status has been observed.
func (s OrderStatus) RefreshInterval() time.Duration {
	if !s.Valid() {
		return UnboundedInterval
	}
	return refreshIntervals[s]
}

func (s OrderStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("unknown(%d)", int(s))
	}
	return statusNames[s]
}

// AllOrderStatuses lists every known status in code order.
func AllOrderStatuses() []OrderStatus {
	out := make([]OrderStatus, 0, orderStatusCount)
	for s := OrderStatus(0); s < orderStatusCount; s++ {
		out = append(out, s)
	}
	return out
}
