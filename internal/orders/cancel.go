package orders

import "robosync/internal/models"

type CancelKind int

const (
	CancelNone CancelKind = iota
	CancelDirect
	CancelCollaborative
)

func (k CancelKind) String() string {
	switch k {
	case CancelDirect:
		return "direct"
	case CancelCollaborative:
		return "collaborative"
	default:
		return "none"
	}
}

type CancelEligibility struct {
	Kind                 CancelKind
	RequiresConfirmation bool
}

var (
	makerDirectCancel = statusSet(
		models.OrderStatusWaitingMakerBond,
		models.OrderStatusPublic,
		models.OrderStatusPaused,
	)
	anyoneDirectCancel = statusSet(
		models.OrderStatusWaitingTakerBond,
		models.OrderStatusWaitingCollateralAndInvoice,
		models.OrderStatusWaitingSellerCollateral,
	)
	collaborativeCancel = statusSet(
		models.OrderStatusWaitingBuyerInvoice,
		models.OrderStatusSendingFiat,
	)
)

func statusSet(statuses ...models.OrderStatus) map[models.OrderStatus]bool {
	set := make(map[models.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

// Eligibility reports which cancel action the robot may take on an order in status.
func Eligibility(status models.OrderStatus, isMaker, isTaker bool) CancelEligibility {
	noConfirmation := (isMaker && makerDirectCancel[status]) ||
		(isTaker && status == models.OrderStatusWaitingTakerBond)

	switch {
	case (isMaker && makerDirectCancel[status]) || anyoneDirectCancel[status]:
		return CancelEligibility{Kind: CancelDirect, RequiresConfirmation: !noConfirmation}
	case collaborativeCancel[status]:
		return CancelEligibility{Kind: CancelCollaborative, RequiresConfirmation: !noConfirmation}
	default:
		return CancelEligibility{Kind: CancelNone}
	}
}

// OrderEligibility is Eligibility applied to a fetched order.
func OrderEligibility(order models.Order) CancelEligibility {
	return Eligibility(order.Status, order.IsMaker, order.IsTaker)
}
