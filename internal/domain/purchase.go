package domain

// PurchaseState is the single observable value describing the in-flight
// purchase lifecycle. It is transient and broadcast-only: states are never
// persisted and the stream carrying them does not replay to new subscribers.
//
// PreFlowInProgress -> PreFlowFinished -> InProgress ->
// {Success | Waiting | Recovered | Canceled | Failure}
type PurchaseState interface {
	purchaseState()
}

type PurchasePreFlowInProgress struct{}

type PurchasePreFlowFinished struct{}

type PurchaseInProgress struct{}

type PurchaseSuccess struct{}

// PurchaseWaiting is the soft-fail outcome: confirmation did not come back
// active, the local subscription is marked waiting and kept for later
// reconciliation.
type PurchaseWaiting struct{}

// PurchaseRecovered signals that an active subscription was restored from the
// store account instead of launching a duplicate purchase.
type PurchaseRecovered struct{}

type PurchaseCanceled struct{}

type PurchaseFailure struct {
	Message string
}

func (PurchasePreFlowInProgress) purchaseState() {}
func (PurchasePreFlowFinished) purchaseState()   {}
func (PurchaseInProgress) purchaseState()        {}
func (PurchaseSuccess) purchaseState()           {}
func (PurchaseWaiting) purchaseState()           {}
func (PurchaseRecovered) purchaseState()         {}
func (PurchaseCanceled) purchaseState()          {}
func (PurchaseFailure) purchaseState()           {}
