package domain

import "time"

type SubscriptionStatus string

const (
	SubscriptionAutoRenewable    SubscriptionStatus = "auto_renewable"
	SubscriptionNotAutoRenewable SubscriptionStatus = "not_auto_renewable"
	SubscriptionGracePeriod      SubscriptionStatus = "grace_period"
	SubscriptionInactive         SubscriptionStatus = "inactive"
	SubscriptionExpired          SubscriptionStatus = "expired"
	SubscriptionWaiting          SubscriptionStatus = "waiting"
	SubscriptionUnknown          SubscriptionStatus = "unknown"
)

// Active reports whether the status grants entitlements.
func (s SubscriptionStatus) Active() bool {
	switch s {
	case SubscriptionAutoRenewable, SubscriptionNotAutoRenewable, SubscriptionGracePeriod:
		return true
	default:
		return false
	}
}

// ActiveOrWaiting additionally admits the soft-fail state left behind by an
// unconfirmed purchase; entitlements survive it.
func (s SubscriptionStatus) ActiveOrWaiting() bool {
	return s.Active() || s == SubscriptionWaiting
}

// Subscription is replaced wholesale on every successful fetch or confirm;
// it is never partially mutated except for the local waiting mark.
type Subscription struct {
	ProductID         string
	StartedAt         time.Time
	ExpiresOrRenewsAt time.Time
	Status            SubscriptionStatus
	Platform          string
}

func (s Subscription) IsZero() bool {
	return s.ProductID == "" && s.Status == ""
}

// Product is a feature unlocked by an active subscription.
type Product string

// Entitlements is the ordered set of products granted by the active
// subscription.
type Entitlements []Product
