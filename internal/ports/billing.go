package ports

import (
	"context"

	"github.com/subvault-dev/subvault-cli/internal/domain"
)

type PurchaseEventKind string

const (
	PurchaseEventPurchased PurchaseEventKind = "purchased"
	PurchaseEventCanceled  PurchaseEventKind = "canceled"
)

// PurchaseEvent is one signal from the platform store's purchase stream.
// Events of kinds other than the constants above are ignored by consumers.
type PurchaseEvent struct {
	Kind          PurchaseEventKind
	PackageName   string
	PurchaseToken string
}

// PurchaseRecord is one historical purchase held by the platform store,
// carrying the signed payload needed for a store login.
type PurchaseRecord struct {
	PackageName   string
	PurchaseToken string
	Signature     string
	SignedData    string
}

// BillingClient is the contract over the platform billing SDK. PurchaseHistory
// returns records most-recent-last.
type BillingClient interface {
	Products(ctx context.Context) ([]domain.Product, error)
	PurchaseHistory(ctx context.Context) ([]PurchaseRecord, error)
	PurchaseEvents() <-chan PurchaseEvent
	LaunchBillingFlow(ctx context.Context, planID, externalID string) error
}
