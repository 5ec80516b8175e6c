package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/subvault-dev/subvault-cli/internal/domain"
)

// Status is a point-in-time read of the locally cached reconciliation state.
type Status struct {
	SignedIn             bool
	Account              domain.Account
	Subscription         domain.Subscription
	Entitlements         domain.Entitlements
	CanSupportEncryption bool
}

// Status reads the cached account, subscription and entitlements without
// touching the network. Missing cache entries are reported as zero values,
// not errors.
func (c *Coordinator) Status(ctx context.Context) (Status, error) {
	authToken, err := c.tokens.AuthToken(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("read auth token: %w", err)
	}

	status := Status{
		SignedIn:             authToken != "",
		Subscription:         domain.Subscription{Status: domain.SubscriptionUnknown},
		CanSupportEncryption: c.vault.CanSupportEncryption(),
	}

	account, err := c.vault.Account(ctx)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return Status{}, fmt.Errorf("read account: %w", err)
	}
	status.Account = account

	sub, err := c.vault.Subscription(ctx)
	if err != nil && !errors.Is(err, domain.ErrSubscriptionNotFound) {
		return Status{}, fmt.Errorf("read subscription: %w", err)
	}
	if err == nil {
		status.Subscription = sub
	}

	entitlements, err := c.vault.Entitlements(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("read entitlements: %w", err)
	}
	status.Entitlements = entitlements

	return status, nil
}
