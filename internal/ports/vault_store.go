package ports

import (
	"context"

	"github.com/subvault-dev/subvault-cli/internal/domain"
)

// VaultStore holds the locally cached Account, Subscription and Entitlements.
// Account and Subscription return domain.ErrAccountNotFound and
// domain.ErrSubscriptionNotFound respectively when nothing is cached.
// Clear wipes all three in one step.
type VaultStore interface {
	Account(ctx context.Context) (domain.Account, error)
	SetAccount(ctx context.Context, account domain.Account) error
	Subscription(ctx context.Context) (domain.Subscription, error)
	SetSubscription(ctx context.Context, sub domain.Subscription) error
	Entitlements(ctx context.Context) (domain.Entitlements, error)
	SetEntitlements(ctx context.Context, entitlements domain.Entitlements) error
	Clear(ctx context.Context) error
	CanSupportEncryption() bool
}

// TokenStore holds the auth and access tokens. Getters return "" without
// error when no token is stored.
type TokenStore interface {
	AuthToken(ctx context.Context) (string, error)
	SetAuthToken(ctx context.Context, token string) error
	AccessToken(ctx context.Context) (string, error)
	SetAccessToken(ctx context.Context, token string) error
	ClearTokens(ctx context.Context) error
}
