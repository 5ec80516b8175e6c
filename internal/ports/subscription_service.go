package ports

import (
	"context"

	"github.com/subvault-dev/subvault-cli/internal/domain"
)

// CreatedAccount is the response to account creation: a fresh account plus
// the auth token to exchange for an access token.
type CreatedAccount struct {
	Account   domain.Account
	AuthToken string
}

type StoreLoginRequest struct {
	Signature   string
	SignedData  string
	PackageName string
}

type StoreLoginResponse struct {
	Account   domain.Account
	AuthToken string
}

// TokenDetails is what validating an auth token returns: the owning account
// and the entitlements currently granted to it.
type TokenDetails struct {
	Account      domain.Account
	Entitlements domain.Entitlements
}

type ConfirmResult struct {
	Subscription domain.Subscription
	Entitlements domain.Entitlements
}

// SubscriptionService is the remote account/subscription backend.
//
// Error mapping expected from implementations: an expired or invalid token on
// ValidateToken surfaces as domain.ErrTokenExpired; an HTTP 401 on
// Subscription surfaces as domain.ErrUnauthorized.
type SubscriptionService interface {
	AccessToken(ctx context.Context, authToken string) (string, error)
	CreateAccount(ctx context.Context, emailToken string) (CreatedAccount, error)
	StoreLogin(ctx context.Context, req StoreLoginRequest) (StoreLoginResponse, error)
	ValidateToken(ctx context.Context, authToken string) (TokenDetails, error)
	Subscription(ctx context.Context, accessToken string) (domain.Subscription, error)
	Confirm(ctx context.Context, accessToken, packageName, purchaseToken string) (ConfirmResult, error)
	Portal(ctx context.Context, accessToken string) (string, error)
}
