package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/subvault-dev/subvault-cli/internal/domain"
	"github.com/subvault-dev/subvault-cli/internal/ports"
)

// StorePlatform is the platform identifier of the store this client is bound
// to; only subscriptions purchased on it are eligible for store recovery.
const StorePlatform = "play"

var errConfirmedInactive = errors.New("confirmed subscription is not active")

// Coordinator is the single source of truth for sign-in state, subscription
// status and entitlements. It owns their broadcast streams and is the only
// mutator of the local vault and token stores. Operations are serialized by
// caller contract; the internal mutex only guards the mutate-and-publish
// step so stream subscribers never observe a partial update.
type Coordinator struct {
	billing ports.BillingClient
	service ports.SubscriptionService
	vault   ports.VaultStore
	tokens  ports.TokenStore
	clock   ports.Clock

	confirmRetry RetryPolicy

	mu sync.Mutex

	signedIn      *stream[bool]
	subStatus     *stream[domain.SubscriptionStatus]
	entitlements  *stream[domain.Entitlements]
	purchaseState *stream[domain.PurchaseState]

	flagMu                sync.Mutex
	removeExpiredOnCancel bool
}

func NewCoordinator(billing ports.BillingClient, service ports.SubscriptionService, vault ports.VaultStore, tokens ports.TokenStore, clock ports.Clock) *Coordinator {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &Coordinator{
		billing:       billing,
		service:       service,
		vault:         vault,
		tokens:        tokens,
		clock:         clock,
		confirmRetry:  ConfirmRetryPolicy,
		signedIn:      newStream[bool](true),
		subStatus:     newStream[domain.SubscriptionStatus](true),
		entitlements:  newStream[domain.Entitlements](true),
		purchaseState: newStream[domain.PurchaseState](false),
	}
}

// SignedIn streams the sign-in state, replaying the latest value on
// subscribe.
func (c *Coordinator) SignedIn() (<-chan bool, func()) {
	return c.signedIn.Subscribe()
}

// SubscriptionStatus streams the subscription status, replaying the latest
// value on subscribe.
func (c *Coordinator) SubscriptionStatus() (<-chan domain.SubscriptionStatus, func()) {
	return c.subStatus.Subscribe()
}

// Entitlements streams the granted entitlements, replaying the latest value
// on subscribe.
func (c *Coordinator) Entitlements() (<-chan domain.Entitlements, func()) {
	return c.entitlements.Subscribe()
}

// PurchaseState streams purchase lifecycle signals. It deliberately does not
// replay: transient action results are only seen by subscribers present when
// they happen.
func (c *Coordinator) PurchaseState() (<-chan domain.PurchaseState, func()) {
	return c.purchaseState.Subscribe()
}

// Run consumes the billing client's purchase event stream and dispatches
// purchase and cancellation events. It returns when ctx is done or the event
// channel closes.
func (c *Coordinator) Run(ctx context.Context) {
	events := c.billing.PurchaseEvents()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			switch event.Kind {
			case ports.PurchaseEventPurchased:
				c.handlePurchased(ctx, event.PackageName, event.PurchaseToken)
			case ports.PurchaseEventCanceled:
				c.handleCanceled(ctx)
			}
		}
	}
}

// FetchAndStoreAllData reconciles the local cache against the remote service.
// It is a no-op returning false when not signed in. A 401 on the subscription
// fetch triggers a full sign-out; any other failure leaves local state
// untouched. On success the account, subscription and entitlements are
// overwritten as one unit and all three streams republished.
func (c *Coordinator) FetchAndStoreAllData(ctx context.Context) bool {
	authToken, err := c.tokens.AuthToken(ctx)
	if err != nil || authToken == "" {
		return false
	}

	accessToken, err := c.ensureAccessToken(ctx, authToken)
	if err != nil {
		return false
	}

	sub, err := c.service.Subscription(ctx, accessToken)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			c.SignOut(ctx)
		}
		return false
	}

	details, err := c.service.ValidateToken(ctx, authToken)
	if err != nil {
		return false
	}

	entitlements := details.Entitlements
	if !sub.Status.ActiveOrWaiting() {
		entitlements = nil
	}

	return c.storeAll(ctx, details.Account, sub, entitlements) == nil
}

// Purchase drives the purchase pre-flow and hands off to the billing client.
// Every outcome is delivered on the purchase-state stream; the call itself
// never fails.
func (c *Coordinator) Purchase(ctx context.Context, planID string) {
	c.purchaseState.Publish(domain.PurchasePreFlowInProgress{})

	if err := c.preparePurchase(ctx, planID); err != nil {
		c.purchaseState.Publish(domain.PurchaseFailure{Message: err.Error()})
	}
}

func (c *Coordinator) preparePurchase(ctx context.Context, planID string) error {
	// Best-effort refresh; a stale cache is tolerated here.
	_ = c.FetchAndStoreAllData(ctx)

	authToken, err := c.tokens.AuthToken(ctx)
	if err != nil {
		return fmt.Errorf("read auth token: %w", err)
	}

	if authToken == "" {
		// Fresh install or signed-out user: an earlier store purchase may
		// still be recoverable. Failure falls through to a new purchase.
		_, _ = c.RecoverSubscriptionFromStore(ctx, "")
	} else if sub, subErr := c.vault.Subscription(ctx); subErr == nil && sub.Status == domain.SubscriptionExpired && sub.Platform == StorePlatform {
		original, _ := c.vault.Account(ctx)
		if _, recErr := c.RecoverSubscriptionFromStore(ctx, ""); recErr == nil {
			current, _ := c.vault.Account(ctx)
			if !original.IsZero() && current.ExternalID != original.ExternalID {
				// The user re-authenticated with a different store account.
				// If they back out of the purchase, the expired account must
				// not linger.
				c.setRemoveExpiredOnCancel(true)
			}
		}
	}

	// Idempotent restore path: an active subscription means nothing to buy.
	if sub, subErr := c.vault.Subscription(ctx); subErr == nil && sub.Status.Active() {
		c.purchaseState.Publish(domain.PurchaseRecovered{})
		return nil
	}

	account, err := c.vault.Account(ctx)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return fmt.Errorf("read account: %w", err)
	}

	if account.IsZero() {
		account, err = c.createAccount(ctx)
		if err != nil {
			return err
		}
	}

	c.purchaseState.Publish(domain.PurchasePreFlowFinished{})

	if err := c.billing.LaunchBillingFlow(ctx, planID, account.ExternalID); err != nil {
		return fmt.Errorf("launch billing flow: %w", err)
	}

	return nil
}

func (c *Coordinator) createAccount(ctx context.Context) (domain.Account, error) {
	created, err := c.service.CreateAccount(ctx, "")
	if err != nil {
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	if err := c.vault.SetAccount(ctx, created.Account); err != nil {
		return domain.Account{}, fmt.Errorf("store account: %w", err)
	}
	if err := c.tokens.SetAuthToken(ctx, created.AuthToken); err != nil {
		return domain.Account{}, fmt.Errorf("store auth token: %w", err)
	}

	accessToken, err := c.service.AccessToken(ctx, created.AuthToken)
	if err != nil {
		return domain.Account{}, fmt.Errorf("exchange access token: %w", err)
	}
	if err := c.tokens.SetAccessToken(ctx, accessToken); err != nil {
		return domain.Account{}, fmt.Errorf("store access token: %w", err)
	}

	return created.Account, nil
}

// handlePurchased confirms a detected store purchase against the remote
// service under bounded retry. A confirmation that comes back non-active
// counts as a failed attempt even though the call succeeded; exhausting
// retries downgrades to the waiting soft state instead of a hard failure.
func (c *Coordinator) handlePurchased(ctx context.Context, packageName, purchaseToken string) {
	c.purchaseState.Publish(domain.PurchaseInProgress{})

	confirm := func(ctx context.Context) error {
		accessToken, err := c.tokens.AccessToken(ctx)
		if err != nil {
			return fmt.Errorf("read access token: %w", err)
		}

		result, err := c.service.Confirm(ctx, accessToken, packageName, purchaseToken)
		if err != nil {
			return err
		}
		if !result.Subscription.Status.Active() {
			return errConfirmedInactive
		}

		return c.storeSubscription(ctx, result.Subscription, result.Entitlements)
	}

	if err := c.confirmRetry.Do(ctx, confirm); err != nil {
		c.markWaiting(ctx)
		c.purchaseState.Publish(domain.PurchaseWaiting{})
		return
	}

	c.purchaseState.Publish(domain.PurchaseSuccess{})
}

// handleCanceled reports a purchase backed out at the store. When the
// expired-subscription re-auth path flagged the account for conditional
// cleanup, a still-expired subscription signs the user out.
func (c *Coordinator) handleCanceled(ctx context.Context) {
	c.purchaseState.Publish(domain.PurchaseCanceled{})

	if !c.takeRemoveExpiredOnCancel() {
		return
	}

	sub, err := c.vault.Subscription(ctx)
	if err != nil {
		return
	}
	expired := sub.Status == domain.SubscriptionExpired ||
		(!sub.ExpiresOrRenewsAt.IsZero() && sub.ExpiresOrRenewsAt.Before(c.clock.Now()) && !sub.Status.Active())
	if expired {
		c.SignOut(ctx)
	}
}

// RecoverSubscriptionFromStore restores the subscription bound to the store
// account from its most recent purchase record. When externalID is non-empty
// and the store login resolves to a different account, the operation fails
// with domain.ErrExternalIDMismatch before touching local state. Success
// requires the follow-up fetch to succeed and the resulting subscription to
// be active; anything less is domain.ErrNoStorePurchase.
func (c *Coordinator) RecoverSubscriptionFromStore(ctx context.Context, externalID string) (domain.Subscription, error) {
	history, err := c.billing.PurchaseHistory(ctx)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("read purchase history: %w", err)
	}
	if len(history) == 0 {
		return domain.Subscription{}, domain.ErrNoStorePurchase
	}
	record := history[len(history)-1]

	login, err := c.service.StoreLogin(ctx, ports.StoreLoginRequest{
		Signature:   record.Signature,
		SignedData:  record.SignedData,
		PackageName: record.PackageName,
	})
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("store login: %w", err)
	}

	if externalID != "" && login.Account.ExternalID != externalID {
		return domain.Subscription{}, domain.ErrExternalIDMismatch
	}

	if err := c.vault.SetAccount(ctx, login.Account); err != nil {
		return domain.Subscription{}, fmt.Errorf("store account: %w", err)
	}
	if err := c.tokens.SetAuthToken(ctx, login.AuthToken); err != nil {
		return domain.Subscription{}, fmt.Errorf("store auth token: %w", err)
	}

	accessToken, err := c.service.AccessToken(ctx, login.AuthToken)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("exchange access token: %w", err)
	}
	if err := c.tokens.SetAccessToken(ctx, accessToken); err != nil {
		return domain.Subscription{}, fmt.Errorf("store access token: %w", err)
	}

	if !c.FetchAndStoreAllData(ctx) {
		return domain.Subscription{}, domain.ErrNoStorePurchase
	}

	sub, err := c.vault.Subscription(ctx)
	if err != nil || !sub.Status.Active() {
		return domain.Subscription{}, domain.ErrNoStorePurchase
	}

	return sub, nil
}

// AuthToken validates the cached auth token remotely. An expired token is
// recovered through the store when possible; otherwise the stale token is
// handed back so the caller can decide on a re-auth flow.
func (c *Coordinator) AuthToken(ctx context.Context) domain.AuthTokenResult {
	token, err := c.tokens.AuthToken(ctx)
	if err != nil || token == "" {
		return domain.AuthTokenUnknownError{}
	}

	_, err = c.service.ValidateToken(ctx, token)
	if err == nil {
		return domain.AuthTokenSuccess{Token: token}
	}

	if errors.Is(err, domain.ErrTokenExpired) {
		if _, recErr := c.RecoverSubscriptionFromStore(ctx, ""); recErr == nil {
			fresh, freshErr := c.tokens.AuthToken(ctx)
			if freshErr == nil && fresh != "" {
				return domain.AuthTokenSuccess{Token: fresh}
			}
		}
		return domain.AuthTokenExpired{Token: token}
	}

	return domain.AuthTokenUnknownError{}
}

// SignOut clears the account, subscription and both tokens, then republishes
// all three status streams as one logical unit.
func (c *Coordinator) SignOut(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.tokens.ClearTokens(ctx)
	_ = c.vault.Clear(ctx)

	c.signedIn.Publish(false)
	c.subStatus.Publish(domain.SubscriptionUnknown)
	c.entitlements.Publish(domain.Entitlements{})
}

// Portal returns the customer portal URL for the signed-in account.
func (c *Coordinator) Portal(ctx context.Context) (string, error) {
	authToken, err := c.tokens.AuthToken(ctx)
	if err != nil {
		return "", fmt.Errorf("read auth token: %w", err)
	}
	if authToken == "" {
		return "", domain.ErrAccountNotFound
	}

	accessToken, err := c.ensureAccessToken(ctx, authToken)
	if err != nil {
		return "", err
	}

	url, err := c.service.Portal(ctx, accessToken)
	if err != nil {
		return "", fmt.Errorf("fetch portal url: %w", err)
	}
	return url, nil
}

func (c *Coordinator) ensureAccessToken(ctx context.Context, authToken string) (string, error) {
	accessToken, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	if accessToken != "" {
		return accessToken, nil
	}

	accessToken, err = c.service.AccessToken(ctx, authToken)
	if err != nil {
		return "", fmt.Errorf("exchange access token: %w", err)
	}
	if err := c.tokens.SetAccessToken(ctx, accessToken); err != nil {
		return "", fmt.Errorf("store access token: %w", err)
	}

	return accessToken, nil
}

func (c *Coordinator) storeAll(ctx context.Context, account domain.Account, sub domain.Subscription, entitlements domain.Entitlements) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.vault.SetAccount(ctx, account); err != nil {
		return fmt.Errorf("store account: %w", err)
	}
	if err := c.vault.SetSubscription(ctx, sub); err != nil {
		return fmt.Errorf("store subscription: %w", err)
	}
	if err := c.vault.SetEntitlements(ctx, entitlements); err != nil {
		return fmt.Errorf("store entitlements: %w", err)
	}

	c.signedIn.Publish(true)
	c.subStatus.Publish(sub.Status)
	c.entitlements.Publish(entitlements)

	return nil
}

func (c *Coordinator) storeSubscription(ctx context.Context, sub domain.Subscription, entitlements domain.Entitlements) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.vault.SetSubscription(ctx, sub); err != nil {
		return fmt.Errorf("store subscription: %w", err)
	}
	if err := c.vault.SetEntitlements(ctx, entitlements); err != nil {
		return fmt.Errorf("store entitlements: %w", err)
	}

	c.subStatus.Publish(sub.Status)
	c.entitlements.Publish(entitlements)

	return nil
}

// markWaiting leaves the local subscription in the waiting soft state instead
// of clearing it, pending later reconciliation.
func (c *Coordinator) markWaiting(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub, err := c.vault.Subscription(ctx)
	if err != nil {
		sub = domain.Subscription{Platform: StorePlatform}
	}
	sub.Status = domain.SubscriptionWaiting

	if err := c.vault.SetSubscription(ctx, sub); err != nil {
		return
	}
	c.subStatus.Publish(domain.SubscriptionWaiting)
}

func (c *Coordinator) setRemoveExpiredOnCancel(value bool) {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()
	c.removeExpiredOnCancel = value
}

func (c *Coordinator) takeRemoveExpiredOnCancel() bool {
	c.flagMu.Lock()
	defer c.flagMu.Unlock()

	value := c.removeExpiredOnCancel
	c.removeExpiredOnCancel = false
	return value
}
