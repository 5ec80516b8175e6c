package status

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subvault-dev/subvault-cli/internal/application"
	"github.com/subvault-dev/subvault-cli/internal/domain"
)

func TestRenderSignedOutStatus(t *testing.T) {
	output, err := Render(application.Status{}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "SubVault Account")
	assert.Contains(t, output, "Not signed in.")
	assert.Contains(t, output, "sv purchase")
	assert.NotContains(t, output, "plan:")
}

func TestRenderActiveSubscription(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render(application.Status{
		SignedIn: true,
		Account:  domain.Account{ExternalID: "ext-1", Email: "user@example.com"},
		Subscription: domain.Subscription{
			ProductID:         "premium.monthly",
			StartedAt:         now.AddDate(0, -1, 0),
			ExpiresOrRenewsAt: now.AddDate(0, 0, 12),
			Status:            domain.SubscriptionAutoRenewable,
			Platform:          "play",
		},
		Entitlements: domain.Entitlements{"vault", "sync"},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "user@example.com")
	assert.Contains(t, output, "ext-1")
	assert.Contains(t, output, "premium.monthly")
	assert.Contains(t, output, "active (auto-renewing)")
	assert.Contains(t, output, "renews:")
	assert.Contains(t, output, "in 12 days (26 Feb 2026)")
	assert.Contains(t, output, "- vault")
	assert.Contains(t, output, "- sync")
	assert.Contains(t, output, "encryption: unsupported")
}

func TestRenderWaitingSubscriptionShowsExpiry(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render(application.Status{
		SignedIn: true,
		Account:  domain.Account{ExternalID: "ext-2"},
		Subscription: domain.Subscription{
			ProductID:         "premium.monthly",
			ExpiresOrRenewsAt: now.Add(5 * time.Hour),
			Status:            domain.SubscriptionWaiting,
			Platform:          "play",
		},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "waiting for confirmation")
	assert.Contains(t, output, "expires:")
	assert.Contains(t, output, "in 5 hours (16:00)")
}

func TestRenderSignedInWithoutSubscription(t *testing.T) {
	output, err := Render(application.Status{
		SignedIn:     true,
		Account:      domain.Account{ExternalID: "ext-3", Email: "a@b.c"},
		Subscription: domain.Subscription{Status: domain.SubscriptionUnknown},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "a@b.c")
	assert.Contains(t, output, "No subscription on record.")
}

func TestRenderExpiredSubscriptionMarkedPastDue(t *testing.T) {
	now := time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC)

	output, err := Render(application.Status{
		SignedIn: true,
		Account:  domain.Account{ExternalID: "ext-4"},
		Subscription: domain.Subscription{
			ProductID:         "premium.monthly",
			ExpiresOrRenewsAt: now.AddDate(0, 0, -3),
			Status:            domain.SubscriptionExpired,
		},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "expired")
	assert.Contains(t, output, "(past due)")
}
