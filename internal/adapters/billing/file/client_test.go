package file

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subvault-dev/subvault-cli/internal/domain"
	"github.com/subvault-dev/subvault-cli/internal/ports"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	return NewClient(filepath.Join(t.TempDir(), "billing.toml"), "com.example.app")
}

func TestClientEmptyStoreHasNoHistory(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	products, err := client.Products(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)

	history, err := client.PurchaseHistory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClientLaunchBillingFlowRecordsPurchaseAndEmitsEvent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	err := client.LaunchBillingFlow(context.Background(), "premium.monthly", "ext-1")
	require.NoError(t, err)

	var event ports.PurchaseEvent
	select {
	case event = <-client.PurchaseEvents():
	case <-time.After(time.Second):
		t.Fatal("no purchase event emitted")
	}
	assert.Equal(t, ports.PurchaseEventPurchased, event.Kind)
	assert.Equal(t, "com.example.app", event.PackageName)
	assert.NotEmpty(t, event.PurchaseToken)

	history, err := client.PurchaseHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, event.PurchaseToken, history[0].PurchaseToken)
	assert.Equal(t, "com.example.app", history[0].PackageName)
	assert.NotEmpty(t, history[0].Signature)
	assert.NotEmpty(t, history[0].SignedData)
}

func TestClientHistoryKeepsMostRecentLast(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	require.NoError(t, client.LaunchBillingFlow(context.Background(), "premium.monthly", "ext-1"))
	first := <-client.PurchaseEvents()
	require.NoError(t, client.LaunchBillingFlow(context.Background(), "premium.yearly", "ext-1"))
	second := <-client.PurchaseEvents()

	history, err := client.PurchaseHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.PurchaseToken, history[0].PurchaseToken)
	assert.Equal(t, second.PurchaseToken, history[1].PurchaseToken)
}

func TestClientProductsReadFromStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "billing.toml")
	require.NoError(t, writeSchema(path, storeSchema{
		Products: []string{"premium.monthly", "premium.yearly"},
	}))

	client := NewClient(path, "com.example.app")

	products, err := client.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Product{"premium.monthly", "premium.yearly"}, products)
}

func TestClientRejectsEmptyPlan(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)

	err := client.LaunchBillingFlow(context.Background(), "", "ext-1")
	require.Error(t, err)
	assert.ErrorContains(t, err, "plan id")
}
