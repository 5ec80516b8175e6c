package toml

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subvault-dev/subvault-cli/internal/domain"
)

func newTestCredentialStore(t *testing.T) *CredentialStore {
	t.Helper()

	cfg := viper.New()
	cfg.Set(credentialsPathKey, filepath.Join(t.TempDir(), "credentials.toml"))

	store, err := NewCredentialStore(cfg)
	require.NoError(t, err)
	return store
}

func TestCredentialStoreSaveAssignsSequentialIDs(t *testing.T) {
	t.Parallel()

	store := newTestCredentialStore(t)

	first, err := store.SaveCredential(context.Background(), domain.Credential{
		Domain:   "example.com",
		Username: "alice",
		Password: "pw1",
	})
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, int64(1), first.ID)

	second, err := store.SaveCredential(context.Background(), domain.Credential{
		Domain:   "example.org",
		Username: "bob",
		Password: "pw2",
	})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, int64(2), second.ID)
}

func TestCredentialStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestCredentialStore(t)

	want := domain.Credential{
		Domain:      "example.com",
		Username:    "alice",
		Password:    "pw1",
		Notes:       "work login",
		DomainTitle: "Example",
	}
	saved, err := store.SaveCredential(context.Background(), want)
	require.NoError(t, err)
	require.NotNil(t, saved)

	records, err := store.AllCredentials(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, saved.ID, records[0].ID)
	assert.Equal(t, want, records[0].Credential)
}

func TestCredentialStoreEmptyFileHasNoRecords(t *testing.T) {
	t.Parallel()

	store := newTestCredentialStore(t)

	records, err := store.AllCredentials(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCredentialStoreIDsSurviveReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "credentials.toml")

	cfg := viper.New()
	cfg.Set(credentialsPathKey, path)
	store, err := NewCredentialStore(cfg)
	require.NoError(t, err)

	_, err = store.SaveCredential(context.Background(), domain.Credential{Domain: "a.com", Username: "u", Password: "p"})
	require.NoError(t, err)

	cfg2 := viper.New()
	cfg2.Set(credentialsPathKey, path)
	reopened, err := NewCredentialStore(cfg2)
	require.NoError(t, err)

	second, err := reopened.SaveCredential(context.Background(), domain.Credential{Domain: "b.com", Username: "u", Password: "p"})
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, int64(2), second.ID)
}
