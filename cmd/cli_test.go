package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusNotSignedIn(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Not signed in.")
}

func TestStatusSignedInShowsAccountAndSubscription(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeVaultFixture(home))
	require.NoError(t, writeAuthTokenFixture(home, "auth-token-1"))

	stdout, _, err := executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "user@example.com")
	assert.Contains(t, stdout, "premium.monthly")
	assert.Contains(t, stdout, "active (auto-renewing)")
	assert.Contains(t, stdout, "- vault")
}

func TestStatusJSONOutput(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeVaultFixture(home))
	require.NoError(t, writeAuthTokenFixture(home, "auth-token-1"))

	stdout, _, err := executeCLI(t, home, "status", "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"SignedIn\": true")
	assert.Contains(t, stdout, "\"ExternalID\": \"ext-1\"")
}

func TestSignOutClearsCachedState(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, writeVaultFixture(home))
	require.NoError(t, writeAuthTokenFixture(home, "auth-token-1"))

	stdout, _, err := executeCLI(t, home, "signout")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Signed out.")

	stdout, _, err = executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Not signed in.")
}

func TestImportSavesCredentialsAndSkipsMalformedRows(t *testing.T) {
	home := t.TempDir()
	csvPath := writeImportFixture(t, `name,url,username,password,note
Example,https://example.com,alice,pw1,work
Other,https://example.org,bob,pw2,
Broken,,carol,,missing fields
`)

	stdout, _, err := executeCLI(t, home, "import", csvPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Imported 2 credentials, skipped 1.")
}

func TestImportSkipsDuplicatesOnSecondRun(t *testing.T) {
	home := t.TempDir()
	csvPath := writeImportFixture(t, `url,username,password
https://example.com,alice,pw1
https://example.org,bob,pw2
`)

	_, _, err := executeCLI(t, home, "import", csvPath)
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "import", csvPath)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Imported 0 credentials, skipped 2.")
}

func TestImportJSONOutput(t *testing.T) {
	home := t.TempDir()
	csvPath := writeImportFixture(t, `url,username,password
https://example.com,alice,pw1
`)

	stdout, _, err := executeCLI(t, home, "import", csvPath, "--json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(stdout)))
	assert.Contains(t, stdout, "\"saved\": 1")
	assert.Contains(t, stdout, "\"skipped\": 0")
	assert.Contains(t, stdout, "\"job_id\"")
}

func TestImportRejectsFileWithoutPasswordColumn(t *testing.T) {
	home := t.TempDir()
	csvPath := writeImportFixture(t, `url,username
https://example.com,alice
`)

	_, _, err := executeCLI(t, home, "import", csvPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no password column")
}

func TestRecoverWithoutStorePurchaseFails(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "recover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recoverable purchase")
}

func TestTokenWithoutSignInFails(t *testing.T) {
	home := t.TempDir()

	_, _, err := executeCLI(t, home, "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid auth token")
}

func TestVersionPrintsVersion(t *testing.T) {
	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "dev")
}

func TestPurchaseEndToEndAgainstFakeBackend(t *testing.T) {
	server := newFakeBackend(t)
	defer server.Close()
	t.Setenv("SV_API_BASE_URL", server.URL)

	home := t.TempDir()

	stdout, _, err := executeCLI(t, home, "purchase", "premium.monthly")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Launching store billing flow...")
	assert.Contains(t, stdout, "Purchase complete.")

	stdout, _, err = executeCLI(t, home, "status")
	require.NoError(t, err)
	assert.Contains(t, stdout, "premium.monthly")
	assert.Contains(t, stdout, "active (auto-renewing)")
}

func TestPurchaseThenRecoverRestoresExistingSubscription(t *testing.T) {
	server := newFakeBackend(t)
	defer server.Close()
	t.Setenv("SV_API_BASE_URL", server.URL)

	home := t.TempDir()

	_, _, err := executeCLI(t, home, "purchase", "premium.monthly")
	require.NoError(t, err)

	_, _, err = executeCLI(t, home, "signout")
	require.NoError(t, err)

	stdout, _, err := executeCLI(t, home, "recover")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Subscription premium.monthly restored from the store.")
}

func newFakeBackend(t *testing.T) *httptest.Server {
	t.Helper()

	subscription := map[string]any{
		"product_id":           "premium.monthly",
		"started_at":           "2026-02-01T00:00:00Z",
		"expires_or_renews_at": "2026-03-01T00:00:00Z",
		"status":               "auto_renewable",
		"platform":             "play",
	}
	account := map[string]any{"external_id": "ext-1", "email": "user@example.com"}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/accounts", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, map[string]any{"account": account, "auth_token": "auth-1"})
	})
	mux.HandleFunc("/v1/auth/access-token", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, map[string]any{"access_token": "access-1"})
	})
	mux.HandleFunc("/v1/auth/store-login", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, map[string]any{"account": account, "auth_token": "auth-2"})
	})
	mux.HandleFunc("/v1/auth/validate", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, map[string]any{"account": account, "entitlements": []string{"vault"}})
	})
	mux.HandleFunc("/v1/subscription", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, subscription)
	})
	mux.HandleFunc("/v1/subscription/confirm", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(t, w, map[string]any{"subscription": subscription, "entitlements": []string{"vault"}})
	})

	return httptest.NewServer(mux)
}

func writeTestJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(payload))
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeVaultFixture(home string) error {
	configDir := filepath.Join(home, ".subvault")
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}

	vault := `version = 1
entitlements = ["vault", "sync"]

[account]
external_id = "ext-1"
email = "user@example.com"

[subscription]
product_id = "premium.monthly"
started_at = "2026-02-01T00:00:00Z"
expires_or_renews_at = "2026-03-01T00:00:00Z"
status = "auto_renewable"
platform = "play"
`

	return os.WriteFile(filepath.Join(configDir, "vault.toml"), []byte(vault), 0o600)
}

func writeAuthTokenFixture(home, token string) error {
	tokensDir := filepath.Join(home, ".subvault", "tokens")
	if err := os.MkdirAll(tokensDir, 0o700); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(tokensDir, "auth_token"), []byte(token), 0o600)
}

func writeImportFixture(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "passwords.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}
