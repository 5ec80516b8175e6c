package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	billingfile "github.com/subvault-dev/subvault-cli/internal/adapters/billing/file"
	"github.com/subvault-dev/subvault-cli/internal/adapters/remote"
	statusadapter "github.com/subvault-dev/subvault-cli/internal/adapters/render/status"
	tomlrepo "github.com/subvault-dev/subvault-cli/internal/adapters/repo/toml"
	tokenfile "github.com/subvault-dev/subvault-cli/internal/adapters/tokens/file"
	"github.com/subvault-dev/subvault-cli/internal/application"
	"github.com/subvault-dev/subvault-cli/internal/ports"
)

type app struct {
	coordinator    *application.Coordinator
	importer       *application.Importer
	statusRenderer func(application.Status, statusadapter.RenderOptions) (string, error)
	now            func() time.Time
}

func wireApp() (*app, error) {
	vault, err := tomlrepo.NewVaultStore(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire vault store: %w", err)
	}

	credentials, err := tomlrepo.NewCredentialStore(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire credential store: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	tokens := tokenfile.NewStore(filepath.Join(homeDir, ".subvault", "tokens"))

	billing := billingfile.NewClient(
		filepath.Join(homeDir, ".subvault", "billing.toml"),
		envOrDefault("SV_PACKAGE_NAME", "com.subvault.app"),
	)

	service := &remote.Client{
		BaseURL:    envOrDefault("SV_API_BASE_URL", "https://api.subvault.dev"),
		HTTPClient: http.DefaultClient,
	}

	return &app{
		coordinator:    application.NewCoordinator(billing, service, vault, tokens, ports.SystemClock{}),
		importer:       application.NewImporter(credentials, nil),
		statusRenderer: statusadapter.Render,
		now:            time.Now,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
