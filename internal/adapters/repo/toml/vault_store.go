package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"github.com/subvault-dev/subvault-cli/internal/domain"
	"github.com/subvault-dev/subvault-cli/internal/ports"
)

const (
	configName      = "config"
	configType      = "toml"
	vaultPathKey    = "vault.path"
	vaultFileMode   = 0o600
	vaultDirMode    = 0o700
	vaultConfigDir  = ".subvault"
	vaultConfigFile = "vault.toml"
	tempFilePattern = ".vault-*.toml.tmp"
)

// VaultStore persists the cached account, subscription and entitlements in a
// single TOML file, replaced atomically on every write.
type VaultStore struct {
	vaultPath string
	mu        *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.VaultStore = (*VaultStore)(nil)

func NewVaultStore(cfg *viper.Viper) (*VaultStore, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, vaultConfigDir, vaultConfigFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, vaultConfigDir))
	cfg.SetDefault(vaultPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	vaultPath := cfg.GetString(vaultPathKey)
	if vaultPath == "" {
		return nil, errors.New("vault path is empty")
	}
	vaultPath, err = normalizeVaultPath(vaultPath)
	if err != nil {
		return nil, err
	}

	return &VaultStore{vaultPath: vaultPath, mu: lockForPath(vaultPath)}, nil
}

func (s *VaultStore) Account(ctx context.Context) (domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return domain.Account{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return domain.Account{}, err
	}

	if file.Account == nil {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	return domain.Account{
		ExternalID: file.Account.ExternalID,
		Email:      file.Account.Email,
	}, nil
}

func (s *VaultStore) SetAccount(ctx context.Context, account domain.Account) error {
	return s.update(ctx, func(file *fileSchema) {
		file.Account = &accountSchema{
			ExternalID: account.ExternalID,
			Email:      account.Email,
		}
	})
}

func (s *VaultStore) Subscription(ctx context.Context) (domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return domain.Subscription{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return domain.Subscription{}, err
	}

	if file.Subscription == nil {
		return domain.Subscription{}, domain.ErrSubscriptionNotFound
	}

	return fromSubscriptionSchema(*file.Subscription), nil
}

func (s *VaultStore) SetSubscription(ctx context.Context, sub domain.Subscription) error {
	return s.update(ctx, func(file *fileSchema) {
		encoded := toSubscriptionSchema(sub)
		file.Subscription = &encoded
	})
}

func (s *VaultStore) Entitlements(ctx context.Context) (domain.Entitlements, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return nil, err
	}

	entitlements := make(domain.Entitlements, 0, len(file.Entitlements))
	for _, product := range file.Entitlements {
		entitlements = append(entitlements, domain.Product(product))
	}
	return entitlements, nil
}

func (s *VaultStore) SetEntitlements(ctx context.Context, entitlements domain.Entitlements) error {
	return s.update(ctx, func(file *fileSchema) {
		encoded := make([]string, 0, len(entitlements))
		for _, product := range entitlements {
			encoded = append(encoded, string(product))
		}
		file.Entitlements = encoded
	})
}

// Clear wipes the account, subscription and entitlements in one file replace.
func (s *VaultStore) Clear(ctx context.Context) error {
	return s.update(ctx, func(file *fileSchema) {
		file.Account = nil
		file.Subscription = nil
		file.Entitlements = nil
	})
}

// CanSupportEncryption reports whether records are encrypted at rest. The
// TOML vault stores plaintext.
func (s *VaultStore) CanSupportEncryption() bool {
	return false
}

func (s *VaultStore) update(ctx context.Context, mutate func(*fileSchema)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return err
	}
	file.applyDefaults()

	mutate(&file)

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.writeSchema(file)
}

func (s *VaultStore) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(s.vaultPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read vault file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode vault file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (s *VaultStore) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(s.vaultPath), vaultDirMode); err != nil {
		return fmt.Errorf("create vault directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode vault file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.vaultPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp vault file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp vault file: %w", err)
	}

	if err := tempFile.Chmod(vaultFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp vault file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp vault file: %w", err)
	}

	if err := os.Rename(tempName, s.vaultPath); err != nil {
		return fmt.Errorf("replace vault file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(s.vaultPath, vaultFileMode); err != nil {
		return fmt.Errorf("chmod vault file: %w", err)
	}

	return nil
}

func normalizeVaultPath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve vault path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSubscriptionSchema(sub domain.Subscription) subscriptionSchema {
	return subscriptionSchema{
		ProductID:         sub.ProductID,
		StartedAt:         formatTime(sub.StartedAt),
		ExpiresOrRenewsAt: formatTime(sub.ExpiresOrRenewsAt),
		Status:            string(sub.Status),
		Platform:          sub.Platform,
	}
}

func fromSubscriptionSchema(sub subscriptionSchema) domain.Subscription {
	return domain.Subscription{
		ProductID:         sub.ProductID,
		StartedAt:         parseTime(sub.StartedAt),
		ExpiresOrRenewsAt: parseTime(sub.ExpiresOrRenewsAt),
		Status:            domain.SubscriptionStatus(sub.Status),
		Platform:          sub.Platform,
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
