package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"github.com/subvault-dev/subvault-cli/internal/domain"
	"github.com/subvault-dev/subvault-cli/internal/ports"
)

const (
	credentialsPathKey  = "credentials.path"
	credentialsFile     = "credentials.toml"
	credentialsTempName = ".credentials-*.toml.tmp"
)

// CredentialStore persists imported login records in a TOML file, replaced
// atomically on every write. IDs are assigned from a monotonic counter kept
// in the same file.
type CredentialStore struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.CredentialStore = (*CredentialStore)(nil)

func NewCredentialStore(cfg *viper.Viper) (*CredentialStore, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, vaultConfigDir, credentialsFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, vaultConfigDir))
	cfg.SetDefault(credentialsPathKey, defaultPath)

	err = cfg.ReadInConfig()
	if err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	path := cfg.GetString(credentialsPathKey)
	if path == "" {
		return nil, errors.New("credentials path is empty")
	}
	path, err = normalizeVaultPath(path)
	if err != nil {
		return nil, err
	}

	return &CredentialStore{path: path, mu: lockForPath(path)}, nil
}

func (s *CredentialStore) AllCredentials(ctx context.Context) ([]domain.StoredCredential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.readSchema()
	if err != nil {
		return nil, err
	}

	records := make([]domain.StoredCredential, 0, len(file.Credentials))
	for _, record := range file.Credentials {
		records = append(records, fromCredentialSchema(record))
	}
	return records, nil
}

func (s *CredentialStore) SaveCredential(ctx context.Context, credential domain.Credential) (*domain.StoredCredential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.readSchema()
	if err != nil {
		return nil, err
	}
	file.applyDefaults()

	stored := domain.StoredCredential{
		ID:         file.NextID,
		Credential: credential,
	}
	file.NextID++
	file.Credentials = append(file.Credentials, toCredentialSchema(stored))

	if err := s.writeSchema(file); err != nil {
		return nil, err
	}

	return &stored, nil
}

func (s *CredentialStore) readSchema() (credentialsFileSchema, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return credentialsFileSchema{}, nil
		}
		return credentialsFileSchema{}, fmt.Errorf("read credentials file: %w", err)
	}

	var file credentialsFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return credentialsFileSchema{}, fmt.Errorf("decode credentials file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return credentialsFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (s *CredentialStore) writeSchema(file credentialsFileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(s.path), vaultDirMode); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode credentials file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(s.path), credentialsTempName)
	if err != nil {
		return fmt.Errorf("create temp credentials file: %w", err)
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
		return fmt.Errorf("write temp credentials file: %w", err)
	}

	if err := tempFile.Chmod(vaultFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp credentials file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp credentials file: %w", err)
	}

	if err := os.Rename(tempName, s.path); err != nil {
		return fmt.Errorf("replace credentials file: %w", err)
	}

	cleanup = false

	if err := os.Chmod(s.path, vaultFileMode); err != nil {
		return fmt.Errorf("chmod credentials file: %w", err)
	}

	return nil
}

func toCredentialSchema(stored domain.StoredCredential) credentialSchema {
	return credentialSchema{
		ID:          stored.ID,
		Domain:      stored.Credential.Domain,
		Username:    stored.Credential.Username,
		Password:    stored.Credential.Password,
		Notes:       stored.Credential.Notes,
		DomainTitle: stored.Credential.DomainTitle,
	}
}

func fromCredentialSchema(record credentialSchema) domain.StoredCredential {
	return domain.StoredCredential{
		ID: record.ID,
		Credential: domain.Credential{
			Domain:      record.Domain,
			Username:    record.Username,
			Password:    record.Password,
			Notes:       record.Notes,
			DomainTitle: record.DomainTitle,
		},
	}
}
