package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/subvault-dev/subvault-cli/internal/ports"
)

const (
	storeDirMode  = 0o700
	tokenFileMode = 0o600

	authTokenFile   = "auth_token"
	accessTokenFile = "access_token"
)

// Store keeps the auth and access tokens in owner-only files under root.
// A missing file reads back as the empty token.
type Store struct {
	root string
	mu   sync.RWMutex
}

var _ ports.TokenStore = (*Store)(nil)

func NewStore(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

func (s *Store) AuthToken(ctx context.Context) (string, error) {
	return s.read(ctx, authTokenFile)
}

func (s *Store) SetAuthToken(ctx context.Context, token string) error {
	return s.write(ctx, authTokenFile, token)
}

func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.read(ctx, accessTokenFile)
}

func (s *Store) SetAccessToken(ctx context.Context, token string) error {
	return s.write(ctx, accessTokenFile, token)
}

func (s *Store) ClearTokens(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{authTokenFile, accessTokenFile} {
		err := os.Remove(filepath.Join(s.root, name))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete token file %q: %w", name, err)
		}
	}

	return nil
}

func (s *Store) read(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(filepath.Join(s.root, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token file %q: %w", name, err)
	}

	return string(data), nil
}

func (s *Store) write(ctx context.Context, name, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, storeDirMode); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.root, name), []byte(token), tokenFileMode); err != nil {
		return fmt.Errorf("write token file %q: %w", name, err)
	}

	return nil
}
