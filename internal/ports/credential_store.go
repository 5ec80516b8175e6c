package ports

import (
	"context"

	"github.com/subvault-dev/subvault-cli/internal/domain"
)

// CredentialStore persists login records. SaveCredential may return
// (nil, nil) when the store silently declines the write; callers treat that
// as "not saved", not as an error.
type CredentialStore interface {
	AllCredentials(ctx context.Context) ([]domain.StoredCredential, error)
	SaveCredential(ctx context.Context, credential domain.Credential) (*domain.StoredCredential, error)
}

// DuplicateDetector decides whether an incoming credential already exists in
// the store.
type DuplicateDetector interface {
	AlreadyExists(ctx context.Context, credential domain.Credential) (bool, error)
}
