package application

import (
	"context"
	"fmt"

	"github.com/subvault-dev/subvault-cli/internal/domain"
	"github.com/subvault-dev/subvault-cli/internal/ports"
)

// ExactMatchDetector flags a credential as a duplicate iff a stored record
// matches domain, username, password, notes and domain title exactly.
type ExactMatchDetector struct {
	Store ports.CredentialStore
}

var _ ports.DuplicateDetector = ExactMatchDetector{}

func (d ExactMatchDetector) AlreadyExists(ctx context.Context, credential domain.Credential) (bool, error) {
	existing, err := d.Store.AllCredentials(ctx)
	if err != nil {
		return false, fmt.Errorf("list credentials: %w", err)
	}

	for _, record := range existing {
		if record.Credential == credential {
			return true, nil
		}
	}

	return false, nil
}
