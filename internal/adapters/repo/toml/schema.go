package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version      int                 `toml:"version"`
	Account      *accountSchema      `toml:"account,omitempty"`
	Subscription *subscriptionSchema `toml:"subscription,omitempty"`
	Entitlements []string            `toml:"entitlements,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported vault schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type accountSchema struct {
	ExternalID string `toml:"external_id"`
	Email      string `toml:"email,omitempty"`
}

type subscriptionSchema struct {
	ProductID         string `toml:"product_id"`
	StartedAt         string `toml:"started_at"`
	ExpiresOrRenewsAt string `toml:"expires_or_renews_at"`
	Status            string `toml:"status"`
	Platform          string `toml:"platform"`
}
