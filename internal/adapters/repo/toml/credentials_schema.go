package toml

import "fmt"

const currentCredentialsVersion = 1

type credentialsFileSchema struct {
	Version     int                `toml:"version"`
	NextID      int64              `toml:"next_id"`
	Credentials []credentialSchema `toml:"credentials"`
}

type credentialSchema struct {
	ID          int64  `toml:"id"`
	Domain      string `toml:"domain"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	Notes       string `toml:"notes,omitempty"`
	DomainTitle string `toml:"domain_title,omitempty"`
}

func (f *credentialsFileSchema) applyDefaults() {
	if f.Version == 0 {
		f.Version = currentCredentialsVersion
	}
	if f.NextID == 0 {
		f.NextID = 1
	}
}

func (f credentialsFileSchema) validateVersion() error {
	if f.Version != 0 && f.Version != currentCredentialsVersion {
		return fmt.Errorf("unsupported credentials schema version %d", f.Version)
	}
	return nil
}
