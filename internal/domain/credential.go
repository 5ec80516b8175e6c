package domain

// Credential is one login record as supplied to a bulk import.
type Credential struct {
	Domain      string
	Username    string
	Password    string
	Notes       string
	DomainTitle string
}

// StoredCredential is a credential the store has persisted and assigned an id.
type StoredCredential struct {
	ID         int64
	Credential Credential
}
