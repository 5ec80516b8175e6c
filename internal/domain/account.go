package domain

// Account identifies the backend account bound to this installation.
// ExternalID is assigned by the subscription service on account creation or
// store login; Email is only set for accounts created through an email flow.
type Account struct {
	ExternalID string
	Email      string
}

func (a Account) IsZero() bool {
	return a.ExternalID == ""
}
