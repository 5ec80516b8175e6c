package domain

// AuthTokenResult classifies the outcome of validating the cached auth token.
type AuthTokenResult interface {
	authTokenResult()
}

type AuthTokenSuccess struct {
	Token string
}

type AuthTokenUnknownError struct{}

// AuthTokenExpired carries the stale token so the caller can decide whether
// to drive a re-auth flow with it.
type AuthTokenExpired struct {
	Token string
}

func (AuthTokenSuccess) authTokenResult()      {}
func (AuthTokenUnknownError) authTokenResult() {}
func (AuthTokenExpired) authTokenResult()      {}
