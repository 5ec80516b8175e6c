package domain

import "errors"

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNoStorePurchase      = errors.New("no store purchase found")
	ErrExternalIDMismatch   = errors.New("store account does not match external id")
	ErrTokenExpired         = errors.New("auth token expired")
	ErrUnauthorized         = errors.New("unauthorized")
)
