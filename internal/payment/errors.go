package payment

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedCurrency = errors.New("currency must be a valid ISO 4217 currency code")
	ErrInvalidAmount       = errors.New("amount must be a non-negative integer in minor units")
	ErrMissingSetting      = errors.New("required payment setting is missing")
	ErrInvalidOrder        = errors.New("order is missing a handle")
	ErrEmptySession        = errors.New("gateway returned no session url")
)

// SessionError reports that a checkout session could not be started. Callers
// must not render a checkout when they receive it.
type SessionError struct {
	OrderID string
	Err     error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("create checkout session for order %s: %v", e.OrderID, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}
