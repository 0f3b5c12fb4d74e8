package reepay

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTransport marks failures where no usable HTTP response was received.
	ErrTransport = errors.New("reepay: transport failure")
	// ErrCanceled marks transport failures caused by context cancellation or deadline.
	ErrCanceled = errors.New("reepay: request canceled")
	// ErrEmptyHandle is returned before any network call when a handle is blank.
	ErrEmptyHandle = errors.New("reepay: empty handle")
)

// GatewayError is the error body Reepay returns with non-2xx responses.
type GatewayError struct {
	Code       int    `json:"code,omitempty"`
	ErrorText  string `json:"error,omitempty"`
	Message    string `json:"message,omitempty"`
	HTTPStatus int    `json:"http_status,omitempty"`
	HTTPReason string `json:"http_reason,omitempty"`
	Path       string `json:"path,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

func (e *GatewayError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.ErrorText
	}
	if msg == "" {
		msg = e.HTTPReason
	}
	return fmt.Sprintf("reepay: %s: http %d code %d: %s (request_id=%s)",
		e.Path, e.HTTPStatus, e.Code, msg, e.RequestID)
}

// TransportError wraps a failed exchange with the operation that was attempted.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("reepay: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches ErrTransport always and ErrCanceled for context errors.
func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return true
	case ErrCanceled:
		return errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded)
	}
	return false
}

// AsGatewayError extracts a GatewayError from err.
func AsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}
