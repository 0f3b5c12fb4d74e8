package payment

import (
	"context"
	"io"

	"reepaygw/internal/reepay"
	"reepaygw/internal/webhook"
)

// Provider defines the capabilities of a payment provider variant.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// BuildSession opens a hosted checkout for an order.
	BuildSession(ctx context.Context, order OrderContext) (*SessionResult, error)

	// ProcessCallback interprets one webhook delivery for an order.
	ProcessCallback(ctx context.Context, body io.Reader, order OrderContext) CallbackResult

	// MapStatus maps a gateway charge state to a PaymentStatus.
	MapStatus(state string, refundedAmount int64) PaymentStatus

	FetchStatus(ctx context.Context, handle string) (*OperationResult, error)
	Capture(ctx context.Context, handle string, amount int64) (*OperationResult, error)
	Cancel(ctx context.Context, handle string) (*OperationResult, error)
	Refund(ctx context.Context, handle string, amount int64) (*OperationResult, error)
}

// Gateway is the subset of the Reepay API a provider calls.
type Gateway interface {
	CreateChargeSession(ctx context.Context, req *reepay.ChargeSessionRequest) (*reepay.SessionResponse, error)
	CreateRecurringSession(ctx context.Context, req *reepay.RecurringSessionRequest) (*reepay.SessionResponse, error)
	GetCharge(ctx context.Context, handle string) (*reepay.Charge, error)
	CancelCharge(ctx context.Context, handle string) (*reepay.Charge, error)
	SettleCharge(ctx context.Context, handle string, req *reepay.SettleChargeRequest) (*reepay.Charge, error)
	CreateRefund(ctx context.Context, req *reepay.CreateRefundRequest) (*reepay.Refund, error)
}

// CustomerInfo is the customer part of an order.
type CustomerInfo struct {
	Reference string
	Email     string
	FirstName string
	LastName  string
}

// OrderContext is the order snapshot a provider works from. It is owned by
// the commerce platform.
type OrderContext struct {
	OrderID        string
	OrderNumber    string
	OrderReference string
	Amount         Money
	Customer       CustomerInfo
	CountryCode    string
	Properties     map[string]string
}

// Handle returns the gateway handle for the order's charge.
func (o OrderContext) Handle() string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return o.OrderID
}

// Metadata keys returned with a session and expected back on later calls.
const (
	MetaSessionID      = "reepaySessionId"
	MetaCustomerHandle = "reepayCustomerHandle"
)

// SessionResult contains the result of a checkout session creation.
type SessionResult struct {
	SessionID      string            `json:"session_id"`
	RedirectURL    string            `json:"url"`
	CustomerHandle string            `json:"customer_handle"`
	ChargeHandle   string            `json:"charge_handle"`
	Metadata       map[string]string `json:"metadata"`
}

// CheckoutForm describes how the host renders the redirect to the checkout.
type CheckoutForm struct {
	Method     string `json:"method"`
	Action     string `json:"action"`
	JSFile     string `json:"js_file"`
	InitScript string `json:"init_script"`
}

// CallbackOutcome classifies a processed webhook.
type CallbackOutcome string

const (
	// OutcomeAccepted carries a definitive status.
	OutcomeAccepted CallbackOutcome = "accepted"
	// OutcomeNoOutcome is an authentic event that changes nothing.
	OutcomeNoOutcome CallbackOutcome = "no_outcome"
	// OutcomeRejected is an unauthenticated or malformed delivery.
	OutcomeRejected CallbackOutcome = "rejected"
)

// CallbackResult contains the result of a webhook callback.
type CallbackResult struct {
	Outcome          CallbackOutcome   `json:"outcome"`
	Status           PaymentStatus     `json:"status,omitempty"`
	TransactionID    string            `json:"transaction_id,omitempty"`
	AmountAuthorized Money             `json:"amount_authorized"`
	EventID          string            `json:"event_id,omitempty"`
	EventType        webhook.EventType `json:"event_type,omitempty"`
	Invoice          string            `json:"invoice,omitempty"`
	Reason           string            `json:"reason,omitempty"`
}

// OperationResult contains the result of a capture, cancel, refund or status lookup.
type OperationResult struct {
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Handle        string        `json:"handle"`
	State         string        `json:"state"`
}
