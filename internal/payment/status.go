package payment

import "reepaygw/internal/webhook"

// PaymentStatus is the platform's payment status vocabulary.
type PaymentStatus string

const (
	StatusInitialized           PaymentStatus = "initialized"
	StatusAuthorized            PaymentStatus = "authorized"
	StatusCaptured              PaymentStatus = "captured"
	StatusCancelled             PaymentStatus = "cancelled"
	StatusRefunded              PaymentStatus = "refunded"
	StatusPendingExternalSystem PaymentStatus = "pending_external_system"
	StatusError                 PaymentStatus = "error"
)

// IsTerminal reports whether no later webhook may move the payment back.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusCaptured, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

// ChargeStatus maps a Reepay charge state. Unknown states map to
// Initialized, never to a success status.
func ChargeStatus(state string, refundedAmount int64) PaymentStatus {
	switch state {
	case "authorized":
		return StatusAuthorized
	case "settled":
		if refundedAmount > 0 {
			return StatusRefunded
		}
		return StatusCaptured
	case "failed":
		return StatusError
	case "cancelled":
		return StatusCancelled
	case "pending":
		return StatusPendingExternalSystem
	}
	return StatusInitialized
}

// RefundStatus maps a Reepay refund state. Unknown states leave the payment
// Authorized.
func RefundStatus(state string) PaymentStatus {
	switch state {
	case "refunded":
		return StatusRefunded
	case "failed":
		return StatusError
	case "processing":
		return StatusPendingExternalSystem
	}
	return StatusAuthorized
}

// EventOutcome returns the definitive status carried by a webhook event
// type. Only invoice_authorized and invoice_settled are definitive.
func EventOutcome(eventType webhook.EventType) (PaymentStatus, bool) {
	switch eventType {
	case webhook.InvoiceAuthorized:
		return StatusAuthorized, true
	case webhook.InvoiceSettled:
		return StatusCaptured, true
	}
	return "", false
}

// Advance returns the status to store when next is observed while current
// is stored. Deliveries may arrive late or twice, so a payment never moves
// backwards: Captured only moves to Refunded, and Refunded and Cancelled
// never change.
func Advance(current, next PaymentStatus) PaymentStatus {
	if next == "" || next == current {
		return current
	}
	switch current {
	case StatusRefunded, StatusCancelled:
		return current
	case StatusCaptured:
		if next == StatusRefunded {
			return next
		}
		return current
	case StatusAuthorized, StatusError:
		switch next {
		case StatusAuthorized, StatusCaptured, StatusRefunded, StatusCancelled:
			return next
		}
		return current
	}
	if next == StatusInitialized {
		return current
	}
	return next
}
