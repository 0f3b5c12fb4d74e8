package webhook

import "encoding/json"

// EventType is the value of the "event_type" field of a webhook.
type EventType string

const (
	InvoiceCreated             EventType = "invoice_created"
	InvoiceSettled             EventType = "invoice_settled"
	InvoiceAuthorized          EventType = "invoice_authorized"
	InvoiceDunning             EventType = "invoice_dunning"
	InvoiceDunningNotification EventType = "invoice_dunning_notification"
	InvoiceDunningCancelled    EventType = "invoice_dunning_cancelled"
	InvoiceFailed              EventType = "invoice_failed"
	InvoiceRefund              EventType = "invoice_refund"
	InvoiceRefundFailed        EventType = "invoice_refund_failed"
	InvoiceReactivate          EventType = "invoice_reactivate"
	InvoiceCancelled           EventType = "invoice_cancelled"
	InvoiceChanged             EventType = "invoice_changed"
	InvoiceCredited            EventType = "invoice_credited"

	SubscriptionCreated              EventType = "subscription_created"
	SubscriptionPaymentMethodAdded   EventType = "subscription_payment_method_added"
	SubscriptionPaymentMethodChanged EventType = "subscription_payment_method_changed"
	SubscriptionTrialEnd             EventType = "subscription_trial_end"
	SubscriptionRenewal              EventType = "subscription_renewal"
	SubscriptionCancelled            EventType = "subscription_cancelled"
	SubscriptionUncancelled          EventType = "subscription_uncancelled"
	SubscriptionOnHold               EventType = "subscription_on_hold"
	SubscriptionOnHoldDunning        EventType = "subscription_on_hold_dunning"
	SubscriptionReactivated          EventType = "subscription_reactivated"
	SubscriptionExpired              EventType = "subscription_expired"
	SubscriptionExpiredDunning       EventType = "subscription_expired_dunning"
	SubscriptionChanged              EventType = "subscription_changed"

	CustomerCreated            EventType = "customer_created"
	CustomerPaymentMethodAdded EventType = "customer_payment_method_added"
	CustomerChanged            EventType = "customer_changed"
	CustomerDeleted            EventType = "customer_deleted"
)

var knownEventTypes = func() map[EventType]struct{} {
	types := []EventType{
		InvoiceCreated, InvoiceSettled, InvoiceAuthorized, InvoiceDunning,
		InvoiceDunningNotification, InvoiceDunningCancelled, InvoiceFailed,
		InvoiceRefund, InvoiceRefundFailed, InvoiceReactivate, InvoiceCancelled,
		InvoiceChanged, InvoiceCredited,
		SubscriptionCreated, SubscriptionPaymentMethodAdded, SubscriptionPaymentMethodChanged,
		SubscriptionTrialEnd, SubscriptionRenewal, SubscriptionCancelled,
		SubscriptionUncancelled, SubscriptionOnHold, SubscriptionOnHoldDunning,
		SubscriptionReactivated, SubscriptionExpired, SubscriptionExpiredDunning,
		SubscriptionChanged,
		CustomerCreated, CustomerPaymentMethodAdded, CustomerChanged, CustomerDeleted,
	}
	m := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		m[t] = struct{}{}
	}
	return m
}()

// Known reports whether t is part of the documented vocabulary.
func (t EventType) Known() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// Envelope holds the fields used to authenticate a webhook.
type Envelope struct {
	ID        string
	Timestamp string
	Signature string
}

// Event is a verified webhook. Date fields stay as raw strings; Raw keeps
// the full body so callers can decode event-specific fields. The envelope
// fields are copied from the verified Envelope since the gateway may send
// them as JSON numbers.
type Event struct {
	ID           string    `json:"-"`
	EventID      string    `json:"event_id"`
	EventType    EventType `json:"event_type"`
	Timestamp    string    `json:"-"`
	Signature    string    `json:"-"`
	Customer     string    `json:"customer,omitempty"`
	Subscription string    `json:"subscription,omitempty"`
	Invoice      string    `json:"invoice,omitempty"`
	Transaction  string    `json:"transaction,omitempty"`
	CreditNote   string    `json:"credit_note,omitempty"`
	Credit       string    `json:"credit,omitempty"`
	Dispute      string    `json:"dispute,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Decode unmarshals the raw body into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Raw, v)
}
