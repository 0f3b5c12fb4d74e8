package reepay

// Session endpoints.

// SessionResponse is returned by both session endpoints.
type SessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ChargeSessionRequest opens a hosted checkout for a one-off charge.
type ChargeSessionRequest struct {
	Order          *Order   `json:"order,omitempty"`
	Settle         bool     `json:"settle"`
	Recurring      bool     `json:"recurring,omitempty"`
	Source         string   `json:"source,omitempty"`
	AcceptURL      string   `json:"accept_url,omitempty"`
	CancelURL      string   `json:"cancel_url,omitempty"`
	Locale         string   `json:"locale,omitempty"`
	PaymentMethods []string `json:"payment_methods,omitempty"`
	ButtonText     string   `json:"button_text,omitempty"`
}

// RecurringSessionRequest opens a hosted checkout that stores a payment method.
type RecurringSessionRequest struct {
	Customer       string    `json:"customer,omitempty"`
	CreateCustomer *Customer `json:"create_customer,omitempty"`
	Currency       string    `json:"currency,omitempty"`
	AcceptURL      string    `json:"accept_url,omitempty"`
	CancelURL      string    `json:"cancel_url,omitempty"`
	Locale         string    `json:"locale,omitempty"`
	PaymentMethods []string  `json:"payment_methods,omitempty"`
	ButtonText     string    `json:"button_text,omitempty"`
}

// Order is the order snapshot embedded in a charge session.
type Order struct {
	Handle          string            `json:"handle"`
	Key             string            `json:"key,omitempty"`
	Amount          int64             `json:"amount"`
	Currency        string            `json:"currency"`
	Customer        *Customer         `json:"customer,omitempty"`
	BillingAddress  *Address          `json:"billing_address,omitempty"`
	ShippingAddress *Address          `json:"shipping_address,omitempty"`
	OrderLines      []OrderLine       `json:"order_lines,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// Customer is used both for inline customer creation and lookups.
type Customer struct {
	Handle         string            `json:"handle,omitempty"`
	Email          string            `json:"email,omitempty"`
	FirstName      string            `json:"first_name,omitempty"`
	LastName       string            `json:"last_name,omitempty"`
	Company        string            `json:"company,omitempty"`
	VAT            string            `json:"vat,omitempty"`
	Address        string            `json:"address,omitempty"`
	Address2       string            `json:"address2,omitempty"`
	PostalCode     string            `json:"postal_code,omitempty"`
	City           string            `json:"city,omitempty"`
	Country        string            `json:"country,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	GenerateHandle bool              `json:"generate_handle,omitempty"`
	Test           bool              `json:"test,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// Address is a billing or shipping address.
type Address struct {
	Company     string `json:"company,omitempty"`
	VAT         string `json:"vat,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Address     string `json:"address,omitempty"`
	Address2    string `json:"address2,omitempty"`
	City        string `json:"city,omitempty"`
	PostalCode  string `json:"postal_code,omitempty"`
	StateOrProv string `json:"state_or_province,omitempty"`
	Country     string `json:"country,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// IsZero reports whether no field is set.
func (a Address) IsZero() bool {
	return a == Address{}
}

// OrderLine is a single order line on a charge or settle request.
type OrderLine struct {
	ID            string  `json:"id,omitempty"`
	Ordertext     string  `json:"ordertext"`
	Amount        int64   `json:"amount"`
	VAT           float64 `json:"vat,omitempty"`
	Quantity      int     `json:"quantity,omitempty"`
	AmountInclVAT bool    `json:"amount_incl_vat,omitempty"`
	Origin        string  `json:"origin,omitempty"`
}

// Charges.

// Charge states as documented by Reepay.
const (
	ChargeStateAuthorized = "authorized"
	ChargeStateSettled    = "settled"
	ChargeStateFailed     = "failed"
	ChargeStateCancelled  = "cancelled"
	ChargeStatePending    = "pending"
)

// Charge is a snapshot of a remote payment attempt. Timestamps are kept as
// the raw strings Reepay sends.
type Charge struct {
	Handle                 string      `json:"handle"`
	State                  string      `json:"state"`
	Customer               string      `json:"customer"`
	Amount                 int64       `json:"amount"`
	Currency               string      `json:"currency"`
	Authorized             string      `json:"authorized,omitempty"`
	Settled                string      `json:"settled,omitempty"`
	Cancelled              string      `json:"cancelled,omitempty"`
	Created                string      `json:"created,omitempty"`
	Transaction            string      `json:"transaction,omitempty"`
	Error                  string      `json:"error,omitempty"`
	ErrorState             string      `json:"error_state,omitempty"`
	Processing             bool        `json:"processing,omitempty"`
	RefundedAmount         int64       `json:"refunded_amount"`
	AuthorizedAmount       int64       `json:"authorized_amount"`
	Source                 *Source     `json:"source,omitempty"`
	BillingAddress         *Address    `json:"billing_address,omitempty"`
	ShippingAddress        *Address    `json:"shipping_address,omitempty"`
	OrderLines             []OrderLine `json:"order_lines,omitempty"`
	RecurringPaymentMethod string      `json:"recurring_payment_method,omitempty"`
}

// Source describes the payment instrument used for a charge.
type Source struct {
	Type         string `json:"type,omitempty"`
	Card         string `json:"card,omitempty"`
	Fingerprint  string `json:"fingerprint,omitempty"`
	Provider     string `json:"provider,omitempty"`
	Frictionless bool   `json:"frictionless,omitempty"`
	CardType     string `json:"card_type,omitempty"`
	MaskedCard   string `json:"masked_card,omitempty"`
}

// SettleChargeRequest captures an authorized charge. A zero Amount settles
// the full authorized amount.
type SettleChargeRequest struct {
	Key        string      `json:"key,omitempty"`
	Amount     int64       `json:"amount,omitempty"`
	Ordertext  string      `json:"ordertext,omitempty"`
	OrderLines []OrderLine `json:"order_lines,omitempty"`
}

// Refunds.

// Refund states as documented by Reepay.
const (
	RefundStateRefunded   = "refunded"
	RefundStateFailed     = "failed"
	RefundStateProcessing = "processing"
)

// CreateRefundRequest refunds a settled invoice or charge.
type CreateRefundRequest struct {
	Invoice        string                 `json:"invoice"`
	Key            string                 `json:"key,omitempty"`
	Amount         int64                  `json:"amount,omitempty"`
	Text           string                 `json:"text,omitempty"`
	NoteLines      []CreateCreditNoteLine `json:"note_lines,omitempty"`
	ManualTransfer *ManualTransfer        `json:"manual_transfer,omitempty"`
}

// CreateCreditNoteLine is a line on the credit note issued with a refund.
type CreateCreditNoteLine struct {
	Amount      int64  `json:"amount"`
	Text        string `json:"text"`
	Quantity    int    `json:"quantity"`
	OrderLineID string `json:"order_line_id,omitempty"`
}

// ManualTransfer records a refund paid outside of Reepay.
type ManualTransfer struct {
	Comment     string `json:"comment,omitempty"`
	Reference   string `json:"reference,omitempty"`
	Method      string `json:"method"`
	PaymentDate string `json:"payment_date"`
}

// Refund is a snapshot of a refund.
type Refund struct {
	ID              string `json:"id"`
	State           string `json:"state"`
	Invoice         string `json:"invoice"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	Transaction     string `json:"transaction,omitempty"`
	Error           string `json:"error,omitempty"`
	ErrorState      string `json:"error_state,omitempty"`
	AcquirerMessage string `json:"acquirer_message,omitempty"`
	Created         string `json:"created,omitempty"`
	Type            string `json:"type,omitempty"`
	CreditNoteID    string `json:"credit_note_id,omitempty"`
	RefTransaction  string `json:"ref_transaction,omitempty"`
}

// Subscriptions.

// Subscription is a snapshot of a subscription.
type Subscription struct {
	Handle        string `json:"handle"`
	Customer      string `json:"customer"`
	Plan          string `json:"plan"`
	State         string `json:"state"`
	Test          bool   `json:"test,omitempty"`
	Amount        int64  `json:"amount,omitempty"`
	Quantity      int    `json:"quantity,omitempty"`
	Expires       string `json:"expires,omitempty"`
	Reactivated   string `json:"reactivated,omitempty"`
	Timezone      string `json:"timezone,omitempty"`
	Created       string `json:"created,omitempty"`
	Activated     string `json:"activated,omitempty"`
	Renewing      bool   `json:"renewing,omitempty"`
	PlanVersion   int    `json:"plan_version,omitempty"`
	AmountInclVAT *bool  `json:"amount_incl_vat,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	EndDate       string `json:"end_date,omitempty"`
	GraceDuration int    `json:"grace_duration,omitempty"`
	IsCancelled   bool   `json:"is_cancelled,omitempty"`
	InTrial       bool   `json:"in_trial,omitempty"`
	HasStarted    bool   `json:"has_started,omitempty"`
	RenewalCount  int    `json:"renewal_count,omitempty"`
}

// Signup methods for CreateSubscriptionRequest.
const (
	SignupMethodSource = "source"
	SignupMethodEmail  = "email"
	SignupMethodLink   = "link"
)

// CreateSubscriptionRequest creates a subscription for an existing or new customer.
type CreateSubscriptionRequest struct {
	Handle                string                       `json:"handle,omitempty"`
	Customer              string                       `json:"customer,omitempty"`
	CreateCustomer        *CreateCustomer              `json:"create_customer,omitempty"`
	Plan                  string                       `json:"plan"`
	Amount                int64                        `json:"amount,omitempty"`
	Quantity              int                          `json:"quantity,omitempty"`
	Test                  bool                         `json:"test,omitempty"`
	Source                string                       `json:"source,omitempty"`
	SignupMethod          string                       `json:"signup_method"`
	GenerateHandle        bool                         `json:"generate_handle,omitempty"`
	StartDate             string                       `json:"start_date,omitempty"`
	EndDate               string                       `json:"end_date,omitempty"`
	GraceDuration         int                          `json:"grace_duration,omitempty"`
	NoTrial               bool                         `json:"no_trial,omitempty"`
	NoSetupFee            bool                         `json:"no_setup_fee,omitempty"`
	TrialPeriod           string                       `json:"trial_period,omitempty"`
	CouponCodes           []string                     `json:"coupon_codes,omitempty"`
	SubscriptionDiscounts []CreateSubscriptionDiscount `json:"subscription_discounts,omitempty"`
	AddOns                []SubscriptionAddOn          `json:"add_ons,omitempty"`
	ConditionalCreate     bool                         `json:"conditional_create,omitempty"`
	Metadata              Metadata                     `json:"metadata,omitempty"`
}

// CreateCustomer is the inline customer of a subscription request.
type CreateCustomer struct {
	Handle         string   `json:"handle,omitempty"`
	Email          string   `json:"email,omitempty"`
	FirstName      string   `json:"first_name,omitempty"`
	LastName       string   `json:"last_name,omitempty"`
	Company        string   `json:"company,omitempty"`
	VAT            string   `json:"vat,omitempty"`
	Address        string   `json:"address,omitempty"`
	Address2       string   `json:"address2,omitempty"`
	City           string   `json:"city,omitempty"`
	Country        string   `json:"country,omitempty"`
	PostalCode     string   `json:"postal_code,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	Test           bool     `json:"test,omitempty"`
	GenerateHandle bool     `json:"generate_handle,omitempty"`
	Metadata       Metadata `json:"metadata,omitempty"`
}

// CreateSubscriptionDiscount attaches a discount to a new subscription.
type CreateSubscriptionDiscount struct {
	Handle   string `json:"handle,omitempty"`
	Discount string `json:"discount"`
	Name     string `json:"name,omitempty"`
	Amount   int64  `json:"amount,omitempty"`
	Percent  int    `json:"percentage,omitempty"`
}

// SubscriptionAddOn attaches an add-on to a new subscription.
type SubscriptionAddOn struct {
	Handle   string `json:"handle,omitempty"`
	AddOn    string `json:"add_on"`
	Quantity int    `json:"quantity,omitempty"`
	Amount   int64  `json:"amount,omitempty"`
}

// CancelSubscriptionRequest cancels a subscription, optionally with a notice period.
type CancelSubscriptionRequest struct {
	NoticePeriods     int  `json:"notice_periods,omitempty"`
	ExpireAtPeriodEnd bool `json:"expire_at_period_end,omitempty"`
}
