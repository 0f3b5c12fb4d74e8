package payment

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reepaygw/internal/reepay"
	"reepaygw/internal/webhook"
)

const (
	checkoutJSFile = "https://checkout.reepay.com/checkout.js"
	providerName   = "reepay"
)

// ReepayProvider implements Provider on top of the Reepay checkout API.
type ReepayProvider struct {
	settings Settings
	api      Gateway
	parser   *webhook.Parser
	logger   *zap.Logger
}

// NewReepayProvider creates a provider variant for settings.
func NewReepayProvider(settings Settings, api Gateway, logger *zap.Logger) *ReepayProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReepayProvider{
		settings: settings,
		api:      api,
		parser:   webhook.NewParser(settings.WebhookSecret),
		logger:   logger,
	}
}

func (p *ReepayProvider) Name() string {
	if p.settings.Name != "" {
		return p.settings.Name
	}
	return providerName
}

func (p *ReepayProvider) MapStatus(state string, refundedAmount int64) PaymentStatus {
	return ChargeStatus(state, refundedAmount)
}

// ── Sessions ─────────────────────────────────────────────────────────

// BuildSession validates the order and opens a checkout session. Validation
// failures are returned before any network call. Gateway and transport
// failures are logged and returned as *SessionError.
func (p *ReepayProvider) BuildSession(ctx context.Context, order OrderContext) (*SessionResult, error) {
	code, err := ValidateCurrency(order.Amount.Currency)
	if err != nil {
		return nil, err
	}
	if err := p.settings.Validate(); err != nil {
		return nil, err
	}
	if order.Amount.Amount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, order.Amount.Amount)
	}
	handle := order.Handle()
	if strings.TrimSpace(handle) == "" {
		return nil, ErrInvalidOrder
	}

	customerHandle := strings.TrimSpace(order.Customer.Reference)
	if customerHandle == "" {
		customerHandle = uuid.NewString()
	}

	var resp *reepay.SessionResponse
	if p.settings.Recurring {
		resp, err = p.api.CreateRecurringSession(ctx, p.recurringRequest(order, code, customerHandle))
	} else {
		resp, err = p.api.CreateChargeSession(ctx, p.chargeRequest(order, code, handle, customerHandle))
	}
	if err != nil {
		p.logger.Error("Reepay session creation failed",
			append([]zap.Field{zap.String("order_id", order.OrderID)}, gatewayFields(err)...)...)
		return nil, &SessionError{OrderID: order.OrderID, Err: err}
	}
	if resp == nil || resp.URL == "" {
		p.logger.Error("Reepay returned an empty session", zap.String("order_id", order.OrderID))
		return nil, &SessionError{OrderID: order.OrderID, Err: ErrEmptySession}
	}

	p.logger.Info("Reepay session created",
		zap.String("order_id", order.OrderID),
		zap.String("session_id", resp.ID),
	)

	return &SessionResult{
		SessionID:      resp.ID,
		RedirectURL:    resp.URL,
		CustomerHandle: customerHandle,
		ChargeHandle:   handle,
		Metadata: map[string]string{
			MetaSessionID:      resp.ID,
			MetaCustomerHandle: customerHandle,
		},
	}, nil
}

func (p *ReepayProvider) chargeRequest(order OrderContext, code, handle, customerHandle string) *reepay.ChargeSessionRequest {
	return &reepay.ChargeSessionRequest{
		Order: &reepay.Order{
			Handle:         handle,
			Key:            order.OrderReference,
			Amount:         order.Amount.Amount,
			Currency:       code,
			Customer:       p.customer(order, customerHandle),
			BillingAddress: p.billingAddress(order),
			Metadata:       orderMetadata(order),
		},
		Settle:         p.settings.Capture,
		AcceptURL:      p.settings.ContinueURL,
		CancelURL:      p.settings.CancelURL,
		Locale:         strings.TrimSpace(p.settings.Locale),
		PaymentMethods: p.settings.Methods(),
		ButtonText:     p.settings.ButtonText,
	}
}

func (p *ReepayProvider) recurringRequest(order OrderContext, code, customerHandle string) *reepay.RecurringSessionRequest {
	req := &reepay.RecurringSessionRequest{
		Currency:       code,
		AcceptURL:      p.settings.ContinueURL,
		CancelURL:      p.settings.CancelURL,
		Locale:         strings.TrimSpace(p.settings.Locale),
		PaymentMethods: p.settings.Methods(),
		ButtonText:     p.settings.ButtonText,
	}
	if order.Customer.Reference != "" {
		req.Customer = customerHandle
	} else {
		req.CreateCustomer = p.customer(order, customerHandle)
	}
	return req
}

func (p *ReepayProvider) customer(order OrderContext, handle string) *reepay.Customer {
	return &reepay.Customer{
		Handle:     handle,
		Email:      order.Customer.Email,
		FirstName:  order.Customer.FirstName,
		LastName:   order.Customer.LastName,
		Company:    p.property(order, p.settings.BillingCompanyProperty),
		Address:    p.property(order, p.settings.BillingAddress1Property),
		Address2:   p.property(order, p.settings.BillingAddress2Property),
		PostalCode: p.property(order, p.settings.BillingZipProperty),
		City:       p.property(order, p.settings.BillingCityProperty),
		Phone:      p.property(order, p.settings.BillingPhoneProperty),
		Country:    order.CountryCode,
		Test:       p.settings.TestMode,
	}
}

// property returns the trimmed order property behind alias, or "" when the
// alias is not configured.
func (p *ReepayProvider) property(order OrderContext, alias string) string {
	if alias == "" || order.Properties == nil {
		return ""
	}
	return strings.TrimSpace(order.Properties[alias])
}

// billingAddress copies only the properties whose alias is configured and
// whose value is set. It returns nil when nothing was copied.
func (p *ReepayProvider) billingAddress(order OrderContext) *reepay.Address {
	prop := func(alias string) string {
		return p.property(order, alias)
	}

	addr := reepay.Address{
		Company:     prop(p.settings.BillingCompanyProperty),
		Address:     prop(p.settings.BillingAddress1Property),
		Address2:    prop(p.settings.BillingAddress2Property),
		City:        prop(p.settings.BillingCityProperty),
		PostalCode:  prop(p.settings.BillingZipProperty),
		StateOrProv: prop(p.settings.BillingStateProperty),
		Phone:       prop(p.settings.BillingPhoneProperty),
	}
	if addr.IsZero() {
		return nil
	}
	addr.FirstName = order.Customer.FirstName
	addr.LastName = order.Customer.LastName
	addr.Email = order.Customer.Email
	addr.Country = order.CountryCode
	return &addr
}

func orderMetadata(order OrderContext) map[string]string {
	md := make(map[string]string, 3)
	if order.OrderReference != "" {
		md["orderReference"] = order.OrderReference
	}
	if order.OrderID != "" {
		md["orderId"] = order.OrderID
	}
	if order.OrderNumber != "" {
		md["orderNumber"] = order.OrderNumber
	}
	if len(md) == 0 {
		return nil
	}
	return md
}

// CheckoutForm describes the redirect the host renders for a session.
func (p *ReepayProvider) CheckoutForm(session *SessionResult) CheckoutForm {
	return CheckoutForm{
		Method:     "GET",
		Action:     session.RedirectURL,
		JSFile:     checkoutJSFile,
		InitScript: fmt.Sprintf("var rp = new Reepay.WindowCheckout('%s');", session.SessionID),
	}
}

// ── Callbacks ────────────────────────────────────────────────────────

// ProcessCallback authenticates body and maps its event type. It never
// panics: any failure while reading or verifying yields OutcomeRejected.
func (p *ReepayProvider) ProcessCallback(ctx context.Context, body io.Reader, order OrderContext) (result CallbackResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Reepay callback panic", zap.String("order_id", order.OrderID), zap.Any("panic", r))
			result = rejected(fmt.Sprintf("panic: %v", r))
		}
	}()

	evt, err := p.parser.EventFromRequest(ctx, body)
	if err != nil {
		p.logger.Warn("Reepay callback rejected", zap.String("order_id", order.OrderID), zap.Error(err))
		return rejected(err.Error())
	}
	if evt == nil {
		p.logger.Warn("Reepay callback without envelope", zap.String("order_id", order.OrderID))
		return rejected("missing id, timestamp or signature")
	}

	result = CallbackResult{
		Outcome:   OutcomeNoOutcome,
		EventID:   evt.ID,
		EventType: evt.EventType,
		Invoice:   evt.Invoice,
	}
	status, ok := EventOutcome(evt.EventType)
	if !ok {
		return result
	}
	result.Outcome = OutcomeAccepted
	result.Status = status
	result.TransactionID = evt.Transaction
	result.AmountAuthorized = order.Amount
	return result
}

func rejected(reason string) CallbackResult {
	return CallbackResult{Outcome: OutcomeRejected, Reason: reason}
}

// ── Operations ───────────────────────────────────────────────────────

func (p *ReepayProvider) FetchStatus(ctx context.Context, handle string) (*OperationResult, error) {
	charge, err := p.api.GetCharge(ctx, handle)
	if err != nil {
		return nil, p.opError("fetch status", handle, err)
	}
	return p.chargeResult(charge), nil
}

// Capture settles an authorized charge. A zero amount settles the full
// authorized amount.
func (p *ReepayProvider) Capture(ctx context.Context, handle string, amount int64) (*OperationResult, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	charge, err := p.api.SettleCharge(ctx, handle, &reepay.SettleChargeRequest{Amount: amount})
	if err != nil {
		return nil, p.opError("capture", handle, err)
	}
	return p.chargeResult(charge), nil
}

func (p *ReepayProvider) Cancel(ctx context.Context, handle string) (*OperationResult, error) {
	charge, err := p.api.CancelCharge(ctx, handle)
	if err != nil {
		return nil, p.opError("cancel", handle, err)
	}
	return p.chargeResult(charge), nil
}

// Refund refunds a settled charge. A zero amount refunds the full amount.
func (p *ReepayProvider) Refund(ctx context.Context, handle string, amount int64) (*OperationResult, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	refund, err := p.api.CreateRefund(ctx, &reepay.CreateRefundRequest{Invoice: handle, Amount: amount})
	if err != nil {
		return nil, p.opError("refund", handle, err)
	}
	return &OperationResult{
		Status:        RefundStatus(refund.State),
		TransactionID: refund.Transaction,
		Handle:        handle,
		State:         refund.State,
	}, nil
}

func (p *ReepayProvider) chargeResult(charge *reepay.Charge) *OperationResult {
	return &OperationResult{
		Status:        p.MapStatus(charge.State, charge.RefundedAmount),
		TransactionID: charge.Transaction,
		Handle:        charge.Handle,
		State:         charge.State,
	}
}

func (p *ReepayProvider) opError(op, handle string, err error) error {
	p.logger.Error("Reepay "+op+" failed",
		append([]zap.Field{zap.String("handle", handle)}, gatewayFields(err)...)...)
	return fmt.Errorf("%s %s: %w", op, handle, err)
}

// gatewayFields expands a GatewayError into log fields. Credentials are
// never part of the error.
func gatewayFields(err error) []zap.Field {
	gwErr, ok := reepay.AsGatewayError(err)
	if !ok {
		return []zap.Field{zap.Error(err)}
	}
	return []zap.Field{
		zap.Error(err),
		zap.Int("code", gwErr.Code),
		zap.String("gateway_error", gwErr.ErrorText),
		zap.String("message", gwErr.Message),
		zap.Int("http_status", gwErr.HTTPStatus),
		zap.String("path", gwErr.Path),
		zap.String("request_id", gwErr.RequestID),
	}
}

var _ Provider = (*ReepayProvider)(nil)
