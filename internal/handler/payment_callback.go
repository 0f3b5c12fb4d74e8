package handler

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"reepaygw/internal/middleware"
	"reepaygw/internal/models"
	"reepaygw/internal/notify"
	"reepaygw/internal/payment"
	"reepaygw/internal/repository"
	"reepaygw/internal/webhook"
)

// PaymentCallbackHandler handles gateway webhooks and checkout returns.
type PaymentCallbackHandler struct {
	provider payment.Provider
	sessions *repository.PaymentSessionRepository
	deduper  middleware.EventDeduper
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewPaymentCallbackHandler creates a new payment callback handler.
func NewPaymentCallbackHandler(
	provider payment.Provider,
	sessions *repository.PaymentSessionRepository,
	deduper middleware.EventDeduper,
	notifier notify.Notifier,
	logger *zap.Logger,
) *PaymentCallbackHandler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &PaymentCallbackHandler{
		provider: provider,
		sessions: sessions,
		deduper:  deduper,
		notifier: notifier,
		logger:   logger,
	}
}

// ── Reepay webhook ───────────────────────────────────────────────────

// ReepayWebhook processes one webhook delivery. Rejected deliveries get
// 400; everything authentic gets 200 so Reepay stops retrying, except a
// failed status update which gets 500 to ask for a redelivery.
// POST /payment/reepay/callback
func (h *PaymentCallbackHandler) ReepayWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, webhook.MaxBodyBytes))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "Unreadable body")
	}
	body := bytes.NewReader(raw)

	// The first pass authenticates the delivery and names the invoice. Within
	// the request scope the second pass reuses the verified event.
	probe := h.provider.ProcessCallback(ctx, body, payment.OrderContext{})
	if probe.Outcome == payment.OutcomeRejected {
		h.logger.Warn("Rejected Reepay webhook", zap.String("reason", probe.Reason), zap.String("ip", c.RealIP()))
		return errorResponse(c, http.StatusBadRequest, "Rejected")
	}

	if h.deduper != nil && probe.EventID != "" {
		dup, err := h.deduper.Seen(ctx, probe.EventID)
		if err != nil {
			h.logger.Warn("Webhook dedup unavailable", zap.Error(err))
		} else if dup {
			return successResponse(c, "Duplicate", map[string]interface{}{"event_id": probe.EventID})
		}
	}

	if probe.Outcome == payment.OutcomeNoOutcome {
		return successResponse(c, "Ignored", map[string]interface{}{
			"event_id":   probe.EventID,
			"event_type": probe.EventType,
		})
	}

	session, err := h.sessions.FindByChargeHandle(probe.Invoice)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		h.logger.Warn("Webhook for unknown invoice",
			zap.String("invoice", probe.Invoice),
			zap.String("event_id", probe.EventID),
		)
		return successResponse(c, "Unknown invoice", nil)
	}
	if err != nil {
		h.forget(c, probe.EventID)
		h.logger.Error("Failed to load payment session", zap.String("invoice", probe.Invoice), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to load payment")
	}

	result := h.provider.ProcessCallback(ctx, body, orderFromSession(session))
	if result.Outcome != payment.OutcomeAccepted {
		return successResponse(c, "Ignored", nil)
	}

	tr, err := h.sessions.ApplyStatus(session.OrderID, result.Status, result.TransactionID, result.EventID, models.SourceWebhook)
	if err != nil {
		h.forget(c, result.EventID)
		h.logger.Error("Failed to apply webhook status",
			zap.String("order_id", session.OrderID),
			zap.String("event_id", result.EventID),
			zap.Error(err),
		)
		return errorResponse(c, http.StatusInternalServerError, "Failed to update payment")
	}

	h.logger.Info("Reepay webhook applied",
		zap.String("order_id", session.OrderID),
		zap.String("event_id", result.EventID),
		zap.String("event_type", string(result.EventType)),
		zap.String("from", string(tr.From)),
		zap.String("to", string(tr.To)),
	)
	if tr.Changed() {
		h.notifier.PaymentChanged(ctx, tr.Session, tr.From, tr.To)
	}

	return successResponse(c, "Successful", map[string]interface{}{
		"order_id": session.OrderID,
		"status":   tr.To,
	})
}

func (h *PaymentCallbackHandler) forget(c echo.Context, eventID string) {
	if h.deduper == nil || eventID == "" {
		return
	}
	if err := h.deduper.Forget(c.Request().Context(), eventID); err != nil {
		h.logger.Warn("Failed to release webhook event", zap.String("event_id", eventID), zap.Error(err))
	}
}

// ── Checkout return pages ────────────────────────────────────────────

// Accept is the landing page after checkout. Reepay appends the invoice
// handle; the charge is looked up so the page shows the settled state.
// GET /payment/reepay/accept
func (h *PaymentCallbackHandler) Accept(c echo.Context) error {
	invoice := c.QueryParam("invoice")
	if invoice == "" {
		return h.renderPaymentResult(c, http.StatusBadRequest, "Error", "Missing invoice", nil)
	}

	session, err := h.sessions.FindByChargeHandle(invoice)
	if err != nil {
		return h.renderPaymentResult(c, http.StatusNotFound, "Error", "Payment not found", nil)
	}

	op, err := h.provider.FetchStatus(c.Request().Context(), session.ChargeHandle)
	if err != nil {
		h.logger.Warn("Failed to fetch charge on return", zap.String("order_id", session.OrderID), zap.Error(err))
		return h.renderPaymentResult(c, http.StatusOK, "Payment received", "Your payment is being processed.", session)
	}

	tr, err := h.sessions.ApplyStatus(session.OrderID, op.Status, op.TransactionID, "", models.SourceRedirect)
	if err != nil {
		h.logger.Error("Failed to apply return status", zap.String("order_id", session.OrderID), zap.Error(err))
	} else {
		session = tr.Session
		if tr.Changed() {
			h.notifier.PaymentChanged(c.Request().Context(), tr.Session, tr.From, tr.To)
		}
	}

	switch payment.PaymentStatus(session.Status) {
	case payment.StatusAuthorized, payment.StatusCaptured:
		return h.renderPaymentResult(c, http.StatusOK, "Payment successful", "Thank you, your payment was completed.", session)
	case payment.StatusError, payment.StatusCancelled:
		return h.renderPaymentResult(c, http.StatusOK, "Payment failed", "The payment was not completed.", session)
	}
	return h.renderPaymentResult(c, http.StatusOK, "Payment received", "Your payment is being processed.", session)
}

// Cancel is the landing page when the payer leaves the checkout.
// GET /payment/reepay/cancel
func (h *PaymentCallbackHandler) Cancel(c echo.Context) error {
	var session *models.PaymentSession
	if invoice := c.QueryParam("invoice"); invoice != "" {
		session, _ = h.sessions.FindByChargeHandle(invoice)
	}
	return h.renderPaymentResult(c, http.StatusOK, "Payment cancelled", "You left the checkout before paying.", session)
}

var resultPage = template.Must(template.New("payment").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Payment</title>
    <style>
        body { font-family: sans-serif; background: #f2f2f2; margin: 0; padding: 20px; display: flex; justify-content: center; align-items: center; min-height: 100vh; }
        .box { background: #fff; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); padding: 40px; text-align: center; max-width: 400px; width: 100%; }
        h1 { color: #333; margin-bottom: 20px; }
        p { color: #666; margin-bottom: 10px; }
    </style>
</head>
<body>
    <div class="box">
        <h1>{{.Title}}</h1>
        {{if .OrderID}}<p>Order: <span>{{.OrderID}}</span></p>{{end}}
        {{if .Amount}}<p>Amount: <span>{{.Amount}}</span></p>{{end}}
        <p>{{.Message}}</p>
    </div>
</body>
</html>`))

func (h *PaymentCallbackHandler) renderPaymentResult(c echo.Context, status int, title, message string, session *models.PaymentSession) error {
	data := map[string]interface{}{
		"Title":   title,
		"Message": message,
	}
	if session != nil {
		data["OrderID"] = session.OrderID
		if session.Amount > 0 {
			data["Amount"] = payment.Money{Amount: session.Amount, Currency: session.Currency}.String()
		}
	}

	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	c.Response().WriteHeader(status)
	return resultPage.Execute(c.Response().Writer, data)
}
