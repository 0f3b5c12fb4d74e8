package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"reepaygw/internal/models"
	"reepaygw/internal/notify"
	"reepaygw/internal/payment"
	"reepaygw/internal/repository"
)

// PaymentHandler exposes payment lookups and charge operations.
type PaymentHandler struct {
	provider payment.Provider
	sessions *repository.PaymentSessionRepository
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewPaymentHandler(provider payment.Provider, sessions *repository.PaymentSessionRepository, notifier notify.Notifier, logger *zap.Logger) *PaymentHandler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &PaymentHandler{provider: provider, sessions: sessions, notifier: notifier, logger: logger}
}

// List returns stored payments.
// GET /api/payments
func (h *PaymentHandler) List(c echo.Context) error {
	var req models.PaymentListRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if req.Page <= 0 {
		req.Page = 1
	}

	sessions, total, err := h.sessions.FindAll(req.Limit, req.Page, req.Status)
	if err != nil {
		h.logger.Error("Failed to list payments", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to retrieve payments")
	}
	return successResponse(c, "Successful", paginatedResponse(sessions, total, req.Page, req.Limit))
}

// Get returns one payment. Unresolved payments are refreshed from the
// gateway first; a failed refresh returns the stored state.
// GET /api/payments/:order_id
func (h *PaymentHandler) Get(c echo.Context) error {
	session, err := h.sessions.FindByOrderID(c.Param("order_id"))
	if err != nil {
		return errorResponse(c, statusForError(err), "Payment not found")
	}

	if !payment.PaymentStatus(session.Status).IsTerminal() {
		op, err := h.provider.FetchStatus(c.Request().Context(), session.ChargeHandle)
		if err != nil {
			h.logger.Warn("Failed to refresh payment", zap.String("order_id", session.OrderID), zap.Error(err))
		} else if tr, err := h.apply(c.Request().Context(), session, op); err == nil {
			session = tr.Session
		}
	}

	events, err := h.sessions.Events(session.OrderID)
	if err != nil {
		h.logger.Error("Failed to load payment events", zap.String("order_id", session.OrderID), zap.Error(err))
	}

	return successResponse(c, "Successful", map[string]interface{}{
		"payment": session,
		"events":  events,
	})
}

// Capture settles an authorized charge.
// POST /api/payments/:order_id/capture
func (h *PaymentHandler) Capture(c echo.Context) error {
	return h.operate(c, "capture", func(ctx context.Context, handle string, amount int64) (*payment.OperationResult, error) {
		return h.provider.Capture(ctx, handle, amount)
	})
}

// Cancel releases an authorized charge.
// POST /api/payments/:order_id/cancel
func (h *PaymentHandler) Cancel(c echo.Context) error {
	return h.operate(c, "cancel", func(ctx context.Context, handle string, _ int64) (*payment.OperationResult, error) {
		return h.provider.Cancel(ctx, handle)
	})
}

// Refund refunds a settled charge.
// POST /api/payments/:order_id/refund
func (h *PaymentHandler) Refund(c echo.Context) error {
	return h.operate(c, "refund", func(ctx context.Context, handle string, amount int64) (*payment.OperationResult, error) {
		return h.provider.Refund(ctx, handle, amount)
	})
}

type operation func(ctx context.Context, handle string, amount int64) (*payment.OperationResult, error)

func (h *PaymentHandler) operate(c echo.Context, name string, op operation) error {
	var req models.OperationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	session, err := h.sessions.FindByOrderID(c.Param("order_id"))
	if err != nil {
		return errorResponse(c, statusForError(err), "Payment not found")
	}

	ctx := c.Request().Context()
	result, err := op(ctx, session.ChargeHandle, req.Amount)
	if err != nil {
		// Already logged with the gateway details by the provider.
		return errorResponse(c, statusForError(err), "Failed to "+name+" payment")
	}

	tr, err := h.apply(ctx, session, result)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, "Failed to update payment")
	}

	h.logger.Info("Payment operation applied",
		zap.String("operation", name),
		zap.String("order_id", session.OrderID),
		zap.String("state", result.State),
		zap.String("status", string(tr.To)),
	)
	return successResponse(c, "Successful", map[string]interface{}{
		"payment": tr.Session,
		"result":  result,
	})
}

func (h *PaymentHandler) apply(ctx context.Context, session *models.PaymentSession, op *payment.OperationResult) (*repository.Transition, error) {
	tr, err := h.sessions.ApplyStatus(session.OrderID, op.Status, op.TransactionID, "", models.SourceAPI)
	if err != nil {
		h.logger.Error("Failed to apply payment status", zap.String("order_id", session.OrderID), zap.Error(err))
		return nil, err
	}
	if tr.Changed() {
		h.notifier.PaymentChanged(ctx, tr.Session, tr.From, tr.To)
	}
	return tr, nil
}
