package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"reepaygw/internal/models"
	"reepaygw/internal/payment"
	"reepaygw/internal/repository"
)

// CheckoutProvider is a provider that can also describe its checkout form.
type CheckoutProvider interface {
	payment.Provider
	CheckoutForm(session *payment.SessionResult) payment.CheckoutForm
}

// CheckoutHandler starts hosted checkouts.
type CheckoutHandler struct {
	provider CheckoutProvider
	sessions *repository.PaymentSessionRepository
	logger   *zap.Logger
}

func NewCheckoutHandler(provider CheckoutProvider, sessions *repository.PaymentSessionRepository, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{provider: provider, sessions: sessions, logger: logger}
}

// CheckoutResponse is returned for a started checkout.
type CheckoutResponse struct {
	OrderID        string               `json:"order_id"`
	SessionID      string               `json:"session_id"`
	URL            string               `json:"url"`
	CustomerHandle string               `json:"customer_handle"`
	ChargeHandle   string               `json:"charge_handle"`
	Form           payment.CheckoutForm `json:"form"`
}

// Create opens a checkout session for an order.
// POST /api/checkout
func (h *CheckoutHandler) Create(c echo.Context) error {
	var req models.CheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	existing, err := h.sessions.FindByOrderID(req.OrderID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		h.logger.Error("Failed to load payment session", zap.String("order_id", req.OrderID), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to load payment")
	}
	if existing != nil && payment.PaymentStatus(existing.Status).IsTerminal() {
		return errorResponse(c, http.StatusConflict, "Payment is already "+existing.Status)
	}

	order := payment.OrderContext{
		OrderID:        req.OrderID,
		OrderNumber:    req.OrderNumber,
		OrderReference: req.OrderReference,
		Amount:         payment.Money{Amount: req.Amount, Currency: req.Currency},
		Customer: payment.CustomerInfo{
			Reference: req.CustomerReference,
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		},
		CountryCode: req.Country,
		Properties:  req.Properties,
	}

	result, err := h.provider.BuildSession(c.Request().Context(), order)
	if err != nil {
		var sessErr *payment.SessionError
		if errors.As(err, &sessErr) {
			// Already logged with the gateway details by the provider.
			return errorResponse(c, statusForError(err), "Could not start payment")
		}
		return errorResponse(c, statusForError(err), err.Error())
	}

	currency, _ := payment.ValidateCurrency(req.Currency)
	session := &models.PaymentSession{
		OrderID:        req.OrderID,
		OrderNumber:    req.OrderNumber,
		ChargeHandle:   result.ChargeHandle,
		SessionID:      result.SessionID,
		CustomerHandle: result.CustomerHandle,
		Amount:         req.Amount,
		Currency:       currency,
	}
	if err := h.sessions.Create(session); err != nil {
		h.logger.Error("Failed to store payment session",
			zap.String("order_id", req.OrderID),
			zap.String("session_id", result.SessionID),
			zap.Error(err),
		)
		return errorResponse(c, http.StatusInternalServerError, "Failed to store payment")
	}

	return successResponse(c, "Successful", CheckoutResponse{
		OrderID:        req.OrderID,
		SessionID:      result.SessionID,
		URL:            result.RedirectURL,
		CustomerHandle: result.CustomerHandle,
		ChargeHandle:   result.ChargeHandle,
		Form:           h.provider.CheckoutForm(result),
	})
}
