package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"reepaygw/internal/handler"
	"reepaygw/internal/middleware"
	"reepaygw/internal/notify"
	"reepaygw/internal/repository"
)

// Options holds the route-level security settings.
type Options struct {
	APIKey            string
	TokenHash         string
	WebhookAllowedIPs []string
}

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	db *gorm.DB,
	provider handler.CheckoutProvider,
	deduper middleware.EventDeduper,
	notifier notify.Notifier,
	logger *zap.Logger,
	opts Options,
) {
	e.Validator = handler.NewRequestValidator()

	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger(logger))

	sessions := repository.NewPaymentSessionRepository(db)

	// Handlers
	checkoutHandler := handler.NewCheckoutHandler(provider, sessions, logger)
	paymentHandler := handler.NewPaymentHandler(provider, sessions, notifier, logger)
	callbackHandler := handler.NewPaymentCallbackHandler(provider, sessions, deduper, notifier, logger)

	// API group with token auth
	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.APIAuth(opts.APIKey, opts.TokenHash))

	apiGroup.POST("/checkout", checkoutHandler.Create)
	apiGroup.GET("/payments", paymentHandler.List)
	apiGroup.GET("/payments/:order_id", paymentHandler.Get)
	apiGroup.POST("/payments/:order_id/capture", paymentHandler.Capture)
	apiGroup.POST("/payments/:order_id/cancel", paymentHandler.Cancel)
	apiGroup.POST("/payments/:order_id/refund", paymentHandler.Refund)

	// Reepay webhook and checkout return pages
	paymentGroup := e.Group("/payment/reepay")
	paymentGroup.POST("/callback", callbackHandler.ReepayWebhook,
		middleware.IPAllowlist(opts.WebhookAllowedIPs),
		middleware.WebhookScope(),
	)
	paymentGroup.GET("/accept", callbackHandler.Accept)
	paymentGroup.GET("/cancel", callbackHandler.Cancel)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
