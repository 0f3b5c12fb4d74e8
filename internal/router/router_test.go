package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"reepaygw/internal/bootstrap"
	"reepaygw/internal/middleware"
	"reepaygw/internal/notify"
	"reepaygw/internal/payment"
)

func setupEcho(t *testing.T) *echo.Echo {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, bootstrap.Migrate(db))

	provider := payment.NewReepayProvider(payment.Settings{
		PrivateKey:    "priv_test",
		WebhookSecret: "whsec_test",
		ContinueURL:   "https://shop.example/accept",
		CancelURL:     "https://shop.example/cancel",
	}, nil, zap.NewNop())

	e := echo.New()
	Setup(e, db, provider, middleware.NewMemoryEventDeduper(time.Hour), notify.Nop{}, zap.NewNop(), Options{
		APIKey:            "secret",
		WebhookAllowedIPs: []string{"10.0."},
	})
	return e
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := setupEcho(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPIRequiresToken(t *testing.T) {
	e := setupEcho(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/api/payments", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	req.Header.Set("Token", "wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/payments", nil)
	req.Header.Set("Token", "secret")
	rec = serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":0`)
}

func TestWebhookAllowlist(t *testing.T) {
	e := setupEcho(t)

	req := httptest.NewRequest(http.MethodPost, "/payment/reepay/callback", strings.NewReader(`{}`))
	req.RemoteAddr = "192.0.2.1:4000"
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)

	// allowed sources reach the handler, which rejects the unsigned body
	req = httptest.NewRequest(http.MethodPost, "/payment/reepay/callback", strings.NewReader(`{}`))
	req.RemoteAddr = "10.0.3.7:4000"
	assert.Equal(t, http.StatusBadRequest, serve(e, req).Code)
}

func TestCancelPageIsPublic(t *testing.T) {
	e := setupEcho(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/payment/reepay/cancel", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
}
