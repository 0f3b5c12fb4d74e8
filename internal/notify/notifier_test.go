package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"reepaygw/internal/models"
	"reepaygw/internal/payment"
	"reepaygw/internal/pkg/telegram"
)

type sentMessage struct {
	path string
	body map[string]interface{}
}

func telegramServer(t *testing.T, sent *[]sentMessage) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		*sent = append(*sent, sentMessage{path: r.URL.Path, body: body})
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testSession() *models.PaymentSession {
	return &models.PaymentSession{OrderID: "o<1>", Amount: 12550, Currency: "DKK", TransactionID: "tx_1"}
}

func TestTelegramNotifier_PaymentChanged(t *testing.T) {
	var sent []sentMessage
	srv := telegramServer(t, &sent)
	n := NewTelegramNotifier(telegram.NewBotAPIWithBaseURL(srv.URL, "TOKEN"), "-100200", zap.NewNop())
	ctx := context.Background()

	n.PaymentChanged(ctx, testSession(), payment.StatusAuthorized, payment.StatusCaptured)
	n.PaymentChanged(ctx, testSession(), payment.StatusInitialized, payment.StatusAuthorized)
	n.PaymentChanged(ctx, testSession(), payment.StatusCaptured, payment.StatusCaptured)

	require.Len(t, sent, 1)
	assert.Equal(t, "/botTOKEN/sendMessage", sent[0].path)
	assert.Equal(t, "-100200", sent[0].body["chat_id"])
	assert.Equal(t, "HTML", sent[0].body["parse_mode"])
	assert.Contains(t, sent[0].body["text"], "o&lt;1&gt;")
	assert.Contains(t, sent[0].body["text"], "125.50 DKK")
}

func TestBotAPI_ReportsAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	err := telegram.NewBotAPIWithBaseURL(srv.URL, "TOKEN").SendMessage(context.Background(), "1", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestNew_WithoutConfigIsNop(t *testing.T) {
	assert.IsType(t, Nop{}, New("", "-100", zap.NewNop()))
	assert.IsType(t, Nop{}, New("token", "", zap.NewNop()))
	assert.IsType(t, &TelegramNotifier{}, New("token", "-100", zap.NewNop()))
}

func TestReport_Refunded(t *testing.T) {
	msg := Report(testSession(), payment.StatusRefunded)
	assert.Contains(t, msg, "refunded")
	assert.Contains(t, msg, "tx_1")
}
