package reepay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		PrivateKey:      "priv_123",
		CheckoutBaseURL: srv.URL,
		APIBaseURL:      srv.URL + "/",
		Timeout:         5 * time.Second,
	})
	return c, srv
}

func TestClient_CreateChargeSession(t *testing.T) {
	var got map[string]interface{}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/session/charge", r.URL.Path)
		assert.Equal(t, AuthorizationHeader("priv_123"), r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_1","url":"https://checkout.reepay.com/#/cs_1","unknown":true}`))
	})

	resp, err := c.CreateChargeSession(context.Background(), &ChargeSessionRequest{
		Order:     &Order{Handle: "ORD-1", Amount: 1000, Currency: "DKK"},
		Settle:    true,
		AcceptURL: "https://shop/accept",
		CancelURL: "https://shop/cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", resp.ID)
	assert.Equal(t, "https://checkout.reepay.com/#/cs_1", resp.URL)

	assert.Equal(t, true, got["settle"])
	assert.NotContains(t, got, "locale")
	assert.NotContains(t, got, "payment_methods")
	order := got["order"].(map[string]interface{})
	assert.Equal(t, "ORD-1", order["handle"])
	assert.NotContains(t, order, "customer")
	assert.NotContains(t, order, "billing_address")
}

func TestAuthorizationHeader(t *testing.T) {
	// base64("priv_123:")
	assert.Equal(t, "Basic cHJpdl8xMjM6", AuthorizationHeader("priv_123"))
}

func TestClient_CreateRecurringSession(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/session/recurring", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"rs_1","url":"https://checkout/rs_1"}`))
	})

	resp, err := c.CreateRecurringSession(context.Background(), &RecurringSessionRequest{Customer: "cust-1"})
	require.NoError(t, err)
	assert.Equal(t, "rs_1", resp.ID)
}

func TestClient_ChargeLifecycle(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		call   func(c *Client) (*Charge, error)
	}{
		{"get", http.MethodGet, "/v1/charge/ORD-1", func(c *Client) (*Charge, error) {
			return c.GetCharge(context.Background(), "ORD-1")
		}},
		{"cancel", http.MethodPost, "/v1/charge/ORD-1/cancel", func(c *Client) (*Charge, error) {
			return c.CancelCharge(context.Background(), "ORD-1")
		}},
		{"settle", http.MethodPost, "/v1/charge/ORD-1/settle", func(c *Client) (*Charge, error) {
			return c.SettleCharge(context.Background(), "ORD-1", &SettleChargeRequest{Amount: 500})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.method, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				_, _ = w.Write([]byte(`{"handle":"ORD-1","state":"settled","amount":1000,"refunded_amount":0,"transaction":"tx-1","settled":"2024-01-01T10:00:00.000+00:00"}`))
			})

			charge, err := tt.call(c)
			require.NoError(t, err)
			assert.Equal(t, "ORD-1", charge.Handle)
			assert.Equal(t, ChargeStateSettled, charge.State)
			assert.Equal(t, "tx-1", charge.Transaction)
			assert.Equal(t, "2024-01-01T10:00:00.000+00:00", charge.Settled)
		})
	}
}

func TestClient_HandleIsEscaped(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/charge/a%2Fb", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"handle":"a/b","state":"pending"}`))
	})

	_, err := c.GetCharge(context.Background(), "a/b")
	require.NoError(t, err)
}

func TestClient_EmptyHandle(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	})

	_, err := c.GetCharge(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyHandle)
	_, err = c.GetSubscription(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyHandle)
	_, err = c.CreateRefund(context.Background(), &CreateRefundRequest{})
	assert.ErrorIs(t, err, ErrEmptyHandle)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestClient_GatewayError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":41,"error":"Invalid amount","message":"amount must be positive","path":"/v1/charge/ORD-1/settle","timestamp":"2024-01-01T10:00:00.000+00:00","http_status":400,"http_reason":"Bad Request","request_id":"req-9"}`))
	})

	charge, err := c.SettleCharge(context.Background(), "ORD-1", nil)
	require.Error(t, err)
	assert.Nil(t, charge)

	gwErr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, 41, gwErr.Code)
	assert.Equal(t, "Invalid amount", gwErr.ErrorText)
	assert.Equal(t, "amount must be positive", gwErr.Message)
	assert.Equal(t, http.StatusBadRequest, gwErr.HTTPStatus)
	assert.Equal(t, "req-9", gwErr.RequestID)
	assert.Equal(t, "/v1/charge/ORD-1/settle", gwErr.Path)
	assert.False(t, errors.Is(err, ErrTransport))
}

func TestClient_GatewayErrorWithoutBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req-10")
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetSubscription(context.Background(), "sub-1")
	gwErr, ok := AsGatewayError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, gwErr.HTTPStatus)
	assert.Equal(t, "Not Found", gwErr.HTTPReason)
	assert.Equal(t, "/v1/subscription/sub-1", gwErr.Path)
	assert.Equal(t, "req-10", gwErr.RequestID)
}

func TestClient_Canceled(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	charge, err := c.GetCharge(ctx, "ORD-1")
	require.Error(t, err)
	assert.Nil(t, charge)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Config{PrivateKey: "k", APIBaseURL: url, Timeout: time.Second})
	_, err := c.GetCharge(context.Background(), "ORD-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrCanceled)
	_, isGateway := AsGatewayError(err)
	assert.False(t, isGateway)
}

func TestClient_Refund(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refund", r.URL.Path)
		var req CreateRefundRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ORD-1", req.Invoice)
		assert.Equal(t, int64(250), req.Amount)
		_, _ = w.Write([]byte(`{"id":"rf_1","state":"processing","invoice":"ORD-1","amount":250,"currency":"DKK"}`))
	})

	refund, err := c.CreateRefund(context.Background(), &CreateRefundRequest{Invoice: "ORD-1", Amount: 250})
	require.NoError(t, err)
	assert.Equal(t, RefundStateProcessing, refund.State)
}

func TestClient_Subscriptions(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/subscription":
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, SignupMethodSource, body["signup_method"])
			assert.Equal(t, "gold", body["plan"])
		case "/v1/subscription/sub-1/cancel", "/v1/subscription/sub-1/uncancel", "/v1/subscription/sub-1":
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"handle":"sub-1","customer":"cust-1","plan":"gold","state":"active"}`))
	})
	ctx := context.Background()

	sub, err := c.CreateSubscription(ctx, &CreateSubscriptionRequest{Plan: "gold", Customer: "cust-1"})
	require.NoError(t, err)
	assert.Equal(t, "active", sub.State)

	_, err = c.GetSubscription(ctx, "sub-1")
	require.NoError(t, err)
	_, err = c.CancelSubscription(ctx, "sub-1", nil)
	require.NoError(t, err)
	_, err = c.UncancelSubscription(ctx, "sub-1")
	require.NoError(t, err)
}

func TestClient_GetInvoiceMetadata(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/invoice/inv-1/metadata", r.URL.Path)
		_, _ = w.Write([]byte(`{"orderId":"abc","attempt":3,"test":true,"note":null,"nested":{"a":1}}`))
	})

	md, err := c.GetInvoiceMetadata(context.Background(), "inv-1")
	require.NoError(t, err)
	assert.Equal(t, MetadataString, md["orderId"].Kind())
	assert.Equal(t, "abc", md["orderId"].String())
	n, ok := md["attempt"].Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)
	b, ok := md["test"].Bool()
	assert.True(t, ok)
	assert.True(t, b)
	assert.Equal(t, MetadataNull, md["note"].Kind())
	assert.Equal(t, `{"a":1}`, md["nested"].String())
}

func TestMetadata_MarshalRoundTrip(t *testing.T) {
	md := Metadata{"s": StringValue("x"), "n": NumberValue(7), "b": BoolValue(false), "z": {}}
	raw, err := json.Marshal(md)
	require.NoError(t, err)
	assert.JSONEq(t, `{"s":"x","n":7,"b":false,"z":null}`, string(raw))
}
