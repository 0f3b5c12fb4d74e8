package reepay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reepaygw/internal/pkg/httpclient"
)

const (
	DefaultCheckoutBaseURL = "https://checkout-api.reepay.com"
	DefaultAPIBaseURL      = "https://api.reepay.com"
	DefaultTimeout         = 5 * time.Minute
)

// Config holds the credentials and endpoints of one Reepay account.
type Config struct {
	PrivateKey      string
	CheckoutBaseURL string
	APIBaseURL      string
	Timeout         time.Duration
}

// Client talks to the Reepay checkout and REST APIs. It is safe for
// concurrent use.
type Client struct {
	checkoutURL string
	apiURL      string
	http        *httpclient.Client
}

// Option customizes a Client.
type Option func(*httpclient.Client)

// WithTransport routes requests through rt.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *httpclient.Client) {
		c.WithTransport(rt)
	}
}

// NewClient creates a client for cfg. Missing URLs and timeout fall back to
// the production defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.CheckoutBaseURL == "" {
		cfg.CheckoutBaseURL = DefaultCheckoutBaseURL
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	hc := httpclient.New().
		WithTimeout(cfg.Timeout).
		WithRetries(0).
		WithBasicAuth(cfg.PrivateKey, "").
		WithHeader("Content-Type", "application/json").
		WithHeader("Accept", "application/json").
		WithHeader("Cache-Control", "no-cache")
	for _, opt := range opts {
		opt(hc)
	}

	return &Client{
		checkoutURL: strings.TrimRight(cfg.CheckoutBaseURL, "/"),
		apiURL:      strings.TrimRight(cfg.APIBaseURL, "/"),
		http:        hc,
	}
}

// AuthorizationHeader returns the header value sent with every call.
func AuthorizationHeader(privateKey string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(privateKey+":"))
}

// ── Sessions ─────────────────────────────────────────────────────────

func (c *Client) CreateChargeSession(ctx context.Context, req *ChargeSessionRequest) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.call(ctx, http.MethodPost, c.checkoutURL, "/v1/session/charge", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateRecurringSession(ctx context.Context, req *RecurringSessionRequest) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.call(ctx, http.MethodPost, c.checkoutURL, "/v1/session/recurring", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Charges ──────────────────────────────────────────────────────────

func (c *Client) GetCharge(ctx context.Context, handle string) (*Charge, error) {
	path, err := handlePath("/v1/charge/%s", handle)
	if err != nil {
		return nil, err
	}
	var out Charge
	if err := c.call(ctx, http.MethodGet, c.apiURL, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelCharge(ctx context.Context, handle string) (*Charge, error) {
	path, err := handlePath("/v1/charge/%s/cancel", handle)
	if err != nil {
		return nil, err
	}
	var out Charge
	if err := c.call(ctx, http.MethodPost, c.apiURL, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SettleCharge(ctx context.Context, handle string, req *SettleChargeRequest) (*Charge, error) {
	path, err := handlePath("/v1/charge/%s/settle", handle)
	if err != nil {
		return nil, err
	}
	if req == nil {
		req = &SettleChargeRequest{}
	}
	var out Charge
	if err := c.call(ctx, http.MethodPost, c.apiURL, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Refunds ──────────────────────────────────────────────────────────

func (c *Client) CreateRefund(ctx context.Context, req *CreateRefundRequest) (*Refund, error) {
	if req == nil || strings.TrimSpace(req.Invoice) == "" {
		return nil, ErrEmptyHandle
	}
	var out Refund
	if err := c.call(ctx, http.MethodPost, c.apiURL, "/v1/refund", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Subscriptions ────────────────────────────────────────────────────

func (c *Client) CreateSubscription(ctx context.Context, req *CreateSubscriptionRequest) (*Subscription, error) {
	if req != nil && req.SignupMethod == "" {
		req.SignupMethod = SignupMethodSource
	}
	var out Subscription
	if err := c.call(ctx, http.MethodPost, c.apiURL, "/v1/subscription", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSubscription(ctx context.Context, handle string) (*Subscription, error) {
	path, err := handlePath("/v1/subscription/%s", handle)
	if err != nil {
		return nil, err
	}
	var out Subscription
	if err := c.call(ctx, http.MethodGet, c.apiURL, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelSubscription(ctx context.Context, handle string, req *CancelSubscriptionRequest) (*Subscription, error) {
	path, err := handlePath("/v1/subscription/%s/cancel", handle)
	if err != nil {
		return nil, err
	}
	if req == nil {
		req = &CancelSubscriptionRequest{}
	}
	var out Subscription
	if err := c.call(ctx, http.MethodPost, c.apiURL, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UncancelSubscription(ctx context.Context, handle string) (*Subscription, error) {
	path, err := handlePath("/v1/subscription/%s/uncancel", handle)
	if err != nil {
		return nil, err
	}
	var out Subscription
	if err := c.call(ctx, http.MethodPost, c.apiURL, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Invoices ─────────────────────────────────────────────────────────

func (c *Client) GetInvoiceMetadata(ctx context.Context, handle string) (Metadata, error) {
	path, err := handlePath("/v1/invoice/%s/metadata", handle)
	if err != nil {
		return nil, err
	}
	out := Metadata{}
	if err := c.call(ctx, http.MethodGet, c.apiURL, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// call performs one exchange. On a non-2xx status the body is decoded as a
// GatewayError and out is left untouched.
func (c *Client) call(ctx context.Context, method, base, path string, body, out interface{}) error {
	op := method + " " + path

	resp, err := c.http.Do(ctx, method, base+path, body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return &TransportError{Op: op, Err: err}
	}

	if !resp.IsSuccess() {
		return decodeGatewayError(resp, path)
	}

	if out == nil {
		return nil
	}
	if len(resp.Body) == 0 {
		return &TransportError{Op: op, Err: fmt.Errorf("empty response body with status %d", resp.StatusCode)}
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func decodeGatewayError(resp *httpclient.Response, path string) *GatewayError {
	gwErr := &GatewayError{}
	if len(resp.Body) > 0 {
		// Bodies that are not JSON still produce a GatewayError from the status.
		_ = json.Unmarshal(resp.Body, gwErr)
	}
	gwErr.HTTPStatus = resp.StatusCode
	if gwErr.HTTPReason == "" {
		gwErr.HTTPReason = http.StatusText(resp.StatusCode)
	}
	if gwErr.Path == "" {
		gwErr.Path = path
	}
	if gwErr.RequestID == "" {
		gwErr.RequestID = resp.Header.Get("X-Request-Id")
	}
	return gwErr
}

func handlePath(format, handle string) (string, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return "", ErrEmptyHandle
	}
	return fmt.Sprintf(format, url.PathEscape(handle)), nil
}
