package telegram

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.telegram.org"

// BotAPI provides a direct Telegram Bot API client for outgoing messages.
type BotAPI struct {
	client *resty.Client
}

// NewBotAPI creates a new direct Telegram Bot API client.
func NewBotAPI(token string) *BotAPI {
	return NewBotAPIWithBaseURL(defaultBaseURL, token)
}

// NewBotAPIWithBaseURL creates a client for a Bot API server at baseURL.
func NewBotAPIWithBaseURL(baseURL, token string) *BotAPI {
	return &BotAPI{
		client: resty.New().SetBaseURL(baseURL + "/bot" + token),
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Call makes a raw API call to the Telegram Bot API.
func (b *BotAPI) Call(ctx context.Context, method string, params map[string]interface{}) error {
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(params).
		Post("/" + method)
	if err != nil {
		return fmt.Errorf("telegram API call %s failed: %w", method, err)
	}

	var out apiResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return fmt.Errorf("telegram API call %s: http %d: %w", method, resp.StatusCode(), err)
	}
	if !out.OK {
		return fmt.Errorf("telegram API call %s: %d %s", method, out.ErrorCode, out.Description)
	}
	return nil
}

// SendMessage sends an HTML text message.
func (b *BotAPI) SendMessage(ctx context.Context, chatID, text string) error {
	return b.Call(ctx, "sendMessage", map[string]interface{}{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	})
}
