package notify

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"

	"reepaygw/internal/models"
	"reepaygw/internal/payment"
	"reepaygw/internal/pkg/telegram"
)

// Notifier reports payment transitions to operators.
type Notifier interface {
	PaymentChanged(ctx context.Context, session *models.PaymentSession, from, to payment.PaymentStatus)
}

// Nop discards every report.
type Nop struct{}

func (Nop) PaymentChanged(context.Context, *models.PaymentSession, payment.PaymentStatus, payment.PaymentStatus) {
}

// TelegramNotifier posts captured and refunded payments to a channel.
type TelegramNotifier struct {
	bot       *telegram.BotAPI
	channelID string
	logger    *zap.Logger
}

// New returns a Telegram notifier, or Nop when token or channel is empty.
func New(token, channelID string, logger *zap.Logger) Notifier {
	if token == "" || channelID == "" {
		return Nop{}
	}
	return NewTelegramNotifier(telegram.NewBotAPI(token), channelID, logger)
}

func NewTelegramNotifier(bot *telegram.BotAPI, channelID string, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, channelID: channelID, logger: logger}
}

func (n *TelegramNotifier) PaymentChanged(ctx context.Context, s *models.PaymentSession, from, to payment.PaymentStatus) {
	if from == to || (to != payment.StatusCaptured && to != payment.StatusRefunded) {
		return
	}
	if err := n.bot.SendMessage(ctx, n.channelID, Report(s, to)); err != nil {
		n.logger.Warn("Failed to send payment report",
			zap.String("order_id", s.OrderID),
			zap.Error(err),
		)
	}
}

// Report renders the channel message for a transition into status.
func Report(s *models.PaymentSession, status payment.PaymentStatus) string {
	title := "💵 Payment captured"
	if status == payment.StatusRefunded {
		title = "↩️ Payment refunded"
	}
	amount := payment.Money{Amount: s.Amount, Currency: s.Currency}
	return fmt.Sprintf(
		"<b>%s</b>\n\nOrder: %s\nAmount: %s\nTransaction: %s",
		title,
		html.EscapeString(s.OrderID),
		html.EscapeString(amount.String()),
		html.EscapeString(s.TransactionID),
	)
}
