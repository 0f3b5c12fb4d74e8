package models

import "time"

// PaymentSession stores one checkout attempt and the last known payment status.
type PaymentSession struct {
	ID             uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID        string     `gorm:"column:order_id;size:100;uniqueIndex" json:"order_id"`
	OrderNumber    string     `gorm:"column:order_number;size:100" json:"order_number"`
	ChargeHandle   string     `gorm:"column:charge_handle;size:255;index:idx_payment_sessions_charge_handle" json:"charge_handle"`
	SessionID      string     `gorm:"column:session_id;size:255" json:"session_id"`
	CustomerHandle string     `gorm:"column:customer_handle;size:255" json:"customer_handle"`
	Amount         int64      `gorm:"column:amount" json:"amount"`
	Currency       string     `gorm:"column:currency;size:3" json:"currency"`
	Status         string     `gorm:"column:status;size:40;index:idx_payment_sessions_status" json:"status"`
	TransactionID  string     `gorm:"column:transaction_id;size:255" json:"transaction_id"`
	LastEventID    string     `gorm:"column:last_event_id;size:255" json:"last_event_id"`
	PolledAt       *time.Time `gorm:"column:polled_at;index:idx_payment_sessions_polled_at" json:"polled_at,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (PaymentSession) TableName() string {
	return "payment_sessions"
}

// PaymentEvent records one applied status transition.
type PaymentEvent struct {
	ID            uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrderID       string    `gorm:"column:order_id;size:100;index:idx_payment_events_order" json:"order_id"`
	Source        string    `gorm:"column:source;size:20" json:"source"`
	EventID       string    `gorm:"column:event_id;size:255" json:"event_id"`
	FromStatus    string    `gorm:"column:from_status;size:40" json:"from_status"`
	ToStatus      string    `gorm:"column:to_status;size:40" json:"to_status"`
	TransactionID string    `gorm:"column:transaction_id;size:255" json:"transaction_id"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (PaymentEvent) TableName() string {
	return "payment_events"
}

// Transition sources.
const (
	SourceWebhook  = "webhook"
	SourcePoll     = "poll"
	SourceAPI      = "api"
	SourceRedirect = "redirect"
)
