package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"reepaygw/internal/models"
	"reepaygw/internal/payment"
)

// ErrConcurrentUpdate is returned when a status update keeps losing to
// concurrent writers.
var ErrConcurrentUpdate = errors.New("payment session changed concurrently")

// unresolvedStatuses are polled until the gateway reports a final state.
var unresolvedStatuses = []string{
	string(payment.StatusInitialized),
	string(payment.StatusAuthorized),
	string(payment.StatusPendingExternalSystem),
}

// PaymentSessionRepository handles checkout attempt persistence.
type PaymentSessionRepository struct {
	db *gorm.DB
}

func NewPaymentSessionRepository(db *gorm.DB) *PaymentSessionRepository {
	return &PaymentSessionRepository{db: db}
}

// Create stores a new checkout attempt. A new attempt for an order that
// already has one replaces its session fields and keeps its status.
func (r *PaymentSessionRepository) Create(session *models.PaymentSession) error {
	if session.Status == "" {
		session.Status = string(payment.StatusInitialized)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.PaymentSession
		err := tx.Where("order_id = ?", session.OrderID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(session).Error
		}
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"order_number":    session.OrderNumber,
			"charge_handle":   session.ChargeHandle,
			"session_id":      session.SessionID,
			"customer_handle": session.CustomerHandle,
			"amount":          session.Amount,
			"currency":        session.Currency,
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(session, existing.ID).Error
	})
}

// FindByOrderID returns the session of an order.
func (r *PaymentSessionRepository) FindByOrderID(orderID string) (*models.PaymentSession, error) {
	var s models.PaymentSession
	if err := r.db.Where("order_id = ?", orderID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindByChargeHandle returns the session whose charge has the given handle.
func (r *PaymentSessionRepository) FindByChargeHandle(handle string) (*models.PaymentSession, error) {
	var s models.PaymentSession
	if err := r.db.Where("charge_handle = ?", handle).Order("id DESC").First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// FindUnresolved returns sessions in a non-final status that were last
// touched before updatedBefore and created after createdAfter. Sessions
// never polled come first, then the least recently polled, so sessions
// that stay unresolved rotate through the batches.
func (r *PaymentSessionRepository) FindUnresolved(updatedBefore, createdAfter time.Time, limit int) ([]models.PaymentSession, error) {
	if limit <= 0 {
		limit = 100
	}
	var sessions []models.PaymentSession
	err := r.db.
		Where("status IN ? AND updated_at < ? AND created_at > ?", unresolvedStatuses, updatedBefore, createdAfter).
		Order("polled_at IS NOT NULL, polled_at ASC, updated_at ASC, id ASC").
		Limit(limit).
		Find(&sessions).Error
	return sessions, err
}

// MarkPolled records that the sessions were checked at the given time. It
// leaves updated_at alone so the quiet period still follows real changes.
func (r *PaymentSessionRepository) MarkPolled(ids []uint, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.PaymentSession{}).
		Where("id IN ?", ids).
		UpdateColumn("polled_at", at).Error
}

// FindAll returns sessions with pagination and an optional status filter.
func (r *PaymentSessionRepository) FindAll(limit, page int, status string) ([]models.PaymentSession, int64, error) {
	var sessions []models.PaymentSession
	var total int64

	db := r.db.Model(&models.PaymentSession{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	if err := db.Limit(limit).Offset(offset).Order("id DESC").Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// Transition describes a status change applied by ApplyStatus.
type Transition struct {
	Session *models.PaymentSession
	From    payment.PaymentStatus
	To      payment.PaymentStatus
}

// Changed reports whether the stored status moved.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// ApplyStatus moves the session of orderID towards next using
// payment.Advance, so a late or repeated observation never regresses a
// final status. The update is a compare-and-swap on the stored status.
func (r *PaymentSessionRepository) ApplyStatus(orderID string, next payment.PaymentStatus, txID, eventID, source string) (*Transition, error) {
	for attempt := 0; attempt < 3; attempt++ {
		t, err := r.applyOnce(orderID, next, txID, eventID, source)
		if errors.Is(err, ErrConcurrentUpdate) {
			continue
		}
		return t, err
	}
	return nil, fmt.Errorf("apply status %s to order %s: %w", next, orderID, ErrConcurrentUpdate)
}

func (r *PaymentSessionRepository) applyOnce(orderID string, next payment.PaymentStatus, txID, eventID, source string) (*Transition, error) {
	var t *Transition
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var s models.PaymentSession
		if err := tx.Where("order_id = ?", orderID).First(&s).Error; err != nil {
			return err
		}

		current := payment.PaymentStatus(s.Status)
		target := payment.Advance(current, next)
		t = &Transition{Session: &s, From: current, To: target}
		if target == current {
			return nil
		}

		updates := map[string]interface{}{"status": string(target)}
		if txID != "" {
			updates["transaction_id"] = txID
		}
		if eventID != "" {
			updates["last_event_id"] = eventID
		}
		res := tx.Model(&models.PaymentSession{}).
			Where("id = ? AND status = ?", s.ID, s.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}

		if err := tx.Create(&models.PaymentEvent{
			OrderID:       orderID,
			Source:        source,
			EventID:       eventID,
			FromStatus:    string(current),
			ToStatus:      string(target),
			TransactionID: txID,
		}).Error; err != nil {
			return err
		}

		return tx.First(&s, s.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Events returns the transitions recorded for an order, oldest first.
func (r *PaymentSessionRepository) Events(orderID string) ([]models.PaymentEvent, error) {
	var events []models.PaymentEvent
	err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&events).Error
	return events, err
}
