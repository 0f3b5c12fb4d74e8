package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"reepaygw/internal/models"
	"reepaygw/internal/payment"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.PaymentSession{}, &models.PaymentEvent{}))
	return db
}

func createSession(t *testing.T, repo *PaymentSessionRepository, orderID string) *models.PaymentSession {
	s := &models.PaymentSession{
		OrderID:      orderID,
		OrderNumber:  "N-" + orderID,
		ChargeHandle: "N-" + orderID,
		SessionID:    "cs_" + orderID,
		Amount:       12500,
		Currency:     "DKK",
	}
	require.NoError(t, repo.Create(s))
	return s
}

func TestPaymentSessionRepository_Create(t *testing.T) {
	repo := NewPaymentSessionRepository(setupTestDB(t))

	t.Run("new session starts initialized", func(t *testing.T) {
		s := createSession(t, repo, "o1")
		assert.NotZero(t, s.ID)
		assert.Equal(t, string(payment.StatusInitialized), s.Status)

		found, err := repo.FindByOrderID("o1")
		require.NoError(t, err)
		assert.Equal(t, "cs_o1", found.SessionID)
	})

	t.Run("retry replaces session fields and keeps status", func(t *testing.T) {
		_, err := repo.ApplyStatus("o1", payment.StatusPendingExternalSystem, "", "", models.SourcePoll)
		require.NoError(t, err)

		retry := &models.PaymentSession{OrderID: "o1", ChargeHandle: "N-o1", SessionID: "cs_o1_b", Amount: 12500, Currency: "DKK"}
		require.NoError(t, repo.Create(retry))

		found, err := repo.FindByOrderID("o1")
		require.NoError(t, err)
		assert.Equal(t, "cs_o1_b", found.SessionID)
		assert.Equal(t, string(payment.StatusPendingExternalSystem), found.Status)
		assert.Equal(t, found.ID, retry.ID)
	})

	t.Run("find by charge handle", func(t *testing.T) {
		found, err := repo.FindByChargeHandle("N-o1")
		require.NoError(t, err)
		assert.Equal(t, "o1", found.OrderID)

		_, err = repo.FindByChargeHandle("missing")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestPaymentSessionRepository_ApplyStatus(t *testing.T) {
	repo := NewPaymentSessionRepository(setupTestDB(t))
	createSession(t, repo, "o1")

	tr, err := repo.ApplyStatus("o1", payment.StatusCaptured, "tx_1", "evt_1", models.SourceWebhook)
	require.NoError(t, err)
	assert.True(t, tr.Changed())
	assert.Equal(t, payment.StatusInitialized, tr.From)
	assert.Equal(t, payment.StatusCaptured, tr.To)
	assert.Equal(t, "tx_1", tr.Session.TransactionID)
	assert.Equal(t, "evt_1", tr.Session.LastEventID)

	// a redelivery is a no-op
	tr, err = repo.ApplyStatus("o1", payment.StatusCaptured, "tx_1", "evt_1", models.SourceWebhook)
	require.NoError(t, err)
	assert.False(t, tr.Changed())

	// a late authorization does not regress a captured payment
	tr, err = repo.ApplyStatus("o1", payment.StatusAuthorized, "", "evt_0", models.SourceWebhook)
	require.NoError(t, err)
	assert.False(t, tr.Changed())
	assert.Equal(t, string(payment.StatusCaptured), tr.Session.Status)

	tr, err = repo.ApplyStatus("o1", payment.StatusRefunded, "", "", models.SourceAPI)
	require.NoError(t, err)
	assert.True(t, tr.Changed())
	assert.Equal(t, "tx_1", tr.Session.TransactionID, "empty transaction ids keep the stored one")

	events, err := repo.Events("o1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, string(payment.StatusCaptured), events[0].ToStatus)
	assert.Equal(t, models.SourceWebhook, events[0].Source)
	assert.Equal(t, string(payment.StatusRefunded), events[1].ToStatus)

	_, err = repo.ApplyStatus("missing", payment.StatusCaptured, "", "", models.SourceWebhook)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPaymentSessionRepository_FindUnresolved(t *testing.T) {
	repo := NewPaymentSessionRepository(setupTestDB(t))
	createSession(t, repo, "open")
	createSession(t, repo, "done")
	_, err := repo.ApplyStatus("done", payment.StatusCaptured, "", "", models.SourceWebhook)
	require.NoError(t, err)

	now := time.Now()
	sessions, err := repo.FindUnresolved(now.Add(time.Minute), now.Add(-time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "open", sessions[0].OrderID)

	sessions, err = repo.FindUnresolved(now.Add(-time.Hour), now.Add(-2*time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestPaymentSessionRepository_FindAll(t *testing.T) {
	repo := NewPaymentSessionRepository(setupTestDB(t))
	for _, id := range []string{"a", "b", "c"} {
		createSession(t, repo, id)
	}
	_, err := repo.ApplyStatus("b", payment.StatusAuthorized, "", "", models.SourceWebhook)
	require.NoError(t, err)

	all, total, err := repo.FindAll(2, 1, "")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 2)

	authorized, total, err := repo.FindAll(0, 0, string(payment.StatusAuthorized))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "b", authorized[0].OrderID)
}

func TestPaymentSessionRepository_MarkPolled(t *testing.T) {
	repo := NewPaymentSessionRepository(setupTestDB(t))
	first := createSession(t, repo, "first")
	createSession(t, repo, "second")
	now := time.Now()

	require.NoError(t, repo.MarkPolled([]uint{first.ID}, now))
	require.NoError(t, repo.MarkPolled(nil, now))

	sessions, err := repo.FindUnresolved(now.Add(time.Minute), now.Add(-time.Hour), 1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "second", sessions[0].OrderID, "never polled sessions come first")

	found, err := repo.FindByOrderID("first")
	require.NoError(t, err)
	require.NotNil(t, found.PolledAt)
	assert.Equal(t, first.UpdatedAt.Unix(), found.UpdatedAt.Unix(), "polling does not touch updated_at")
}
