package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/campushub/internal/database/testutil"
	"github.com/charlesng35/campushub/internal/gateway"
	"github.com/charlesng35/campushub/internal/models"
	"github.com/charlesng35/campushub/internal/services"
)

type noopProvider struct{}

func (noopProvider) CreateOrder(_ context.Context, amount int64, currency, receipt string) (*gateway.Order, error) {
	return &gateway.Order{ID: "order_noop", Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func (noopProvider) VerifySignature(_, _, _ string) bool { return true }

func newTestCleaner(t *testing.T) (*Cleaner, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	store, err := services.NewNotificationService(db)
	require.NoError(t, err)
	dispatcher, err := services.NewDispatcher(db, store, nil)
	require.NoError(t, err)
	payments, err := services.NewPaymentService(db, noopProvider{}, dispatcher, "")
	require.NoError(t, err)

	cleaner := NewCleaner(db, audit, payments,
		WithAuditRetentionDays(30),
		WithPaymentExpiry(15*time.Minute),
	)
	return cleaner, db
}

func TestRunOncePrunesStaleRecords(t *testing.T) {
	cleaner, db := newTestCleaner(t)
	ctx := context.Background()

	// One audit row beyond retention, one fresh.
	old := models.AuditLog{Action: "auth.login", Result: "success"}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("id = ?", old.ID).
		Update("created_at", time.Now().Add(-40*24*time.Hour)).Error)
	fresh := models.AuditLog{Action: "auth.login", Result: "success"}
	require.NoError(t, db.Create(&fresh).Error)

	// One pending payment past the expiry window.
	stale := models.Payment{
		UserID:          "2b0a4e61-52cc-4f0f-8a5e-000000000001",
		Amount:          5000,
		Currency:        "INR",
		Purpose:         models.PurposeOther,
		Status:          models.PaymentPending,
		ProviderOrderID: "order_stale",
		Receipt:         "rcpt_stale",
	}
	require.NoError(t, db.Create(&stale).Error)
	require.NoError(t, db.Model(&models.Payment{}).
		Where("id = ?", stale.ID).
		Update("created_at", time.Now().Add(-time.Hour)).Error)

	// One cache entry already expired.
	require.NoError(t, db.Create(&models.CacheEntry{
		Key:       "ratelimit:10.0.0.1|/api/blogs",
		Value:     []byte("3"),
		ExpiresAt: time.Now().Add(-time.Minute),
	}).Error)

	require.NoError(t, cleaner.RunOnce(ctx))

	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&auditCount).Error)
	require.EqualValues(t, 1, auditCount)

	var swept models.Payment
	require.NoError(t, db.First(&swept, "id = ?", stale.ID).Error)
	require.Equal(t, models.PaymentFailed, swept.Status)

	var cacheCount int64
	require.NoError(t, db.Model(&models.CacheEntry{}).Count(&cacheCount).Error)
	require.EqualValues(t, 0, cacheCount)
}

func TestRunOnceLeavesFreshRecords(t *testing.T) {
	cleaner, db := newTestCleaner(t)
	ctx := context.Background()

	pending := models.Payment{
		UserID:          "2b0a4e61-52cc-4f0f-8a5e-000000000002",
		Amount:          2500,
		Currency:        "INR",
		Purpose:         models.PurposeOther,
		Status:          models.PaymentPending,
		ProviderOrderID: "order_fresh",
		Receipt:         "rcpt_fresh",
	}
	require.NoError(t, db.Create(&pending).Error)

	require.NoError(t, db.Create(&models.CacheEntry{
		Key:       "ratelimit:10.0.0.2|/api/blogs",
		Value:     []byte("1"),
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	require.NoError(t, cleaner.RunOnce(ctx))

	var kept models.Payment
	require.NoError(t, db.First(&kept, "id = ?", pending.ID).Error)
	require.Equal(t, models.PaymentPending, kept.Status)

	var cacheCount int64
	require.NoError(t, db.Model(&models.CacheEntry{}).Count(&cacheCount).Error)
	require.EqualValues(t, 1, cacheCount)
}

func TestCleanerStartAndStop(t *testing.T) {
	cleaner, _ := newTestCleaner(t)
	require.NoError(t, cleaner.Start())
	<-cleaner.Stop().Done()
}
