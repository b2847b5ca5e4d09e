package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/campushub/internal/models"
	"github.com/charlesng35/campushub/internal/services"
	"github.com/charlesng35/campushub/pkg/logger"
)

const (
	defaultAuditRetentionDays = 90
	defaultPaymentExpiry      = 30 * time.Minute
	defaultAuditSpec          = "@daily"
	defaultPaymentSpec        = "@every 5m"
	defaultCacheSpec          = "@hourly"
)

// Cleaner coordinates background maintenance tasks: pruning stale audit logs,
// expiring payments that were never verified, and purging dead cache entries.
type Cleaner struct {
	db       *gorm.DB
	audit    *services.AuditService
	payments *services.PaymentService
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger
	enabled  bool

	retention     int
	paymentExpiry time.Duration

	auditSchedule   string
	paymentSchedule string
	cacheSchedule   string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for cleanup comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithAuditRetentionDays adjusts how long audit logs are retained before cleanup.
func WithAuditRetentionDays(days int) Option {
	return func(cleaner *Cleaner) {
		if days > 0 {
			cleaner.retention = days
		}
	}
}

// WithPaymentExpiry adjusts how long a pending payment may sit unverified
// before its contest slot is released.
func WithPaymentExpiry(d time.Duration) Option {
	return func(cleaner *Cleaner) {
		if d > 0 {
			cleaner.paymentExpiry = d
		}
	}
}

// WithAuditSchedule overrides the cron specification for audit retention enforcement.
func WithAuditSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.auditSchedule = spec
		}
	}
}

// WithPaymentSchedule overrides the cron specification for the pending payment sweep.
func WithPaymentSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.paymentSchedule = spec
		}
	}
}

// WithCacheSchedule overrides the cron specification for cache entry purging.
func WithCacheSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.cacheSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults. Any nil dependency
// results in the corresponding cleanup job being skipped.
func NewCleaner(db *gorm.DB, audit *services.AuditService, payments *services.PaymentService, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:              db,
		audit:           audit,
		payments:        payments,
		now:             time.Now,
		retention:       defaultAuditRetentionDays,
		paymentExpiry:   defaultPaymentExpiry,
		auditSchedule:   defaultAuditSpec,
		paymentSchedule: defaultPaymentSpec,
		cacheSchedule:   defaultCacheSpec,
		log:             logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	cleaner.enabled = cleaner.audit != nil || cleaner.payments != nil || cleaner.db != nil

	return cleaner
}

// Start registers cleanup jobs with the cron scheduler and launches it if at
// least one cleanup is enabled.
func (c *Cleaner) Start() error {
	if !c.enabled {
		return nil
	}

	if c.audit != nil && c.retention > 0 {
		if _, err := c.cron.AddFunc(c.auditSchedule, func() {
			if _, err := c.audit.CleanupOlderThan(context.Background(), c.retention); err != nil {
				c.log.Warn("audit cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.payments != nil {
		if _, err := c.cron.AddFunc(c.paymentSchedule, func() {
			if _, err := c.payments.ExpirePending(context.Background(), c.paymentExpiry); err != nil {
				c.log.Warn("pending payment sweep failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	if c.db != nil {
		if _, err := c.cron.AddFunc(c.cacheSchedule, func() {
			if _, err := CleanupCacheEntries(context.Background(), c.db, c.now()); err != nil {
				c.log.Warn("cache cleanup failed", zap.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce executes all configured cleanup routines sequentially. Primarily
// used in tests and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error

	if c.audit != nil && c.retention > 0 {
		if _, err := c.audit.CleanupOlderThan(ctx, c.retention); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.payments != nil {
		if _, err := c.payments.ExpirePending(ctx, c.paymentExpiry); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	if c.db != nil {
		if _, err := CleanupCacheEntries(ctx, c.db, c.now()); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// CleanupCacheEntries removes cache rows whose expiry has passed.
func CleanupCacheEntries(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, nil
	}

	res := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.CacheEntry{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
