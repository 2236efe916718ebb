package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/authgate/internal/models"
	"github.com/charlesng35/authgate/pkg/logger"
)

const defaultTokenSpec = "@hourly"

// Cleaner periodically clears verification and reset token columns whose
// expiry has passed. Expired tokens already fail lookup; the cleaner only
// keeps the store tidy.
type Cleaner struct {
	db   *gorm.DB
	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger

	tokenSchedule string
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

// WithNow overrides the clock used for expiry comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithTokenSchedule overrides the cron specification for token cleanup.
func WithTokenSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.tokenSchedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		db:            db,
		now:           time.Now,
		tokenSchedule: defaultTokenSpec,
		log:           logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner
}

// Start registers the cleanup job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if c.db == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.tokenSchedule, func() {
		if _, err := CleanupExpiredTokens(context.Background(), c.db, c.now()); err != nil {
			c.log.Warn("token cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
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

// RunOnce executes the cleanup routine immediately. Primarily used in tests
// and during graceful shutdown.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, err := CleanupExpiredTokens(ctx, c.db, c.now())
	return err
}

// CleanupExpiredTokens nulls out verification and reset token columns whose
// expiry precedes the reference time. It returns the number of rows touched.
func CleanupExpiredTokens(ctx context.Context, db *gorm.DB, reference time.Time) (int64, error) {
	var total int64

	res := db.WithContext(ctx).
		Model(&models.User{}).
		Where("verification_token IS NOT NULL AND verification_expires_at <= ?", reference).
		Updates(map[string]any{
			"verification_token":      nil,
			"verification_expires_at": nil,
		})
	if res.Error != nil {
		return total, res.Error
	}
	total += res.RowsAffected

	res = db.WithContext(ctx).
		Model(&models.User{}).
		Where("reset_password_token IS NOT NULL AND reset_password_expires_at <= ?", reference).
		Updates(map[string]any{
			"reset_password_token":      nil,
			"reset_password_expires_at": nil,
		})
	if res.Error != nil {
		return total, res.Error
	}
	total += res.RowsAffected

	return total, nil
}
