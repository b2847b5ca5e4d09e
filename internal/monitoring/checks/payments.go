package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/campushub/internal/models"
	"github.com/charlesng35/campushub/internal/monitoring"
)

const defaultPendingThreshold = 50

// PendingPayments degrades when stale pending payments pile up, which points
// at a stuck verification flow or a dead provider.
func PendingPayments(db *gorm.DB, olderThan time.Duration, threshold int64) monitoring.Check {
	if threshold <= 0 {
		threshold = defaultPendingThreshold
	}
	return monitoring.NewCheck("payments", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDown,
				Details:  "database not configured",
				Duration: time.Since(start),
			}
		}

		cutoff := time.Now().UTC().Add(-olderThan)

		var backlog int64
		err := db.WithContext(ctx).
			Model(&models.Payment{}).
			Where("status = ? AND created_at < ?", models.PaymentPending, cutoff).
			Count(&backlog).Error
		if err != nil {
			return monitoring.ResultFromError("payments", err, time.Since(start))
		}

		if backlog >= threshold {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  fmt.Sprintf("%d stale pending payments", backlog),
				Duration: time.Since(start),
			}
		}

		return monitoring.ProbeResult{
			Status:   monitoring.StatusUp,
			Duration: time.Since(start),
		}
	})
}
