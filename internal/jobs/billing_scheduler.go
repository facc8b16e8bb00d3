package jobs

import (
	"context"
	"fmt"
	"time"

	"qr_dine_backend/internal/services"
	"qr_dine_backend/pkg/utils"
)

// BillingRunner is the part of the billing service the scheduler drives.
type BillingRunner interface {
	RunDueBilling(ctx context.Context, now time.Time) (services.BillingRunSummary, error)
}

// BillingScheduler charges due subscriptions on a fixed interval.
type BillingScheduler struct {
	runner   BillingRunner
	interval time.Duration
	now      func() time.Time
}

func NewBillingScheduler(runner BillingRunner, interval time.Duration) *BillingScheduler {
	return &BillingScheduler{runner: runner, interval: interval, now: time.Now}
}

// Run bills once immediately and then on every tick until ctx is cancelled.
// A failed pass is logged and retried on the next tick.
func (s *BillingScheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("billing interval must be positive, got %s", s.interval)
	}
	utils.LogInfo("Billing scheduler started", map[string]interface{}{"interval": s.interval.String()})

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			utils.LogInfo("Billing scheduler stopped")
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *BillingScheduler) runOnce(ctx context.Context) {
	summary, err := s.runner.RunDueBilling(ctx, s.now())
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		utils.LogError(err, "Billing run failed")
		return
	}
	if summary.Considered == 0 {
		utils.LogDebug("Billing run found nothing due")
		return
	}
	utils.LogInfo("Billing run finished", map[string]interface{}{
		"considered":     summary.Considered,
		"charged":        summary.Charged,
		"skipped":        summary.Skipped,
		"failed":         summary.Failed,
		"periods_billed": summary.PeriodsBilled,
		"total_charged":  summary.TotalCharged.StringFixed(2),
		"suspended":      summary.Suspended,
		"duration_ms":    summary.FinishedAt.Sub(summary.StartedAt).Milliseconds(),
	})
}
