// Package billing holds the money and date arithmetic behind subscription
// charges and plan changes. It has no I/O; services feed it rows and persist
// the results.
package billing

import (
	"errors"
	"math"
	"time"

	"qr_dine_backend/internal/models"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// ErrInvalidPlanTerms is returned for a non-positive plan duration or negative price.
var ErrInvalidPlanTerms = errors.New("invalid plan terms")

// RemainingDays counts whole days left until periodEnd, rounding a partial day up.
func RemainingDays(now, periodEnd time.Time) int {
	left := periodEnd.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(float64(left) / float64(day)))
}

// Terms is the price a plan charges per DurationDays.
type Terms struct {
	Price        decimal.Decimal
	DurationDays int
}

// Prorate returns what switching from current to next costs for the days left
// in the current period, comparing the two plans on their daily rates. A
// positive amount is owed by the restaurant, a negative amount is credited back.
// remainingDays is clamped to the current plan's period length.
func Prorate(current, next Terms, remainingDays int) (decimal.Decimal, error) {
	if current.DurationDays <= 0 || next.DurationDays <= 0 ||
		current.Price.IsNegative() || next.Price.IsNegative() {
		return decimal.Zero, ErrInvalidPlanTerms
	}
	if remainingDays < 0 {
		remainingDays = 0
	}
	if remainingDays > current.DurationDays {
		remainingDays = current.DurationDays
	}

	curDays := decimal.NewFromInt(int64(current.DurationDays))
	nextDays := decimal.NewFromInt(int64(next.DurationDays))

	// remaining * (next.Price/next.Days - current.Price/current.Days), kept as a
	// single division so rounding happens once.
	numerator := next.Price.Mul(curDays).Sub(current.Price.Mul(nextDays)).
		Mul(decimal.NewFromInt(int64(remainingDays)))
	return numerator.DivRound(curDays.Mul(nextDays), 2), nil
}

// AdvancePeriod moves a period end forward by one plan duration.
func AdvancePeriod(periodEnd time.Time, durationDays int) time.Time {
	return periodEnd.AddDate(0, 0, durationDays)
}

// DuePeriods reports how many whole periods have ended at or before now and the
// period end that follows them. A restaurant that missed several periods is
// charged once per period.
func DuePeriods(periodEnd, now time.Time, durationDays int) (int, time.Time) {
	if durationDays <= 0 {
		return 0, periodEnd
	}
	n := 0
	for !periodEnd.After(now) {
		periodEnd = AdvancePeriod(periodEnd, durationDays)
		n++
	}
	return n, periodEnd
}

// StatusForBalance derives the subscription status from the balance and how
// long it has been negative.
func StatusForBalance(balance decimal.Decimal, overdueDays, graceDays int) string {
	if !balance.IsNegative() {
		return models.SubscriptionActive
	}
	if overdueDays <= graceDays {
		return models.SubscriptionPastDue
	}
	return models.SubscriptionSuspended
}

// OverdueDays is the number of whole days elapsed since the balance went negative.
func OverdueDays(overdueSince *time.Time, now time.Time) int {
	if overdueSince == nil || now.Before(*overdueSince) {
		return 0
	}
	return int(now.Sub(*overdueSince) / day)
}
