// Package budget holds the pure arithmetic behind the monthly budget cycle:
// window derivation, day counts, daily allowance, and the three-tier health
// classification. Everything here is a total function over its inputs with
// no I/O, so the accounting rules are unit-testable in isolation.
package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// Health is the three-tier classification of a budget cycle.
type Health string

const (
	Healthy  Health = "Healthy"
	Caution  Health = "Caution"
	Critical Health = "Critical"
)

var (
	hundred      = decimal.NewFromInt(100)
	thirty       = decimal.NewFromInt(30)
	criticalUsed = decimal.NewFromInt(80)
	cautionUsed  = decimal.NewFromInt(50)
	halfAvgDaily = decimal.NewFromFloat(0.5)
	lowAllowance = decimal.NewFromFloat(0.3)
)

// CycleWindow returns the half-open window [start, end) of the budget cycle
// beginning at start: end is the first day of the following calendar month,
// including the December to January rollover.
func CycleWindow(start time.Time) (time.Time, time.Time) {
	s := Day(start)
	end := time.Date(s.Year(), s.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return s, end
}

// Day truncates t to a calendar date in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysElapsed counts whole days from the cycle start to asOf.
func DaysElapsed(start, asOf time.Time) int {
	return int(Day(asOf).Sub(Day(start)).Hours() / 24)
}

// DaysRemaining counts whole days from asOf to the last day of the cycle,
// so on the final day it is zero. Negative when asOf is already past the
// cycle end.
func DaysRemaining(start, asOf time.Time) int {
	_, end := CycleWindow(start)
	last := end.AddDate(0, 0, -1)
	return int(last.Sub(Day(asOf)).Hours() / 24)
}

// DailyAllowance spreads the remaining budget over the remaining days,
// rounded to 2 decimal places. Zero when no days remain.
func DailyAllowance(remaining decimal.Decimal, daysRemaining int) decimal.Decimal {
	if daysRemaining <= 0 {
		return decimal.Zero
	}
	return remaining.Div(decimal.NewFromInt(int64(daysRemaining))).Round(2)
}

// Classify derives budget health from the remaining budget, the monthly
// budget, and the days left in the cycle:
//
//   - a zero monthly budget is Critical outright;
//   - overspend or more than 80% used is Critical;
//   - more than 50% used is Caution, escalated to Critical when the daily
//     allowance falls below half the average daily budget (monthly/30);
//   - anything else is Healthy.
//
// For fixed monthly and daysRemaining the result is monotonic in remaining:
// spending more never improves health.
func Classify(remaining, monthly decimal.Decimal, daysRemaining int) Health {
	if monthly.IsZero() {
		return Critical
	}

	usedPct := decimal.NewFromInt(1).Sub(remaining.Div(monthly)).Mul(hundred)

	if remaining.IsNegative() || usedPct.GreaterThan(criticalUsed) {
		return Critical
	}

	if usedPct.GreaterThan(cautionUsed) {
		if daysRemaining > 0 {
			dailyAllowance := remaining.Div(decimal.NewFromInt(int64(daysRemaining)))
			avgDaily := monthly.Div(thirty)
			if dailyAllowance.LessThan(avgDaily.Mul(halfAvgDaily)) {
				return Critical
			}
		}
		return Caution
	}

	return Healthy
}

// LowDailyAllowance reports whether the daily allowance has dropped below
// 30% of the average daily budget. Used by the advisory rules; only
// meaningful while days remain and the budget is not yet exhausted.
func LowDailyAllowance(remaining, monthly decimal.Decimal, daysRemaining int) bool {
	if daysRemaining <= 0 || remaining.Sign() <= 0 {
		return false
	}
	dailyAllowance := remaining.Div(decimal.NewFromInt(int64(daysRemaining)))
	avgDaily := monthly.Div(thirty)
	return dailyAllowance.LessThan(avgDaily.Mul(lowAllowance))
}
