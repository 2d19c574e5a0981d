// Schedule arithmetic for recurring payments.
//
// Each frequency has its own rule implementing advancement and its
// exact inverse. Rules are pure functions of (date, anchor day); the
// same inputs always yield the same successor, so repeated identical
// calls are deterministic and rollback restores the original date.
package core

import (
	"fmt"
	"time"
)

// ScheduleRule advances or rolls back a due date by one period.
// The anchor day is the day-of-month the schedule was created with;
// monthly and yearly rules clamp to it so that advancing into a
// shorter month and rolling back returns the original date. Weekly
// rules ignore it.
type ScheduleRule interface {
	Advance(t time.Time, anchorDay int) time.Time
	Rollback(t time.Time, anchorDay int) time.Time
}

type weeklyRule struct{}

func (weeklyRule) Advance(t time.Time, _ int) time.Time {
	return t.AddDate(0, 0, 7)
}

func (weeklyRule) Rollback(t time.Time, _ int) time.Time {
	return t.AddDate(0, 0, -7)
}

type monthlyRule struct{}

func (monthlyRule) Advance(t time.Time, anchorDay int) time.Time {
	return shiftMonths(t, 1, anchorDay)
}

func (monthlyRule) Rollback(t time.Time, anchorDay int) time.Time {
	return shiftMonths(t, -1, anchorDay)
}

type yearlyRule struct{}

func (yearlyRule) Advance(t time.Time, anchorDay int) time.Time {
	return shiftYears(t, 1, anchorDay)
}

func (yearlyRule) Rollback(t time.Time, anchorDay int) time.Time {
	return shiftYears(t, -1, anchorDay)
}

// scheduleRules maps frequencies to their rules. Registry lookup keeps
// the dispatch in one place and makes new frequencies additive.
var scheduleRules = map[Frequency]ScheduleRule{
	FrequencyWeekly:  weeklyRule{},
	FrequencyMonthly: monthlyRule{},
	FrequencyYearly:  yearlyRule{},
}

// RuleFor returns the schedule rule for a frequency.
func RuleFor(f Frequency) (ScheduleRule, error) {
	rule, ok := scheduleRules[f]
	if !ok {
		return nil, fmt.Errorf("%w: unknown frequency %q", ErrValidation, f)
	}
	return rule, nil
}

// Advance moves t forward by one period of f, clamping monthly and
// yearly targets to the last valid day of the target month.
func Advance(t time.Time, f Frequency, anchorDay int) (time.Time, error) {
	rule, err := RuleFor(f)
	if err != nil {
		return time.Time{}, err
	}
	return rule.Advance(t, anchorDay), nil
}

// Rollback moves t backward by one period of f using the inverse of
// the Advance arithmetic.
func Rollback(t time.Time, f Frequency, anchorDay int) (time.Time, error) {
	rule, err := RuleFor(f)
	if err != nil {
		return time.Time{}, err
	}
	return rule.Rollback(t, anchorDay), nil
}

// shiftMonths moves t by n calendar months, re-deriving the target day
// from the anchor so clamped dates (Jan 31 -> Feb 29) are reversible.
func shiftMonths(t time.Time, n, anchorDay int) time.Time {
	if anchorDay <= 0 {
		anchorDay = t.Day()
	}
	year, month := t.Year(), int(t.Month())+n
	day := anchorDay
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// shiftYears moves t by n years keeping the month, clamping Feb 29 in
// non-leap targets.
func shiftYears(t time.Time, n, anchorDay int) time.Time {
	if anchorDay <= 0 {
		anchorDay = t.Day()
	}
	year, month := t.Year()+n, int(t.Month())
	day := anchorDay
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, time.Month(month), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// lastDayOfMonth accepts month values outside 1..12 and normalizes
// them the way time.Date does.
func lastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
