package recurrence

import (
	"log/slog"
	"time"

	"github.com/dukerupert/housemood/internal/timezone"
)

// lookaheadDays bounds the search for the next occurrence. Two months covers
// every schedule kind, including a monthly day that clamps to month end.
const lookaheadDays = 62

// Evaluator decides whether a schedule fires inside a UTC window, using the
// owning family's time zone for the wall-clock rules.
type Evaluator struct {
	zones  *timezone.Service
	logger *slog.Logger
}

func NewEvaluator(zones *timezone.Service, logger *slog.Logger) *Evaluator {
	if zones == nil {
		zones = timezone.NewService()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{zones: zones, logger: logger}
}

// ShouldTriggerInWindow parses rule and reports the UTC trigger time when the
// schedule fires in (from, to]. The window is open on the left so adjacent
// windows sharing a boundary never both claim the same trigger. Invalid rules
// and unknown time zones never fire.
func (e *Evaluator) ShouldTriggerInWindow(rule string, from, to time.Time, tz string) (time.Time, bool) {
	s, err := Parse(rule)
	if err != nil {
		e.logger.Warn("invalid schedule rule", "rule", rule, "error", err)
		return time.Time{}, false
	}
	return e.TriggerInWindow(s, from, to, tz)
}

// TriggerInWindow is ShouldTriggerInWindow for an already parsed schedule.
func (e *Evaluator) TriggerInWindow(s Schedule, from, to time.Time, tz string) (time.Time, bool) {
	if !from.Before(to) {
		return time.Time{}, false
	}
	loc, err := e.zones.Resolve(tz)
	if err != nil {
		e.logger.Warn("unresolvable timezone", "timezone", tz, "error", err)
		return time.Time{}, false
	}

	next, ok := NextAfter(s, from.In(loc))
	if !ok {
		return time.Time{}, false
	}
	trigger := next.UTC()
	if trigger.After(from) && !trigger.After(to) {
		return trigger, true
	}
	return time.Time{}, false
}

// NextAfter returns the first occurrence of s strictly after the instant
// after, computed on wall clocks in after's location.
func NextAfter(s Schedule, after time.Time) (time.Time, bool) {
	loc := after.Location()
	y, m, d := after.Date()

	for i := 0; i <= lookaheadDays; i++ {
		day := time.Date(y, m, d+i, 0, 0, 0, 0, loc)
		at, ok := occursOn(s, day)
		if !ok {
			continue
		}
		dy, dm, dd := day.Date()
		candidate := time.Date(dy, dm, dd, at.Hour, at.Minute, 0, 0, loc)
		if candidate.After(after) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// occursOn reports whether s has an occurrence on the calendar date of day,
// and at which wall-clock time.
func occursOn(s Schedule, day time.Time) (TimeOfDay, bool) {
	switch v := s.(type) {
	case Daily:
		return v.At, true
	case Weekly:
		return v.At, day.Weekday() == v.Day
	case Monthly:
		want := min(v.Day, daysInMonth(day.Year(), day.Month()))
		return v.At, day.Day() == want
	case Workdays:
		wd := day.Weekday()
		return v.At, wd != time.Saturday && wd != time.Sunday
	case Weekends:
		wd := day.Weekday()
		return v.At, wd == time.Saturday || wd == time.Sunday
	case Manual:
		return TimeOfDay{}, false
	}
	return TimeOfDay{}, false
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
