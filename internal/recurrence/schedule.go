package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidRule = errors.New("invalid schedule rule")

// TimeOfDay is a local wall-clock time.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Schedule is one of Daily, Weekly, Monthly, Workdays, Weekends or Manual.
type Schedule interface {
	isSchedule()
}

type Daily struct{ At TimeOfDay }

type Weekly struct {
	At  TimeOfDay
	Day time.Weekday
}

// Monthly fires on Day of each month; months shorter than Day fire on their
// last day.
type Monthly struct {
	At  TimeOfDay
	Day int
}

// Workdays fires Monday through Friday.
type Workdays struct{ At TimeOfDay }

// Weekends fires Saturday and Sunday.
type Weekends struct{ At TimeOfDay }

// Manual never fires on its own.
type Manual struct{}

func (Daily) isSchedule()    {}
func (Weekly) isSchedule()   {}
func (Monthly) isSchedule()  {}
func (Workdays) isSchedule() {}
func (Weekends) isSchedule() {}
func (Manual) isSchedule()   {}

var dayNames = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

var dayAbbrev = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// Parse parses a rule string like "TYPE=WEEKLY;BYDAY=MO;AT=18:30".
func Parse(rule string) (Schedule, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, fmt.Errorf("%w: empty rule", ErrInvalidRule)
	}

	var (
		kind       string
		at         *TimeOfDay
		byDay      *time.Weekday
		byMonthDay int
	)

	for _, part := range strings.Split(rule, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("%w: invalid rule part %q", ErrInvalidRule, part)
		}
		key, val := strings.ToUpper(strings.TrimSpace(kv[0])), strings.TrimSpace(kv[1])

		switch key {
		case "TYPE":
			kind = strings.ToUpper(val)

		case "AT":
			t, err := ParseTimeOfDay(val)
			if err != nil {
				return nil, err
			}
			at = &t

		case "BYDAY":
			wd, ok := dayNames[strings.ToUpper(val)]
			if !ok {
				return nil, fmt.Errorf("%w: unknown day %q", ErrInvalidRule, val)
			}
			byDay = &wd

		case "BYMONTHDAY":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 || n > 31 {
				return nil, fmt.Errorf("%w: invalid BYMONTHDAY %q", ErrInvalidRule, val)
			}
			byMonthDay = n

		default:
			return nil, fmt.Errorf("%w: unsupported key %q", ErrInvalidRule, key)
		}
	}

	if kind == "" {
		return nil, fmt.Errorf("%w: TYPE is required", ErrInvalidRule)
	}
	if kind == "MANUAL" {
		return Manual{}, nil
	}
	if at == nil {
		return nil, fmt.Errorf("%w: AT is required for %s", ErrInvalidRule, kind)
	}

	switch kind {
	case "DAILY":
		return Daily{At: *at}, nil
	case "WORKDAYS":
		return Workdays{At: *at}, nil
	case "WEEKENDS":
		return Weekends{At: *at}, nil
	case "WEEKLY":
		if byDay == nil {
			return nil, fmt.Errorf("%w: BYDAY is required for WEEKLY", ErrInvalidRule)
		}
		return Weekly{At: *at, Day: *byDay}, nil
	case "MONTHLY":
		if byMonthDay == 0 {
			return nil, fmt.Errorf("%w: BYMONTHDAY is required for MONTHLY", ErrInvalidRule)
		}
		return Monthly{At: *at, Day: byMonthDay}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRule, kind)
}

// ParseTimeOfDay parses a 24-hour "HH:MM" clock time.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: invalid time %q, expected HH:MM", ErrInvalidRule, s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return TimeOfDay{}, fmt.Errorf("%w: invalid hour in %q", ErrInvalidRule, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: invalid minute in %q", ErrInvalidRule, s)
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// String serializes a schedule back to its rule form.
func String(s Schedule) string {
	switch v := s.(type) {
	case Daily:
		return "TYPE=DAILY;AT=" + v.At.String()
	case Weekly:
		return "TYPE=WEEKLY;BYDAY=" + dayAbbrev[v.Day] + ";AT=" + v.At.String()
	case Monthly:
		return fmt.Sprintf("TYPE=MONTHLY;BYMONTHDAY=%d;AT=%s", v.Day, v.At)
	case Workdays:
		return "TYPE=WORKDAYS;AT=" + v.At.String()
	case Weekends:
		return "TYPE=WEEKENDS;AT=" + v.At.String()
	case Manual:
		return "TYPE=MANUAL"
	}
	return ""
}

// Describe returns a human-readable description of the schedule.
func Describe(s Schedule) string {
	switch v := s.(type) {
	case Daily:
		return "Every day at " + v.At.String()
	case Weekly:
		return fmt.Sprintf("Every %s at %s", v.Day, v.At)
	case Monthly:
		return fmt.Sprintf("Monthly on day %d at %s", v.Day, v.At)
	case Workdays:
		return "Weekdays at " + v.At.String()
	case Weekends:
		return "Weekends at " + v.At.String()
	case Manual:
		return "Manually"
	}
	return ""
}
