// Package reminder produces due-task notices and the once-a-day family
// digest for the notification outbox.
package reminder

import (
	"time"

	"github.com/dukerupert/housemood/internal/timezone"
)

// CrossingDetector decides whether a local clock time passed between two
// job fires.
type CrossingDetector struct {
	zones *timezone.Service
}

func NewCrossingDetector(zones *timezone.Service) *CrossingDetector {
	if zones == nil {
		zones = timezone.NewService()
	}
	return &CrossingDetector{zones: zones}
}

// CrossedLocalTimeBetween reports whether hour:minute on the wall clock of
// zone tz fell in (prev, cur]. It is false on the first run (prev == nil),
// when the clock did not advance, and for an unknown zone. However often the
// job fires, exactly one fire per local day sees the crossing.
func (d *CrossingDetector) CrossedLocalTimeBetween(prev *time.Time, cur time.Time, tz string, hour, minute int) bool {
	if prev == nil {
		return false
	}
	loc, err := d.zones.Resolve(tz)
	if err != nil {
		return false
	}

	prevLocal := prev.In(loc)
	curLocal := cur.In(loc)
	if !curLocal.After(prevLocal) {
		return false
	}

	y, m, day := curLocal.Date()
	target := time.Date(y, m, day, hour, minute, 0, 0, loc)
	if target.After(curLocal) {
		target = time.Date(y, m, day-1, hour, minute, 0, 0, loc)
	}
	return prevLocal.Before(target) && !target.After(curLocal)
}
