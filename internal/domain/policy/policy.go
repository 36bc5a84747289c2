// Package policy holds the cross-site business rules the Gateway and
// Location Service apply when deriving attendance: holidays, weekend
// days, and the working-hours window used for Late/EarlyLeave
// classification (spec §3, §4.2).
package policy

import "time"

// WorkPolicy is the per-Location (or per-Gateway, for cross-site
// defaults) attendance policy.
type WorkPolicy struct {
	// WeekendDays are the weekdays treated as non-working by default.
	WeekendDays []time.Weekday
	// Holidays are configured fixed holiday dates, YYYY-MM-DD.
	Holidays []string
	// WorkStart/WorkEnd are the nominal working-hours window, as
	// minutes since local midnight.
	WorkStartMinutes int
	WorkEndMinutes   int
	// GraceMinutes is the tolerance before Late/EarlyLeave applies.
	GraceMinutes int
}

// DefaultWorkPolicy returns the Friday+Saturday weekend convention
// named in spec §4.4 as one common default, 08:00-17:00 with a 10
// minute grace.
func DefaultWorkPolicy() WorkPolicy {
	return WorkPolicy{
		WeekendDays:      []time.Weekday{time.Friday, time.Saturday},
		WorkStartMinutes: 8 * 60,
		WorkEndMinutes:   17 * 60,
		GraceMinutes:     10,
	}
}

// IsWeekend reports whether date's weekday is in the configured
// weekend set.
func (p WorkPolicy) IsWeekend(date time.Time) bool {
	for _, d := range p.WeekendDays {
		if date.Weekday() == d {
			return true
		}
	}
	return false
}

// IsHoliday reports whether dateStr (YYYY-MM-DD) is a configured
// holiday or appears in extraHolidays, the union spec §9(b) mandates
// between configured and request-supplied holidays.
func (p WorkPolicy) IsHoliday(dateStr string, extraHolidays []string) (bool, string) {
	for _, h := range p.Holidays {
		if h == dateStr {
			return true, ""
		}
	}
	for _, h := range extraHolidays {
		if h == dateStr {
			return true, ""
		}
	}
	return false, ""
}

// WorkStart returns the nominal work-start time of day on the given
// date's calendar day, in date's location.
func (p WorkPolicy) WorkStart(date time.Time) time.Time {
	return dayStart(date).Add(time.Duration(p.WorkStartMinutes) * time.Minute)
}

// WorkEnd returns the nominal work-end time of day on the given
// date's calendar day, in date's location.
func (p WorkPolicy) WorkEnd(date time.Time) time.Time {
	return dayStart(date).Add(time.Duration(p.WorkEndMinutes) * time.Minute)
}

// Grace returns the configured grace period as a duration.
func (p WorkPolicy) Grace() time.Duration {
	return time.Duration(p.GraceMinutes) * time.Minute
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
