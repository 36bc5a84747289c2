package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PunchType classifies a raw device punch event.
type PunchType string

const (
	PunchIn      PunchType = "in"
	PunchOut     PunchType = "out"
	PunchOther   PunchType = "other"
	PunchUnknown PunchType = "unknown"
)

// AttendanceEvent is a single raw punch read from a device, in the
// device's local time.
type AttendanceEvent struct {
	UserID     string    `json:"user_id"`
	Timestamp  time.Time `json:"timestamp"`
	PunchType  PunchType `json:"punch_type"`
	DeviceName string    `json:"device_name"`
}

// Status is the derived attendance status for one (user, date) record.
type Status string

const (
	StatusPresent     Status = "Present"
	StatusAbsent      Status = "Absent"
	StatusLate        Status = "Late"
	StatusEarlyLeave  Status = "EarlyLeave"
	StatusHoliday     Status = "Holiday"
	StatusWeekend     Status = "Weekend"
	StatusOnlyIn      Status = "OnlyIn"
	StatusOnlyOut     Status = "OnlyOut"
)

// AttendanceRecord is the enriched per-user-per-day view produced by
// the enrichment algorithm (spec §4.2).
type AttendanceRecord struct {
	UserID       string          `json:"user_id"`
	UserName     string          `json:"user_name,omitempty"`
	Date         string          `json:"date"` // YYYY-MM-DD
	LocationID   string          `json:"location_id,omitempty"`
	FirstIn      *time.Time      `json:"first_in,omitempty"`
	LastOut      *time.Time      `json:"last_out,omitempty"`
	TotalHours   decimal.Decimal `json:"total_hours"`
	IsWorkingDay bool            `json:"is_working_day"`
	IsHoliday    bool            `json:"is_holiday"`
	HolidayName  string          `json:"holiday_name,omitempty"`
	Status       Status          `json:"status"`
}

// NaturalKey is the sort/dedup key for merge (spec §4.3 rule 5):
// (date, user_id).
func (r AttendanceRecord) NaturalKey() string {
	return r.Date + "|" + r.UserID
}

// DailySummary is the per-day aggregate view.
type DailySummary struct {
	Date            string          `json:"date"`
	LocationID      string          `json:"location_id,omitempty"`
	DeviceName      string          `json:"device_name,omitempty"`
	TotalUsers      int             `json:"total_users"`
	Present         int             `json:"present"`
	Absent          int             `json:"absent"`
	Holiday         int             `json:"holiday"`
	Weekend         int             `json:"weekend"`
	AttendanceRate  decimal.Decimal `json:"attendance_rate"`
}

// NaturalKey is the sort/merge key for summaries: (date, location_id,
// device_name).
func (s DailySummary) NaturalKey() string {
	return s.Date + "|" + s.LocationID + "|" + s.DeviceName
}
