package policy

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/biometricfleet/attendance/internal/domain/entities"
)

// Summarize reduces enriched AttendanceRecords to one DailySummary per
// date, counting total/present/absent/holiday/weekend users and
// recomputing attendance_rate from the counts — never by summing
// per-user ratios (spec §4.3 rule 5).
func Summarize(records []entities.AttendanceRecord, locationID, deviceName string) []entities.DailySummary {
	byDate := make(map[string]*entities.DailySummary)
	var order []string

	for _, r := range records {
		s, ok := byDate[r.Date]
		if !ok {
			s = &entities.DailySummary{Date: r.Date, LocationID: locationID, DeviceName: deviceName}
			byDate[r.Date] = s
			order = append(order, r.Date)
		}
		s.TotalUsers++
		switch r.Status {
		case entities.StatusPresent, entities.StatusLate, entities.StatusEarlyLeave, entities.StatusOnlyIn, entities.StatusOnlyOut:
			s.Present++
		case entities.StatusAbsent:
			s.Absent++
		case entities.StatusHoliday:
			s.Holiday++
		case entities.StatusWeekend:
			s.Weekend++
		}
	}

	sort.Strings(order)
	summaries := make([]entities.DailySummary, 0, len(order))
	for _, d := range order {
		s := byDate[d]
		s.AttendanceRate = attendanceRate(s.Present, s.TotalUsers)
		summaries = append(summaries, *s)
	}
	return summaries
}

// MergeSummaries combines per-Location summaries for the same date by
// summing integer fields and recomputing attendance_rate afterward
// (spec §4.3 rule 5: "never sum ratios directly").
func MergeSummaries(all [][]entities.DailySummary) []entities.DailySummary {
	byDate := make(map[string]*entities.DailySummary)
	var order []string

	for _, batch := range all {
		for _, s := range batch {
			agg, ok := byDate[s.Date]
			if !ok {
				agg = &entities.DailySummary{Date: s.Date}
				byDate[s.Date] = agg
				order = append(order, s.Date)
			}
			agg.TotalUsers += s.TotalUsers
			agg.Present += s.Present
			agg.Absent += s.Absent
			agg.Holiday += s.Holiday
			agg.Weekend += s.Weekend
		}
	}

	sort.Strings(order)
	merged := make([]entities.DailySummary, 0, len(order))
	for _, d := range order {
		s := byDate[d]
		s.AttendanceRate = attendanceRate(s.Present, s.TotalUsers)
		merged = append(merged, *s)
	}
	return merged
}

func attendanceRate(present, total int) decimal.Decimal {
	if total <= 0 {
		total = 1
	}
	rate := decimal.NewFromInt(int64(present)).DivRound(decimal.NewFromInt(int64(total)), 4)
	return rate
}
