package policy

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/biometricfleet/attendance/internal/domain/entities"
)

const dateLayout = "2006-01-02"

type bucket struct {
	firstIn *time.Time
	lastOut *time.Time
}

// Enrich implements the attendance enrichment algorithm of spec §4.2:
// bucket raw events by (user, local date), reduce each bucket to a
// first-in/last-out pair, then emit one AttendanceRecord per
// (known user, date) in [start, end], classified against policy.
//
// users maps user_id -> display name for every known user in scope;
// any user_id appearing only in events is still included (name left
// empty). extraHolidays is the request's `holidays` query parameter,
// unioned with the configured policy holidays per spec §9(b).
func Enrich(
	events []entities.AttendanceEvent,
	users map[string]string,
	start, end time.Time,
	extraHolidays []string,
	pol WorkPolicy,
) []entities.AttendanceRecord {
	buckets := make(map[string]*bucket)
	knownUsers := make(map[string]struct{}, len(users))
	for uid := range users {
		knownUsers[uid] = struct{}{}
	}

	for _, ev := range events {
		knownUsers[ev.UserID] = struct{}{}
		dateStr := ev.Timestamp.Format(dateLayout)
		key := ev.UserID + "|" + dateStr
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
		}
		ts := ev.Timestamp
		if ev.PunchType == entities.PunchIn || ev.PunchType == entities.PunchUnknown {
			if b.firstIn == nil || ts.Before(*b.firstIn) {
				t := ts
				b.firstIn = &t
			}
		}
		if ev.PunchType == entities.PunchOut || ev.PunchType == entities.PunchUnknown {
			if b.lastOut == nil || ts.After(*b.lastOut) {
				t := ts
				b.lastOut = &t
			}
		}
	}

	userIDs := make([]string, 0, len(knownUsers))
	for uid := range knownUsers {
		userIDs = append(userIDs, uid)
	}
	sort.Strings(userIDs)

	var records []entities.AttendanceRecord
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format(dateLayout)
		isHoliday, holidayName := pol.IsHoliday(dateStr, extraHolidays)
		isWeekend := pol.IsWeekend(d)
		isWorkingDay := !isHoliday && !isWeekend

		for _, uid := range userIDs {
			key := uid + "|" + dateStr
			b := buckets[key]

			rec := entities.AttendanceRecord{
				UserID:       uid,
				UserName:     users[uid],
				Date:         dateStr,
				IsHoliday:    isHoliday,
				HolidayName:  holidayName,
				IsWorkingDay: isWorkingDay,
			}

			var firstIn, lastOut *time.Time
			if b != nil {
				firstIn, lastOut = b.firstIn, b.lastOut
			}
			rec.FirstIn = firstIn
			rec.LastOut = lastOut
			rec.TotalHours = totalHours(firstIn, lastOut)
			rec.Status = deriveStatus(isHoliday, isWeekend, firstIn, lastOut, d, pol)

			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].Date != records[j].Date {
			return records[i].Date < records[j].Date
		}
		return records[i].UserID < records[j].UserID
	})

	return records
}

// totalHours implements spec invariant 4: max(0, last_out-first_in),
// rounded half-even to 2 decimals; 0 if either side is missing.
func totalHours(firstIn, lastOut *time.Time) decimal.Decimal {
	if firstIn == nil || lastOut == nil {
		return decimal.Zero
	}
	d := lastOut.Sub(*firstIn)
	if d < 0 {
		d = 0
	}
	hours := decimal.NewFromInt(int64(d)).Div(decimal.NewFromInt(int64(time.Hour)))
	return hours.RoundBank(2)
}

func deriveStatus(isHoliday, isWeekend bool, firstIn, lastOut *time.Time, date time.Time, pol WorkPolicy) entities.Status {
	switch {
	case isHoliday:
		return entities.StatusHoliday
	case isWeekend:
		return entities.StatusWeekend
	case firstIn == nil && lastOut == nil:
		return entities.StatusAbsent
	case firstIn != nil && lastOut == nil:
		return entities.StatusOnlyIn
	case firstIn == nil && lastOut != nil:
		return entities.StatusOnlyOut
	}

	grace := pol.Grace()
	workStart := pol.WorkStart(date)
	workEnd := pol.WorkEnd(date)

	if firstIn.After(workStart.Add(grace)) {
		return entities.StatusLate
	}
	if lastOut.Before(workEnd.Add(-grace)) {
		return entities.StatusEarlyLeave
	}
	return entities.StatusPresent
}
