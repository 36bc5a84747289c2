package policy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biometricfleet/attendance/internal/domain/entities"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(dateLayout, s)
	require.NoError(t, err)
	return d
}

func TestEnrich_PresentWithinGrace(t *testing.T) {
	pol := DefaultWorkPolicy()
	// 2024-01-01 is a Monday, not a configured weekend day for this policy.
	day := mustDate(t, "2024-01-01")
	events := []entities.AttendanceEvent{
		{UserID: "u1", Timestamp: day.Add(8*time.Hour + 5*time.Minute), PunchType: entities.PunchIn},
		{UserID: "u1", Timestamp: day.Add(17 * time.Hour), PunchType: entities.PunchOut},
	}
	users := map[string]string{"u1": "Alice"}

	records := Enrich(events, users, day, day, nil, pol)

	require.Len(t, records, 1)
	assert.Equal(t, entities.StatusPresent, records[0].Status)
	assert.True(t, records[0].TotalHours.GreaterThan(decimal.Zero))
}

func TestEnrich_LateAfterGrace(t *testing.T) {
	pol := DefaultWorkPolicy()
	day := mustDate(t, "2024-01-01")
	events := []entities.AttendanceEvent{
		{UserID: "u1", Timestamp: day.Add(8*time.Hour + 30*time.Minute), PunchType: entities.PunchIn},
		{UserID: "u1", Timestamp: day.Add(17 * time.Hour), PunchType: entities.PunchOut},
	}
	records := Enrich(events, map[string]string{"u1": "Alice"}, day, day, nil, pol)
	require.Len(t, records, 1)
	assert.Equal(t, entities.StatusLate, records[0].Status)
}

func TestEnrich_EarlyLeave(t *testing.T) {
	pol := DefaultWorkPolicy()
	day := mustDate(t, "2024-01-01")
	events := []entities.AttendanceEvent{
		{UserID: "u1", Timestamp: day.Add(8 * time.Hour), PunchType: entities.PunchIn},
		{UserID: "u1", Timestamp: day.Add(16 * time.Hour), PunchType: entities.PunchOut},
	}
	records := Enrich(events, map[string]string{"u1": "Alice"}, day, day, nil, pol)
	require.Len(t, records, 1)
	assert.Equal(t, entities.StatusEarlyLeave, records[0].Status)
}

func TestEnrich_AbsentKnownUserNoEvents(t *testing.T) {
	pol := DefaultWorkPolicy()
	day := mustDate(t, "2024-01-01")
	records := Enrich(nil, map[string]string{"u1": "Alice"}, day, day, nil, pol)
	require.Len(t, records, 1)
	assert.Equal(t, entities.StatusAbsent, records[0].Status)
	assert.True(t, records[0].TotalHours.IsZero())
}

func TestEnrich_WeekendOverridesPresence(t *testing.T) {
	pol := DefaultWorkPolicy() // Friday+Saturday
	friday := mustDate(t, "2024-01-05")
	events := []entities.AttendanceEvent{
		{UserID: "u1", Timestamp: friday.Add(9 * time.Hour), PunchType: entities.PunchIn},
		{UserID: "u1", Timestamp: friday.Add(15 * time.Hour), PunchType: entities.PunchOut},
	}
	records := Enrich(events, map[string]string{"u1": "Alice"}, friday, friday, nil, pol)
	require.Len(t, records, 1)
	assert.Equal(t, entities.StatusWeekend, records[0].Status)
}

func TestEnrich_HolidayOverridesWeekendAndPresence(t *testing.T) {
	pol := DefaultWorkPolicy()
	// 2024-01-05 is a Friday (a weekend day for this policy) and u1
	// punched in and out on it.
	pol.Holidays = []string{"2024-01-05"}
	day := mustDate(t, "2024-01-05")
	events := []entities.AttendanceEvent{
		{UserID: "u1", Timestamp: day.Add(9 * time.Hour), PunchType: entities.PunchIn},
		{UserID: "u1", Timestamp: day.Add(15 * time.Hour), PunchType: entities.PunchOut},
	}
	records := Enrich(events, map[string]string{"u1": "Alice"}, day, day, nil, pol)
	require.Len(t, records, 1)
	assert.Equal(t, entities.StatusHoliday, records[0].Status)
	assert.True(t, records[0].IsHoliday)
	assert.False(t, records[0].IsWorkingDay)
}

func TestEnrich_RequestHolidayUnionsWithConfigured(t *testing.T) {
	pol := DefaultWorkPolicy()
	day := mustDate(t, "2024-01-02")
	records := Enrich(nil, map[string]string{"u1": "Alice"}, day, day, []string{"2024-01-02"}, pol)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsHoliday)
}

func TestEnrich_OnlyInOnlyOut(t *testing.T) {
	pol := DefaultWorkPolicy()
	day := mustDate(t, "2024-01-01")
	onlyIn := Enrich([]entities.AttendanceEvent{
		{UserID: "u1", Timestamp: day.Add(8 * time.Hour), PunchType: entities.PunchIn},
	}, map[string]string{"u1": ""}, day, day, nil, pol)
	require.Len(t, onlyIn, 1)
	assert.Equal(t, entities.StatusOnlyIn, onlyIn[0].Status)
	assert.True(t, onlyIn[0].TotalHours.IsZero())

	onlyOut := Enrich([]entities.AttendanceEvent{
		{UserID: "u1", Timestamp: day.Add(17 * time.Hour), PunchType: entities.PunchOut},
	}, map[string]string{"u1": ""}, day, day, nil, pol)
	require.Len(t, onlyOut, 1)
	assert.Equal(t, entities.StatusOnlyOut, onlyOut[0].Status)
}

func TestEnrich_EventUserNotInKnownUsersStillIncluded(t *testing.T) {
	pol := DefaultWorkPolicy()
	day := mustDate(t, "2024-01-01")
	events := []entities.AttendanceEvent{
		{UserID: "ghost", Timestamp: day.Add(8 * time.Hour), PunchType: entities.PunchIn},
	}
	records := Enrich(events, map[string]string{}, day, day, nil, pol)
	require.Len(t, records, 1)
	assert.Equal(t, "ghost", records[0].UserID)
	assert.Empty(t, records[0].UserName)
}

func TestEnrich_OneRecordPerUserPerDayAcrossRange(t *testing.T) {
	pol := DefaultWorkPolicy()
	start := mustDate(t, "2024-01-01")
	end := mustDate(t, "2024-01-03")
	records := Enrich(nil, map[string]string{"u1": "Alice", "u2": "Bob"}, start, end, nil, pol)
	// 3 days * 2 users, sorted by date then user_id.
	require.Len(t, records, 6)
	assert.Equal(t, "2024-01-01", records[0].Date)
	assert.Equal(t, "u1", records[0].UserID)
	assert.Equal(t, "u2", records[1].UserID)
	assert.Equal(t, "2024-01-03", records[5].Date)
}

func TestEnrich_TotalHoursNeverNegative(t *testing.T) {
	pol := DefaultWorkPolicy()
	day := mustDate(t, "2024-01-01")
	// Out-of-order bucket reduction still yields first-in <= last-out
	// because firstIn/lastOut reduce independently of arrival order.
	events := []entities.AttendanceEvent{
		{UserID: "u1", Timestamp: day.Add(9 * time.Hour), PunchType: entities.PunchIn},
		{UserID: "u1", Timestamp: day.Add(8 * time.Hour), PunchType: entities.PunchIn},
		{UserID: "u1", Timestamp: day.Add(18 * time.Hour), PunchType: entities.PunchOut},
	}
	records := Enrich(events, map[string]string{"u1": "Alice"}, day, day, nil, pol)
	require.Len(t, records, 1)
	assert.False(t, records[0].TotalHours.IsNegative())
}
