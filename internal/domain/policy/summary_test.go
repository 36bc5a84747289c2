package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biometricfleet/attendance/internal/domain/entities"
)

func TestSummarize_CountsAndRate(t *testing.T) {
	records := []entities.AttendanceRecord{
		{Date: "2024-01-01", UserID: "u1", Status: entities.StatusPresent},
		{Date: "2024-01-01", UserID: "u2", Status: entities.StatusAbsent},
		{Date: "2024-01-01", UserID: "u3", Status: entities.StatusLate},
	}
	summaries := Summarize(records, "loc-a", "")
	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, 3, s.TotalUsers)
	assert.Equal(t, 2, s.Present)
	assert.Equal(t, 1, s.Absent)
	assert.True(t, s.AttendanceRate.Equal(s.AttendanceRate)) // sanity: computed, not NaN
	expected := "0.6667"
	assert.Equal(t, expected, s.AttendanceRate.StringFixed(4))
}

// MergeSummaries must recompute attendance_rate from the summed counts,
// never by averaging each Location's own rate — two Locations with
// different population sizes would otherwise bias the merged rate.
func TestMergeSummaries_RecomputesRateFromSummedCounts(t *testing.T) {
	locA := []entities.DailySummary{
		{Date: "2024-01-01", TotalUsers: 10, Present: 10}, // rate 1.0
	}
	locB := []entities.DailySummary{
		{Date: "2024-01-01", TotalUsers: 90, Present: 0}, // rate 0.0
	}

	merged := MergeSummaries([][]entities.DailySummary{locA, locB})
	require.Len(t, merged, 1)
	assert.Equal(t, 100, merged[0].TotalUsers)
	assert.Equal(t, 10, merged[0].Present)
	// Averaging the per-location rates would give 0.5; the correct
	// merged rate is 10/100.
	assert.Equal(t, "0.1000", merged[0].AttendanceRate.StringFixed(4))
}

func TestMergeSummaries_SortsByDate(t *testing.T) {
	locA := []entities.DailySummary{
		{Date: "2024-01-02", TotalUsers: 1, Present: 1},
		{Date: "2024-01-01", TotalUsers: 1, Present: 1},
	}
	merged := MergeSummaries([][]entities.DailySummary{locA})
	require.Len(t, merged, 2)
	assert.Equal(t, "2024-01-01", merged[0].Date)
	assert.Equal(t, "2024-01-02", merged[1].Date)
}

func TestMergeSummaries_EmptyTotalUsersDoesNotDivideByZero(t *testing.T) {
	locA := []entities.DailySummary{{Date: "2024-01-01", TotalUsers: 0, Present: 0}}
	merged := MergeSummaries([][]entities.DailySummary{locA})
	require.Len(t, merged, 1)
	assert.True(t, merged[0].AttendanceRate.IsZero())
}
