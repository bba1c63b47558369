package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.March, 15, 14, 30, 0, 0, time.UTC)

// daysAgo returns a log date n days before fixedNow, at an arbitrary hour.
func daysAgo(n int) time.Time {
	return fixedNow.AddDate(0, 0, -n).Add(-3 * time.Hour)
}

func dates(offsets ...int) []time.Time {
	out := make([]time.Time, 0, len(offsets))
	for _, n := range offsets {
		out = append(out, daysAgo(n))
	}
	return out
}

func TestCompute_Empty(t *testing.T) {
	s := Compute(nil, Interactions{}, fixedNow, time.UTC)

	assert.Equal(t, 0, s.CheckinConsistency)
	assert.Equal(t, 0, s.MaxStreak)
	assert.Equal(t, 0, s.TotalConsistentDays)
	assert.Equal(t, 0, s.TotalCheers)
	assert.Equal(t, 0, s.TotalPushes)
	require.Len(t, s.Achievements, 4)
	for _, a := range s.Achievements {
		assert.False(t, a.Earned, a.ID)
	}
}

func TestCompute_HabitWithoutLogs(t *testing.T) {
	habits := []HabitLogs{{HabitID: "h1"}, {HabitID: "h2", Dates: dates(0)}}
	s := Compute(habits, Interactions{}, fixedNow, time.UTC)

	assert.Equal(t, 1, s.MaxStreak)
	assert.Equal(t, 1, s.TotalConsistentDays)
}

func TestCompute_ThreeDayScenario(t *testing.T) {
	habits := []HabitLogs{{HabitID: "h1", Dates: dates(0, 1, 2)}}
	s := Compute(habits, Interactions{Cheers: 4, Pushes: 2}, fixedNow, time.UTC)

	assert.Equal(t, 10, s.CheckinConsistency)
	assert.Equal(t, 3, s.MaxStreak)
	assert.Equal(t, 3, s.TotalConsistentDays)
	assert.Equal(t, 4, s.TotalCheers)
	assert.Equal(t, 2, s.TotalPushes)
}

func TestCompute_FifteenDaysIsHalf(t *testing.T) {
	var offsets []int
	for i := 0; i < 30; i += 2 {
		offsets = append(offsets, i)
	}
	require.Len(t, offsets, 15)

	s := Compute([]HabitLogs{{HabitID: "h1", Dates: dates(offsets...)}}, Interactions{}, fixedNow, time.UTC)
	assert.Equal(t, 50, s.CheckinConsistency)
}

func TestCompute_ConsistencyWindowBounds(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		want    int
	}{
		{"oldest day inside window", []int{29}, 3},
		{"day past window", []int{30}, 0},
		{"full window", rangeOffsets(0, 30), 100},
		{"full window plus history", rangeOffsets(0, 60), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Compute([]HabitLogs{{Dates: dates(tt.offsets...)}}, Interactions{}, fixedNow, time.UTC)
			assert.Equal(t, tt.want, s.CheckinConsistency)
		})
	}
}

func TestCompute_ConsistencyAcrossHabits(t *testing.T) {
	habits := []HabitLogs{
		{HabitID: "h1", Dates: dates(0, 1)},
		{HabitID: "h2", Dates: dates(1, 2)},
	}
	s := Compute(habits, Interactions{}, fixedNow, time.UTC)

	// Day 1 is shared between habits and counted once.
	assert.Equal(t, 10, s.CheckinConsistency)
	assert.Equal(t, 3, s.TotalConsistentDays)
}

func TestCompute_DuplicatesCollapse(t *testing.T) {
	logs := []time.Time{
		daysAgo(0),
		daysAgo(0).Add(-time.Hour),
		daysAgo(1),
		daysAgo(1),
		daysAgo(1).Add(-2 * time.Hour),
	}
	s := Compute([]HabitLogs{{Dates: logs}}, Interactions{}, fixedNow, time.UTC)

	assert.Equal(t, 2, s.TotalConsistentDays)
	assert.Equal(t, 2, s.MaxStreak)
	assert.Equal(t, 7, s.CheckinConsistency)
}

func TestCompute_TotalDaysIsLifetime(t *testing.T) {
	s := Compute([]HabitLogs{{Dates: dates(0, 100, 400)}}, Interactions{}, fixedNow, time.UTC)
	assert.Equal(t, 3, s.TotalConsistentDays)
	assert.Equal(t, 3, s.CheckinConsistency)
}

func TestCompute_MaxAcrossHabits(t *testing.T) {
	habits := []HabitLogs{
		{HabitID: "short", Dates: dates(0, 1)},
		{HabitID: "long", Dates: dates(1, 2, 3, 4)},
		{HabitID: "stale", Dates: dates(rangeOffsets(5, 50)...)},
	}
	s := Compute(habits, Interactions{}, fixedNow, time.UTC)
	assert.Equal(t, 4, s.MaxStreak)
}

func TestHabitStreak(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		want    int
	}{
		{"no logs", nil, 0},
		{"today only", []int{0}, 1},
		{"yesterday only", []int{1}, 1},
		{"today and five preceding", []int{0, 1, 2, 3, 4, 5}, 6},
		{"gap caps at suffix", []int{0, 1, 2, 4, 5, 6}, 3},
		{"gap right after today", []int{0, 2, 3, 4}, 1},
		{"run ending yesterday", []int{1, 2, 3}, 3},
		{"latest two days old", []int{2, 3, 4, 5}, 0},
		{"dense but stale", rangeOffsets(3, 100), 0},
		{"unsorted input", []int{3, 0, 2, 1}, 4},
		{"future log breaks currency", []int{-1, 0, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HabitStreak(dates(tt.offsets...), fixedNow, time.UTC))
		})
	}
}

func TestHabitStreak_AcrossDSTChange(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Clocks went forward on 2024-03-10; the run covers Mar 8..15 local.
	var logs []time.Time
	for day := 8; day <= 15; day++ {
		logs = append(logs, time.Date(2024, time.March, day, 7, 0, 0, 0, ny))
	}
	assert.Equal(t, 8, HabitStreak(logs, fixedNow, ny))
	assert.Equal(t, 8, ConsistentDays(logs, fixedNow, ny))
}

func TestHabitStreak_UsesLocation(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	// 20:00 UTC on the 14th is already the 15th in Jakarta.
	now := time.Date(2024, time.March, 14, 20, 0, 0, 0, time.UTC)
	logs := []time.Time{
		time.Date(2024, time.March, 15, 8, 0, 0, 0, jakarta),
		time.Date(2024, time.March, 14, 8, 0, 0, 0, jakarta),
		time.Date(2024, time.March, 13, 8, 0, 0, 0, jakarta),
	}

	assert.Equal(t, 3, HabitStreak(logs, now, jakarta))
	// Evaluated in UTC, the newest log lies in the future.
	assert.Equal(t, 0, HabitStreak(logs, now, time.UTC))
}

func TestConsistentDays(t *testing.T) {
	assert.Equal(t, 0, ConsistentDays(nil, fixedNow, time.UTC))
	assert.Equal(t, 3, ConsistentDays(dates(0, 0, 10, 29, 30, 31), fixedNow, time.UTC))
}

func TestAchievements(t *testing.T) {
	tests := []struct {
		streak int
		earned []bool
	}{
		{0, []bool{false, false, false, false}},
		{29, []bool{false, false, false, false}},
		{30, []bool{true, false, false, false}},
		{180, []bool{true, true, true, false}},
		{400, []bool{true, true, true, true}},
	}

	for _, tt := range tests {
		got := Achievements(tt.streak)
		require.Len(t, got, len(tt.earned))
		for i, a := range got {
			assert.Equal(t, tt.earned[i], a.Earned, "streak %d, %s", tt.streak, a.ID)
		}
	}
	assert.Equal(t, "streak-365", Achievements(0)[3].ID)
}

func TestEngine(t *testing.T) {
	e := NewEngine(time.UTC, func() time.Time { return fixedNow })

	habits := []HabitLogs{{HabitID: "a", Dates: dates(0, 1)}, {HabitID: "b", Dates: dates(1, 2, 3)}}
	assert.Equal(t, 3, e.MaxStreak(habits))
	assert.Equal(t, 2, e.HabitStreak(habits[0].Dates))
	assert.Equal(t, 4, e.Compute(habits, Interactions{}).TotalConsistentDays)
	assert.Equal(t, fixedNow, e.Now())
	assert.Equal(t, time.UTC, e.Location())
}

func rangeOffsets(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
