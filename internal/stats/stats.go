// Package stats derives profile statistics from a user's habit logs.
//
// Every computation works on distinct calendar days: several logs on the same
// day count once. Nothing is cached between calls; callers recompute after
// habits or logs change.
package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/julianstephens/huddle/internal/constants"
	"github.com/julianstephens/huddle/internal/models"
)

// HabitLogs pairs a habit with the calendar dates it was logged on.
type HabitLogs struct {
	HabitID string
	Dates   []time.Time
}

// Interactions are the reaction counters received on the user's own posts.
// They are passed through untouched.
type Interactions struct {
	Cheers int
	Pushes int
}

// Compute derives the full statistics record, evaluating "today" as the
// calendar day of now in loc.
func Compute(habits []HabitLogs, counters Interactions, now time.Time, loc *time.Location) models.Stats {
	loc = orLocal(loc)
	today := dayOf(now, loc)

	var all []time.Time
	maxStreak := 0
	for _, h := range habits {
		all = append(all, h.Dates...)
		if s := streak(h.Dates, today, loc); s > maxStreak {
			maxStreak = s
		}
	}

	days := distinct(all, loc)

	return models.Stats{
		CheckinConsistency:  consistency(days, today),
		MaxStreak:           maxStreak,
		TotalConsistentDays: len(days),
		TotalCheers:         counters.Cheers,
		TotalPushes:         counters.Pushes,
		Achievements:        Achievements(maxStreak),
	}
}

// HabitStreak returns the current streak for one habit's log dates.
func HabitStreak(dates []time.Time, now time.Time, loc *time.Location) int {
	loc = orLocal(loc)
	return streak(dates, dayOf(now, loc), loc)
}

// ConsistentDays counts the distinct days inside the trailing consistency
// window that carry at least one log.
func ConsistentDays(dates []time.Time, now time.Time, loc *time.Location) int {
	loc = orLocal(loc)
	return inWindow(distinct(dates, loc), dayOf(now, loc))
}

// Achievements reports which streak milestones maxStreak has reached.
func Achievements(maxStreak int) []models.Achievement {
	out := make([]models.Achievement, 0, len(constants.StreakMilestones))
	for _, days := range constants.StreakMilestones {
		out = append(out, models.Achievement{
			ID:     fmt.Sprintf("streak-%d", days),
			Days:   days,
			Earned: maxStreak >= days,
		})
	}
	return out
}

// streak counts consecutive days ending at the latest log. The run only
// counts while the latest log is today or yesterday; an older run is broken
// and reports 0.
func streak(dates []time.Time, today time.Time, loc *time.Location) int {
	days := distinct(dates, loc)
	if len(days) == 0 {
		return 0
	}

	sorted := make([]time.Time, 0, len(days))
	for d := range days {
		sorted = append(sorted, d)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })

	latest := sorted[0]
	if !latest.Equal(today) && !latest.Equal(today.AddDate(0, 0, -1)) {
		return 0
	}

	count := 1
	last := latest
	for _, d := range sorted[1:] {
		if !d.Equal(last.AddDate(0, 0, -1)) {
			break
		}
		count++
		last = d
	}
	return count
}

func consistency(days map[time.Time]struct{}, today time.Time) int {
	return int(math.Round(float64(inWindow(days, today)) / constants.ConsistencyWindowDays * 100))
}

// inWindow counts days in today-(window-1) .. today inclusive.
func inWindow(days map[time.Time]struct{}, today time.Time) int {
	start := today.AddDate(0, 0, -(constants.ConsistencyWindowDays - 1))
	n := 0
	for d := range days {
		if !d.Before(start) && !d.After(today) {
			n++
		}
	}
	return n
}

// distinct truncates each date to its calendar day in loc. Keys are UTC
// midnights so day arithmetic is free of DST shifts.
func distinct(dates []time.Time, loc *time.Location) map[time.Time]struct{} {
	days := make(map[time.Time]struct{}, len(dates))
	for _, t := range dates {
		days[dayOf(t, loc)] = struct{}{}
	}
	return days
}

func dayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
