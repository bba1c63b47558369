package stats

import (
	"time"

	"github.com/julianstephens/huddle/internal/models"
)

// Engine binds the statistics functions to a clock and a time zone.
type Engine struct {
	loc *time.Location
	now func() time.Time
}

// NewEngine creates an Engine. A nil loc means time.Local and a nil now
// means time.Now.
func NewEngine(loc *time.Location, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{loc: orLocal(loc), now: now}
}

func (e *Engine) Compute(habits []HabitLogs, counters Interactions) models.Stats {
	return Compute(habits, counters, e.now(), e.loc)
}

func (e *Engine) HabitStreak(dates []time.Time) int {
	return HabitStreak(dates, e.now(), e.loc)
}

// MaxStreak returns the longest current streak across habits.
func (e *Engine) MaxStreak(habits []HabitLogs) int {
	best := 0
	for _, h := range habits {
		if s := e.HabitStreak(h.Dates); s > best {
			best = s
		}
	}
	return best
}

// Location reports the zone "today" is evaluated in.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// Now returns the engine clock reading.
func (e *Engine) Now() time.Time {
	return e.now()
}
