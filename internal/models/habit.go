package models

import "time"

type HabitFrequency string

const (
	FrequencyDaily  HabitFrequency = "Daily"
	FrequencyWeekly HabitFrequency = "Weekly"
	FrequencyCustom HabitFrequency = "Custom"
)

// Valid reports whether f is one of the known frequencies.
func (f HabitFrequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyCustom:
		return true
	}
	return false
}

// Habit represents a personal practice owned by one user
type Habit struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Name      string         `json:"name"`
	Icon      string         `json:"icon"`
	Frequency HabitFrequency `json:"frequency"`
	Color     string         `json:"color"`
	Streak    int            `json:"streak"` // derived from logs, never stored
	CreatedAt time.Time      `json:"createdAt"`
}

// HabitLog represents a single day's check-in for a habit
type HabitLog struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habitId"`
	Day       string    `json:"date"` // YYYY-MM-DD format
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
