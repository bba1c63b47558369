package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/huddle/internal/constants"
	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/models"
	"github.com/julianstephens/huddle/internal/stats"
	"github.com/julianstephens/huddle/internal/utils"
)

type NewHabit struct {
	Name      string                `json:"name"`
	Icon      string                `json:"icon"`
	Frequency models.HabitFrequency `json:"frequency"`
	Color     string                `json:"color"`
}

func (s *Service) AddHabit(ctx context.Context, userID string, in NewHabit) (models.Habit, error) {
	name, err := text("habit name", in.Name, constants.MaxHabitNameLen, true)
	if err != nil {
		return models.Habit{}, err
	}
	freq := in.Frequency
	if freq == "" {
		freq = models.FrequencyDaily
	}
	if !freq.Valid() {
		return models.Habit{}, apperrors.Invalid("unknown frequency %q", in.Frequency)
	}

	color := strings.TrimSpace(in.Color)
	if color == "" {
		existing, err := s.store.ListHabits(ctx, userID)
		if err != nil {
			return models.Habit{}, err
		}
		color = constants.HabitColors[len(existing)%len(constants.HabitColors)]
	}

	h := models.Habit{
		ID:        s.newID(),
		UserID:    userID,
		Name:      name,
		Icon:      strings.TrimSpace(in.Icon),
		Frequency: freq,
		Color:     color,
		CreatedAt: s.now(),
	}
	if err := s.store.AddHabit(ctx, h); err != nil {
		return models.Habit{}, err
	}
	return h, nil
}

// ListHabits returns the user's habits with their current streaks.
func (s *Service) ListHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	habits, err := s.store.ListHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	logs, err := s.habitLogs(ctx, userID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string][]time.Time, len(logs))
	for _, l := range logs {
		byID[l.HabitID] = l.Dates
	}
	for i := range habits {
		habits[i].Streak = s.engine.HabitStreak(byID[habits[i].ID])
	}
	return habits, nil
}

func (s *Service) DeleteHabit(ctx context.Context, userID, habitID string) error {
	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return err
	}
	return s.store.DeleteHabit(ctx, habitID)
}

// LogHabit records a check-in for day. Logging a day twice replaces the note.
func (s *Service) LogHabit(ctx context.Context, userID, habitID, day, note string) (models.HabitLog, error) {
	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return models.HabitLog{}, err
	}
	if !utils.ValidateDay(day) {
		return models.HabitLog{}, apperrors.Invalid("invalid date %q (expected YYYY-MM-DD)", day)
	}
	if utils.IsFutureDay(day, s.engine.Now(), s.engine.Location()) {
		return models.HabitLog{}, apperrors.Invalid("cannot log %s: the day has not started yet", day)
	}
	note, err := text("note", note, constants.MaxNoteLen, false)
	if err != nil {
		return models.HabitLog{}, err
	}

	now := s.now()
	return s.store.UpsertHabitLog(ctx, models.HabitLog{
		ID:        s.newID(),
		HabitID:   habitID,
		Day:       day,
		Note:      note,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) EditHabitLog(ctx context.Context, userID, logID, note string) (models.HabitLog, error) {
	l, err := s.ownedLog(ctx, userID, logID)
	if err != nil {
		return models.HabitLog{}, err
	}
	if note, err = text("note", note, constants.MaxNoteLen, false); err != nil {
		return models.HabitLog{}, err
	}
	if err := s.store.UpdateHabitLogNote(ctx, l.ID, note, s.now()); err != nil {
		return models.HabitLog{}, err
	}
	return s.store.GetHabitLog(ctx, l.ID)
}

func (s *Service) DeleteHabitLog(ctx context.Context, userID, logID string) error {
	if _, err := s.ownedLog(ctx, userID, logID); err != nil {
		return err
	}
	return s.store.DeleteHabitLog(ctx, logID)
}

// ListHabitLogs returns the habit's logs between from and to inclusive.
// Either bound may be empty.
func (s *Service) ListHabitLogs(ctx context.Context, userID, habitID, from, to string) ([]models.HabitLog, error) {
	if _, err := s.ownedHabit(ctx, userID, habitID); err != nil {
		return nil, err
	}
	for _, d := range []string{from, to} {
		if d != "" && !utils.ValidateDay(d) {
			return nil, apperrors.Invalid("invalid date %q (expected YYYY-MM-DD)", d)
		}
	}
	if from != "" && to != "" && from > to {
		return nil, apperrors.Invalid("from %s is after to %s", from, to)
	}
	return s.store.ListHabitLogs(ctx, habitID, from, to)
}

// Stats derives the user's profile statistics from scratch.
func (s *Service) Stats(ctx context.Context, userID string) (models.Stats, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return models.Stats{}, err
	}
	logs, err := s.habitLogs(ctx, userID)
	if err != nil {
		return models.Stats{}, err
	}
	supports, pushes, err := s.store.CountReactionsReceived(ctx, userID)
	if err != nil {
		return models.Stats{}, err
	}
	return s.engine.Compute(logs, stats.Interactions{Cheers: supports, Pushes: pushes}), nil
}

func (s *Service) maxStreak(ctx context.Context, userID string) (int, error) {
	logs, err := s.habitLogs(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.engine.MaxStreak(logs), nil
}

func (s *Service) habitLogs(ctx context.Context, userID string) ([]stats.HabitLogs, error) {
	days, err := s.store.LogDaysByHabit(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := s.engine.Location()
	out := make([]stats.HabitLogs, 0, len(days))
	for habitID, ds := range days {
		dates := make([]time.Time, 0, len(ds))
		for _, d := range ds {
			t, err := utils.ParseDay(d, loc)
			if err != nil {
				return nil, fmt.Errorf("habit %s: %w", habitID, err)
			}
			dates = append(dates, t)
		}
		out = append(out, stats.HabitLogs{HabitID: habitID, Dates: dates})
	}
	return out, nil
}

func (s *Service) ownedHabit(ctx context.Context, userID, habitID string) (models.Habit, error) {
	h, err := s.store.GetHabit(ctx, habitID)
	if err != nil {
		return models.Habit{}, err
	}
	if h.UserID != userID {
		return models.Habit{}, forbidden("habit %s belongs to another user", habitID)
	}
	return h, nil
}

func (s *Service) ownedLog(ctx context.Context, userID, logID string) (models.HabitLog, error) {
	l, err := s.store.GetHabitLog(ctx, logID)
	if err != nil {
		return models.HabitLog{}, err
	}
	if _, err := s.ownedHabit(ctx, userID, l.HabitID); err != nil {
		return models.HabitLog{}, err
	}
	return l, nil
}
