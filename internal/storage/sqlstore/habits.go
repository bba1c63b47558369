package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/huddle/internal/models"
)

const habitColumns = "id, user_id, name, icon, frequency, color, created_at"

func scanHabit(row rowScanner) (models.Habit, error) {
	var h models.Habit
	var freq, createdAt string
	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Icon, &freq, &h.Color, &createdAt); err != nil {
		return models.Habit{}, err
	}
	h.Frequency = models.HabitFrequency(freq)
	t, err := parseTime(createdAt, "created_at")
	if err != nil {
		return models.Habit{}, err
	}
	h.CreatedAt = t
	return h, nil
}

func (s *Store) AddHabit(ctx context.Context, h models.Habit) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO habits (id, user_id, name, icon, frequency, color, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.UserID, h.Name, h.Icon, string(h.Frequency), h.Color, formatTime(h.CreatedAt))
	if err != nil {
		return s.wrapErr(err, fmt.Sprintf("habit %q", h.Name))
	}
	return nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (models.Habit, error) {
	h, err := scanHabit(s.queryRow(ctx, s.db, "SELECT "+habitColumns+" FROM habits WHERE id = ?", id))
	if err != nil {
		return models.Habit{}, s.wrapErr(err, fmt.Sprintf("habit %s", id))
	}
	return h, nil
}

func (s *Store) ListHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	rows, err := s.query(ctx, s.db, "SELECT "+habitColumns+" FROM habits WHERE user_id = ? ORDER BY created_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := s.exec(ctx, tx, "DELETE FROM habit_logs WHERE habit_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete habit logs: %w", err)
		}
		res, err := s.exec(ctx, tx, "DELETE FROM habits WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete habit: %w", err)
		}
		return mustAffect(res, fmt.Sprintf("habit %s", id))
	})
}

const habitLogColumns = "id, habit_id, day, note, created_at, updated_at"

func scanHabitLog(row rowScanner) (models.HabitLog, error) {
	var l models.HabitLog
	var createdAt, updatedAt string
	if err := row.Scan(&l.ID, &l.HabitID, &l.Day, &l.Note, &createdAt, &updatedAt); err != nil {
		return models.HabitLog{}, err
	}
	var err error
	if l.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return models.HabitLog{}, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt, "updated_at"); err != nil {
		return models.HabitLog{}, err
	}
	return l, nil
}

func (s *Store) UpsertHabitLog(ctx context.Context, l models.HabitLog) (models.HabitLog, error) {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO habit_logs (id, habit_id, day, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (habit_id, day) DO UPDATE SET
			note = excluded.note,
			updated_at = excluded.updated_at`,
		l.ID, l.HabitID, l.Day, l.Note, formatTime(l.CreatedAt), formatTime(l.UpdatedAt))
	if err != nil {
		return models.HabitLog{}, s.wrapErr(err, "failed to save habit log")
	}

	stored, err := scanHabitLog(s.queryRow(ctx, s.db,
		"SELECT "+habitLogColumns+" FROM habit_logs WHERE habit_id = ? AND day = ?", l.HabitID, l.Day))
	if err != nil {
		return models.HabitLog{}, s.wrapErr(err, fmt.Sprintf("habit log %s/%s", l.HabitID, l.Day))
	}
	return stored, nil
}

func (s *Store) GetHabitLog(ctx context.Context, id string) (models.HabitLog, error) {
	l, err := scanHabitLog(s.queryRow(ctx, s.db, "SELECT "+habitLogColumns+" FROM habit_logs WHERE id = ?", id))
	if err != nil {
		return models.HabitLog{}, s.wrapErr(err, fmt.Sprintf("habit log %s", id))
	}
	return l, nil
}

func (s *Store) UpdateHabitLogNote(ctx context.Context, id, note string, at time.Time) error {
	res, err := s.exec(ctx, s.db, "UPDATE habit_logs SET note = ?, updated_at = ? WHERE id = ?", note, formatTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to update habit log: %w", err)
	}
	return mustAffect(res, fmt.Sprintf("habit log %s", id))
}

func (s *Store) DeleteHabitLog(ctx context.Context, id string) error {
	res, err := s.exec(ctx, s.db, "DELETE FROM habit_logs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete habit log: %w", err)
	}
	return mustAffect(res, fmt.Sprintf("habit log %s", id))
}

func (s *Store) ListHabitLogs(ctx context.Context, habitID, from, to string) ([]models.HabitLog, error) {
	query := "SELECT " + habitLogColumns + " FROM habit_logs WHERE habit_id = ?"
	args := []any{habitID}
	if from != "" {
		query += " AND day >= ?"
		args = append(args, from)
	}
	if to != "" {
		query += " AND day <= ?"
		args = append(args, to)
	}
	query += " ORDER BY day DESC"

	rows, err := s.query(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list habit logs: %w", err)
	}
	defer rows.Close()

	logs := []models.HabitLog{}
	for rows.Next() {
		l, err := scanHabitLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *Store) LogDaysByHabit(ctx context.Context, userID string) (map[string][]string, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT h.id, l.day
		FROM habits h
		LEFT JOIN habit_logs l ON l.habit_id = h.id
		WHERE h.user_id = ?
		ORDER BY h.id, l.day`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load log days: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var habitID string
		var day sql.NullString
		if err := rows.Scan(&habitID, &day); err != nil {
			return nil, err
		}
		if _, ok := out[habitID]; !ok {
			out[habitID] = []string{}
		}
		if day.Valid {
			out[habitID] = append(out[habitID], day.String)
		}
	}
	return out, rows.Err()
}
