package sqlstore

import (
	"context"
	"fmt"

	"github.com/julianstephens/huddle/internal/models"
)

const userColumns = "id, name, avatar_url, bio, member_since"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	var since string
	if err := row.Scan(&u.ID, &u.Name, &u.AvatarURL, &u.Bio, &since); err != nil {
		return models.User{}, err
	}
	t, err := parseTime(since, "member_since")
	if err != nil {
		return models.User{}, err
	}
	u.MemberSince = t
	return u, nil
}

// EnsureUser inserts u unless a user with that id exists, then returns the
// stored row. An existing profile is never overwritten.
func (s *Store) EnsureUser(ctx context.Context, u models.User) (models.User, error) {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO users (id, name, avatar_url, bio, member_since)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		u.ID, u.Name, u.AvatarURL, u.Bio, formatTime(u.MemberSince))
	if err != nil {
		return models.User{}, s.wrapErr(err, "failed to ensure user")
	}
	return s.GetUser(ctx, u.ID)
}

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	return s.getUser(ctx, s.db, id)
}

func (s *Store) getUser(ctx context.Context, db querier, id string) (models.User, error) {
	u, err := scanUser(s.queryRow(ctx, db, "SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		return models.User{}, s.wrapErr(err, fmt.Sprintf("user %s", id))
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u models.User) error {
	res, err := s.exec(ctx, s.db, `
		UPDATE users SET name = ?, avatar_url = ?, bio = ? WHERE id = ?`,
		u.Name, u.AvatarURL, u.Bio, u.ID)
	if err != nil {
		return s.wrapErr(err, "failed to update user")
	}
	return mustAffect(res, fmt.Sprintf("user %s", u.ID))
}

// usersByID loads the given users in one query.
func (s *Store) usersByID(ctx context.Context, db querier, ids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.query(ctx, db, "SELECT "+userColumns+" FROM users WHERE id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, 2*n)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}

