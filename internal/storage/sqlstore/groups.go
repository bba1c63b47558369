package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/models"
)

const groupSelect = `
	SELECT g.id, g.name, g.emoji, g.category, g.description, g.is_private,
		g.cover_image_url, g.created_at,
		u.id, u.name, u.avatar_url, u.bio, u.member_since,
		(SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id)
	FROM habit_groups g
	JOIN users u ON u.id = g.creator_id`

func scanGroup(row rowScanner) (models.HabitGroup, error) {
	var g models.HabitGroup
	var createdAt, since string
	err := row.Scan(&g.ID, &g.Name, &g.Emoji, &g.Category, &g.Description, &g.IsPrivate,
		&g.CoverImageURL, &createdAt,
		&g.Creator.ID, &g.Creator.Name, &g.Creator.AvatarURL, &g.Creator.Bio, &since,
		&g.MemberCount)
	if err != nil {
		return models.HabitGroup{}, err
	}
	if g.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return models.HabitGroup{}, err
	}
	if g.Creator.MemberSince, err = parseTime(since, "member_since"); err != nil {
		return models.HabitGroup{}, err
	}
	return g, nil
}

func (s *Store) AddGroup(ctx context.Context, g models.HabitGroup) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := s.exec(ctx, tx, `
			INSERT INTO habit_groups (id, name, emoji, category, description, is_private, cover_image_url, creator_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.Name, g.Emoji, g.Category, g.Description, g.IsPrivate, g.CoverImageURL, g.Creator.ID, formatTime(g.CreatedAt))
		if err != nil {
			return s.wrapErr(err, fmt.Sprintf("group %q", g.Name))
		}
		_, err = s.exec(ctx, tx, "INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
			g.ID, g.Creator.ID, formatTime(g.CreatedAt))
		if err != nil {
			return s.wrapErr(err, "failed to add group creator")
		}
		return nil
	})
}

func (s *Store) GetGroup(ctx context.Context, id string) (models.HabitGroup, error) {
	g, err := scanGroup(s.queryRow(ctx, s.db, groupSelect+" WHERE g.id = ?", id))
	if err != nil {
		return models.HabitGroup{}, s.wrapErr(err, fmt.Sprintf("group %s", id))
	}
	if g.Members, err = s.members(ctx, s.db, id); err != nil {
		return models.HabitGroup{}, err
	}
	return g, nil
}

// ListGroups returns groups whose name or description contains query,
// ignoring case. An empty query lists every group.
func (s *Store) ListGroups(ctx context.Context, query string) ([]models.HabitGroup, error) {
	q := groupSelect
	var args []any
	if query != "" {
		q += ` WHERE LOWER(g.name) LIKE ? ESCAPE '\' OR LOWER(g.description) LIKE ? ESCAPE '\'`
		p := likePattern(query)
		args = append(args, p, p)
	}
	q += " ORDER BY g.created_at DESC, g.id"

	rows, err := s.query(ctx, s.db, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	groups := []models.HabitGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range groups {
		if groups[i].Members, err = s.members(ctx, s.db, groups[i].ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

func (s *Store) UpdateGroup(ctx context.Context, g models.HabitGroup) error {
	res, err := s.exec(ctx, s.db, `
		UPDATE habit_groups
		SET name = ?, emoji = ?, category = ?, description = ?, is_private = ?, cover_image_url = ?
		WHERE id = ?`,
		g.Name, g.Emoji, g.Category, g.Description, g.IsPrivate, g.CoverImageURL, g.ID)
	if err != nil {
		return s.wrapErr(err, "failed to update group")
	}
	return mustAffect(res, fmt.Sprintf("group %s", g.ID))
}

// DeleteGroup removes the group and everything hanging off it.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			"DELETE FROM post_interactions WHERE post_id IN (SELECT id FROM posts WHERE group_id = ?)",
			"DELETE FROM comments WHERE post_id IN (SELECT id FROM posts WHERE group_id = ?)",
			"DELETE FROM posts WHERE group_id = ?",
			"DELETE FROM join_requests WHERE group_id = ?",
			"DELETE FROM group_members WHERE group_id = ?",
			"DELETE FROM notifications WHERE target_group_id = ?",
		}
		for _, stmt := range stmts {
			if _, err := s.exec(ctx, tx, stmt, id); err != nil {
				return fmt.Errorf("failed to delete group %s: %w", id, err)
			}
		}
		res, err := s.exec(ctx, tx, "DELETE FROM habit_groups WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete group %s: %w", id, err)
		}
		return mustAffect(res, fmt.Sprintf("group %s", id))
	})
}

func (s *Store) AddMember(ctx context.Context, groupID, userID string, max int, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.addMember(ctx, tx, groupID, userID, max, at)
	})
}

// addMember enforces the membership cap while holding the group row.
func (s *Store) addMember(ctx context.Context, tx *sql.Tx, groupID, userID string, max int, at time.Time) error {
	var id string
	if err := s.queryRow(ctx, tx, "SELECT id FROM habit_groups WHERE id = ?"+s.d.LockClause, groupID).Scan(&id); err != nil {
		return s.wrapErr(err, fmt.Sprintf("group %s", groupID))
	}

	member, err := s.isMember(ctx, tx, groupID, userID)
	if err != nil {
		return err
	}
	if member {
		return fmt.Errorf("user %s is already a member: %w", userID, apperrors.ErrConflict)
	}

	var count int
	if err := s.queryRow(ctx, tx, "SELECT COUNT(*) FROM group_members WHERE group_id = ?", groupID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count members: %w", err)
	}
	if count >= max {
		return fmt.Errorf("group %s has %d members: %w", groupID, count, apperrors.ErrGroupFull)
	}

	_, err = s.exec(ctx, tx, "INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
		groupID, userID, formatTime(at))
	if err != nil {
		return s.wrapErr(err, "failed to add member")
	}
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, groupID, userID string) error {
	res, err := s.exec(ctx, s.db, "DELETE FROM group_members WHERE group_id = ? AND user_id = ?", groupID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return mustAffect(res, fmt.Sprintf("member %s of group %s", userID, groupID))
}

func (s *Store) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	return s.isMember(ctx, s.db, groupID, userID)
}

func (s *Store) isMember(ctx context.Context, db querier, groupID, userID string) (bool, error) {
	var n int
	err := s.queryRow(ctx, db, "SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?", groupID, userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return n > 0, nil
}

func (s *Store) members(ctx context.Context, db querier, groupID string) ([]models.User, error) {
	rows, err := s.query(ctx, db, `
		SELECT u.id, u.name, u.avatar_url, u.bio, u.member_since
		FROM group_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.group_id = ?
		ORDER BY m.joined_at, u.id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load members: %w", err)
	}
	defer rows.Close()

	members := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, u)
	}
	return members, rows.Err()
}

const joinRequestSelect = `
	SELECT r.id, r.group_id, r.status, r.created_at, r.resolved_at,
		u.id, u.name, u.avatar_url, u.bio, u.member_since
	FROM join_requests r
	JOIN users u ON u.id = r.user_id`

func scanJoinRequest(row rowScanner) (models.JoinRequest, error) {
	var r models.JoinRequest
	var status, createdAt, since string
	var resolvedAt sql.NullString
	err := row.Scan(&r.ID, &r.GroupID, &status, &createdAt, &resolvedAt,
		&r.User.ID, &r.User.Name, &r.User.AvatarURL, &r.User.Bio, &since)
	if err != nil {
		return models.JoinRequest{}, err
	}
	r.Status = models.JoinRequestStatus(status)
	if r.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return models.JoinRequest{}, err
	}
	if r.User.MemberSince, err = parseTime(since, "member_since"); err != nil {
		return models.JoinRequest{}, err
	}
	if resolvedAt.Valid {
		t, err := parseTime(resolvedAt.String, "resolved_at")
		if err != nil {
			return models.JoinRequest{}, err
		}
		r.ResolvedAt = &t
	}
	return r, nil
}

func (s *Store) AddJoinRequest(ctx context.Context, r models.JoinRequest) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO join_requests (id, group_id, user_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.GroupID, r.User.ID, string(r.Status), formatTime(r.CreatedAt))
	if err != nil {
		return s.wrapErr(err, "pending join request")
	}
	return nil
}

func (s *Store) GetJoinRequest(ctx context.Context, id string) (models.JoinRequest, error) {
	return s.getJoinRequest(ctx, s.db, id)
}

func (s *Store) getJoinRequest(ctx context.Context, db querier, id string) (models.JoinRequest, error) {
	r, err := scanJoinRequest(s.queryRow(ctx, db, joinRequestSelect+" WHERE r.id = ?", id))
	if err != nil {
		return models.JoinRequest{}, s.wrapErr(err, fmt.Sprintf("join request %s", id))
	}
	return r, nil
}

// ListJoinRequests lists a group's requests, oldest first. An empty status
// lists all of them.
func (s *Store) ListJoinRequests(ctx context.Context, groupID string, status models.JoinRequestStatus) ([]models.JoinRequest, error) {
	q := joinRequestSelect + " WHERE r.group_id = ?"
	args := []any{groupID}
	if status != "" {
		q += " AND r.status = ?"
		args = append(args, string(status))
	}
	q += " ORDER BY r.created_at, r.id"

	rows, err := s.query(ctx, s.db, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	defer rows.Close()

	out := []models.JoinRequest{}
	for rows.Next() {
		r, err := scanJoinRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ResolveJoinRequest(ctx context.Context, id string, accept bool, max int, at time.Time) (models.JoinRequest, error) {
	var resolved models.JoinRequest
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var groupID, userID, status string
		err := s.queryRow(ctx, tx, "SELECT group_id, user_id, status FROM join_requests WHERE id = ?"+s.d.LockClause, id).
			Scan(&groupID, &userID, &status)
		if err != nil {
			return s.wrapErr(err, fmt.Sprintf("join request %s", id))
		}
		if models.JoinRequestStatus(status) != models.JoinRequestPending {
			return fmt.Errorf("join request %s is already %s: %w", id, status, apperrors.ErrConflict)
		}

		next := models.JoinRequestDeclined
		if accept {
			next = models.JoinRequestAccepted
			err := s.addMember(ctx, tx, groupID, userID, max, at)
			if err != nil && !apperrors.Is(err, apperrors.ErrConflict) {
				return err
			}
		}

		_, err = s.exec(ctx, tx, "UPDATE join_requests SET status = ?, resolved_at = ? WHERE id = ?",
			string(next), formatTime(at), id)
		if err != nil {
			return fmt.Errorf("failed to resolve join request: %w", err)
		}

		resolved, err = s.getJoinRequest(ctx, tx, id)
		return err
	})
	return resolved, err
}
