package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/interaction"
	"github.com/julianstephens/huddle/internal/models"
)

const postSelect = `
	SELECT p.id, p.group_id, p.note, p.image_url, p.streak, p.created_at,
		u.id, u.name, u.avatar_url, u.bio, u.member_since
	FROM posts p
	JOIN users u ON u.id = p.user_id`

func scanPost(row rowScanner) (models.Post, error) {
	var p models.Post
	var createdAt, since string
	err := row.Scan(&p.ID, &p.HabitGroupID, &p.Note, &p.ImageURL, &p.Streak, &createdAt,
		&p.User.ID, &p.User.Name, &p.User.AvatarURL, &p.User.Bio, &since)
	if err != nil {
		return models.Post{}, err
	}
	if p.Timestamp, err = parseTime(createdAt, "created_at"); err != nil {
		return models.Post{}, err
	}
	if p.User.MemberSince, err = parseTime(since, "member_since"); err != nil {
		return models.Post{}, err
	}
	p.SupportedBy = []string{}
	p.PushedBy = []string{}
	p.Comments = []models.Comment{}
	return p, nil
}

func (s *Store) AddPost(ctx context.Context, p models.Post) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO posts (id, user_id, group_id, note, image_url, streak, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.User.ID, p.HabitGroupID, p.Note, p.ImageURL, p.Streak, formatTime(p.Timestamp))
	if err != nil {
		return s.wrapErr(err, "failed to add post")
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (models.Post, error) {
	p, err := scanPost(s.queryRow(ctx, s.db, postSelect+" WHERE p.id = ?", id))
	if err != nil {
		return models.Post{}, s.wrapErr(err, fmt.Sprintf("post %s", id))
	}
	posts := []models.Post{p}
	if err := s.hydratePosts(ctx, "p.id = ?", id, posts); err != nil {
		return models.Post{}, err
	}
	return posts[0], nil
}

// ListPosts returns a group's feed, newest first.
func (s *Store) ListPosts(ctx context.Context, groupID string) ([]models.Post, error) {
	rows, err := s.query(ctx, s.db, postSelect+" WHERE p.group_id = ? ORDER BY p.created_at DESC, p.id DESC", groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.hydratePosts(ctx, "p.group_id = ?", groupID, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// hydratePosts fills reactions and comments for posts matching where. Counts
// are derived from the loaded sets.
func (s *Store) hydratePosts(ctx context.Context, where string, arg any, posts []models.Post) error {
	index := make(map[string]int, len(posts))
	for i, p := range posts {
		index[p.ID] = i
	}

	rows, err := s.query(ctx, s.db, `
		SELECT i.post_id, i.user_id, i.kind
		FROM post_interactions i
		JOIN posts p ON p.id = i.post_id
		WHERE `+where+`
		ORDER BY i.created_at, i.user_id`, arg)
	if err != nil {
		return fmt.Errorf("failed to load interactions: %w", err)
	}
	for rows.Next() {
		var postID, userID, kind string
		if err := rows.Scan(&postID, &userID, &kind); err != nil {
			rows.Close()
			return err
		}
		i, ok := index[postID]
		if !ok {
			continue
		}
		switch models.InteractionKind(kind) {
		case models.InteractionSupport:
			posts[i].SupportedBy = append(posts[i].SupportedBy, userID)
		case models.InteractionPush:
			posts[i].PushedBy = append(posts[i].PushedBy, userID)
		}
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.query(ctx, s.db, `
		SELECT c.id, c.post_id, c.text, c.created_at,
			u.id, u.name, u.avatar_url, u.bio, u.member_since
		FROM comments c
		JOIN posts p ON p.id = c.post_id
		JOIN users u ON u.id = c.user_id
		WHERE `+where+`
		ORDER BY c.created_at, c.id`, arg)
	if err != nil {
		return fmt.Errorf("failed to load comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c models.Comment
		var createdAt, since string
		err := rows.Scan(&c.ID, &c.PostID, &c.Text, &createdAt,
			&c.User.ID, &c.User.Name, &c.User.AvatarURL, &c.User.Bio, &since)
		if err != nil {
			return err
		}
		if c.Timestamp, err = parseTime(createdAt, "created_at"); err != nil {
			return err
		}
		if c.User.MemberSince, err = parseTime(since, "member_since"); err != nil {
			return err
		}
		if i, ok := index[c.PostID]; ok {
			posts[i].Comments = append(posts[i].Comments, c)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range posts {
		posts[i].Supports = len(posts[i].SupportedBy)
		posts[i].Pushes = len(posts[i].PushedBy)
	}
	return nil
}

// ApplyInteraction reads the user's current reaction, computes the next state
// and writes it back inside one transaction keyed by (post, user).
func (s *Store) ApplyInteraction(ctx context.Context, postID, userID string, kind models.InteractionKind, at time.Time) (models.Post, interaction.State, error) {
	var next interaction.State
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var id string
		if err := s.queryRow(ctx, tx, "SELECT id FROM posts WHERE id = ?"+s.d.LockClause, postID).Scan(&id); err != nil {
			return s.wrapErr(err, fmt.Sprintf("post %s", postID))
		}

		current := interaction.StateNone
		var held string
		err := s.queryRow(ctx, tx, "SELECT kind FROM post_interactions WHERE post_id = ? AND user_id = ?", postID, userID).Scan(&held)
		switch {
		case err == nil:
			current, err = stateOf(models.InteractionKind(held))
			if err != nil {
				return err
			}
		case !apperrors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to read interaction: %w", err)
		}

		next, err = interaction.Next(current, kind)
		if err != nil {
			return err
		}

		switch {
		case next == interaction.StateNone:
			_, err = s.exec(ctx, tx, "DELETE FROM post_interactions WHERE post_id = ? AND user_id = ?", postID, userID)
		case current == interaction.StateNone:
			_, err = s.exec(ctx, tx, "INSERT INTO post_interactions (post_id, user_id, kind, created_at) VALUES (?, ?, ?, ?)",
				postID, userID, string(kind), formatTime(at))
		default:
			_, err = s.exec(ctx, tx, "UPDATE post_interactions SET kind = ?, created_at = ? WHERE post_id = ? AND user_id = ?",
				string(kind), formatTime(at), postID, userID)
		}
		if err != nil {
			return s.wrapErr(err, "failed to write interaction")
		}
		return nil
	})
	if err != nil {
		return models.Post{}, "", err
	}

	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return models.Post{}, "", err
	}
	return post, next, nil
}

func stateOf(kind models.InteractionKind) (interaction.State, error) {
	switch kind {
	case models.InteractionSupport:
		return interaction.StateSupported, nil
	case models.InteractionPush:
		return interaction.StatePushed, nil
	}
	return "", fmt.Errorf("stored %w: %q", interaction.ErrUnknownKind, kind)
}

func (s *Store) AddComment(ctx context.Context, c models.Comment) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO comments (id, post_id, user_id, text, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.PostID, c.User.ID, c.Text, formatTime(c.Timestamp))
	if err != nil {
		return s.wrapErr(err, "failed to add comment")
	}
	return nil
}

func (s *Store) CountReactionsReceived(ctx context.Context, userID string) (int, int, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT i.kind, COUNT(*)
		FROM post_interactions i
		JOIN posts p ON p.id = i.post_id
		WHERE p.user_id = ?
		GROUP BY i.kind`, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count reactions: %w", err)
	}
	defer rows.Close()

	var supports, pushes int
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return 0, 0, err
		}
		switch models.InteractionKind(kind) {
		case models.InteractionSupport:
			supports = n
		case models.InteractionPush:
			pushes = n
		}
	}
	return supports, pushes, rows.Err()
}
