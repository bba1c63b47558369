package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/models"
)

// orderedPair stores each pair of users under one canonical order.
func orderedPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

func (s *Store) ConversationBetween(ctx context.Context, a, b, newID string, at time.Time) (models.Conversation, error) {
	ua, ub := orderedPair(a, b)

	var id string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		err := s.queryRow(ctx, tx, "SELECT id FROM conversations WHERE user_a = ? AND user_b = ?", ua, ub).Scan(&id)
		if err == nil {
			return nil
		}
		if !apperrors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to find conversation: %w", err)
		}
		_, err = s.exec(ctx, tx, "INSERT INTO conversations (id, user_a, user_b, created_at) VALUES (?, ?, ?, ?)",
			newID, ua, ub, formatTime(at))
		if err != nil {
			return s.wrapErr(err, "failed to create conversation")
		}
		id = newID
		return nil
	})
	if apperrors.Is(err, apperrors.ErrConflict) {
		// Lost a race with another writer; the row exists now.
		err = s.queryRow(ctx, s.db, "SELECT id FROM conversations WHERE user_a = ? AND user_b = ?", ua, ub).Scan(&id)
		if err != nil {
			return models.Conversation{}, s.wrapErr(err, "conversation")
		}
	} else if err != nil {
		return models.Conversation{}, err
	}

	return s.GetConversation(ctx, id)
}

// GetConversation loads a conversation with its participants and full history.
func (s *Store) GetConversation(ctx context.Context, id string) (models.Conversation, error) {
	var c models.Conversation
	var ua, ub, createdAt string
	err := s.queryRow(ctx, s.db, "SELECT id, user_a, user_b, created_at FROM conversations WHERE id = ?", id).
		Scan(&c.ID, &ua, &ub, &createdAt)
	if err != nil {
		return models.Conversation{}, s.wrapErr(err, fmt.Sprintf("conversation %s", id))
	}
	if c.CreatedAt, err = parseTime(createdAt, "created_at"); err != nil {
		return models.Conversation{}, err
	}

	users, err := s.usersByID(ctx, s.db, []string{ua, ub})
	if err != nil {
		return models.Conversation{}, err
	}
	c.Participants = []models.User{users[ua], users[ub]}

	if c.Messages, err = s.messages(ctx, id); err != nil {
		return models.Conversation{}, err
	}
	return c, nil
}

// ListConversations returns the user's conversations, most recently active first.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	rows, err := s.query(ctx, s.db, "SELECT id FROM conversations WHERE user_a = ? OR user_b = ?", userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]models.Conversation, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetConversation(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lastActivity(out[i]).After(lastActivity(out[j]))
	})
	return out, nil
}

func lastActivity(c models.Conversation) time.Time {
	if n := len(c.Messages); n > 0 {
		return c.Messages[n-1].Timestamp
	}
	return c.CreatedAt
}

func (s *Store) AddMessage(ctx context.Context, m models.ChatMessage) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO messages (id, conversation_id, sender_id, text, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		m.ID, m.ConversationID, m.SenderID, m.Text, formatTime(m.Timestamp))
	if err != nil {
		return s.wrapErr(err, "failed to add message")
	}
	return nil
}

func (s *Store) messages(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT id, conversation_id, sender_id, text, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at, id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	out := []models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		var createdAt string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Text, &createdAt); err != nil {
			return nil, err
		}
		if m.Timestamp, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
