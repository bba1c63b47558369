package sqlstore

import (
	"context"
	"fmt"

	"github.com/julianstephens/huddle/internal/models"
)

func (s *Store) AddNotification(ctx context.Context, n models.Notification) error {
	_, err := s.exec(ctx, s.db, `
		INSERT INTO notifications (id, recipient_id, type, actor_id, target_type, target_id, target_group_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.RecipientID, string(n.Type), n.Actor.ID, string(n.Target.Type), n.Target.ID, n.Target.HabitGroupID,
		n.IsRead, formatTime(n.Timestamp))
	if err != nil {
		return s.wrapErr(err, "failed to add notification")
	}
	return nil
}

// ListNotifications returns the recipient's notifications, newest first.
// Message is left empty; it is rendered for the reader's locale.
func (s *Store) ListNotifications(ctx context.Context, recipientID string) ([]models.Notification, error) {
	rows, err := s.query(ctx, s.db, `
		SELECT n.id, n.recipient_id, n.type, n.target_type, n.target_id, n.target_group_id, n.is_read, n.created_at,
			u.id, u.name, u.avatar_url, u.bio, u.member_since
		FROM notifications n
		JOIN users u ON u.id = n.actor_id
		WHERE n.recipient_id = ?
		ORDER BY n.created_at DESC, n.id DESC`, recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var typ, targetType, createdAt, since string
		err := rows.Scan(&n.ID, &n.RecipientID, &typ, &targetType, &n.Target.ID, &n.Target.HabitGroupID, &n.IsRead, &createdAt,
			&n.Actor.ID, &n.Actor.Name, &n.Actor.AvatarURL, &n.Actor.Bio, &since)
		if err != nil {
			return nil, err
		}
		n.Type = models.NotificationType(typ)
		n.Target.Type = models.TargetType(targetType)
		if n.Timestamp, err = parseTime(createdAt, "created_at"); err != nil {
			return nil, err
		}
		if n.Actor.MemberSince, err = parseTime(since, "member_since"); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, recipientID, id string) error {
	res, err := s.exec(ctx, s.db, "UPDATE notifications SET is_read = ? WHERE id = ? AND recipient_id = ?", true, id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return mustAffect(res, fmt.Sprintf("notification %s", id))
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error) {
	res, err := s.exec(ctx, s.db, "UPDATE notifications SET is_read = ? WHERE recipient_id = ? AND is_read = ?", true, recipientID, false)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	var n int
	err := s.queryRow(ctx, s.db, "SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = ?", recipientID, false).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}
