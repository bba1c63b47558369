package service

import (
	"context"

	"golang.org/x/text/language"

	"github.com/julianstephens/huddle/internal/events"
	"github.com/julianstephens/huddle/internal/i18n"
	"github.com/julianstephens/huddle/internal/logger"
	"github.com/julianstephens/huddle/internal/models"
)

var notificationKeys = map[models.NotificationType]i18n.Key{
	models.NotificationMessage:     i18n.NotifyMessage,
	models.NotificationCheer:       i18n.NotifyCheer,
	models.NotificationPush:        i18n.NotifyPush,
	models.NotificationComment:     i18n.NotifyComment,
	models.NotificationJoinRequest: i18n.NotifyJoinRequest,
}

// RenderMessage renders the notification text for locale.
func RenderMessage(locale language.Tag, n models.Notification) string {
	key, ok := notificationKeys[n.Type]
	if !ok {
		return string(n.Type)
	}
	return i18n.T(locale, key, n.Actor.Name)
}

// ListNotifications returns the user's notifications, newest first, with
// messages rendered in the request locale.
func (s *Service) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	list, err := s.store.ListNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	locale := i18n.FromContext(ctx)
	for i := range list {
		list[i].Message = RenderMessage(locale, list[i])
	}
	return list, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.store.UnreadCount(ctx, userID)
}

func (s *Service) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkNotificationRead(ctx, userID, notificationID)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	return s.store.MarkAllNotificationsRead(ctx, userID)
}

// notify records a notification for recipientID and publishes it. Nobody is
// notified about their own actions. Failures are logged, never returned:
// the action that caused the notification has already been stored.
func (s *Service) notify(ctx context.Context, recipientID string, actor models.User, typ models.NotificationType, target models.NotificationTarget) {
	if recipientID == "" || recipientID == actor.ID {
		return
	}
	n := models.Notification{
		ID:          s.newID(),
		RecipientID: recipientID,
		Type:        typ,
		Actor:       actor,
		Timestamp:   s.now(),
		Target:      target,
	}
	if err := s.store.AddNotification(ctx, n); err != nil {
		logger.Error("Failed to store notification", "type", typ, "recipient", recipientID, "error", err)
		return
	}
	msg := RenderMessage(i18n.English, n)
	if err := s.events.Publish(ctx, events.FromNotification(n, msg)); err != nil {
		logger.Warn("Failed to publish notification", "id", n.ID, "error", err)
	}
}
