// Package events delivers notification events to systems outside huddle.
package events

import (
	"context"
	"time"

	"github.com/julianstephens/huddle/internal/models"
)

// Event is the JSON document published for every created notification.
type Event struct {
	Type           models.NotificationType `json:"type"`
	RecipientID    string                  `json:"recipientId"`
	NotificationID string                  `json:"notificationId"`
	Payload        Payload                 `json:"payload"`
}

type Payload struct {
	Actor     models.User               `json:"actor"`
	Target    models.NotificationTarget `json:"target"`
	Message   string                    `json:"message"`
	Timestamp time.Time                 `json:"timestamp"`
}

// Publisher hands events to a transport. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// FromNotification builds the event for n; message is the rendered text.
func FromNotification(n models.Notification, message string) Event {
	return Event{
		Type:           n.Type,
		RecipientID:    n.RecipientID,
		NotificationID: n.ID,
		Payload: Payload{
			Actor:     n.Actor,
			Target:    n.Target,
			Message:   message,
			Timestamp: n.Timestamp,
		},
	}
}

// Options selects a transport. At most one of WebhookURL and AMQPURL is set.
type Options struct {
	WebhookURL    string
	WebhookSecret string
	AMQPURL       string
}

// New returns the publisher described by opts, or Nop when none is configured.
func New(opts Options) (Publisher, error) {
	switch {
	case opts.AMQPURL != "":
		return NewAMQP(opts.AMQPURL)
	case opts.WebhookURL != "":
		return NewWebhook(opts.WebhookURL, opts.WebhookSecret), nil
	default:
		return Nop{}, nil
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
