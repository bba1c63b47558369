package models

import "time"

type NotificationType string

const (
	NotificationMessage     NotificationType = "message"
	NotificationCheer       NotificationType = "cheer"
	NotificationPush        NotificationType = "push"
	NotificationComment     NotificationType = "comment"
	NotificationJoinRequest NotificationType = "join_request"
)

type TargetType string

const (
	TargetPost       TargetType = "post"
	TargetChat       TargetType = "chat"
	TargetHabitGroup TargetType = "habit_group"
)

type NotificationTarget struct {
	Type         TargetType `json:"type"`
	ID           string     `json:"id"`
	HabitGroupID string     `json:"habitGroupId,omitempty"`
}

type Notification struct {
	ID          string             `json:"id"`
	RecipientID string             `json:"recipientId"`
	Type        NotificationType   `json:"type"`
	Actor       User               `json:"actor"`
	Timestamp   time.Time          `json:"timestamp"`
	IsRead      bool               `json:"isRead"`
	Target      NotificationTarget `json:"target"`
	Message     string             `json:"message,omitempty"` // rendered per request locale
}
