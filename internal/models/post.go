package models

import "time"

type InteractionKind string

const (
	InteractionSupport InteractionKind = "support"
	InteractionPush    InteractionKind = "push"
)

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	User      User      `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Post is a progress update shared in a habit group feed.
// SupportedBy and PushedBy are disjoint; Supports and Pushes mirror their sizes.
type Post struct {
	ID           string    `json:"id"`
	User         User      `json:"user"`
	HabitGroupID string    `json:"habitGroupId"`
	Timestamp    time.Time `json:"timestamp"`
	Note         string    `json:"note"`
	ImageURL     string    `json:"imageUrl,omitempty"`
	Supports     int       `json:"supports"`
	SupportedBy  []string  `json:"supportedBy"`
	Pushes       int       `json:"pushes"`
	PushedBy     []string  `json:"pushedBy"`
	Comments     []Comment `json:"comments"`
	Streak       int       `json:"streak"`
}
