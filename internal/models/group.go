package models

import "time"

type GroupTag struct {
	Emoji string `json:"emoji"`
	Text  string `json:"text"`
}

// HabitGroup is a community sharing an accountability feed around one habit theme
type HabitGroup struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Emoji         string    `json:"emoji"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	IsPrivate     bool      `json:"isPrivate"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	Creator       User      `json:"creator"`
	Members       []User    `json:"members"`
	MemberCount   int       `json:"memberCount"`
	Tag           GroupTag  `json:"tag"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HasMember reports whether userID is in the group's member list.
func (g HabitGroup) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestAccepted JoinRequestStatus = "accepted"
	JoinRequestDeclined JoinRequestStatus = "declined"
)

type JoinRequest struct {
	ID         string            `json:"id"`
	GroupID    string            `json:"groupId"`
	User       User              `json:"user"`
	Status     JoinRequestStatus `json:"status"`
	CreatedAt  time.Time         `json:"createdAt"`
	ResolvedAt *time.Time        `json:"resolvedAt,omitempty"`
}
