package models

import "time"

type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatarUrl"`
	Bio         string    `json:"bio"`
	MemberSince time.Time `json:"memberSince"`
}

// Identity is what the external identity service vouches for on a request.
type Identity struct {
	UserID    string
	Name      string
	AvatarURL string
}
