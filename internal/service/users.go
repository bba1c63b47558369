package service

import (
	"context"
	"strings"

	"github.com/julianstephens/huddle/internal/constants"
	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/models"
)

// ProfileUpdate carries the profile fields to change; nil leaves a field as is.
type ProfileUpdate struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
	Bio       *string `json:"bio,omitempty"`
}

// EnsureUser returns the user behind id, creating the profile from the
// identity claims on first sight. Existing profiles are left untouched.
func (s *Service) EnsureUser(ctx context.Context, id models.Identity) (models.User, error) {
	if strings.TrimSpace(id.UserID) == "" {
		return models.User{}, apperrors.ErrUnauthenticated
	}
	name := strings.TrimSpace(id.Name)
	if name == "" {
		name = id.UserID
	}
	if len([]rune(name)) > constants.MaxDisplayNameLen {
		name = string([]rune(name)[:constants.MaxDisplayNameLen])
	}
	return s.store.EnsureUser(ctx, models.User{
		ID:          id.UserID,
		Name:        name,
		AvatarURL:   id.AvatarURL,
		MemberSince: s.now(),
	})
}

func (s *Service) GetUser(ctx context.Context, userID string) (models.User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (models.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if upd.Name != nil {
		if u.Name, err = text("name", *upd.Name, constants.MaxDisplayNameLen, true); err != nil {
			return models.User{}, err
		}
	}
	if upd.AvatarURL != nil {
		u.AvatarURL = strings.TrimSpace(*upd.AvatarURL)
	}
	if upd.Bio != nil {
		if u.Bio, err = text("bio", *upd.Bio, constants.MaxNoteLen, false); err != nil {
			return models.User{}, err
		}
	}
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return models.User{}, err
	}
	return u, nil
}
