package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/julianstephens/huddle/internal/constants"
	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/i18n"
	"github.com/julianstephens/huddle/internal/models"
)

type NewGroup struct {
	Name          string `json:"name"`
	Emoji         string `json:"emoji"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	Rules         string `json:"rules"`
	IsPrivate     bool   `json:"isPrivate"`
	CoverImageURL string `json:"coverImageUrl"`
}

// GroupUpdate carries the group fields to change; nil leaves a field as is.
type GroupUpdate struct {
	Name          *string `json:"name,omitempty"`
	Emoji         *string `json:"emoji,omitempty"`
	Category      *string `json:"category,omitempty"`
	Description   *string `json:"description,omitempty"`
	IsPrivate     *bool   `json:"isPrivate,omitempty"`
	CoverImageURL *string `json:"coverImageUrl,omitempty"`
}

// CreateGroup stores a new group with userID as creator and first member.
func (s *Service) CreateGroup(ctx context.Context, userID string, in NewGroup) (models.HabitGroup, error) {
	name, err := text("group name", in.Name, constants.MaxGroupNameLen, true)
	if err != nil {
		return models.HabitGroup{}, err
	}
	cat, ok := LookupCategory(in.Category)
	if !ok {
		return models.HabitGroup{}, apperrors.Invalid("unknown category %q", in.Category)
	}
	creator, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.HabitGroup{}, err
	}

	desc := strings.TrimSpace(in.Description)
	if rules := strings.TrimSpace(in.Rules); rules != "" {
		desc = desc + "\n\n**Rules:**\n" + rules
	}
	if desc, err = text("description", desc, constants.MaxNoteLen, false); err != nil {
		return models.HabitGroup{}, err
	}
	emoji := strings.TrimSpace(in.Emoji)
	if emoji == "" {
		emoji = cat.Emoji
	}

	g := models.HabitGroup{
		ID:            s.newID(),
		Name:          name,
		Emoji:         emoji,
		Category:      cat.ID,
		Description:   desc,
		IsPrivate:     in.IsPrivate,
		CoverImageURL: strings.TrimSpace(in.CoverImageURL),
		Creator:       creator,
		CreatedAt:     s.now(),
	}
	if err := s.store.AddGroup(ctx, g); err != nil {
		return models.HabitGroup{}, err
	}
	return s.group(ctx, g.ID)
}

// ListGroups searches group names and descriptions, ignoring case.
func (s *Service) ListGroups(ctx context.Context, query string, locale language.Tag) ([]models.HabitGroup, error) {
	groups, err := s.store.ListGroups(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	for i := range groups {
		groups[i] = withTag(groups[i], locale)
	}
	return groups, nil
}

func (s *Service) GetGroup(ctx context.Context, groupID string) (models.HabitGroup, error) {
	return s.group(ctx, groupID)
}

func (s *Service) UpdateGroup(ctx context.Context, userID, groupID string, upd GroupUpdate) (models.HabitGroup, error) {
	g, err := s.createdGroup(ctx, userID, groupID)
	if err != nil {
		return models.HabitGroup{}, err
	}
	if upd.Name != nil {
		if g.Name, err = text("group name", *upd.Name, constants.MaxGroupNameLen, true); err != nil {
			return models.HabitGroup{}, err
		}
	}
	if upd.Category != nil {
		cat, ok := LookupCategory(*upd.Category)
		if !ok {
			return models.HabitGroup{}, apperrors.Invalid("unknown category %q", *upd.Category)
		}
		g.Category = cat.ID
	}
	if upd.Emoji != nil {
		if e := strings.TrimSpace(*upd.Emoji); e != "" {
			g.Emoji = e
		}
	}
	if upd.Description != nil {
		if g.Description, err = text("description", *upd.Description, constants.MaxNoteLen, false); err != nil {
			return models.HabitGroup{}, err
		}
	}
	if upd.IsPrivate != nil {
		g.IsPrivate = *upd.IsPrivate
	}
	if upd.CoverImageURL != nil {
		g.CoverImageURL = strings.TrimSpace(*upd.CoverImageURL)
	}
	if err := s.store.UpdateGroup(ctx, g); err != nil {
		return models.HabitGroup{}, err
	}
	return s.group(ctx, groupID)
}

// DeleteGroup removes the group with its members, posts and requests.
func (s *Service) DeleteGroup(ctx context.Context, userID, groupID string) error {
	if _, err := s.createdGroup(ctx, userID, groupID); err != nil {
		return err
	}
	return s.store.DeleteGroup(ctx, groupID)
}

// JoinGroup adds userID to a public group.
func (s *Service) JoinGroup(ctx context.Context, userID, groupID string) (models.HabitGroup, error) {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return models.HabitGroup{}, err
	}
	if g.IsPrivate {
		return models.HabitGroup{}, forbidden("group %s is private; send a join request", groupID)
	}
	if err := s.store.AddMember(ctx, groupID, userID, constants.MaxGroupMembers, s.now()); err != nil {
		return models.HabitGroup{}, err
	}
	return s.group(ctx, groupID)
}

// RequestToJoin files a pending request for a private group and tells its
// creator.
func (s *Service) RequestToJoin(ctx context.Context, userID, groupID string) (models.JoinRequest, error) {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return models.JoinRequest{}, err
	}
	if !g.IsPrivate {
		return models.JoinRequest{}, apperrors.Invalid("group %s is public; join it directly", groupID)
	}
	if g.HasMember(userID) {
		return models.JoinRequest{}, fmt.Errorf("user %s is already a member: %w", userID, apperrors.ErrConflict)
	}
	requester, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.JoinRequest{}, err
	}

	r := models.JoinRequest{
		ID:        s.newID(),
		GroupID:   groupID,
		User:      requester,
		Status:    models.JoinRequestPending,
		CreatedAt: s.now(),
	}
	if err := s.store.AddJoinRequest(ctx, r); err != nil {
		return models.JoinRequest{}, err
	}

	s.notify(ctx, g.Creator.ID, requester, models.NotificationJoinRequest, models.NotificationTarget{
		Type: models.TargetHabitGroup, ID: groupID, HabitGroupID: groupID,
	})
	return r, nil
}

// RespondToJoinRequest lets the group creator accept or decline a request.
// Accepting a request for a full group fails and leaves it pending.
func (s *Service) RespondToJoinRequest(ctx context.Context, creatorID, requestID string, accept bool) (models.JoinRequest, error) {
	r, err := s.store.GetJoinRequest(ctx, requestID)
	if err != nil {
		return models.JoinRequest{}, err
	}
	if _, err := s.createdGroup(ctx, creatorID, r.GroupID); err != nil {
		return models.JoinRequest{}, err
	}
	return s.store.ResolveJoinRequest(ctx, requestID, accept, constants.MaxGroupMembers, s.now())
}

func (s *Service) ListJoinRequests(ctx context.Context, creatorID, groupID string) ([]models.JoinRequest, error) {
	if _, err := s.createdGroup(ctx, creatorID, groupID); err != nil {
		return nil, err
	}
	return s.store.ListJoinRequests(ctx, groupID, models.JoinRequestPending)
}

// RemoveMember takes memberID out of the group. The creator may remove
// anyone but themselves; any other member may only remove themselves.
func (s *Service) RemoveMember(ctx context.Context, actorID, groupID, memberID string) error {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if memberID == g.Creator.ID {
		return forbidden("the creator cannot leave group %s", groupID)
	}
	if actorID != g.Creator.ID && actorID != memberID {
		return forbidden("only the creator can remove members of group %s", groupID)
	}
	return s.store.RemoveMember(ctx, groupID, memberID)
}

func (s *Service) group(ctx context.Context, groupID string) (models.HabitGroup, error) {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return models.HabitGroup{}, err
	}
	return withTag(g, i18n.FromContext(ctx)), nil
}

func (s *Service) createdGroup(ctx context.Context, userID, groupID string) (models.HabitGroup, error) {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return models.HabitGroup{}, err
	}
	if g.Creator.ID != userID {
		return models.HabitGroup{}, forbidden("only the creator can manage group %s", groupID)
	}
	return g, nil
}

// visibleGroup returns the group when userID may read its feed.
func (s *Service) visibleGroup(ctx context.Context, userID, groupID string) (models.HabitGroup, error) {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return models.HabitGroup{}, err
	}
	if g.IsPrivate && !g.HasMember(userID) {
		return models.HabitGroup{}, forbidden("group %s is private", groupID)
	}
	return g, nil
}
