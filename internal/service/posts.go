package service

import (
	"context"
	"strings"

	"github.com/julianstephens/huddle/internal/constants"
	"github.com/julianstephens/huddle/internal/interaction"
	"github.com/julianstephens/huddle/internal/models"
)

// AddPost shares a progress update in a group the author belongs to. The
// post carries the author's best current streak at posting time.
func (s *Service) AddPost(ctx context.Context, userID, groupID, note, imageURL string) (models.Post, error) {
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return models.Post{}, err
	}
	if !g.HasMember(userID) {
		return models.Post{}, forbidden("only members can post in group %s", groupID)
	}
	if note, err = text("note", note, constants.MaxNoteLen, true); err != nil {
		return models.Post{}, err
	}
	author, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.Post{}, err
	}
	streak, err := s.maxStreak(ctx, userID)
	if err != nil {
		return models.Post{}, err
	}

	p := models.Post{
		ID:           s.newID(),
		User:         author,
		HabitGroupID: groupID,
		Timestamp:    s.now(),
		Note:         note,
		ImageURL:     strings.TrimSpace(imageURL),
		Streak:       streak,
	}
	if err := s.store.AddPost(ctx, p); err != nil {
		return models.Post{}, err
	}
	return s.store.GetPost(ctx, p.ID)
}

// ListPosts returns the group feed, newest first.
func (s *Service) ListPosts(ctx context.Context, userID, groupID string) ([]models.Post, error) {
	if _, err := s.visibleGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}
	return s.store.ListPosts(ctx, groupID)
}

// React moves userID's reaction on the post and returns the stored post.
// Reaching supported or pushed notifies the author.
func (s *Service) React(ctx context.Context, userID, postID string, kind models.InteractionKind) (models.Post, error) {
	kind, err := interaction.ParseKind(string(kind))
	if err != nil {
		return models.Post{}, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}
	if _, err := s.visibleGroup(ctx, userID, post.HabitGroupID); err != nil {
		return models.Post{}, err
	}

	post, state, err := s.store.ApplyInteraction(ctx, postID, userID, kind, s.now())
	if err != nil {
		return models.Post{}, err
	}

	var typ models.NotificationType
	switch state {
	case interaction.StateSupported:
		typ = models.NotificationCheer
	case interaction.StatePushed:
		typ = models.NotificationPush
	default:
		return post, nil
	}
	if actor, err := s.store.GetUser(ctx, userID); err == nil {
		s.notify(ctx, post.User.ID, actor, typ, postTarget(post))
	}
	return post, nil
}

// Comment appends a comment to the post and notifies its author.
func (s *Service) Comment(ctx context.Context, userID, postID, body string) (models.Post, error) {
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return models.Post{}, err
	}
	if _, err := s.visibleGroup(ctx, userID, post.HabitGroupID); err != nil {
		return models.Post{}, err
	}
	body, err = text("comment", body, constants.MaxCommentLen, true)
	if err != nil {
		return models.Post{}, err
	}
	author, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return models.Post{}, err
	}

	c := models.Comment{
		ID:        s.newID(),
		PostID:    postID,
		User:      author,
		Text:      body,
		Timestamp: s.now(),
	}
	if err := s.store.AddComment(ctx, c); err != nil {
		return models.Post{}, err
	}

	s.notify(ctx, post.User.ID, author, models.NotificationComment, postTarget(post))
	return s.store.GetPost(ctx, postID)
}

func postTarget(p models.Post) models.NotificationTarget {
	return models.NotificationTarget{Type: models.TargetPost, ID: p.ID, HabitGroupID: p.HabitGroupID}
}
