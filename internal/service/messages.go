package service

import (
	"context"

	"github.com/julianstephens/huddle/internal/constants"
	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/models"
)

// SendMessage appends a message to the conversation between sender and
// recipient, opening it on first contact.
func (s *Service) SendMessage(ctx context.Context, senderID, recipientID, body string) (models.ChatMessage, error) {
	if senderID == recipientID {
		return models.ChatMessage{}, apperrors.Invalid("cannot message yourself")
	}
	body, err := text("message", body, constants.MaxMessageLen, true)
	if err != nil {
		return models.ChatMessage{}, err
	}
	sender, err := s.store.GetUser(ctx, senderID)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if _, err := s.store.GetUser(ctx, recipientID); err != nil {
		return models.ChatMessage{}, err
	}

	now := s.now()
	conv, err := s.store.ConversationBetween(ctx, senderID, recipientID, s.newID(), now)
	if err != nil {
		return models.ChatMessage{}, err
	}
	m := models.ChatMessage{
		ID:             s.newID(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           body,
		Timestamp:      now,
	}
	if err := s.store.AddMessage(ctx, m); err != nil {
		return models.ChatMessage{}, err
	}

	s.notify(ctx, recipientID, sender, models.NotificationMessage, models.NotificationTarget{
		Type: models.TargetChat, ID: conv.ID,
	})
	return m, nil
}

func (s *Service) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.store.ListConversations(ctx, userID)
}

// GetConversation returns the conversation when userID takes part in it.
func (s *Service) GetConversation(ctx context.Context, userID, conversationID string) (models.Conversation, error) {
	c, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return models.Conversation{}, err
	}
	if !c.HasParticipant(userID) {
		return models.Conversation{}, forbidden("not a participant of conversation %s", conversationID)
	}
	return c, nil
}
