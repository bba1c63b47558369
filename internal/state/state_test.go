package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/interaction"
	"github.com/julianstephens/huddle/internal/models"
)

func sample() AppState {
	return New(Snapshot{
		User: models.User{ID: "alice"},
		Posts: []models.Post{
			{ID: "p1", User: models.User{ID: "bob"}, SupportedBy: []string{}, PushedBy: []string{}},
			{ID: "p2", User: models.User{ID: "bob"}, SupportedBy: []string{"carol"}, Supports: 1, PushedBy: []string{}},
		},
		Logs: []models.HabitLog{{ID: "l1", HabitID: "h1", Day: "2024-03-14", Note: "old"}},
		Notifications: []models.Notification{
			{ID: "n1"}, {ID: "n2"}, {ID: "n3", IsRead: true},
		},
	})
}

func TestWithInteraction_DoesNotMutate(t *testing.T) {
	before := sample()

	after, err := before.WithInteraction("p1", "alice", models.InteractionSupport)
	require.NoError(t, err)

	p, _ := after.Post("p1")
	assert.Equal(t, []string{"alice"}, p.SupportedBy)
	assert.Equal(t, 1, p.Supports)

	orig, _ := before.Post("p1")
	assert.Empty(t, orig.SupportedBy)
	assert.Zero(t, orig.Supports)
}

func TestWithInteraction_Errors(t *testing.T) {
	s := sample()

	_, err := s.WithInteraction("missing", "alice", models.InteractionSupport)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	same, err := s.WithInteraction("p1", "alice", "love")
	assert.ErrorIs(t, err, interaction.ErrUnknownKind)
	assert.Equal(t, s, same)
}

func TestWithComment(t *testing.T) {
	s := sample()

	next, err := s.WithComment(models.Comment{ID: "c1", PostID: "p2", Text: "nice"})
	require.NoError(t, err)
	p, _ := next.Post("p2")
	require.Len(t, p.Comments, 1)

	orig, _ := s.Post("p2")
	assert.Empty(t, orig.Comments)

	_, err = s.WithComment(models.Comment{PostID: "p2", Text: "  "})
	assert.ErrorIs(t, err, interaction.ErrEmptyComment)
}

func TestWithPost(t *testing.T) {
	s := sample()

	replaced := s.WithPost(models.Post{ID: "p2", Note: "edited"})
	require.Len(t, replaced.Posts(), 2)
	p, _ := replaced.Post("p2")
	assert.Equal(t, "edited", p.Note)

	added := s.WithPost(models.Post{ID: "p0"})
	require.Len(t, added.Posts(), 3)
	assert.Equal(t, "p0", added.Posts()[0].ID)
	assert.Len(t, s.Posts(), 2)
}

func TestWithHabitLog(t *testing.T) {
	s := sample()

	upserted := s.WithHabitLog(models.HabitLog{ID: "l1", HabitID: "h1", Day: "2024-03-14", Note: "new"})
	require.Len(t, upserted.Logs(), 1)
	assert.Equal(t, "new", upserted.Logs()[0].Note)

	added := s.WithHabitLog(models.HabitLog{ID: "l2", HabitID: "h1", Day: "2024-03-15"})
	assert.Len(t, added.Logs(), 2)
	assert.Equal(t, "old", s.Logs()[0].Note)
}

func TestMarkRead(t *testing.T) {
	s := sample()
	assert.Equal(t, 2, s.UnreadCount())

	one := s.MarkRead("n1")
	assert.Equal(t, 1, one.UnreadCount())
	assert.Equal(t, 2, s.UnreadCount())

	assert.Equal(t, 2, s.MarkRead("nope").UnreadCount())
	assert.Zero(t, s.MarkAllRead().UnreadCount())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := sample()
	snap := s.Snapshot()
	snap.Posts[0].Note = "tampered"
	snap.Notifications = nil

	p, _ := s.Post("p1")
	assert.Empty(t, p.Note)
	assert.Len(t, s.Notifications(), 3)

	habits := s.Habits()
	habits = append(habits, models.Habit{ID: "h9"})
	assert.Empty(t, s.Habits())
	assert.Len(t, habits, 1)
}

func TestReplaceAndStats(t *testing.T) {
	s := sample().WithStats(models.Stats{MaxStreak: 4, Achievements: []models.Achievement{{ID: "streak-30", Days: 30}}})
	assert.Equal(t, 4, s.Stats().MaxStreak)

	fresh := s.Replace(Snapshot{User: models.User{ID: "alice"}, Habits: []models.Habit{{ID: "h1"}}})
	assert.Empty(t, fresh.Posts())
	assert.Len(t, fresh.Habits(), 1)
	assert.Zero(t, fresh.Stats().MaxStreak)
	assert.Len(t, s.Posts(), 2)
}
