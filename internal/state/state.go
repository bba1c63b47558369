// Package state holds the client-side view of a user's huddle data.
//
// AppState is an immutable value: every method that changes something
// returns a new AppState and leaves the receiver untouched, so a caller can
// keep the previous value around to roll back to.
package state

import (
	"fmt"

	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/interaction"
	"github.com/julianstephens/huddle/internal/models"
)

// Snapshot is the plain data behind an AppState.
type Snapshot struct {
	User          models.User
	Habits        []models.Habit
	Logs          []models.HabitLog
	Posts         []models.Post
	Groups        []models.HabitGroup
	Notifications []models.Notification
	Stats         models.Stats
}

type AppState struct {
	snap Snapshot
}

// New builds a state from snap. The slices are copied.
func New(snap Snapshot) AppState {
	return AppState{snap: clone(snap)}
}

// Snapshot returns a copy of the state's data.
func (s AppState) Snapshot() Snapshot {
	return clone(s.snap)
}

// Replace swaps in the authoritative data fetched from the server.
func (s AppState) Replace(snap Snapshot) AppState {
	return New(snap)
}

func (s AppState) User() models.User { return s.snap.User }

func (s AppState) Stats() models.Stats { return s.snap.Stats }

func (s AppState) Habits() []models.Habit { return append([]models.Habit(nil), s.snap.Habits...) }

func (s AppState) Logs() []models.HabitLog { return append([]models.HabitLog(nil), s.snap.Logs...) }

func (s AppState) Posts() []models.Post { return append([]models.Post(nil), s.snap.Posts...) }

func (s AppState) Groups() []models.HabitGroup {
	return append([]models.HabitGroup(nil), s.snap.Groups...)
}

func (s AppState) Notifications() []models.Notification {
	return append([]models.Notification(nil), s.snap.Notifications...)
}

func (s AppState) Post(id string) (models.Post, bool) {
	i := s.postIndex(id)
	if i < 0 {
		return models.Post{}, false
	}
	return s.snap.Posts[i], true
}

func (s AppState) UnreadCount() int {
	n := 0
	for _, x := range s.snap.Notifications {
		if !x.IsRead {
			n++
		}
	}
	return n
}

// WithPost replaces the post with the same id, or puts p first when it is new.
func (s AppState) WithPost(p models.Post) AppState {
	out := s
	posts := make([]models.Post, 0, len(s.snap.Posts)+1)
	if i := s.postIndex(p.ID); i >= 0 {
		posts = append(posts, s.snap.Posts...)
		posts[i] = p
	} else {
		posts = append(append(posts, p), s.snap.Posts...)
	}
	out.snap.Posts = posts
	return out
}

// WithInteraction applies userID's reaction to the post locally.
func (s AppState) WithInteraction(postID, userID string, kind models.InteractionKind) (AppState, error) {
	p, ok := s.Post(postID)
	if !ok {
		return s, fmt.Errorf("post %s: %w", postID, apperrors.ErrNotFound)
	}
	next, err := interaction.Apply(p, userID, kind)
	if err != nil {
		return s, err
	}
	return s.WithPost(next), nil
}

// WithComment appends c to its post locally.
func (s AppState) WithComment(c models.Comment) (AppState, error) {
	p, ok := s.Post(c.PostID)
	if !ok {
		return s, fmt.Errorf("post %s: %w", c.PostID, apperrors.ErrNotFound)
	}
	next, err := interaction.AppendComment(p, c)
	if err != nil {
		return s, err
	}
	return s.WithPost(next), nil
}

// WithHabitLog stores l, replacing any log for the same habit and day.
func (s AppState) WithHabitLog(l models.HabitLog) AppState {
	out := s
	logs := make([]models.HabitLog, 0, len(s.snap.Logs)+1)
	replaced := false
	for _, x := range s.snap.Logs {
		if x.HabitID == l.HabitID && x.Day == l.Day {
			logs = append(logs, l)
			replaced = true
			continue
		}
		logs = append(logs, x)
	}
	if !replaced {
		logs = append(logs, l)
	}
	out.snap.Logs = logs
	return out
}

func (s AppState) WithHabits(habits []models.Habit) AppState {
	out := s
	out.snap.Habits = append([]models.Habit(nil), habits...)
	return out
}

func (s AppState) WithStats(st models.Stats) AppState {
	out := s
	out.snap.Stats = st
	out.snap.Stats.Achievements = append([]models.Achievement(nil), st.Achievements...)
	return out
}

// MarkRead flags one notification as read. Unknown ids are ignored.
func (s AppState) MarkRead(id string) AppState {
	return s.markRead(func(n models.Notification) bool { return n.ID == id })
}

func (s AppState) MarkAllRead() AppState {
	return s.markRead(func(models.Notification) bool { return true })
}

func (s AppState) markRead(match func(models.Notification) bool) AppState {
	out := s
	list := make([]models.Notification, len(s.snap.Notifications))
	for i, n := range s.snap.Notifications {
		if match(n) {
			n.IsRead = true
		}
		list[i] = n
	}
	out.snap.Notifications = list
	return out
}

func (s AppState) postIndex(id string) int {
	for i, p := range s.snap.Posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func clone(s Snapshot) Snapshot {
	return Snapshot{
		User:          s.User,
		Habits:        append([]models.Habit(nil), s.Habits...),
		Logs:          append([]models.HabitLog(nil), s.Logs...),
		Posts:         append([]models.Post(nil), s.Posts...),
		Groups:        append([]models.HabitGroup(nil), s.Groups...),
		Notifications: append([]models.Notification(nil), s.Notifications...),
		Stats: models.Stats{
			CheckinConsistency:  s.Stats.CheckinConsistency,
			MaxStreak:           s.Stats.MaxStreak,
			TotalConsistentDays: s.Stats.TotalConsistentDays,
			TotalCheers:         s.Stats.TotalCheers,
			TotalPushes:         s.Stats.TotalPushes,
			Achievements:        append([]models.Achievement(nil), s.Stats.Achievements...),
		},
	}
}
