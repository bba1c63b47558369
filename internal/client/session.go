package client

import (
	"context"
	"sync"

	"github.com/julianstephens/huddle/internal/logger"
	"github.com/julianstephens/huddle/internal/models"
	"github.com/julianstephens/huddle/internal/state"
)

// Session keeps an AppState in step with the server.
//
// Mutations are optimistic: the local change is applied first, then the
// server is called and its response replaces the local record. When the
// call fails the state from before the mutation is restored.
type Session struct {
	client *Client

	// write serialises mutations and refreshes so a rollback never
	// discards another writer's change.
	write sync.Mutex

	mu    sync.RWMutex
	state state.AppState
}

func NewSession(c *Client) *Session {
	return &Session{client: c, state: state.New(state.Snapshot{})}
}

// State returns the current state. It is safe to keep; later mutations
// produce new values.
func (s *Session) State() state.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) set(st state.AppState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Refresh refetches everything the state holds.
func (s *Session) Refresh(ctx context.Context) error {
	s.write.Lock()
	defer s.write.Unlock()

	me, err := s.client.Me(ctx)
	if err != nil {
		return err
	}
	habits, err := s.client.Habits(ctx)
	if err != nil {
		return err
	}
	var logs []models.HabitLog
	for _, h := range habits {
		hl, err := s.client.HabitLogs(ctx, h.ID, "", "")
		if err != nil {
			return err
		}
		logs = append(logs, hl...)
	}
	st, err := s.client.Stats(ctx)
	if err != nil {
		return err
	}
	groups, err := s.client.Groups(ctx, "")
	if err != nil {
		return err
	}
	var posts []models.Post
	for _, g := range groups {
		if !g.HasMember(me.ID) {
			continue
		}
		gp, err := s.client.Posts(ctx, g.ID)
		if err != nil {
			return err
		}
		posts = append(posts, gp...)
	}
	notes, _, err := s.client.Notifications(ctx)
	if err != nil {
		return err
	}

	s.set(s.State().Replace(state.Snapshot{
		User:          me,
		Habits:        habits,
		Logs:          logs,
		Posts:         posts,
		Groups:        groups,
		Notifications: notes,
		Stats:         st,
	}))
	return nil
}

// mutate runs one optimistic round trip. apply computes the local change,
// call talks to the server and reconcile folds its answer in.
func (s *Session) mutate(ctx context.Context, apply func(state.AppState) (state.AppState, error),
	call func(context.Context) (func(state.AppState) state.AppState, error)) error {
	s.write.Lock()
	defer s.write.Unlock()

	before := s.State()
	optimistic, err := apply(before)
	if err != nil {
		return err
	}
	s.set(optimistic)

	reconcile, err := call(ctx)
	if err != nil {
		logger.Debug("Rolling back optimistic change", "error", err)
		s.set(before)
		return err
	}
	s.set(reconcile(s.State()))
	return nil
}

// React toggles the user's reaction on a post.
func (s *Session) React(ctx context.Context, postID string, kind models.InteractionKind) (models.Post, error) {
	var post models.Post
	err := s.mutate(ctx,
		func(st state.AppState) (state.AppState, error) {
			return st.WithInteraction(postID, st.User().ID, kind)
		},
		func(ctx context.Context) (func(state.AppState) state.AppState, error) {
			p, err := s.client.React(ctx, postID, kind)
			if err != nil {
				return nil, err
			}
			post = p
			return func(st state.AppState) state.AppState { return st.WithPost(p) }, nil
		})
	return post, err
}

func (s *Session) Comment(ctx context.Context, postID, text string) (models.Post, error) {
	var post models.Post
	err := s.mutate(ctx,
		func(st state.AppState) (state.AppState, error) {
			return st.WithComment(models.Comment{
				ID:     "pending-" + postID,
				PostID: postID,
				User:   st.User(),
				Text:   text,
			})
		},
		func(ctx context.Context) (func(state.AppState) state.AppState, error) {
			p, err := s.client.Comment(ctx, postID, text)
			if err != nil {
				return nil, err
			}
			post = p
			return func(st state.AppState) state.AppState { return st.WithPost(p) }, nil
		})
	return post, err
}

// LogHabit checks in a habit for day and refreshes the derived habit
// streaks and stats.
func (s *Session) LogHabit(ctx context.Context, habitID, day, note string) (models.HabitLog, error) {
	var stored models.HabitLog
	err := s.mutate(ctx,
		func(st state.AppState) (state.AppState, error) {
			return st.WithHabitLog(models.HabitLog{HabitID: habitID, Day: day, Note: note}), nil
		},
		func(ctx context.Context) (func(state.AppState) state.AppState, error) {
			l, err := s.client.LogHabit(ctx, habitID, day, note)
			if err != nil {
				return nil, err
			}
			stored = l
			habits, herr := s.client.Habits(ctx)
			st, serr := s.client.Stats(ctx)
			if herr != nil || serr != nil {
				logger.Warn("Habit logged but derived data is stale", "habits", herr, "stats", serr)
			}
			return func(cur state.AppState) state.AppState {
				cur = cur.WithHabitLog(l)
				if herr == nil {
					cur = cur.WithHabits(habits)
				}
				if serr == nil {
					cur = cur.WithStats(st)
				}
				return cur
			}, nil
		})
	return stored, err
}

func (s *Session) MarkRead(ctx context.Context, notificationID string) error {
	return s.mutate(ctx,
		func(st state.AppState) (state.AppState, error) { return st.MarkRead(notificationID), nil },
		func(ctx context.Context) (func(state.AppState) state.AppState, error) {
			if err := s.client.MarkRead(ctx, notificationID); err != nil {
				return nil, err
			}
			return func(st state.AppState) state.AppState { return st }, nil
		})
}

func (s *Session) MarkAllRead(ctx context.Context) error {
	return s.mutate(ctx,
		func(st state.AppState) (state.AppState, error) { return st.MarkAllRead(), nil },
		func(ctx context.Context) (func(state.AppState) state.AppState, error) {
			if err := s.client.MarkAllRead(ctx); err != nil {
				return nil, err
			}
			return func(st state.AppState) state.AppState { return st }, nil
		})
}
