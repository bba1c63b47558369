// Package interaction implements the support/push reaction rules for posts.
//
// A user holds at most one reaction per post. Repeating the held reaction
// clears it; choosing the other one swaps it in a single step.
package interaction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/huddle/internal/models"
)

var (
	ErrUnknownKind  = errors.New("unknown interaction kind")
	ErrEmptyComment = errors.New("comment text is empty")
)

// State is a single user's reaction on a single post.
type State string

const (
	StateNone      State = "none"
	StateSupported State = "supported"
	StatePushed    State = "pushed"
)

// ParseKind validates a raw kind string.
func ParseKind(s string) (models.InteractionKind, error) {
	switch k := models.InteractionKind(strings.ToLower(strings.TrimSpace(s))); k {
	case models.InteractionSupport, models.InteractionPush:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Next returns the state reached by applying kind from state.
func Next(state State, kind models.InteractionKind) (State, error) {
	var target State
	switch kind {
	case models.InteractionSupport:
		target = StateSupported
	case models.InteractionPush:
		target = StatePushed
	default:
		return state, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if state == target {
		return StateNone, nil
	}
	return target, nil
}

// StateOf reports userID's current reaction on post.
func StateOf(post models.Post, userID string) State {
	switch {
	case contains(post.SupportedBy, userID):
		return StateSupported
	case contains(post.PushedBy, userID):
		return StatePushed
	default:
		return StateNone
	}
}

// KindOf maps a held state back to the reaction kind that produced it.
// StateNone has no kind.
func KindOf(state State) (models.InteractionKind, bool) {
	switch state {
	case StateSupported:
		return models.InteractionSupport, true
	case StatePushed:
		return models.InteractionPush, true
	}
	return "", false
}

// Apply returns a copy of post with userID's reaction moved according to
// kind. The input post is never modified. Counts are derived from the
// membership sets so they cannot drift apart.
func Apply(post models.Post, userID string, kind models.InteractionKind) (models.Post, error) {
	next, err := Next(StateOf(post, userID), kind)
	if err != nil {
		return post, err
	}
	return WithState(post, userID, next), nil
}

// WithState returns a copy of post in which userID holds exactly state.
// Both membership sets come back non-nil, so an empty set encodes as [] the
// way stored posts do.
func WithState(post models.Post, userID string, state State) models.Post {
	out := post
	out.SupportedBy = without(post.SupportedBy, userID)
	out.PushedBy = without(post.PushedBy, userID)

	switch state {
	case StateSupported:
		out.SupportedBy = append(out.SupportedBy, userID)
	case StatePushed:
		out.PushedBy = append(out.PushedBy, userID)
	}

	out.Supports = len(out.SupportedBy)
	out.Pushes = len(out.PushedBy)
	return out
}

// AppendComment returns a copy of post with c appended. Whitespace-only text
// is rejected and leaves the post unchanged.
func AppendComment(post models.Post, c models.Comment) (models.Post, error) {
	if strings.TrimSpace(c.Text) == "" {
		return post, ErrEmptyComment
	}
	out := post
	out.Comments = append(post.Comments[:len(post.Comments):len(post.Comments)], c)
	return out, nil
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// without copies ids, dropping id and any repeats. The result is never nil.
func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids)+1)
	seen := make(map[string]struct{}, len(ids))
	for _, v := range ids {
		if v == id {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
