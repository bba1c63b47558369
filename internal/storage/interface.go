package storage

import (
	"context"
	"time"

	"github.com/julianstephens/huddle/internal/interaction"
	"github.com/julianstephens/huddle/internal/models"
)

// Provider is the persistence boundary. Lookups of missing rows return
// errors wrapping errors.ErrNotFound and unique violations wrap
// errors.ErrConflict.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error
	Migrate(ctx context.Context, logFn func(string)) (int, error)
	SchemaVersion(ctx context.Context) (current, latest int, err error)

	// Users
	EnsureUser(ctx context.Context, u models.User) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	UpdateUser(ctx context.Context, u models.User) error

	// Habits
	AddHabit(ctx context.Context, h models.Habit) error
	GetHabit(ctx context.Context, id string) (models.Habit, error)
	ListHabits(ctx context.Context, userID string) ([]models.Habit, error)
	// DeleteHabit removes the habit together with all of its logs.
	DeleteHabit(ctx context.Context, id string) error

	// Habit logs
	// UpsertHabitLog writes the log for (HabitID, Day), replacing the note of
	// an existing one, and returns the stored row.
	UpsertHabitLog(ctx context.Context, l models.HabitLog) (models.HabitLog, error)
	GetHabitLog(ctx context.Context, id string) (models.HabitLog, error)
	UpdateHabitLogNote(ctx context.Context, id, note string, at time.Time) error
	DeleteHabitLog(ctx context.Context, id string) error
	// ListHabitLogs returns logs in [from, to]; an empty bound is open.
	ListHabitLogs(ctx context.Context, habitID, from, to string) ([]models.HabitLog, error)
	// LogDaysByHabit maps each of the user's habit ids to its logged days.
	LogDaysByHabit(ctx context.Context, userID string) (map[string][]string, error)

	// Groups
	// AddGroup stores the group and makes its creator the first member.
	AddGroup(ctx context.Context, g models.HabitGroup) error
	GetGroup(ctx context.Context, id string) (models.HabitGroup, error)
	ListGroups(ctx context.Context, query string) ([]models.HabitGroup, error)
	UpdateGroup(ctx context.Context, g models.HabitGroup) error
	DeleteGroup(ctx context.Context, id string) error
	// AddMember joins userID to the group unless it already holds max members.
	AddMember(ctx context.Context, groupID, userID string, max int, at time.Time) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)

	// Join requests
	AddJoinRequest(ctx context.Context, r models.JoinRequest) error
	GetJoinRequest(ctx context.Context, id string) (models.JoinRequest, error)
	ListJoinRequests(ctx context.Context, groupID string, status models.JoinRequestStatus) ([]models.JoinRequest, error)
	// ResolveJoinRequest settles a pending request; accepting adds the member
	// under the same cap as AddMember, atomically.
	ResolveJoinRequest(ctx context.Context, id string, accept bool, max int, at time.Time) (models.JoinRequest, error)

	// Posts
	AddPost(ctx context.Context, p models.Post) error
	GetPost(ctx context.Context, id string) (models.Post, error)
	ListPosts(ctx context.Context, groupID string) ([]models.Post, error)
	// ApplyInteraction moves userID's reaction on the post in one transaction
	// and returns the post together with the state that was reached.
	ApplyInteraction(ctx context.Context, postID, userID string, kind models.InteractionKind, at time.Time) (models.Post, interaction.State, error)
	AddComment(ctx context.Context, c models.Comment) error
	// CountReactionsReceived counts support and push reactions on the user's posts.
	CountReactionsReceived(ctx context.Context, userID string) (supports, pushes int, err error)

	// Notifications
	AddNotification(ctx context.Context, n models.Notification) error
	ListNotifications(ctx context.Context, recipientID string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, recipientID, id string) error
	MarkAllNotificationsRead(ctx context.Context, recipientID string) (int64, error)
	UnreadCount(ctx context.Context, recipientID string) (int, error)

	// Conversations
	// ConversationBetween returns the pair's conversation, creating it with
	// newID when none exists.
	ConversationBetween(ctx context.Context, a, b, newID string, at time.Time) (models.Conversation, error)
	GetConversation(ctx context.Context, id string) (models.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	AddMessage(ctx context.Context, m models.ChatMessage) error

	// Utils
	GetConfigPath() string
}
