package constants

import "time"

const (
	AppName            = "huddle"
	DefaultKeyringUser = "database-connection"
	TokenKeyringUser   = "token-secret"
	DefaultAddr        = "127.0.0.1:8080"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// ConsistencyWindowDays is the trailing window, today included, used for check-in consistency.
	ConsistencyWindowDays = 30

	// MaxGroupMembers caps the membership of a habit group, creator included.
	MaxGroupMembers = 20

	// Field limits
	MaxHabitNameLen   = 80
	MaxGroupNameLen   = 80
	MaxNoteLen        = 2000
	MaxCommentLen     = 1000
	MaxMessageLen     = 4000
	MaxDisplayNameLen = 60

	// Event delivery constants
	NotifyMaxRetries    = 3
	NotifyRetryDelay    = 100 * time.Millisecond
	NotifyTimeout       = 5 * time.Second
	WebhookSecretHeader = "X-Huddle-Secret"
	NotificationQueue   = "huddle.notifications"

	// HTTP server constants
	ServerReadTimeout  = 15 * time.Second
	ServerWriteTimeout = 15 * time.Second
	ShutdownTimeout    = 10 * time.Second

	// Postgres pool settings
	PostgresMaxOpenConns    = 25
	PostgresMaxIdleConns    = 25
	PostgresConnMaxLifetime = 5 * time.Minute

	// SQLiteBusyTimeoutMs is how long SQLite waits on a locked database before failing.
	SQLiteBusyTimeoutMs = 5000
)

// HabitColors is the palette a habit colour is picked from when none is given.
var HabitColors = []string{"purple", "green", "blue", "pink"}

// StreakMilestones are the streak lengths, in days, that award an achievement.
var StreakMilestones = []int{30, 120, 180, 365}
