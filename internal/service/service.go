// Package service implements huddle's use cases on top of a storage.Provider.
//
// Every method takes the acting user's id and enforces ownership rules
// before touching the store. Errors wrap the sentinels in internal/errors.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/events"
	"github.com/julianstephens/huddle/internal/stats"
	"github.com/julianstephens/huddle/internal/storage"
)

type Service struct {
	store  storage.Provider
	engine *stats.Engine
	events events.Publisher
	newID  func() string
}

type Option func(*Service)

// WithEngine sets the statistics engine, and with it the clock and time zone.
func WithEngine(e *stats.Engine) Option {
	return func(s *Service) { s.engine = e }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithIDGenerator replaces UUID generation, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:  store,
		engine: stats.NewEngine(time.Local, nil),
		events: events.Nop{},
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying provider for health checks.
func (s *Service) Store() storage.Provider {
	return s.store
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) now() time.Time {
	return s.engine.Now().UTC()
}

// text trims v and checks it against the field's limits.
func text(field, v string, max int, required bool) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" && required {
		return "", fmt.Errorf("%w: %s", apperrors.ErrEmptyText, field)
	}
	if utf8.RuneCountInString(v) > max {
		return "", apperrors.Invalid("%s must be at most %d characters", field, max)
	}
	return v, nil
}

func forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrForbidden, fmt.Sprintf(format, args...))
}
