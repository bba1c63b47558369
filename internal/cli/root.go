package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
	"github.com/mattn/go-isatty"

	"github.com/julianstephens/huddle/internal/config"
	"github.com/julianstephens/huddle/internal/constants"
	apperrors "github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/models"
	"github.com/julianstephens/huddle/internal/service"
	"github.com/julianstephens/huddle/internal/stats"
	"github.com/julianstephens/huddle/internal/storage"
	"github.com/julianstephens/huddle/internal/utils"
)

type Context struct {
	Store  storage.Provider
	Config *config.Config
	// Out receives command output; nil means stdout.
	Out io.Writer
	// Now overrides the clock, for tests.
	Now func() time.Time

	svc *service.Service
}

// Service returns the service bound to the store and the configured time zone.
func (c *Context) Service() (*service.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	loc, err := c.location()
	if err != nil {
		return nil, err
	}
	c.svc = service.New(c.Store, service.WithEngine(stats.NewEngine(loc, c.Now)))
	return c.svc, nil
}

// SetService replaces the service, e.g. with one carrying an event publisher.
func (c *Context) SetService(svc *service.Service) {
	c.svc = svc
}

func (c *Context) location() (*time.Location, error) {
	if c.Config == nil {
		return time.Local, nil
	}
	return c.Config.Location()
}

func (c *Context) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Context) Writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Writer(), format, args...)
}

func (c *Context) Print(args ...any) {
	fmt.Fprint(c.Writer(), args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Writer(), args...)
}

// IsTerminal reports whether output goes to an interactive terminal.
func (c *Context) IsTerminal() bool {
	f, ok := c.Writer().(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// User makes sure the local user exists, creating it on first use.
func (c *Context) User(ctx context.Context, id string) (models.User, error) {
	svc, err := c.Service()
	if err != nil {
		return models.User{}, err
	}
	return svc.EnsureUser(ctx, models.Identity{UserID: id})
}

var isoDay = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDay turns a date expression into a calendar day (YYYY-MM-DD).
// Empty input is today; anything that is not an ISO day goes through the
// natural language parser ("yesterday", "3 days ago", "last friday").
func (c *Context) ParseDay(input string) (string, error) {
	loc, err := c.location()
	if err != nil {
		return "", err
	}
	now := c.now().In(loc)

	input = strings.TrimSpace(input)
	switch strings.ToLower(input) {
	case "", "today", "now":
		return utils.TodayIn(now, loc), nil
	}
	if isoDay.MatchString(input) {
		if !utils.ValidateDay(input) {
			return "", apperrors.Invalid("invalid date %q", input)
		}
		return input, nil
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil {
		return "", apperrors.Invalid("could not understand date %q", input)
	}
	return result.Time.In(loc).Format(constants.DateFormat), nil
}
