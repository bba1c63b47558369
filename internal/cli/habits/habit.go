package habits

import (
	"context"
	"fmt"

	"github.com/julianstephens/huddle/internal/cli"
	"github.com/julianstephens/huddle/internal/models"
	"github.com/julianstephens/huddle/internal/service"
)

type HabitCmd struct {
	Add    HabitAddCmd    `cmd:"" help:"Add a new habit."`
	List   HabitListCmd   `cmd:"" help:"List habits with their streaks."`
	Log    HabitLogCmd    `cmd:"" help:"Log a habit for a day."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and its logs."`
}

// UserFlag selects the user a local command acts for.
type UserFlag struct {
	User string `help:"User id to act as." required:"" env:"HUDDLE_USER"`
}

type HabitAddCmd struct {
	UserFlag
	Name      string `arg:"" help:"Habit name."`
	Icon      string `help:"Icon (emoji)." default:""`
	Frequency string `help:"Daily, Weekly or Custom." default:"Daily" enum:"Daily,Weekly,Custom"`
	Color     string `help:"Color (default: next in palette)." default:""`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	user, err := ctx.User(bg, c.User)
	if err != nil {
		return err
	}
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	h, err := svc.AddHabit(bg, user.ID, service.NewHabit{
		Name:      c.Name,
		Icon:      c.Icon,
		Frequency: models.HabitFrequency(c.Frequency),
		Color:     c.Color,
	})
	if err != nil {
		return err
	}
	ctx.Printf("Added habit: %s (%s)\n", h.Name, h.ID)
	return nil
}

type HabitListCmd struct {
	UserFlag
}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	user, err := ctx.User(bg, c.User)
	if err != nil {
		return err
	}
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	habits, err := svc.ListHabits(bg, user.ID)
	if err != nil {
		return err
	}
	if len(habits) == 0 {
		ctx.Println("No habits found.")
		return nil
	}

	for _, h := range habits {
		ctx.Printf("%s\n", formatHabit(h))
	}
	return nil
}

func formatHabit(h models.Habit) string {
	name := h.Name
	if h.Icon != "" {
		name = h.Icon + " " + name
	}
	return fmt.Sprintf("%-36s  %-30s  %-7s  streak %d", h.ID, name, h.Frequency, h.Streak)
}

type HabitLogCmd struct {
	UserFlag
	Habit string `arg:"" help:"Habit id."`
	Date  string `help:"Day to log: YYYY-MM-DD or natural language like 'yesterday' (default: today)." default:""`
	Note  string `help:"Optional note for this entry." default:""`
}

func (c *HabitLogCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	user, err := ctx.User(bg, c.User)
	if err != nil {
		return err
	}
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	day, err := ctx.ParseDay(c.Date)
	if err != nil {
		return err
	}
	l, err := svc.LogHabit(bg, user.ID, c.Habit, day, c.Note)
	if err != nil {
		return err
	}
	ctx.Printf("Logged %s for %s\n", c.Habit, l.Day)
	return nil
}

type HabitDeleteCmd struct {
	UserFlag
	Habit string `arg:"" help:"Habit id."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	user, err := ctx.User(bg, c.User)
	if err != nil {
		return err
	}
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	if err := svc.DeleteHabit(bg, user.ID, c.Habit); err != nil {
		return err
	}
	ctx.Printf("Deleted habit: %s\n", c.Habit)
	return nil
}
