package habits

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/huddle/internal/cli"
	"github.com/julianstephens/huddle/internal/models"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	earnedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

type StatsCmd struct {
	UserFlag
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	user, err := ctx.User(bg, c.User)
	if err != nil {
		return err
	}
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	st, err := svc.Stats(bg, user.ID)
	if err != nil {
		return err
	}

	if ctx.IsTerminal() {
		ctx.Println(renderCard(user, st))
	} else {
		ctx.Print(renderPlain(user, st))
	}
	return nil
}

type row struct {
	label string
	value string
}

func rows(st models.Stats) []row {
	return []row{
		{"Check-in consistency", fmt.Sprintf("%d%%", st.CheckinConsistency)},
		{"Max streak", fmt.Sprintf("%d days", st.MaxStreak)},
		{"Consistent days", fmt.Sprintf("%d", st.TotalConsistentDays)},
		{"Cheers received", fmt.Sprintf("%d", st.TotalCheers)},
		{"Pushes received", fmt.Sprintf("%d", st.TotalPushes)},
	}
}

func renderPlain(user models.User, st models.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stats for %s\n", user.Name)
	for _, r := range rows(st) {
		fmt.Fprintf(&b, "  %-22s %s\n", r.label+":", r.value)
	}
	b.WriteString("  Achievements:\n")
	for _, a := range st.Achievements {
		mark := " "
		if a.Earned {
			mark = "x"
		}
		fmt.Fprintf(&b, "    [%s] %d-day streak\n", mark, a.Days)
	}
	return b.String()
}

func renderCard(user models.User, st models.Stats) string {
	lines := []string{titleStyle.Render(user.Name), ""}
	for _, r := range rows(st) {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-22s", r.label))+" "+r.value)
	}

	badges := make([]string, 0, len(st.Achievements))
	for _, a := range st.Achievements {
		label := fmt.Sprintf("🏅%d", a.Days)
		if a.Earned {
			badges = append(badges, earnedStyle.Render(label))
		} else {
			badges = append(badges, lockedStyle.Render(label))
		}
	}
	lines = append(lines, "", strings.Join(badges, "  "))

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
