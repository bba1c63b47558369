package groups

import (
	"context"
	"strings"

	"github.com/julianstephens/huddle/internal/cli"
	"github.com/julianstephens/huddle/internal/i18n"
)

type GroupCmd struct {
	List GroupListCmd `cmd:"" help:"List or search habit groups."`
}

type GroupListCmd struct {
	Q    string `help:"Match against group name and description." default:""`
	Lang string `help:"Display language for category tags." env:"LANG" default:"en"`
}

func (c *GroupListCmd) Run(ctx *cli.Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	groups, err := svc.ListGroups(context.Background(), c.Q, i18n.Parse(posixLocale(c.Lang)))
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		ctx.Println("No groups found.")
		return nil
	}

	for _, g := range groups {
		visibility := "public"
		if g.IsPrivate {
			visibility = "private"
		}
		ctx.Printf("%-36s  %s %-30s  %-18s  %2d members  %s\n",
			g.ID, g.Emoji, g.Name, g.Tag.Text, g.MemberCount, visibility)
	}
	return nil
}

// posixLocale turns values such as "id_ID.UTF-8" into BCP 47 ("id-ID").
func posixLocale(v string) string {
	if i := strings.IndexAny(v, ".@"); i >= 0 {
		v = v[:i]
	}
	return strings.ReplaceAll(v, "_", "-")
}
