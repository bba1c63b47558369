package system

import (
	"context"

	"github.com/julianstephens/huddle/internal/cli"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Init(context.Background()); err != nil {
		return err
	}
	ctx.Printf("Initialized huddle storage at: %s\n", ctx.Store.GetConfigPath())
	return nil
}
