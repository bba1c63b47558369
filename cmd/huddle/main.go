package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/huddle/internal/cli"
	"github.com/julianstephens/huddle/internal/cli/backups"
	"github.com/julianstephens/huddle/internal/cli/groups"
	"github.com/julianstephens/huddle/internal/cli/habits"
	"github.com/julianstephens/huddle/internal/cli/system"
	"github.com/julianstephens/huddle/internal/config"
	"github.com/julianstephens/huddle/internal/constants"
	"github.com/julianstephens/huddle/internal/errors"
	"github.com/julianstephens/huddle/internal/keyring"
	"github.com/julianstephens/huddle/internal/logger"
)

var CLI struct {
	Version    kong.VersionFlag
	ConfigFile string `name:"config" help:"YAML config file." type:"path" default:""`
	DB         string `name:"db" help:"SQLite path, PostgreSQL URL, or 'keyring' (env HUDDLE_DB). PostgreSQL credentials must NOT be embedded in the connection string; use .pgpass or the OS keyring instead." default:""`
	Debug      bool   `help:"Enable debug logging to stderr."`
	EnvFile    string `name:"env-file" help:"dotenv file to read before the environment." default:".env"`

	Init     system.InitCmd    `cmd:"" help:"Initialize huddle storage."`
	Migrate  system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Serve    system.ServeCmd   `cmd:"" help:"Run the HTTP API."`
	Habit    habits.HabitCmd   `cmd:"" help:"Manage habits and check-ins."`
	Stats    habits.StatsCmd   `cmd:"" help:"Show profile statistics."`
	Group    groups.GroupCmd   `cmd:"" help:"Browse habit groups."`
	Backup   backups.BackupCmd `cmd:"" help:"Manage SQLite database backups."`
	Settings system.ConfigCmd  `cmd:"" name:"config" help:"Manage configuration and stored secrets."`
}

var selfLoading = map[string]bool{
	"init":   true,
	"doctor": true,
	"backup": true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Social habit tracker: streaks, groups and cheers"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	cfg, err := config.Load(CLI.ConfigFile, CLI.EnvFile)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.DB != "" {
		cfg.Database = CLI.DB
	}
	if CLI.Debug {
		cfg.Debug = true
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, DataDir: cfg.DataDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	appCtx := &cli.Context{Config: cfg}
	cmd := topLevel(ctx)

	// config manages the keyring the store may be read from
	if cmd != "config" {
		store, err := cli.OpenStore(cfg, keyring.GetConnectionString)
		if err != nil {
			errors.Fatal(err)
		}
		defer store.Close()
		appCtx.Store = store

		// Init, doctor and backup handle the database themselves
		if !selfLoading[cmd] {
			if err := store.Load(context.Background()); err != nil {
				errors.Fatal(err)
			}
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		if appCtx.Store != nil {
			appCtx.Store.Close()
		}
		errors.Fatal(err)
	}
}

func topLevel(ctx *kong.Context) string {
	for _, p := range ctx.Path {
		if p.Command != nil {
			return p.Command.Name
		}
	}
	return ""
}
