package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/huddle/internal/backup"
	"github.com/julianstephens/huddle/internal/cli"
	"github.com/julianstephens/huddle/internal/config"
	"github.com/julianstephens/huddle/internal/keyring"
)

type DoctorCmd struct{}

type check struct {
	name     string
	needsDB  bool // skipped when the database cannot be reached
	warnOnly bool // never fails the command
	run      func(ctx context.Context, c *cli.Context) error
}

var checks = []check{
	{name: "Database reachable", run: checkDBReachable},
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "Event delivery", run: checkEvents},
	{name: "OS keyring", warnOnly: true, run: checkKeyring},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	bg := context.Background()
	hasError := false
	dbReachable := true

	for _, chk := range checks {
		if chk.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", chk.name)
			continue
		}
		err := chk.run(bg, ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", chk.name)
		case chk.warnOnly:
			ctx.Printf("⚠ %s: WARNING\n", chk.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", chk.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
			if chk.name == checks[0].name {
				dbReachable = false
			}
		}
	}

	ctx.Println()
	if hasError {
		return errors.New("diagnostics failed")
	}
	ctx.Println("All checks passed.")
	return nil
}

func checkDBReachable(bg context.Context, ctx *cli.Context) error {
	if err := ctx.Store.Load(bg); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if err := ctx.Store.Ping(bg); err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkSchemaVersion(bg context.Context, ctx *cli.Context) error {
	current, latest, err := ctx.Store.SchemaVersion(bg)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(bg context.Context, ctx *cli.Context) error {
	current, latest, err := ctx.Store.SchemaVersion(bg)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if current < latest {
		return fmt.Errorf("%d pending migration(s) - run 'huddle migrate'", latest-current)
	}
	return nil
}

func checkBackupsPresent(_ context.Context, ctx *cli.Context) error {
	if ctx.Config != nil && (config.IsPostgres(ctx.Config.Database) || ctx.Config.Database == config.KeyringDatabase) {
		return nil
	}
	backups, err := backup.NewManager(ctx.Store.GetConfigPath()).List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return errors.New("no backups found - consider creating one with 'huddle backup create'")
	}
	return nil
}

func checkClockTimezone(_ context.Context, ctx *cli.Context) error {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	if ctx.Config == nil {
		return nil
	}
	if _, err := ctx.Config.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", ctx.Config.Timezone, err)
	}
	return nil
}

func checkEvents(_ context.Context, ctx *cli.Context) error {
	if ctx.Config == nil {
		return nil
	}
	return ctx.Config.Validate()
}

func checkKeyring(_ context.Context, ctx *cli.Context) error {
	if keyring.IsAvailable() {
		return nil
	}
	if ctx.Config != nil && ctx.Config.Database == config.KeyringDatabase {
		return errors.New("OS keyring is not available but the database is configured to be read from it")
	}
	return errors.New("OS keyring is not available on this system")
}
