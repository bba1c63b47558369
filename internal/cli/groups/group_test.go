package groups

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/huddle/internal/cli"
	"github.com/julianstephens/huddle/internal/config"
	"github.com/julianstephens/huddle/internal/models"
	"github.com/julianstephens/huddle/internal/service"
	"github.com/julianstephens/huddle/internal/storage/sqlite"
)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "huddle.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })

	out := &bytes.Buffer{}
	ctx := &cli.Context{Store: store, Config: config.Default(), Out: out}

	svc, err := ctx.Service()
	require.NoError(t, err)
	bg := context.Background()
	_, err = svc.EnsureUser(bg, models.Identity{UserID: "alice", Name: "Alice"})
	require.NoError(t, err)
	_, err = svc.CreateGroup(bg, "alice", service.NewGroup{Name: "Morning Runners", Category: "physical_health", Description: "5k before work"})
	require.NoError(t, err)
	_, err = svc.CreateGroup(bg, "alice", service.NewGroup{Name: "Book Club", Category: "learning", IsPrivate: true})
	require.NoError(t, err)

	return ctx, out
}

func TestGroupListCmd(t *testing.T) {
	ctx, out := setupTestContext(t)

	require.NoError(t, (&GroupListCmd{Lang: "en"}).Run(ctx))
	got := out.String()
	assert.Contains(t, got, "Morning Runners")
	assert.Contains(t, got, "Physical Health & Fitness")
	assert.Contains(t, got, "Book Club")
	assert.Contains(t, got, "private")
}

func TestGroupListCmd_Query(t *testing.T) {
	ctx, out := setupTestContext(t)

	require.NoError(t, (&GroupListCmd{Q: "before WORK", Lang: "en"}).Run(ctx))
	assert.Contains(t, out.String(), "Morning Runners")
	assert.NotContains(t, out.String(), "Book Club")

	out.Reset()
	require.NoError(t, (&GroupListCmd{Q: "chess", Lang: "en"}).Run(ctx))
	assert.Contains(t, out.String(), "No groups found.")
}

func TestGroupListCmd_Localized(t *testing.T) {
	ctx, out := setupTestContext(t)

	require.NoError(t, (&GroupListCmd{Lang: "id_ID.UTF-8"}).Run(ctx))
	assert.Contains(t, out.String(), "Kesehatan Fisik & Kebugaran")
}

func TestPosixLocale(t *testing.T) {
	assert.Equal(t, "id-ID", posixLocale("id_ID.UTF-8"))
	assert.Equal(t, "en-US", posixLocale("en_US"))
	assert.Equal(t, "C", posixLocale("C"))
	assert.Equal(t, "de-DE", posixLocale("de_DE@euro"))
}
