package migration

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func migrationFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestGetCurrentVersion_FreshDatabase(t *testing.T) {
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(nil))

	version, err := runner.GetCurrentVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, version)

	require.NoError(t, runner.SetVersion(context.Background(), 4))
	version, err = runner.GetCurrentVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, version)
}

func TestReadMigrationFiles(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		want    []int
		wantErr bool
	}{
		{
			name:  "sorted by version",
			files: map[string]string{"002_b.sql": "B", "001_a.sql": "A", "README.md": "ignored"},
			want:  []int{1, 2},
		},
		{name: "missing underscore", files: map[string]string{"001.sql": ""}, wantErr: true},
		{name: "non numeric", files: map[string]string{"abc_x.sql": ""}, wantErr: true},
		{name: "zero version", files: map[string]string{"000_x.sql": ""}, wantErr: true},
		{name: "duplicate", files: map[string]string{"001_a.sql": "", "1_b.sql": ""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := NewRunner(nil, migrationFS(tt.files))
			migrations, err := runner.ReadMigrationFiles()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			var got []int
			for _, m := range migrations {
				got = append(got, m.Version)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplyMigrations(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_users.sql": "CREATE TABLE users (id TEXT PRIMARY KEY);",
		"002_habits.sql": "CREATE TABLE habits (id TEXT PRIMARY KEY, user_id TEXT);",
	}))

	var logs []string
	applied, err := runner.ApplyMigrations(ctx, func(s string) { logs = append(logs, s) })
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	assert.NotEmpty(t, logs)

	version, err := runner.GetCurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	applied, err = runner.ApplyMigrations(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)
}

func TestApplyMigrations_FailureRollsBack(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{
		"001_ok.sql":  "CREATE TABLE ok (id TEXT);",
		"002_bad.sql": "CREATE TABLE broken (;",
	}))

	applied, err := runner.ApplyMigrations(ctx, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, applied)

	version, err := runner.GetCurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestValidateVersion_NewerDatabase(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	runner := NewRunner(db, migrationFS(map[string]string{"001_a.sql": "SELECT 1;"}))

	require.NoError(t, runner.SetVersion(ctx, 9))
	assert.ErrorContains(t, runner.ValidateVersion(ctx), "newer than supported")

	_, err := runner.ApplyMigrations(ctx, nil)
	assert.Error(t, err)
}

func TestWithRebind(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	var seen []string
	runner := NewRunner(db, migrationFS(nil), WithRebind(func(q string) string {
		seen = append(seen, q)
		return q
	}))

	require.NoError(t, runner.SetVersion(ctx, 1))
	assert.Equal(t, []string{"INSERT INTO schema_version (version) VALUES (?)"}, seen)
}
