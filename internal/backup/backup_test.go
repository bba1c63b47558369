package backup

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "huddle.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE habits (id TEXT PRIMARY KEY, name TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO habits (id, name) VALUES ('h1', 'Read'), ('h2', 'Run')`)
	require.NoError(t, err)
	return dbPath
}

func countHabits(t *testing.T, path string) int {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM habits").Scan(&n))
	return n
}

// clock returns a Manager clock that advances a second per call.
func clock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestCreate(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	path, err := mgr.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(dbPath), DirName), filepath.Dir(path))
	assert.Equal(t, 2, countHabits(t, path))
}

func TestCreate_NoDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))

	_, err := mgr.Create(context.Background())
	assert.ErrorIs(t, err, ErrNoDatabase)
}

func TestCreate_SameSecond(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	fixed := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return fixed }

	first, err := mgr.Create(context.Background())
	require.NoError(t, err)
	second, err := mgr.Create(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "huddle-20240315-120000.db", filepath.Base(first))
	assert.Equal(t, "huddle-20240315-120000-1.db", filepath.Base(second))

	backups, err := mgr.List()
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

func TestList(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	backups, err := mgr.List()
	require.NoError(t, err)
	assert.Empty(t, backups)

	mgr.now = clock(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))
	for i := 0; i < 3; i++ {
		_, err := mgr.Create(context.Background())
		require.NoError(t, err)
	}
	// foreign files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(mgr.Dir(), "notes.txt"), []byte("x"), 0600))

	backups, err = mgr.List()
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.True(t, backups[0].Timestamp.After(backups[1].Timestamp))
	assert.True(t, backups[1].Timestamp.After(backups[2].Timestamp))
	assert.Positive(t, backups[0].Size)
}

func TestRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = clock(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	var newest string
	for i := 0; i < MaxBackups+3; i++ {
		path, err := mgr.Create(context.Background())
		require.NoError(t, err)
		newest = path
	}

	backups, err := mgr.List()
	require.NoError(t, err)
	assert.Len(t, backups, MaxBackups)
	assert.Equal(t, newest, backups[0].Path)
}

func TestRestore(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	mgr.now = clock(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC))

	snap, err := mgr.Create(context.Background())
	require.NoError(t, err)

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec("DELETE FROM habits")
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.Equal(t, 0, countHabits(t, dbPath))

	previous, err := mgr.Restore(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, 2, countHabits(t, dbPath))

	// the emptied database was kept
	require.NotEmpty(t, previous)
	assert.Equal(t, 0, countHabits(t, previous))
}

func TestRestore_Invalid(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)

	_, err := mgr.Restore(context.Background(), filepath.Join(t.TempDir(), "nope.db"))
	assert.Error(t, err)

	garbage := filepath.Join(t.TempDir(), "garbage.db")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not sqlite, just some text padding it out"), 0600))
	_, err = mgr.Restore(context.Background(), garbage)
	assert.Error(t, err)
	assert.Equal(t, 2, countHabits(t, dbPath))
}
