package database

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRaw(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", filepath.Join(t.TempDir(), "raw.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNew_MigratesPlayersTable(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "players.db"), zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	var cols []columnInfo
	require.NoError(t, db.Select(&cols, `PRAGMA table_info(players)`))
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}
	assert.Equal(t, playerColumns, names)
	assert.NoError(t, verifyPlayersTable(db))
}

func TestNew_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.db")

	first, err := New(path, zerolog.Nop())
	require.NoError(t, err)
	_, err = first.Exec(`INSERT INTO players (name, data) VALUES ('Alice#EUW', '{}')`)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(path, zerolog.Nop())
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.Get(&count, `SELECT COUNT(*) FROM players`))
	assert.Equal(t, 1, count)
}

func TestVerifyPlayersTable_Missing(t *testing.T) {
	err := verifyPlayersTable(openRaw(t))
	assert.ErrorContains(t, err, "players table missing")
}

func TestVerifyPlayersTable_MissingColumn(t *testing.T) {
	db := openRaw(t)
	_, err := db.Exec(`CREATE TABLE players (name TEXT PRIMARY KEY, data TEXT NOT NULL)`)
	require.NoError(t, err)

	assert.ErrorContains(t, verifyPlayersTable(db), `missing column "updated_at"`)
}

func TestVerifyPlayersTable_WrongKey(t *testing.T) {
	db := openRaw(t)
	_, err := db.Exec(`CREATE TABLE players (id INTEGER PRIMARY KEY, name TEXT, data TEXT, updated_at TIMESTAMP)`)
	require.NoError(t, err)

	assert.ErrorContains(t, verifyPlayersTable(db), "keyed by name")
}
