package database

import (
	"embed"
	"fmt"

	"lol-tracker/internal/constants"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// New opens the SQLite database at path, tunes it and applies the embedded
// migrations.
func New(path string, logger zerolog.Logger) (*sqlx.DB, error) {
	logger.Info().Str("path", path).Msg("connecting to database")

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(constants.DBMaxOpenConns)
	db.SetMaxIdleConns(constants.DBMaxIdleConns)
	db.SetConnMaxLifetime(constants.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(constants.DBMaxIdleTime)

	if err := optimizeSQLite(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to optimize SQLite: %w", err)
	}
	if err := runMigrations(db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := verifyPlayersTable(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info().Msg("database ready")
	return db, nil
}

func runMigrations(db *sqlx.DB, logger zerolog.Logger) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}

	logger.Info().Msg("migrations completed successfully")
	return nil
}

// playerColumns is the layout the player store reads and writes.
var playerColumns = []string{"name", "data", "updated_at"}

type columnInfo struct {
	CID        int     `db:"cid"`
	Name       string  `db:"name"`
	Type       string  `db:"type"`
	NotNull    int     `db:"notnull"`
	Default    *string `db:"dflt_value"`
	PrimaryKey int     `db:"pk"`
}

// verifyPlayersTable fails startup when the migrated schema lacks a column the
// player store depends on or keys the table by anything but name.
func verifyPlayersTable(db *sqlx.DB) error {
	var cols []columnInfo
	if err := db.Select(&cols, `PRAGMA table_info(players)`); err != nil {
		return fmt.Errorf("failed to inspect players table: %w", err)
	}
	if len(cols) == 0 {
		return fmt.Errorf("players table missing after migrations")
	}

	byName := make(map[string]columnInfo, len(cols))
	for _, c := range cols {
		byName[c.Name] = c
	}
	for _, want := range playerColumns {
		if _, ok := byName[want]; !ok {
			return fmt.Errorf("players table missing column %q", want)
		}
	}
	if byName["name"].PrimaryKey != 1 {
		return fmt.Errorf("players table must be keyed by name")
	}
	return nil
}

func optimizeSQLite(db *sqlx.DB, logger zerolog.Logger) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"busy_timeout", "5000"},
		{"temp_store", "MEMORY"},
	}

	for _, pragma := range pragmas {
		query := fmt.Sprintf("PRAGMA %s = %s", pragma.name, pragma.value)
		if _, err := db.Exec(query); err != nil {
			logger.Warn().
				Err(err).
				Str("pragma", pragma.name).
				Msg("failed to set pragma")
			return fmt.Errorf("failed to set PRAGMA %s: %w", pragma.name, err)
		}
		logger.Debug().Str("pragma", pragma.name).Str("value", pragma.value).Msg("SQLite pragma set")
	}
	return nil
}
