package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"lol-tracker/internal/domain"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

type playerRow struct {
	Name      string    `db:"name"`
	Data      string    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SQLiteStore keeps each player as a JSON blob in the players table.
type SQLiteStore struct {
	db     *sqlx.DB
	mu     sync.Mutex
	logger zerolog.Logger
}

func NewSQLiteStore(db *sqlx.DB, logger zerolog.Logger) *SQLiteStore {
	return &SQLiteStore{
		db:     db,
		logger: logger.With().Str("component", "sqlite_store").Logger(),
	}
}

func (s *SQLiteStore) All(ctx context.Context) (map[string]domain.PlayerRecord, error) {
	var rows []playerRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT name, data, updated_at FROM players ORDER BY name`); err != nil {
		return nil, crerr.Wrap(err, "select players")
	}

	players := make(map[string]domain.PlayerRecord, len(rows))
	for _, row := range rows {
		rec, err := decodeRow(row)
		if err != nil {
			return nil, err
		}
		players[row.Name] = rec
	}
	return players, nil
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (*domain.PlayerRecord, error) {
	var row playerRow
	err := s.db.GetContext(ctx, &row, `SELECT name, data, updated_at FROM players WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, crerr.Wrapf(err, "select player %s", name)
	}

	rec, err := decodeRow(row)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *SQLiteStore) Names(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM players ORDER BY name`); err != nil {
		return nil, crerr.Wrap(err, "select player names")
	}
	return names, nil
}

func (s *SQLiteStore) Update(ctx context.Context, name string, fn UpdateFunc) (*domain.PlayerRecord, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	var existing *domain.PlayerRecord
	var row playerRow
	err = tx.GetContext(ctx, &row, `SELECT name, data, updated_at FROM players WHERE name = ?`, name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, crerr.Wrapf(err, "select player %s", name)
	default:
		rec, derr := decodeRow(row)
		if derr != nil {
			s.logger.Warn().Err(derr).Str("player", name).Msg("stored player unreadable, starting from empty record")
		} else {
			existing = &rec
		}
	}

	updated, err := fn(existing)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, crerr.Newf("update for %s returned no record", name)
	}

	raw, err := encodeChecked(*updated)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO players (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, string(raw), time.Now().UTC())
	if err != nil {
		return nil, crerr.Wrapf(err, "upsert player %s", name)
	}
	if err := tx.Commit(); err != nil {
		return nil, crerr.Wrap(err, "commit player update")
	}
	return updated, nil
}

func decodeRow(row playerRow) (domain.PlayerRecord, error) {
	var rec domain.PlayerRecord
	if err := codec.UnmarshalFromString(row.Data, &rec); err != nil {
		return domain.PlayerRecord{}, crerr.Wrapf(ErrValidation, "decode player %s: %v", row.Name, err)
	}
	return rec, nil
}
