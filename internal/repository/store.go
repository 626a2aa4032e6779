package repository

import (
	"context"
	"fmt"
	"sort"

	"lol-tracker/internal/config"
	"lol-tracker/internal/database"
	"lol-tracker/internal/domain"

	crerr "github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var (
	ErrPlayerNotFound = crerr.New("player not found")
	ErrInvalidName    = crerr.New("invalid player name")
	ErrValidation     = crerr.New("store: document failed validation")
)

// UpdateFunc receives the stored record (nil when absent) and returns the
// record to persist.
type UpdateFunc func(existing *domain.PlayerRecord) (*domain.PlayerRecord, error)

// Store persists the display-name → player mapping. Update is a serialized
// read-modify-write: concurrent updates never lose each other's writes.
type Store interface {
	All(ctx context.Context) (map[string]domain.PlayerRecord, error)
	Get(ctx context.Context, name string) (*domain.PlayerRecord, error)
	Update(ctx context.Context, name string, fn UpdateFunc) (*domain.PlayerRecord, error)
	Names(ctx context.Context) ([]string, error)
}

// Document is the on-disk layout of the single-file store.
type Document struct {
	Players map[string]domain.PlayerRecord `json:"players"`
}

func emptyDocument() Document {
	return Document{Players: map[string]domain.PlayerRecord{}}
}

func New(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (Store, error) {
	switch cfg.StoreMode {
	case config.StoreModeDir:
		s := NewDirStore(cfg.DataDir, logger)
		if err := s.Init(); err != nil {
			return nil, fmt.Errorf("failed to init player directory: %w", err)
		}
		return s, nil

	case config.StoreModeSQLite:
		db, err := database.New(cfg.DBPath, logger)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if err := db.Close(); err != nil {
					logger.Warn().Err(err).Msg("error closing database connection")
				}
				return nil
			},
		})
		return NewSQLiteStore(db, logger), nil

	default:
		s := NewFileStore(cfg.DataPath, logger)
		if err := s.Init(); err != nil {
			return nil, fmt.Errorf("failed to init players file: %w", err)
		}
		return s, nil
	}
}

func sortedNames(players map[string]domain.PlayerRecord) []string {
	names := make([]string, 0, len(players))
	for name := range players {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
