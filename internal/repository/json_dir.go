package repository

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"lol-tracker/internal/domain"

	crerr "github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

const playerFileExt = ".json"

// DirStore keeps one JSON file per player under dir, named after the escaped
// display name. Writes are serialized per player.
type DirStore struct {
	dir    string
	locks  sync.Map
	logger zerolog.Logger
}

func NewDirStore(dir string, logger zerolog.Logger) *DirStore {
	return &DirStore{
		dir:    dir,
		logger: logger.With().Str("component", "dir_store").Str("dir", dir).Logger(),
	}
}

func (s *DirStore) Init() error {
	return os.MkdirAll(s.dir, 0o755)
}

func (s *DirStore) All(ctx context.Context) (map[string]domain.PlayerRecord, error) {
	names, err := s.Names(ctx)
	if err != nil {
		return nil, err
	}

	players := make(map[string]domain.PlayerRecord, len(names))
	for _, name := range names {
		rec, err := s.Get(ctx, name)
		if err != nil {
			if errors.Is(err, ErrPlayerNotFound) {
				continue
			}
			return nil, err
		}
		players[name] = *rec
	}
	return players, nil
}

func (s *DirStore) Get(ctx context.Context, name string) (*domain.PlayerRecord, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, crerr.Wrapf(err, "read player file %s", name)
	}

	var rec domain.PlayerRecord
	if err := codec.Unmarshal(raw, &rec); err != nil {
		return nil, crerr.Wrapf(ErrValidation, "decode player file %s: %v", name, err)
	}
	return &rec, nil
}

func (s *DirStore) Names(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, crerr.Wrap(err, "list player directory")
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), playerFileExt) {
			continue
		}
		name, err := url.PathUnescape(strings.TrimSuffix(e.Name(), playerFileExt))
		if err != nil {
			s.logger.Warn().Str("file", e.Name()).Msg("skipping player file with undecodable name")
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *DirStore) Update(ctx context.Context, name string, fn UpdateFunc) (*domain.PlayerRecord, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}

	mu := s.lockFor(name)
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, name)
	switch {
	case errors.Is(err, ErrPlayerNotFound):
		existing = nil
	case err != nil:
		raw, _ := os.ReadFile(path)
		backup, berr := preserveCorrupt(path, raw)
		s.logger.Warn().Err(err).Str("player", name).Str("backup", backup).AnErr("backup_err", berr).Msg("player file unreadable, starting from empty record")
		existing = nil
	}

	updated, err := fn(existing)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, crerr.Newf("update for %s returned no record", name)
	}

	raw, err := encodeChecked(*updated)
	if err == nil {
		err = writeAtomic[domain.PlayerRecord](path, raw)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("player", name).Msg("failed to persist player file")
		return nil, crerr.Wrapf(err, "persist player %s", name)
	}
	return updated, nil
}

func (s *DirStore) lockFor(name string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(name, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// pathFor escapes name into a single path segment; a leading dot is escaped
// too so names like ".." stay inside dir.
func (s *DirStore) pathFor(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrInvalidName
	}
	file := url.PathEscape(name)
	if strings.HasPrefix(file, ".") {
		file = "%2E" + file[1:]
	}
	return filepath.Join(s.dir, file+playerFileExt), nil
}
