package repository

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"

	"lol-tracker/internal/domain"

	crerr "github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// FileStore keeps every player in one JSON document.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger zerolog.Logger
}

func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.With().Str("component", "file_store").Str("path", path).Logger(),
	}
}

// Init writes an empty document when none exists yet.
func (s *FileStore) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return crerr.Wrap(err, "stat players file")
	}

	raw, err := encodeChecked(emptyDocument())
	if err != nil {
		return err
	}
	s.logger.Info().Msg("initializing empty players file")
	return writeAtomic[Document](s.path, raw)
}

func (s *FileStore) All(ctx context.Context) (map[string]domain.PlayerRecord, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return doc.Players, nil
}

func (s *FileStore) Get(ctx context.Context, name string) (*domain.PlayerRecord, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	rec, ok := doc.Players[name]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return &rec, nil
}

func (s *FileStore) Names(ctx context.Context) ([]string, error) {
	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	return sortedNames(doc.Players), nil
}

func (s *FileStore) Update(ctx context.Context, name string, fn UpdateFunc) (*domain.PlayerRecord, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, liveOK := s.loadForWrite()

	var existing *domain.PlayerRecord
	if rec, ok := doc.Players[name]; ok {
		existing = &rec
	}

	updated, err := fn(existing)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, crerr.Newf("update for %s returned no record", name)
	}
	doc.Players[name] = *updated

	raw, err := encodeChecked(doc)
	if err == nil {
		err = writeAtomic[Document](s.path, raw)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("player", name).Msg("failed to persist players file")
		if !liveOK {
			s.recoverEmpty()
		}
		return nil, crerr.Wrapf(err, "persist player %s", name)
	}

	s.logger.Debug().Str("player", name).Int("players", len(doc.Players)).Msg("players file written")
	return updated, nil
}

// read returns an empty mapping for a missing file and an error for an
// unreadable one.
func (s *FileStore) read() (Document, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptyDocument(), nil
	}
	if err != nil {
		return Document{}, crerr.Wrap(err, "read players file")
	}
	return decodeDocument(raw)
}

// loadForWrite never fails: a missing or corrupt document starts the write
// from an empty mapping. The bool reports whether the live file was usable.
func (s *FileStore) loadForWrite() (Document, bool) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptyDocument(), false
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("players file unreadable, starting from empty mapping")
		return emptyDocument(), false
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		backup, berr := preserveCorrupt(s.path, raw)
		s.logger.Warn().Err(err).Str("backup", backup).AnErr("backup_err", berr).Msg("players file corrupt, starting from empty mapping")
		return emptyDocument(), false
	}
	return doc, true
}

func (s *FileStore) recoverEmpty() {
	raw, err := encodeChecked(emptyDocument())
	if err == nil {
		err = writeAtomic[Document](s.path, raw)
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to write recovery document")
		return
	}
	s.logger.Warn().Msg("wrote empty recovery document")
}

func decodeDocument(raw []byte) (Document, error) {
	var doc Document
	if err := codec.Unmarshal(raw, &doc); err != nil {
		return Document{}, crerr.Wrapf(ErrValidation, "decode players file: %v", err)
	}
	if doc.Players == nil {
		doc.Players = map[string]domain.PlayerRecord{}
	}
	return doc, nil
}
