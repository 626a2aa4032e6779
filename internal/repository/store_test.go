package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"lol-tracker/internal/config"
	"lol-tracker/internal/database"
	"lol-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func samplePlayer(name, tag string) *domain.PlayerRecord {
	return &domain.PlayerRecord{
		GameName:   name,
		TagLine:    tag,
		Puuid:      "puuid-" + name,
		SummonerID: "sum-" + name,
		RankedInfo: []domain.RankedStanding{{QueueType: "RANKED_SOLO_5x5", Tier: "GOLD", Rank: "II", LeaguePoints: 40, Wins: 10, Losses: 8}},
		RecentMatches: []domain.MatchRecord{{Info: domain.MatchInfo{
			GameCreation: 1700000000000,
			GameDuration: 1800,
			GameMode:     "CLASSIC",
			QueueID:      420,
			Participants: []domain.Participant{{Puuid: "puuid-" + name, ChampionName: "Annie", Kills: 3, Deaths: 1, Assists: 7, Win: true}},
		}}},
		LastUpdated: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func put(rec *domain.PlayerRecord) UpdateFunc {
	return func(*domain.PlayerRecord) (*domain.PlayerRecord, error) { return rec, nil }
}

type storeFactory func(t *testing.T) Store

func storeFactories() map[string]storeFactory {
	return map[string]storeFactory{
		"file": func(t *testing.T) Store {
			s := NewFileStore(filepath.Join(t.TempDir(), "players.json"), zerolog.Nop())
			require.NoError(t, s.Init())
			return s
		},
		"dir": func(t *testing.T) Store {
			s := NewDirStore(filepath.Join(t.TempDir(), "players"), zerolog.Nop())
			require.NoError(t, s.Init())
			return s
		},
		"sqlite": func(t *testing.T) Store {
			db, err := database.New(filepath.Join(t.TempDir(), "players.db"), zerolog.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })
			return NewSQLiteStore(db, zerolog.Nop())
		},
	}
}

func TestStores_RoundTrip(t *testing.T) {
	for mode, factory := range storeFactories() {
		t.Run(mode, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			want := samplePlayer("Alice", "EUW")
			_, err := store.Update(ctx, "Alice#EUW", put(want))
			require.NoError(t, err)

			got, err := store.Get(ctx, "Alice#EUW")
			require.NoError(t, err)
			assert.Equal(t, want, got)

			all, err := store.All(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]domain.PlayerRecord{"Alice#EUW": *want}, all)

			names, err := store.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"Alice#EUW"}, names)
		})
	}
}

func TestStores_MissingPlayer(t *testing.T) {
	for mode, factory := range storeFactories() {
		t.Run(mode, func(t *testing.T) {
			store := factory(t)

			_, err := store.Get(context.Background(), "Nobody#EUW")
			assert.ErrorIs(t, err, ErrPlayerNotFound)

			all, err := store.All(context.Background())
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestStores_UpdateSeesExisting(t *testing.T) {
	for mode, factory := range storeFactories() {
		t.Run(mode, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			_, err := store.Update(ctx, "Alice#EUW", put(samplePlayer("Alice", "EUW")))
			require.NoError(t, err)

			var seen *domain.PlayerRecord
			_, err = store.Update(ctx, "Alice#EUW", func(existing *domain.PlayerRecord) (*domain.PlayerRecord, error) {
				seen = existing
				next := *existing
				next.SummonerLevel = 99
				return &next, nil
			})
			require.NoError(t, err)

			require.NotNil(t, seen)
			got, err := store.Get(ctx, "Alice#EUW")
			require.NoError(t, err)
			assert.Equal(t, 99, got.SummonerLevel)
		})
	}
}

func TestStores_UpdateErrorLeavesStoreUntouched(t *testing.T) {
	for mode, factory := range storeFactories() {
		t.Run(mode, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			_, err := store.Update(ctx, "Alice#EUW", func(*domain.PlayerRecord) (*domain.PlayerRecord, error) {
				return nil, fmt.Errorf("upstream down")
			})
			require.Error(t, err)

			_, err = store.Get(ctx, "Alice#EUW")
			assert.ErrorIs(t, err, ErrPlayerNotFound)
		})
	}
}

func TestStores_ConcurrentUpdatesKeepEveryPlayer(t *testing.T) {
	for mode, factory := range storeFactories() {
		t.Run(mode, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			var wg sync.WaitGroup
			for i := range 8 {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					name := fmt.Sprintf("P%d", i)
					_, err := store.Update(ctx, name+"#EUW", put(samplePlayer(name, "EUW")))
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			all, err := store.All(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 8)
		})
	}
}

func TestStores_EmptyNameRejected(t *testing.T) {
	for mode, factory := range storeFactories() {
		t.Run(mode, func(t *testing.T) {
			_, err := factory(t).Update(context.Background(), "", put(samplePlayer("A", "B")))
			assert.ErrorIs(t, err, ErrInvalidName)
		})
	}
}

func TestFileStore_InitCreatesEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "players.json")
	s := NewFileStore(path, zerolog.Nop())
	require.NoError(t, s.Init())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"players":{}}`, string(raw))
}

func TestFileStore_MissingFileReadsEmpty(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "players.json"), zerolog.Nop())

	all, err := s.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileStore_CorruptFileFailsReadsButRecoversOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "players.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"players": {`), 0o644))
	s := NewFileStore(path, zerolog.Nop())

	_, err := s.All(context.Background())
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.Update(context.Background(), "Alice#EUW", put(samplePlayer("Alice", "EUW")))
	require.NoError(t, err)

	all, err := s.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var backups int
	for _, e := range entries {
		if strings.Contains(e.Name(), ".corrupt-") {
			backups++
			raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
			require.NoError(t, err)
			assert.Equal(t, `{"players": {`, string(raw))
		}
	}
	assert.Equal(t, 1, backups)
}

func TestFileStore_WriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "players.json"), zerolog.Nop())
	require.NoError(t, s.Init())

	for i := range 3 {
		_, err := s.Update(context.Background(), fmt.Sprintf("P%d#EUW", i), put(samplePlayer(fmt.Sprintf("P%d", i), "EUW")))
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "players.json", entries[0].Name())
}

func TestFileStore_CancelledContext(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "players.json"), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Update(ctx, "Alice#EUW", put(samplePlayer("Alice", "EUW")))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirStore_EscapesNames(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "players")
	s := NewDirStore(dir, zerolog.Nop())
	require.NoError(t, s.Init())

	for _, name := range []string{"Alice#EUW", "../escape", "a/b#NA1"} {
		_, err := s.Update(context.Background(), name, put(samplePlayer("x", "y")))
		require.NoError(t, err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	names, err := s.Names(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"../escape", "Alice#EUW", "a/b#NA1"}, names)
}

func TestDirStore_CorruptPlayerRecovers(t *testing.T) {
	dir := t.TempDir()
	s := NewDirStore(dir, zerolog.Nop())
	path, err := s.pathFor("Alice#EUW")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	_, err = s.Get(context.Background(), "Alice#EUW")
	assert.ErrorIs(t, err, ErrValidation)

	var seen *domain.PlayerRecord
	_, err = s.Update(context.Background(), "Alice#EUW", func(existing *domain.PlayerRecord) (*domain.PlayerRecord, error) {
		seen = existing
		return samplePlayer("Alice", "EUW"), nil
	})
	require.NoError(t, err)
	assert.Nil(t, seen)

	got, err := s.Get(context.Background(), "Alice#EUW")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.GameName)
}

func TestNew_SelectsStoreByMode(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		DataPath: filepath.Join(dir, "players.json"),
		DataDir:  filepath.Join(dir, "players"),
		DBPath:   filepath.Join(dir, "players.db"),
	}

	for mode, want := range map[string]any{
		config.StoreModeFile:   &FileStore{},
		config.StoreModeDir:    &DirStore{},
		config.StoreModeSQLite: &SQLiteStore{},
	} {
		t.Run(mode, func(t *testing.T) {
			lc := fxtest.NewLifecycle(t)
			cfg.StoreMode = mode

			store, err := New(lc, cfg, zerolog.Nop())
			require.NoError(t, err)
			assert.IsType(t, want, store)

			lc.RequireStart()
			lc.RequireStop()
		})
	}

	_, err := os.Stat(cfg.DataPath)
	assert.NoError(t, err)
}
