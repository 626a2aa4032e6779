package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lol-tracker/internal/constants"
	"lol-tracker/internal/repository"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

type RefreshFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type RefreshSummary struct {
	Total      int              `json:"total"`
	Refreshed  []string         `json:"refreshed"`
	Failed     []RefreshFailure `json:"failed"`
	DurationMs int64            `json:"durationMs"`
}

// RefreshService re-runs the update pipeline for every stored player on a
// bounded worker pool.
type RefreshService struct {
	players *PlayerService
	store   repository.Store
	workers int
	logger  zerolog.Logger
}

func NewRefreshService(players *PlayerService, store repository.Store, workers int, logger zerolog.Logger) *RefreshService {
	if workers <= 0 {
		workers = constants.DefaultRefreshPool
	}
	return &RefreshService{players: players, store: store, workers: workers, logger: logger}
}

func (s *RefreshService) RefreshAll(ctx context.Context) (*RefreshSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.BulkRefreshTimeout)
	defer cancel()

	start := time.Now()
	players, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read players: %w", err)
	}

	summary := &RefreshSummary{
		Total:     len(players),
		Refreshed: []string{},
		Failed:    []RefreshFailure{},
	}
	if len(players) == 0 {
		return summary, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		workers sync.WaitGroup
	)
	for name, rec := range players {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			_, err := s.players.Update(ctx, name, rec.GameName, rec.TagLine)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn().Err(err).Str("name", name).Msg("bulk refresh failed for player")
				summary.Failed = append(summary.Failed, RefreshFailure{Name: name, Error: err.Error()})
				return
			}
			summary.Refreshed = append(summary.Refreshed, name)
		}); err != nil {
			workers.Done()
			mu.Lock()
			summary.Failed = append(summary.Failed, RefreshFailure{Name: name, Error: err.Error()})
			mu.Unlock()
		}
	}
	workers.Wait()

	sort.Strings(summary.Refreshed)
	sort.Slice(summary.Failed, func(i, j int) bool { return summary.Failed[i].Name < summary.Failed[j].Name })
	summary.DurationMs = time.Since(start).Milliseconds()

	s.logger.Info().
		Int("total", summary.Total).
		Int("refreshed", len(summary.Refreshed)).
		Int("failed", len(summary.Failed)).
		Msg("bulk refresh finished")
	return summary, nil
}
