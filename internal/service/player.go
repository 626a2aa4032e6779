package service

import (
	"context"
	"fmt"
	"time"

	"lol-tracker/internal/api"
	"lol-tracker/internal/cache"
	"lol-tracker/internal/config"
	"lol-tracker/internal/constants"
	"lol-tracker/internal/domain"
	"lol-tracker/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// RiotAPI is the slice of the Riot client the services depend on.
type RiotAPI interface {
	GetAccount(ctx context.Context, gameName, tagLine string) (*api.AccountDTO, error)
	GetSummoner(ctx context.Context, puuid string) (*api.SummonerDTO, error)
	GetRankedEntries(ctx context.Context, summonerID, puuid string) ([]api.LeagueEntryDTO, error)
	GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*api.MatchDTO, error)
	GetActiveGame(ctx context.Context, summonerID string) ([]byte, error)
}

type PlayerService struct {
	riot       RiotAPI
	store      repository.Store
	cache      *cache.Store
	matchCount int
	cacheTTL   time.Duration
	now        func() time.Time
	logger     zerolog.Logger
}

func NewPlayerService(riot RiotAPI, store repository.Store, cache *cache.Store, cfg *config.Config, logger zerolog.Logger) *PlayerService {
	matchCount := cfg.MatchCount
	if matchCount <= 0 {
		matchCount = constants.DefaultMatchCount
	}
	return &PlayerService{
		riot:       riot,
		store:      store,
		cache:      cache,
		matchCount: matchCount,
		cacheTTL:   cfg.CacheTTL,
		now:        time.Now,
		logger:     logger,
	}
}

// Update refreshes the record stored under name from the Riot API and merges
// the fetched matches into its history.
func (s *PlayerService) Update(ctx context.Context, name, gameName, tagLine string) (*domain.PlayerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	s.logger.Info().Str("name", name).Str("gameName", gameName).Str("tagLine", tagLine).Msg("updating player")

	account, err := s.riot.GetAccount(ctx, gameName, tagLine)
	if err != nil {
		s.logger.Error().Err(err).Str("gameName", gameName).Str("tagLine", tagLine).Msg("failed to fetch account")
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}

	summoner, err := s.riot.GetSummoner(ctx, account.Puuid)
	if err != nil {
		s.logger.Error().Err(err).Str("puuid", account.Puuid).Msg("failed to fetch summoner")
		return nil, fmt.Errorf("failed to fetch summoner: %w", err)
	}

	ranked, err := s.fetchRanked(ctx, summoner.ID, account.Puuid)
	if err != nil {
		s.logger.Error().Err(err).Str("puuid", account.Puuid).Msg("failed to fetch ranked standings")
		return nil, fmt.Errorf("failed to fetch ranked standings: %w", err)
	}

	fresh, err := s.fetchRecentMatches(ctx, account.Puuid)
	if err != nil {
		s.logger.Warn().Err(err).Str("puuid", account.Puuid).Msg("failed to fetch match ids, keeping stored history")
		fresh = []domain.MatchRecord{}
	}

	record, err := s.store.Update(ctx, name, func(existing *domain.PlayerRecord) (*domain.PlayerRecord, error) {
		var baseline []domain.MatchRecord
		if existing != nil {
			baseline = existing.RecentMatches
		}
		return &domain.PlayerRecord{
			GameName:      gameName,
			TagLine:       tagLine,
			Puuid:         account.Puuid,
			SummonerID:    summoner.ID,
			AccountID:     summoner.AccountID,
			ProfileIconID: summoner.ProfileIconID,
			SummonerLevel: summoner.SummonerLevel,
			RankedInfo:    ranked,
			RecentMatches: MergeMatches(baseline, fresh, constants.MaxStoredMatches),
			LastUpdated:   s.now().UTC().Truncate(time.Millisecond),
		}, nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("failed to persist player")
		return nil, fmt.Errorf("failed to persist player: %w", err)
	}

	s.cache.DeletePrefix(playerKeyPrefix(account.Puuid))

	s.logger.Info().
		Str("name", name).
		Int("fetched", len(fresh)).
		Int("stored", len(record.RecentMatches)).
		Msg("player updated")
	return record, nil
}

// Lookup assembles the dashboard view of a stored player with live ranked and
// match data. Live responses are cached per player.
func (s *PlayerService) Lookup(ctx context.Context, name string) (*domain.PlayerView, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	rec, err := s.store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", name, err)
	}

	view := &domain.PlayerView{
		Summoner: domain.Summoner{
			ID:            rec.SummonerID,
			AccountID:     rec.AccountID,
			Puuid:         rec.Puuid,
			Name:          rec.RiotID(),
			ProfileIconID: rec.ProfileIconID,
			SummonerLevel: rec.SummonerLevel,
		},
		RankedInfo:    []domain.RankedStanding{},
		RecentMatches: []domain.MatchRecord{},
	}

	ranked, err := s.cache.GetOrLoad(ctx, rankedKey(rec.Puuid), s.cacheTTL, func(ctx context.Context) (any, error) {
		return s.fetchRanked(ctx, rec.SummonerID, rec.Puuid)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ranked standings: %w", err)
	}
	view.RankedInfo = ranked.([]domain.RankedStanding)

	recent, err := s.cache.GetOrLoad(ctx, matchesKey(rec.Puuid), s.cacheTTL, func(ctx context.Context) (any, error) {
		return s.fetchRecentMatches(ctx, rec.Puuid)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("name", name).Msg("live match lookup failed")
	} else {
		view.RecentMatches = recent.([]domain.MatchRecord)
	}

	return view, nil
}

func (s *PlayerService) List(ctx context.Context) (map[string]domain.PlayerRecord, error) {
	players, err := s.store.All(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read players")
		return nil, fmt.Errorf("failed to read players: %w", err)
	}
	return players, nil
}

// ActiveGame returns the raw spectator payload for a summoner currently in game.
func (s *PlayerService) ActiveGame(ctx context.Context, summonerID string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	game, err := s.riot.GetActiveGame(ctx, summonerID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active game: %w", err)
	}
	return game, nil
}

// fetchRanked treats an upstream error status as "no standings"; transport
// failures propagate.
func (s *PlayerService) fetchRanked(ctx context.Context, summonerID, puuid string) ([]domain.RankedStanding, error) {
	entries, err := s.riot.GetRankedEntries(ctx, summonerID, puuid)
	if err != nil {
		if api.IsStatusError(err) {
			s.logger.Warn().Err(err).Str("puuid", puuid).Msg("ranked standings unavailable")
			return []domain.RankedStanding{}, nil
		}
		return nil, err
	}

	standings := make([]domain.RankedStanding, 0, len(entries))
	for _, e := range entries {
		standings = append(standings, domain.RankedStanding{
			LeagueID:     e.LeagueID,
			QueueType:    domain.QueueLabel(e.QueueType),
			Tier:         e.Tier,
			Rank:         e.Rank,
			LeaguePoints: e.LeaguePoints,
			Wins:         e.Wins,
			Losses:       e.Losses,
		})
	}
	return standings, nil
}

// fetchRecentMatches fails only when the id list cannot be fetched. Individual
// match failures are logged and skipped.
func (s *PlayerService) fetchRecentMatches(ctx context.Context, puuid string) ([]domain.MatchRecord, error) {
	ids, err := s.riot.GetMatchIDs(ctx, puuid, s.matchCount)
	if err != nil {
		return nil, err
	}

	results := make([]*domain.MatchRecord, len(ids))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.MatchDetailParallel)
	for i, id := range ids {
		g.Go(func() error {
			m, err := s.riot.GetMatch(gCtx, id)
			if err != nil {
				s.logger.Warn().Err(err).Str("matchId", id).Msg("failed to fetch match")
				return nil
			}
			rec := toMatchRecord(m)
			results[i] = &rec
			return nil
		})
	}
	_ = g.Wait()

	matches := make([]domain.MatchRecord, 0, len(results))
	for _, m := range results {
		if m != nil {
			matches = append(matches, *m)
		}
	}
	return matches, nil
}

func toMatchRecord(m *api.MatchDTO) domain.MatchRecord {
	participants := make([]domain.Participant, 0, len(m.Info.Participants))
	for _, p := range m.Info.Participants {
		participants = append(participants, domain.Participant{
			Puuid:        p.Puuid,
			ChampionID:   p.ChampionID,
			ChampionName: p.ChampionName,
			Kills:        p.Kills,
			Deaths:       p.Deaths,
			Assists:      p.Assists,
			Win:          p.Win,
			Pings:        p.PingCounts(),
		})
	}
	return domain.MatchRecord{Info: domain.MatchInfo{
		GameCreation: m.Info.GameCreation,
		GameDuration: m.Info.GameDuration,
		GameMode:     m.Info.GameMode,
		QueueID:      m.Info.QueueID,
		Participants: participants,
	}}
}

// Live lookups are cached under a per-player prefix so an update can evict
// them together.
func playerKeyPrefix(puuid string) string {
	return "player:" + puuid + ":"
}

func rankedKey(puuid string) string {
	return playerKeyPrefix(puuid) + "ranked"
}

func matchesKey(puuid string) string {
	return playerKeyPrefix(puuid) + "matches"
}
