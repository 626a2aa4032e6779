package service

import (
	"context"
	"fmt"
	"sort"

	"lol-tracker/internal/constants"
	"lol-tracker/internal/domain"
	"lol-tracker/internal/repository"

	"github.com/rs/zerolog"
)

type StatsService struct {
	store  repository.Store
	logger zerolog.Logger
}

func NewStatsService(store repository.Store, logger zerolog.Logger) *StatsService {
	return &StatsService{store: store, logger: logger}
}

func (s *StatsService) Global(ctx context.Context) (*domain.GlobalStats, error) {
	players, err := s.store.All(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read players for stats")
		return nil, fmt.Errorf("failed to read players: %w", err)
	}
	stats := ComputeStats(players)
	return &stats, nil
}

type champTally struct {
	games int
	wins  int
}

// ComputeStats aggregates the stored match histories. Players are visited in
// name order and ties keep the earlier player.
func ComputeStats(players map[string]domain.PlayerRecord) domain.GlobalStats {
	out := domain.GlobalStats{
		PlayerStats:   []domain.PlayerStats{},
		ChampionStats: []domain.ChampionStats{},
	}

	champions := map[string]*domain.ChampionStats{}
	var totalTime int64

	names := make([]string, 0, len(players))
	for name := range players {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rec := players[name]
		ps, gameTime := playerStats(rec, champions)
		out.PlayerStats = append(out.PlayerStats, ps)
		out.TotalGames += ps.GamesPlayed
		totalTime += gameTime
	}

	if out.TotalGames > 0 {
		out.AverageGameTime = float64(totalTime) / float64(out.TotalGames)
	}

	for _, c := range champions {
		out.ChampionStats = append(out.ChampionStats, *c)
	}
	sort.Slice(out.ChampionStats, func(i, j int) bool {
		a, b := out.ChampionStats[i], out.ChampionStats[j]
		if a.Games != b.Games {
			return a.Games > b.Games
		}
		return a.Name < b.Name
	})
	if len(out.ChampionStats) > constants.TopChampionLimit {
		out.ChampionStats = out.ChampionStats[:constants.TopChampionLimit]
	}

	fillLeaders(&out)
	return out
}

func playerStats(rec domain.PlayerRecord, champions map[string]*domain.ChampionStats) (domain.PlayerStats, int64) {
	ps := domain.PlayerStats{PlayerName: rec.RiotID()}
	own := map[string]*champTally{}
	var gameTime int64
	var winRun, loseRun int

	// streaks run oldest to newest
	for i := len(rec.RecentMatches) - 1; i >= 0; i-- {
		m := rec.RecentMatches[i]
		p, ok := m.Participant(rec.Puuid)
		if !ok {
			continue
		}

		ps.GamesPlayed++
		gameTime += m.Info.GameDuration
		ps.Kills += p.Kills
		ps.Deaths += p.Deaths
		ps.Assists += p.Assists
		ps.TotalPings += p.TotalPings()
		if m.Info.GameMode == "ARAM" {
			ps.AramGames++
		}

		t, ok := own[p.ChampionName]
		if !ok {
			t = &champTally{}
			own[p.ChampionName] = t
		}
		t.games++

		c, ok := champions[p.ChampionName]
		if !ok {
			c = &domain.ChampionStats{Name: p.ChampionName}
			champions[p.ChampionName] = c
		}
		c.Games++
		c.Kills += p.Kills
		c.Deaths += p.Deaths
		c.Assists += p.Assists

		if p.Win {
			ps.Wins++
			t.wins++
			c.Wins++
			winRun++
			loseRun = 0
			ps.WinStreak = max(ps.WinStreak, winRun)
		} else {
			loseRun++
			winRun = 0
			ps.LoseStreak = max(ps.LoseStreak, loseRun)
		}
	}

	ps.Losses = ps.GamesPlayed - ps.Wins
	ps.KDA = kda(ps.Kills, ps.Deaths, ps.Assists)
	if ps.GamesPlayed > 0 {
		ps.AverageGameTime = float64(gameTime) / float64(ps.GamesPlayed)
	}

	for name, t := range own {
		best := ps.MostPlayedChampion
		if t.games > best.Games || (t.games == best.Games && name < best.Name) {
			ps.MostPlayedChampion = domain.ChampionSummary{
				Name:    name,
				Games:   t.games,
				WinRate: percent(t.wins, t.games),
			}
		}
	}
	return ps, gameTime
}

func fillLeaders(out *domain.GlobalStats) {
	for i, ps := range out.PlayerStats {
		first := i == 0

		if first || ps.GamesPlayed > out.MostActivePlayer.Games {
			out.MostActivePlayer = domain.Leader{Name: ps.PlayerName, Value: float64(ps.GamesPlayed), Games: ps.GamesPlayed}
		}
		if ps.GamesPlayed >= constants.MinGamesForWinRate {
			rate := percent(ps.Wins, ps.GamesPlayed)
			if out.HighestWinRate.Name == "" || rate > out.HighestWinRate.Value {
				out.HighestWinRate = domain.Leader{Name: ps.PlayerName, Value: rate, Games: ps.GamesPlayed}
			}
		}
		if first || float64(ps.TotalPings) > out.MostPings.Value {
			out.MostPings = domain.Leader{Name: ps.PlayerName, Value: float64(ps.TotalPings)}
		}
		if first || ps.KDA > out.BestKDA.Value {
			out.BestKDA = domain.Leader{Name: ps.PlayerName, Value: ps.KDA, Games: ps.GamesPlayed}
		}
		if first || float64(ps.WinStreak) > out.LongestWinStreak.Value {
			out.LongestWinStreak = domain.Leader{Name: ps.PlayerName, Value: float64(ps.WinStreak)}
		}
		if first || float64(ps.LoseStreak) > out.LongestLoseStreak.Value {
			out.LongestLoseStreak = domain.Leader{Name: ps.PlayerName, Value: float64(ps.LoseStreak)}
		}
	}
}

func kda(kills, deaths, assists int) float64 {
	return float64(kills+assists) / float64(max(deaths, 1))
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
