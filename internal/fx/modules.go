package fx

import (
	"lol-tracker/internal/api"
	"lol-tracker/internal/cache"
	"lol-tracker/internal/config"
	"lol-tracker/internal/logger"
	"lol-tracker/internal/repository"
	"lol-tracker/internal/server"
	"lol-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideRiotClient(cfg *config.Config, logger zerolog.Logger) *api.RiotClient {
	return api.NewRiotClient(cfg, logger)
}

func ProvideRiotAPI(client *api.RiotClient) service.RiotAPI {
	return client
}

func ProvideCache(cfg *config.Config) *cache.Store {
	return cache.NewStore(cfg.CacheTTL)
}

func ProvideRefreshService(players *service.PlayerService, store repository.Store, cfg *config.Config, logger zerolog.Logger) *service.RefreshService {
	return service.NewRefreshService(players, store, cfg.RefreshWorkers, logger)
}

func ProvideTrackerServer(
	players *service.PlayerService,
	stats *service.StatsService,
	refresh *service.RefreshService,
	client *api.RiotClient,
	logger zerolog.Logger,
) *server.TrackerServer {
	return server.NewTrackerServer(players, stats, refresh, client, logger)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(ProvideCache),
	// store
	fx.Provide(repository.New),
	// api client
	fx.Provide(ProvideRiotClient),
	fx.Provide(ProvideRiotAPI),
	// svc
	fx.Provide(service.NewPlayerService),
	fx.Provide(service.NewStatsService),
	fx.Provide(ProvideRefreshService),
	// server
	fx.Provide(ProvideTrackerServer),
)
