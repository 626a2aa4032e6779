package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"lol-tracker/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	StoreModeFile   = "file"
	StoreModeDir    = "dir"
	StoreModeSQLite = "sqlite"
)

type Config struct {
	RiotAPIKey   string
	RiotRegion   string
	RiotPlatform string
	MatchCount   int
	MaxRetries   int
	RetryBase    time.Duration

	StoreMode string
	DataPath  string
	DataDir   string
	DBPath    string

	ServerPort     string
	LogLevel       string
	CacheTTL       time.Duration
	RefreshWorkers int
	CORSOrigins    []string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		RiotAPIKey:     getEnv("RIOT_API_KEY", ""),
		RiotRegion:     strings.ToLower(getEnv("RIOT_REGION", "europe")),
		RiotPlatform:   strings.ToLower(getEnv("RIOT_PLATFORM", "euw1")),
		StoreMode:      strings.ToLower(getEnv("STORE_MODE", StoreModeFile)),
		DataPath:       getEnv("DATA_PATH", "data/players.json"),
		DataDir:        getEnv("DATA_DIR", "data/players"),
		DBPath:         getEnv("DB_PATH", "data/players.db"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    strings.Split(getEnv("CORS_ORIGINS", "*"), ","),
		MatchCount:     constants.DefaultMatchCount,
		MaxRetries:     constants.DefaultMaxRetries,
		RetryBase:      constants.DefaultRetryBase,
		CacheTTL:       constants.PlayerCacheTTL,
		RefreshWorkers: constants.DefaultRefreshPool,
	}

	if cfg.RiotAPIKey == "" {
		return nil, fmt.Errorf("RIOT_API_KEY is required")
	}

	var err error
	if cfg.MatchCount, err = getInt("RIOT_MATCH_COUNT", cfg.MatchCount); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = getInt("RIOT_MAX_RETRIES", cfg.MaxRetries); err != nil {
		return nil, err
	}
	if cfg.RefreshWorkers, err = getInt("REFRESH_WORKERS", cfg.RefreshWorkers); err != nil {
		return nil, err
	}
	if cfg.RetryBase, err = getDuration("RIOT_RETRY_BASE", cfg.RetryBase); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = getDuration("CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}

	if cfg.MatchCount < 1 || cfg.MatchCount > 100 {
		return nil, fmt.Errorf("RIOT_MATCH_COUNT must be between 1 and 100, got %d", cfg.MatchCount)
	}
	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("RIOT_MAX_RETRIES must be at least 1, got %d", cfg.MaxRetries)
	}
	if cfg.RefreshWorkers < 1 {
		return nil, fmt.Errorf("REFRESH_WORKERS must be at least 1, got %d", cfg.RefreshWorkers)
	}

	switch cfg.StoreMode {
	case StoreModeFile, StoreModeDir, StoreModeSQLite:
	default:
		return nil, fmt.Errorf("unknown STORE_MODE %q", cfg.StoreMode)
	}

	logger.Info().
		Str("store_mode", cfg.StoreMode).
		Str("riot_region", cfg.RiotRegion).
		Str("riot_platform", cfg.RiotPlatform).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Int("match_count", cfg.MatchCount).
		Int("max_retries", cfg.MaxRetries).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

var Module = fx.Provide(Load)
