package constants

import "time"

const (
	PlayerCacheTTL = 5 * time.Minute
)

const (
	ExternalAPITimeout = 10 * time.Second
	RequestTimeout     = 30 * time.Second
	BulkRefreshTimeout = 5 * time.Minute
)

const (
	DBMaxOpenConns    = 1
	DBMaxIdleConns    = 1
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	// MaxStoredMatches bounds a player's persisted match history.
	MaxStoredMatches = 20

	DefaultMatchCount   = 3
	DefaultMaxRetries   = 3
	DefaultRetryBase    = 1 * time.Second
	MatchDetailParallel = 5
	DefaultRefreshPool  = 4
)

const (
	// MinGamesForWinRate is the sample size needed to rank a player by win rate.
	MinGamesForWinRate = 10
	TopChampionLimit   = 10
)
