package api

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"sync"
	"time"

	"lol-tracker/internal/config"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

type RiotClient struct {
	apiKey      string
	doer        HTTPDoer
	regionalURL string
	platformURL string
	maxRetries  int
	retryBase   time.Duration
	validate    *validator.Validate
	rateLimit   *rateLimitState
	logger      zerolog.Logger
}

type RateLimitInfo struct {
	AppLimit         string    `json:"app_limit"`
	AppCount         string    `json:"app_count"`
	MethodLimit      string    `json:"method_limit"`
	MethodCount      string    `json:"method_count"`
	LastStatus       int       `json:"last_status"`
	UpdatedAt        time.Time `json:"updated_at"`
	RateLimitedTotal int       `json:"rate_limited_total"`
}

type rateLimitState struct {
	mu   sync.RWMutex
	info RateLimitInfo
}

type Option func(*RiotClient)

func WithDoer(d HTTPDoer) Option {
	return func(c *RiotClient) { c.doer = d }
}

func WithBaseURLs(regional, platform string) Option {
	return func(c *RiotClient) {
		c.regionalURL = regional
		c.platformURL = platform
	}
}

func NewRiotClient(cfg *config.Config, logger zerolog.Logger, opts ...Option) *RiotClient {
	c := &RiotClient{
		apiKey:      cfg.RiotAPIKey,
		doer:        newHTTPClient(),
		regionalURL: fmt.Sprintf("https://%s.api.riotgames.com", cfg.RiotRegion),
		platformURL: fmt.Sprintf("https://%s.api.riotgames.com", cfg.RiotPlatform),
		maxRetries:  max(cfg.MaxRetries, 1),
		retryBase:   cfg.RetryBase,
		validate:    validator.New(),
		rateLimit:   &rateLimitState{},
		logger:      logger.With().Str("component", "riot_client").Logger(),
	}
	if c.retryBase <= 0 {
		c.retryBase = time.Second
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// newHTTPClient makes a single network attempt per call; Fetch owns retries.
func newHTTPClient() *fasthttp.Client {
	return &fasthttp.Client{
		MaxConnsPerHost:           100,
		ReadTimeout:               10 * time.Second,
		WriteTimeout:              10 * time.Second,
		MaxIdleConnDuration:       1 * time.Minute,
		MaxIdemponentCallAttempts: 1,
	}
}

func (c *RiotClient) RateLimitInfo() RateLimitInfo {
	c.rateLimit.mu.RLock()
	defer c.rateLimit.mu.RUnlock()
	return c.rateLimit.info
}

func (s *rateLimitState) update(resp *fasthttp.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v := string(resp.Header.Peek("X-App-Rate-Limit")); v != "" {
		s.info.AppLimit = v
	}
	if v := string(resp.Header.Peek("X-App-Rate-Limit-Count")); v != "" {
		s.info.AppCount = v
	}
	if v := string(resp.Header.Peek("X-Method-Rate-Limit")); v != "" {
		s.info.MethodLimit = v
	}
	if v := string(resp.Header.Peek("X-Method-Rate-Limit-Count")); v != "" {
		s.info.MethodCount = v
	}
	if resp.StatusCode() == fasthttp.StatusTooManyRequests {
		s.info.RateLimitedTotal++
	}
	s.info.LastStatus = resp.StatusCode()
	s.info.UpdatedAt = time.Now()
}

func (c *RiotClient) GetAccount(ctx context.Context, gameName, tagLine string) (*AccountDTO, error) {
	u := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s", c.regionalURL, url.PathEscape(gameName), url.PathEscape(tagLine))
	return doRequest[AccountDTO](ctx, c, u)
}

func (c *RiotClient) GetSummoner(ctx context.Context, puuid string) (*SummonerDTO, error) {
	u := fmt.Sprintf("%s/lol/summoner/v4/summoners/by-puuid/%s", c.platformURL, url.PathEscape(puuid))
	return doRequest[SummonerDTO](ctx, c, u)
}

// GetRankedEntries prefers the summoner-id route and falls back to the puuid
// route for accounts whose summoner payload no longer carries an id.
func (c *RiotClient) GetRankedEntries(ctx context.Context, summonerID, puuid string) ([]LeagueEntryDTO, error) {
	u := fmt.Sprintf("%s/lol/league/v4/entries/by-summoner/%s", c.platformURL, url.PathEscape(summonerID))
	if summonerID == "" {
		u = fmt.Sprintf("%s/lol/league/v4/entries/by-puuid/%s", c.platformURL, url.PathEscape(puuid))
	}
	entries, err := doRequest[[]LeagueEntryDTO](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return *entries, nil
}

func (c *RiotClient) GetMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/by-puuid/%s/ids?start=0&count=%d", c.regionalURL, url.PathEscape(puuid), count)
	ids, err := doRequest[[]string](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

func (c *RiotClient) GetMatch(ctx context.Context, matchID string) (*MatchDTO, error) {
	u := fmt.Sprintf("%s/lol/match/v5/matches/%s", c.regionalURL, url.PathEscape(matchID))
	return doRequest[MatchDTO](ctx, c, u)
}

// GetActiveGame returns the raw spectator payload; the dashboard renders it as-is.
func (c *RiotClient) GetActiveGame(ctx context.Context, summonerID string) ([]byte, error) {
	u := fmt.Sprintf("%s/lol/spectator/v4/active-games/by-summoner/%s", c.platformURL, url.PathEscape(summonerID))
	resp, err := c.Fetch(ctx, fasthttp.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &StatusError{Status: resp.StatusCode, URL: u, Body: abbreviate(resp.Body)}
	}
	if !sonic.Valid(resp.Body) {
		return nil, crerr.Wrapf(ErrInvalidPayload, "active game %s", summonerID)
	}
	return resp.Body, nil
}

func doRequest[T any](ctx context.Context, client *RiotClient, u string) (*T, error) {
	resp, err := client.Fetch(ctx, fasthttp.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &StatusError{Status: resp.StatusCode, URL: u, Body: abbreviate(resp.Body)}
	}

	var result T
	if err := sonic.Unmarshal(resp.Body, &result); err != nil {
		return nil, crerr.Wrapf(ErrInvalidPayload, "decode %s: %v", u, err)
	}
	if err := client.check(result); err != nil {
		return nil, crerr.Wrapf(ErrInvalidPayload, "validate %s: %v", u, err)
	}
	return &result, nil
}

func (c *RiotClient) check(v any) error {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Struct:
		return c.validate.Struct(v)
	case reflect.Slice:
		return c.validate.Var(v, "dive,required")
	default:
		return nil
	}
}

func abbreviate(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
