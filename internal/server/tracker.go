package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"lol-tracker/internal/api"
	"lol-tracker/internal/domain"
	"lol-tracker/internal/repository"
	"lol-tracker/internal/service"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

type Players interface {
	Update(ctx context.Context, name, gameName, tagLine string) (*domain.PlayerRecord, error)
	Lookup(ctx context.Context, name string) (*domain.PlayerView, error)
	List(ctx context.Context) (map[string]domain.PlayerRecord, error)
	ActiveGame(ctx context.Context, summonerID string) ([]byte, error)
}

type Stats interface {
	Global(ctx context.Context) (*domain.GlobalStats, error)
}

type Refresher interface {
	RefreshAll(ctx context.Context) (*service.RefreshSummary, error)
}

type RateLimitReporter interface {
	RateLimitInfo() api.RateLimitInfo
}

type updateRequest struct {
	GameName string `json:"gameName" validate:"required"`
	TagLine  string `json:"tagLine" validate:"required"`
}

type errorResponse struct {
	Message      string `json:"message"`
	Error        string `json:"error,omitempty"`
	SearchedName string `json:"searchedName,omitempty"`
}

type playersResponse struct {
	Players map[string]domain.PlayerRecord `json:"players"`
}

type healthResponse struct {
	Status    string            `json:"status"`
	Time      time.Time         `json:"time"`
	RateLimit api.RateLimitInfo `json:"rateLimit"`
}

var codec = sonic.ConfigStd

type TrackerServer struct {
	players  Players
	stats    Stats
	refresh  Refresher
	limits   RateLimitReporter
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewTrackerServer(players Players, stats Stats, refresh Refresher, limits RateLimitReporter, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{
		players:  players,
		stats:    stats,
		refresh:  refresh,
		limits:   limits,
		validate: validator.New(),
		logger:   logger,
	}
}

// Routes registers the JSON API on r.
func (s *TrackerServer) Routes(r *mux.Router) {
	r.HandleFunc("/api/players", s.ListPlayers).Methods(http.MethodGet)
	r.HandleFunc("/api/players/refresh", s.RefreshPlayers).Methods(http.MethodPost)
	r.HandleFunc("/api/player/update/{name}", s.UpdatePlayer)
	r.HandleFunc("/api/player/{name}", s.GetPlayer).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.GetStats).Methods(http.MethodGet)
	r.HandleFunc("/api/spectator/{summonerId}", s.GetActiveGame).Methods(http.MethodGet)
	r.HandleFunc("/api/health", s.Health).Methods(http.MethodGet)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Message: "Method not allowed"})
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Message: "Not found"})
	})
}

func (s *TrackerServer) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.players.List(r.Context())
	if err != nil {
		s.internalError(w, r, "Failed to read players", err)
		return
	}
	s.writeJSON(w, http.StatusOK, playersResponse{Players: players})
}

func (s *TrackerServer) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Message: "Method not allowed"})
		return
	}

	name := mux.Vars(r)["name"]
	if name == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid player name"})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid player info", Error: err.Error()})
		return
	}
	var req updateRequest
	if err := codec.Unmarshal(raw, &req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid player info", Error: err.Error()})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid player info", Error: err.Error()})
		return
	}

	record, err := s.players.Update(r.Context(), name, req.GameName, req.TagLine)
	if err != nil {
		s.internalError(w, r, "Internal server error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *TrackerServer) GetPlayer(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	view, err := s.players.Lookup(r.Context(), name)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Message: "Player not found in database", SearchedName: name})
		return
	}
	if err != nil {
		s.internalError(w, r, "Internal server error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *TrackerServer) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Global(r.Context())
	if err != nil {
		s.internalError(w, r, "Failed to compute stats", err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *TrackerServer) RefreshPlayers(w http.ResponseWriter, r *http.Request) {
	summary, err := s.refresh.RefreshAll(r.Context())
	if err != nil {
		s.internalError(w, r, "Failed to refresh players", err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *TrackerServer) GetActiveGame(w http.ResponseWriter, r *http.Request) {
	game, err := s.players.ActiveGame(r.Context(), mux.Vars(r)["summonerId"])
	if api.IsNotFound(err) {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Message: "Player not in game"})
		return
	}
	if err != nil {
		s.internalError(w, r, "Failed to check game status", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(game)
}

func (s *TrackerServer) Health(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Time:      time.Now().UTC(),
		RateLimit: s.limits.RateLimitInfo(),
	})
}

func (s *TrackerServer) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Message: message, Error: err.Error()})
}

func (s *TrackerServer) writeJSON(w http.ResponseWriter, status int, v any) {
	raw, err := codec.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}
