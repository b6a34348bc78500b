// Package api exposes events, workouts, leaderboards and exercise search
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/liftboard/internal/adapters/repository"
	"github.com/okian/liftboard/internal/domain/dedupe"
	"github.com/okian/liftboard/internal/domain/model"
	"github.com/okian/liftboard/internal/domain/search"
)

// Leaderboard modes accepted by GET /events/{id}/leaderboard.
const (
	ModeCumulative = "cumulative"
	ModeSession    = "session"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes an attribution for async processing. queue.ErrFull
	// means backpressure; any other error means ingestion is unavailable.
	Enqueue(ctx context.Context, a model.Attribution) error

	PutEvent(ctx context.Context, e model.Event) (model.Event, error)
	GetEvent(ctx context.Context, id string) (model.Event, error)
	SetPointRules(ctx context.Context, eventID string, rules []model.ExercisePointRule) (model.Event, error)

	Leaderboard(ctx context.Context, eventID, mode string, limit int) ([]model.LeaderboardEntry, error)
	ParticipantPoints(ctx context.Context, eventID, profileID string) (float64, error)

	UpsertExercises(ctx context.Context, exercises []model.Exercise) (int, error)
	SearchExercises(ctx context.Context, query string, tags []string, limit int) ([]search.Result, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	eventsHandler      *EventsHandler
	workoutsHandler    *WorkoutsHandler
	leaderboardHandler *LeaderboardHandler
	exercisesHandler   *ExercisesHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// leaderboard and search page size.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		eventsHandler:      NewEventsHandler(deps),
		workoutsHandler:    NewWorkoutsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		exercisesHandler:   NewExercisesHandler(deps, maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("PUT /events/{id}", MetricsMiddleware(s.eventsHandler.HandlePutEvent, "put_event"))
	mux.HandleFunc("GET /events/{id}", MetricsMiddleware(s.eventsHandler.HandleGetEvent, "get_event"))
	mux.HandleFunc("PUT /events/{id}/points", MetricsMiddleware(s.eventsHandler.HandlePutPoints, "put_points"))

	mux.HandleFunc("POST /workouts", MetricsMiddleware(s.workoutsHandler.HandlePostWorkout, "workouts"))

	mux.HandleFunc("GET /events/{id}/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /events/{id}/points/{profile_id}", MetricsMiddleware(s.leaderboardHandler.HandleGetPoints, "participant_points"))

	mux.HandleFunc("PUT /exercises", MetricsMiddleware(s.exercisesHandler.HandlePutExercises, "put_exercises"))
	mux.HandleFunc("GET /exercises/search", MetricsMiddleware(s.exercisesHandler.HandleSearch, "search"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail maps err to a status by kind and writes it.
func fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, repository.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}
