package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// LeaderboardHandler handles leaderboard and participant point requests.
type LeaderboardHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /events/{id}/leaderboard?mode=&limit=.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	q := r.URL.Query()

	mode := q.Get("mode")
	switch mode {
	case "":
		mode = ModeCumulative
	case ModeCumulative, ModeSession:
	default:
		fail(w, NewKind(op, fmt.Errorf("%w: unknown mode %q", ErrBadRequest, mode)))
		return
	}

	limit, err := parseLimit(q.Get("limit"), h.maxLimit)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	entries, err := h.deps.Leaderboard(r.Context(), r.PathValue("id"), mode, limit)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type pointsResponse struct {
	EventID   string  `json:"event_id"`
	ProfileID string  `json:"profile_id"`
	Points    float64 `json:"points"`
}

// HandleGetPoints handles GET /events/{id}/points/{profile_id}.
func (h *LeaderboardHandler) HandleGetPoints(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_points"
	eventID, profileID := r.PathValue("id"), r.PathValue("profile_id")
	points, err := h.deps.ParticipantPoints(r.Context(), eventID, profileID)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, pointsResponse{EventID: eventID, ProfileID: profileID, Points: points})
}

// parseLimit returns 0 (no limit) for an empty value.
func parseLimit(s string, maxLimit int) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid limit %q", s)
	}
	if maxLimit > 0 && n > maxLimit {
		return 0, fmt.Errorf("limit %d exceeds maximum %d", n, maxLimit)
	}
	return n, nil
}
