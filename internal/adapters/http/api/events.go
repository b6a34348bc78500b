package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/liftboard/internal/domain/model"
)

// EventsHandler handles event definition and point rule requests.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePutEvent handles PUT /events/{id}.
func (h *EventsHandler) HandlePutEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_event"
	id := r.PathValue("id")
	var e model.Event
	if err := decode(r, &e); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if e.ID != "" && e.ID != id {
		fail(w, WrapKind(op, ErrBadRequest, fmt.Errorf("body id %q does not match path id %q", e.ID, id)))
		return
	}
	e.ID = id
	if err := validateEvent(e); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	saved, err := h.deps.PutEvent(r.Context(), e)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// HandleGetEvent handles GET /events/{id}.
func (h *EventsHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event"
	e, err := h.deps.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type pointsRequest struct {
	ExercisePoints []model.ExercisePointRule `json:"exercise_points"`
}

// HandlePutPoints handles PUT /events/{id}/points, replacing the event's
// exercise point rules.
func (h *EventsHandler) HandlePutPoints(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_points"
	var req pointsRequest
	if err := decode(r, &req); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	for _, rule := range req.ExercisePoints {
		if rule.ExerciseID == "" {
			fail(w, NewKind(op, fmt.Errorf("%w: exercise_id is required", ErrBadRequest)))
			return
		}
		if rule.Points < 0 {
			fail(w, NewKind(op, fmt.Errorf("%w: points must not be negative", ErrBadRequest)))
			return
		}
	}
	e, err := h.deps.SetPointRules(r.Context(), r.PathValue("id"), req.ExercisePoints)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func validateEvent(e model.Event) error {
	for _, m := range []*float64{e.RepMultiplier, e.WeightMultiplier} {
		if m != nil && *m < 0 {
			return errors.New("multipliers must not be negative")
		}
	}
	if e.Goal != nil && *e.Goal < 0 {
		return errors.New("goal must not be negative")
	}
	for _, rule := range e.ExercisePoints {
		if rule.ExerciseID == "" {
			return errors.New("exercise_points: exercise_id is required")
		}
		if rule.Points < 0 {
			return errors.New("exercise_points: points must not be negative")
		}
	}
	return nil
}
