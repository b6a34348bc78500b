package api

import (
	"errors"
	"net/http"

	"github.com/okian/liftboard/internal/domain/model"
)

// ExercisesHandler handles the exercise catalog.
type ExercisesHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewExercisesHandler creates a new exercises handler.
func NewExercisesHandler(deps Dependencies, maxLimit int) *ExercisesHandler {
	return &ExercisesHandler{deps: deps, maxLimit: maxLimit}
}

type upsertResponse struct {
	Exercises int `json:"exercises"`
}

// HandlePutExercises handles PUT /exercises with a JSON array of exercises.
func (h *ExercisesHandler) HandlePutExercises(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_exercises"
	var exercises []model.Exercise
	if err := decode(r, &exercises); err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	for _, ex := range exercises {
		if ex.ID == "" || ex.Name == "" {
			fail(w, WrapKind(op, ErrBadRequest, errors.New("exercise id and name are required")))
			return
		}
	}
	n, err := h.deps.UpsertExercises(r.Context(), exercises)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, upsertResponse{Exercises: n})
}

// HandleSearch handles GET /exercises/search?q=&tag=&limit=. Repeated tag
// parameters select several tags.
func (h *ExercisesHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.search_exercises"
	q := r.URL.Query()
	limit, err := parseLimit(q.Get("limit"), h.maxLimit)
	if err != nil {
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	results, err := h.deps.SearchExercises(r.Context(), q.Get("q"), q["tag"], limit)
	if err != nil {
		fail(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, results)
}
