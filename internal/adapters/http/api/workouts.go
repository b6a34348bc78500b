package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/liftboard/internal/adapters/mq/queue"
	"github.com/okian/liftboard/internal/domain/dedupe"
	"github.com/okian/liftboard/internal/domain/model"
	"github.com/okian/liftboard/pkg/metrics"
)

// WorkoutsHandler handles workout submissions.
type WorkoutsHandler struct {
	deps Dependencies
	now  func() time.Time
}

// NewWorkoutsHandler creates a new workouts handler.
func NewWorkoutsHandler(deps Dependencies) *WorkoutsHandler {
	return &WorkoutsHandler{deps: deps, now: time.Now}
}

// workoutRequest mirrors the OpenAPI schema for POST /workouts.
type workoutRequest struct {
	Submission model.WorkoutSubmission `json:"submission"`
	EventIDs   []string                `json:"event_ids"`
}

func (req *workoutRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Submission.ProfileID) == "":
		return errors.New("missing submission.profile_id")
	case req.Submission.WorkoutData == nil:
		return errors.New("missing submission.workout_data")
	case len(req.EventIDs) == 0:
		return errors.New("missing event_ids")
	}
	for _, id := range req.EventIDs {
		if strings.TrimSpace(id) == "" {
			return errors.New("empty event id")
		}
	}
	return nil
}

type ackResponse struct {
	Status       string   `json:"status"`
	Duplicate    bool     `json:"duplicate"`
	SubmissionID string   `json:"submission_id"`
	EventIDs     []string `json:"event_ids,omitempty"`
}

// HandlePostWorkout handles POST /workouts. Each (event, submission) pair is
// accepted at most once; a request whose pairs were all seen before is a
// duplicate.
func (h *WorkoutsHandler) HandlePostWorkout(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_workout"
	var req workoutRequest
	if err := decode(r, &req); err != nil {
		metrics.RecordSubmissionRejected("bad_request")
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		metrics.RecordSubmissionRejected("bad_request")
		fail(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	sub := req.Submission
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = h.now().UTC()
	}

	ctx := r.Context()
	var fresh []string
	for _, eventID := range req.EventIDs {
		if !h.deps.SeenAndRecord(ctx, dedupe.Key(eventID, sub.ID)) {
			fresh = append(fresh, eventID)
		}
	}
	if len(fresh) == 0 {
		metrics.RecordSubmissionDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, SubmissionID: sub.ID})
		return
	}

	if err := h.deps.Enqueue(ctx, model.Attribution{Submission: sub, EventIDs: fresh}); err != nil {
		for _, eventID := range fresh {
			h.deps.Unrecord(ctx, dedupe.Key(eventID, sub.ID))
		}
		if errors.Is(err, queue.ErrFull) {
			metrics.RecordSubmissionRejected("backpressure")
			fail(w, WrapKind(op, ErrBackpressure, err))
			return
		}
		metrics.RecordSubmissionRejected("unavailable")
		fail(w, WrapKind(op, ErrUnavailable, err))
		return
	}
	metrics.RecordSubmissionAccepted()
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", SubmissionID: sub.ID, EventIDs: fresh})
}
