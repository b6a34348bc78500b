// Package repository stores events, their submissions, participant profiles
// and the exercise catalog.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/okian/liftboard/internal/domain/model"
	"github.com/okian/liftboard/pkg/metrics"
)

// Store provides read/write access to the persisted state. Leaderboards are
// never stored; they are derived from Submissions on every query.
type Store interface {
	// PutEvent creates or replaces an event.
	PutEvent(ctx context.Context, event model.Event) error
	// GetEvent returns ErrNotFound if the event is unknown.
	GetEvent(ctx context.Context, id string) (model.Event, error)
	// SetPointRules replaces the exercise point rules of an event.
	SetPointRules(ctx context.Context, eventID string, rules []model.ExercisePointRule) (model.Event, error)
	// CountEvents returns the number of known events.
	CountEvents(ctx context.Context) (int, error)

	// AppendSubmission credits a workout to an event. Repeated submissions
	// are kept; ranking collapses duplicate ids.
	AppendSubmission(ctx context.Context, eventID string, w model.WorkoutSubmission) error
	// Submissions returns the workouts credited to an event in append order.
	Submissions(ctx context.Context, eventID string) ([]model.WorkoutSubmission, error)

	// PutProfile creates or replaces a participant profile.
	PutProfile(ctx context.Context, p model.Profile) error
	// Profiles resolves ids to profiles. Unknown ids are left out.
	Profiles(ctx context.Context, ids []string) (map[string]model.Profile, error)

	// UpsertExercises adds or replaces catalog entries, keeping first-insert order.
	UpsertExercises(ctx context.Context, exercises []model.Exercise) (int, error)
	// Exercises returns the catalog.
	Exercises(ctx context.Context) ([]model.Exercise, error)

	Close() error
}

func validateEvent(e model.Event) error {
	if e.ID == "" {
		return errors.Join(ErrInvalidEvent, errors.New("id is required"))
	}
	if !e.StartDate.IsZero() && !e.EndDate.IsZero() && e.EndDate.Before(e.StartDate) {
		return errors.Join(ErrInvalidEvent, errors.New("end_date before start_date"))
	}
	return nil
}

// observe records latency and failure of one store operation.
func observe(op string, start time.Time, err error) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordStoreError(op)
	}
}
