package scoring

import (
	"errors"
	"fmt"

	"github.com/okian/liftboard/internal/domain/model"
)

// Reasons a workout record scores zero.
var (
	ErrMissingWorkoutData = errors.New("workout data missing")
	ErrMissingExercises   = errors.New("exercises missing")
	ErrInvalidDuration    = errors.New("workout duration unavailable")
	ErrInvalidQuantity    = errors.New("non-numeric reps or weight")
	ErrNegativeValue      = errors.New("negative reps, weight or multiplier")
)

// Validate reports why workout cannot contribute points to event, or nil
// when it is well formed. Scoring never depends on this; it only explains
// zero scores to logs and metrics.
func Validate(event model.Event, workout model.WorkoutSubmission) error {
	data := workout.WorkoutData
	if data == nil {
		return ErrMissingWorkoutData
	}
	if event.Type == model.EventTypeTotalTime {
		if data.Duration() <= 0 {
			return ErrInvalidDuration
		}
		return nil
	}
	if data.Exercises == nil {
		return ErrMissingExercises
	}
	rep, weight := Multipliers(event)
	if rep < 0 || weight < 0 {
		return ErrNegativeValue
	}
	for _, ex := range data.Exercises {
		for i, set := range ex.Sets {
			if !set.Reps.Valid() || !set.Weight.Valid() {
				return fmt.Errorf("%w: exercise %q set %d", ErrInvalidQuantity, ex.Info.ID, i)
			}
			if set.Reps < 0 || set.Weight < 0 {
				return fmt.Errorf("%w: exercise %q set %d", ErrNegativeValue, ex.Info.ID, i)
			}
		}
	}
	return nil
}

// Reason maps a Validate error to a short metrics label.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingWorkoutData):
		return "missing_workout_data"
	case errors.Is(err, ErrMissingExercises):
		return "missing_exercises"
	case errors.Is(err, ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, ErrNegativeValue):
		return "negative_value"
	default:
		return "unknown"
	}
}
