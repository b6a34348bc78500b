package model

import "time"

// Set is one recorded set of an exercise. Weight is zero for bodyweight or
// timed exercises.
type Set struct {
	Reps   Quantity `json:"reps"`
	Weight Quantity `json:"weight"`
}

// ExerciseInfo identifies the exercise a record refers to.
type ExerciseInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ExerciseRecord is one exercise performed inside a workout.
type ExerciseRecord struct {
	Info ExerciseInfo `json:"info"`
	Sets []Set        `json:"sets"`
}

// WorkoutData is the body of a finished workout.
type WorkoutData struct {
	TemplateName string           `json:"template_name"`
	StartTime    time.Time        `json:"start_time"`
	EndTime      time.Time        `json:"end_time"`
	Exercises    []ExerciseRecord `json:"exercises"`
}

// Duration returns EndTime-StartTime, or 0 when either bound is missing or
// the bounds are inverted.
func (d *WorkoutData) Duration() time.Duration {
	if d == nil || d.StartTime.IsZero() || d.EndTime.IsZero() || d.EndTime.Before(d.StartTime) {
		return 0
	}
	return d.EndTime.Sub(d.StartTime)
}

// WorkoutSubmission is an immutable record of one completed workout.
type WorkoutSubmission struct {
	ID          string       `json:"id"`
	ProfileID   string       `json:"profile_id"`
	CreatedAt   time.Time    `json:"created_at"`
	WorkoutData *WorkoutData `json:"workout_data"`
}

// Attribution asks for a submission to be credited to the listed events.
type Attribution struct {
	Submission WorkoutSubmission
	EventIDs   []string
}
