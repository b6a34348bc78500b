// Package model contains domain models passed between layers.
package model

import "time"

// EventType selects how an event scores workouts.
type EventType string

// Known event types. Any type other than EventTypeTotalTime scores by exercise points.
const (
	EventTypeTotalTime      EventType = "total-time"
	EventTypeExercisePoints EventType = "exercise-points"
)

// ExercisePointRule sets the base value of one exercise within an event.
type ExercisePointRule struct {
	ExerciseID   string  `json:"exercise_id"`
	ExerciseName string  `json:"exercise_name"`
	Points       float64 `json:"points"`
}

// Event is a group-scoped, time-bounded competition with scoring rules.
type Event struct {
	ID               string              `json:"id"`
	GroupID          string              `json:"group_id"`
	Type             EventType           `json:"type"`
	Goal             *float64            `json:"goal,omitempty"`
	RepMultiplier    *float64            `json:"rep_multiplier,omitempty"`
	WeightMultiplier *float64            `json:"weight_multiplier,omitempty"`
	ExercisePoints   []ExercisePointRule `json:"exercise_points"`
	StartDate        time.Time           `json:"start_date"`
	EndDate          time.Time           `json:"end_date"`
}

// Accepts reports whether t falls inside the event window. Zero bounds are open.
func (e Event) Accepts(t time.Time) bool {
	if !e.StartDate.IsZero() && t.Before(e.StartDate) {
		return false
	}
	if !e.EndDate.IsZero() && t.After(e.EndDate) {
		return false
	}
	return true
}

// Float64 returns a pointer to v, for optional event fields.
func Float64(v float64) *float64 { return &v }
