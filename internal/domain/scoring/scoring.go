// Package scoring turns workout submissions into points under an event's rules.
//
// Every function here is pure: inputs are never mutated and no function
// returns an error. Malformed input degrades to a zero contribution; use
// Validate to learn why a record scored zero.
package scoring

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/okian/liftboard/internal/domain/model"
)

// DefaultBaseValue applies to exercises an event has no rule for.
const DefaultBaseValue = 1.0

// Rules is an exercise id -> base value lookup built from an event.
type Rules struct {
	points map[string]float64
}

// NewRules indexes rules by exercise id. When an id repeats, the first rule wins.
func NewRules(rules []model.ExercisePointRule) Rules {
	points := make(map[string]float64, len(rules))
	for _, r := range rules {
		if _, dup := points[r.ExerciseID]; !dup {
			points[r.ExerciseID] = r.Points
		}
	}
	return Rules{points: points}
}

// BaseValue returns the configured value for exerciseID or DefaultBaseValue.
func (r Rules) BaseValue(exerciseID string) float64 {
	if v, ok := r.points[exerciseID]; ok {
		return v
	}
	return DefaultBaseValue
}

// Multipliers returns the event's rep and weight multipliers, 1 when unset.
func Multipliers(event model.Event) (rep, weight float64) {
	rep, weight = 1, 1
	if event.RepMultiplier != nil {
		rep = *event.RepMultiplier
	}
	if event.WeightMultiplier != nil {
		weight = *event.WeightMultiplier
	}
	return rep, weight
}

// ScoreSet computes base * reps * repMultiplier * weight * weightMultiplier.
// Absent or non-numeric reps and weight count as 0.
func ScoreSet(base float64, set model.Set, repMultiplier, weightMultiplier float64) float64 {
	return base * set.Reps.Float() * repMultiplier * set.Weight.Float() * weightMultiplier
}

// ScoreExercise sums ScoreSet over every set of exercise.
func ScoreExercise(event model.Event, exercise model.ExerciseRecord) float64 {
	rep, weight := Multipliers(event)
	return scoreExercise(NewRules(event.ExercisePoints), rep, weight, exercise).InexactFloat64()
}

// ScoreWorkout scores one submission. Total-time events score the elapsed
// seconds of the workout; every other event sums the exercise scores. A
// result that is negative or not finite is a data error and scores 0.
// Exercise scores are summed as decimals, so the result equals the exact sum
// of the ScoreExercise values; adding them as float64 may differ in the last
// bits.
func ScoreWorkout(event model.Event, workout model.WorkoutSubmission) float64 {
	return scoreWorkout(event, NewRules(event.ExercisePoints), workout).InexactFloat64()
}

// Scorer scores many workouts of one event without rebuilding the rule index.
type Scorer struct {
	event model.Event
	rules Rules
}

// NewScorer binds a scorer to event.
func NewScorer(event model.Event) *Scorer {
	return &Scorer{event: event, rules: NewRules(event.ExercisePoints)}
}

// Score returns the exact score of workout.
func (s *Scorer) Score(workout model.WorkoutSubmission) decimal.Decimal {
	return scoreWorkout(s.event, s.rules, workout)
}

func scoreWorkout(event model.Event, rules Rules, workout model.WorkoutSubmission) decimal.Decimal {
	data := workout.WorkoutData
	if data == nil {
		return decimal.Zero
	}
	if event.Type == model.EventTypeTotalTime {
		return clamp(data.Duration().Seconds())
	}
	rep, weight := Multipliers(event)
	total := decimal.Zero
	for _, ex := range data.Exercises {
		total = total.Add(scoreExercise(rules, rep, weight, ex))
	}
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

func scoreExercise(rules Rules, rep, weight float64, exercise model.ExerciseRecord) decimal.Decimal {
	base := rules.BaseValue(exercise.Info.ID)
	total := decimal.Zero
	for _, set := range exercise.Sets {
		v := ScoreSet(base, set, rep, weight)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total
}

func clamp(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}
