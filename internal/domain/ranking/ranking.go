// Package ranking aggregates scored workouts into ordered leaderboards.
package ranking

import (
	"math"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/okian/liftboard/internal/domain/model"
	"github.com/okian/liftboard/internal/domain/privacy"
	"github.com/okian/liftboard/internal/domain/scoring"
)

// ParticipantScore is the deduplicated total of one participant.
type ParticipantScore struct {
	ProfileID string
	Total     decimal.Decimal
	Workouts  int
}

// SessionScore is the score of one deduplicated workout.
type SessionScore struct {
	Workout model.WorkoutSubmission
	Total   decimal.Decimal
}

type builder struct {
	event       model.Event
	scorer      *scoring.Scorer
	profiles    map[string]model.Profile
	viewer      privacy.Relationship
	limit       int
	onMalformed func(model.WorkoutSubmission, error)
}

func newBuilder(event model.Event, opts []Option) *builder {
	b := &builder{
		event:  event,
		scorer: scoring.NewScorer(event),
		viewer: privacy.Self,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// unique drops repeated (profile, submission id) pairs, keeping the first.
func (b *builder) unique(workouts []model.WorkoutSubmission) []model.WorkoutSubmission {
	type key struct{ profile, id string }
	seen := make(map[key]struct{}, len(workouts))
	out := make([]model.WorkoutSubmission, 0, len(workouts))
	for _, w := range workouts {
		k := key{w.ProfileID, w.ID}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, w)
	}
	return out
}

func (b *builder) score(w model.WorkoutSubmission) decimal.Decimal {
	if b.onMalformed != nil {
		if err := scoring.Validate(b.event, w); err != nil {
			b.onMalformed(w, err)
		}
	}
	return b.scorer.Score(w)
}

func (b *builder) participant(profileID string) model.Profile {
	p, ok := b.profiles[profileID]
	if !ok {
		p = model.Profile{ID: profileID}
	}
	return p.RedactFor(b.viewer)
}

// Aggregate groups workouts by participant, counts every submission id once
// and sums workout scores. Participants come back in first-encounter order.
func Aggregate(event model.Event, workouts []model.WorkoutSubmission, opts ...Option) []ParticipantScore {
	return newBuilder(event, opts).aggregate(workouts)
}

func (b *builder) aggregate(workouts []model.WorkoutSubmission) []ParticipantScore {
	index := make(map[string]int)
	var out []ParticipantScore
	for _, w := range b.unique(workouts) {
		i, ok := index[w.ProfileID]
		if !ok {
			i = len(out)
			index[w.ProfileID] = i
			out = append(out, ParticipantScore{ProfileID: w.ProfileID, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(b.score(w))
		out[i].Workouts++
	}
	return out
}

// BuildLeaderboard ranks participants by their cumulative points, highest
// first. Equal totals keep first-encounter order.
func BuildLeaderboard(event model.Event, workouts []model.WorkoutSubmission, opts ...Option) []model.LeaderboardEntry {
	b := newBuilder(event, opts)
	totals := b.aggregate(workouts)
	slices.SortStableFunc(totals, func(x, y ParticipantScore) int {
		return y.Total.Cmp(x.Total)
	})
	totals = truncate(totals, b.limit)

	entries := make([]model.LeaderboardEntry, len(totals))
	for i, t := range totals {
		entries[i] = b.entry(i, b.participant(t.ProfileID), t.Total.InexactFloat64())
	}
	return entries
}

// BuildSessionLeaderboard ranks individual workouts instead of participants,
// so a participant may hold several entries.
func BuildSessionLeaderboard(event model.Event, workouts []model.WorkoutSubmission, opts ...Option) []model.LeaderboardEntry {
	b := newBuilder(event, opts)
	uniq := b.unique(workouts)
	sessions := make([]SessionScore, len(uniq))
	for i, w := range uniq {
		sessions[i] = SessionScore{Workout: w, Total: b.score(w)}
	}
	slices.SortStableFunc(sessions, func(x, y SessionScore) int {
		return y.Total.Cmp(x.Total)
	})
	sessions = truncate(sessions, b.limit)

	entries := make([]model.LeaderboardEntry, len(sessions))
	for i, s := range sessions {
		e := b.entry(i, b.participant(s.Workout.ProfileID), s.Total.InexactFloat64())
		e.WorkoutID = s.Workout.ID
		entries[i] = e
	}
	return entries
}

// ParticipantTotal returns the cumulative points of one participant.
func ParticipantTotal(event model.Event, workouts []model.WorkoutSubmission, profileID string) float64 {
	b := newBuilder(event, nil)
	total := decimal.Zero
	for _, w := range b.unique(workouts) {
		if w.ProfileID == profileID {
			total = total.Add(b.score(w))
		}
	}
	return total.InexactFloat64()
}

func (b *builder) entry(i int, p model.Profile, total float64) model.LeaderboardEntry {
	e := model.LeaderboardEntry{Rank: i + 1, Participant: p, TotalPoints: total}
	e.GoalProgressPercent, e.GoalReached, e.Remaining = GoalProgress(b.event.Goal, total)
	return e
}

// MaxGoalPercent caps GoalProgress percentages.
const MaxGoalPercent = math.MaxInt32

// GoalProgress rounds total/goal to a whole percentage in [0, MaxGoalPercent].
// A missing or non-positive goal yields no percentage. A reached goal has no
// remaining value.
func GoalProgress(goal *float64, total float64) (percent *int, reached bool, remaining *float64) {
	if goal == nil || *goal <= 0 || math.IsNaN(*goal) || math.IsInf(*goal, 0) {
		return nil, false, nil
	}
	if math.IsNaN(total) || total < 0 {
		total = 0
	}
	ratio := math.Floor(total / *goal * 100 + 0.5)
	if ratio > MaxGoalPercent {
		ratio = MaxGoalPercent
	}
	p := int(ratio)
	if total >= *goal {
		return &p, true, nil
	}
	left := *goal - total
	return &p, false, &left
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
