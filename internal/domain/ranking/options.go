package ranking

import (
	"github.com/okian/liftboard/internal/domain/model"
	"github.com/okian/liftboard/internal/domain/privacy"
)

// Option configures a leaderboard build.
type Option func(*builder)

// WithProfiles resolves participant ids to profiles. Participants missing
// from profiles are shown as a bare Profile{ID: id}.
func WithProfiles(profiles map[string]model.Profile) Option {
	return func(b *builder) {
		if profiles != nil {
			b.profiles = profiles
		}
	}
}

// WithViewer redacts participant profiles for the given relationship.
// The default is privacy.Self, which shows every field.
func WithViewer(rel privacy.Relationship) Option {
	return func(b *builder) {
		b.viewer = rel
	}
}

// WithLimit keeps only the first n entries. n <= 0 keeps all.
func WithLimit(n int) Option {
	return func(b *builder) {
		if n > 0 {
			b.limit = n
		}
	}
}

// WithMalformedHook is called once for every distinct workout that fails
// scoring.Validate. The workout still takes part with whatever it scores.
func WithMalformedHook(fn func(model.WorkoutSubmission, error)) Option {
	return func(b *builder) {
		b.onMalformed = fn
	}
}
