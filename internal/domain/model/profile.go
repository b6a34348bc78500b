package model

import "github.com/okian/liftboard/internal/domain/privacy"

// Profile is the participant shown on a leaderboard.
type Profile struct {
	ID          string           `json:"id"`
	Username    string           `json:"username,omitempty"`
	DisplayName string           `json:"display_name,omitempty"`
	AvatarURL   string           `json:"avatar_url,omitempty"`
	Privacy     privacy.Settings `json:"privacy"`
}

// RedactFor returns a copy with the fields rel may not see cleared.
func (p Profile) RedactFor(rel privacy.Relationship) Profile {
	out := p
	if !p.Privacy.Allows(privacy.FieldDisplayName, rel) {
		out.DisplayName = ""
	}
	if !p.Privacy.Allows(privacy.FieldAvatar, rel) {
		out.AvatarURL = ""
	}
	return out
}

// LeaderboardEntry is one ranked participant (cumulative mode) or workout
// (session mode). It is derived on every query and never stored.
type LeaderboardEntry struct {
	Rank                int      `json:"rank"`
	Participant         Profile  `json:"participant"`
	WorkoutID           string   `json:"workout_id,omitempty"`
	TotalPoints         float64  `json:"total_points"`
	GoalProgressPercent *int     `json:"goal_progress_percent"`
	GoalReached         bool     `json:"goal_reached"`
	Remaining           *float64 `json:"remaining,omitempty"`
}
