package ranking_test

import (
	"testing"

	"github.com/okian/liftboard/internal/domain/model"
	"github.com/okian/liftboard/internal/domain/privacy"
	"github.com/okian/liftboard/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

// lift builds a workout worth reps*weight points under an empty-rule event.
func lift(id, profile string, reps, weight float64) model.WorkoutSubmission {
	return model.WorkoutSubmission{
		ID:        id,
		ProfileID: profile,
		WorkoutData: &model.WorkoutData{Exercises: []model.ExerciseRecord{{
			Info: model.ExerciseInfo{ID: "squat"},
			Sets: []model.Set{{Reps: model.Quantity(reps), Weight: model.Quantity(weight)}},
		}}},
	}
}

func profileIDs(entries []model.LeaderboardEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.Participant.ID
	}
	return ids
}

func TestBuildLeaderboard(t *testing.T) {
	Convey("Given workouts from three participants", t, func() {
		event := model.Event{ID: "e1"}
		workouts := []model.WorkoutSubmission{
			lift("w1", "alice", 10, 5), // 50
			lift("w2", "bob", 10, 10),  // 100
			lift("w3", "alice", 10, 6), // 60
			lift("w4", "carol", 2, 10), // 20
			{ID: "w5", ProfileID: "carol"},
		}

		board := ranking.BuildLeaderboard(event, workouts)

		Convey("Then participants are ranked by total points", func() {
			So(profileIDs(board), ShouldResemble, []string{"alice", "bob", "carol"})
			So(board[0].TotalPoints, ShouldEqual, 110)
			So(board[1].TotalPoints, ShouldEqual, 100)
			So(board[2].TotalPoints, ShouldEqual, 20)
		})

		Convey("Then totals are non-increasing and ranks are positional", func() {
			for i := range board {
				So(board[i].Rank, ShouldEqual, i+1)
				if i+1 < len(board) {
					So(board[i].TotalPoints, ShouldBeGreaterThanOrEqualTo, board[i+1].TotalPoints)
				}
			}
		})

		Convey("Then repeated builds are identical", func() {
			So(ranking.BuildLeaderboard(event, workouts), ShouldResemble, board)
		})

		Convey("Then duplicating the input changes nothing", func() {
			doubled := append(append([]model.WorkoutSubmission{}, workouts...), workouts...)
			So(ranking.BuildLeaderboard(event, doubled), ShouldResemble, board)
		})

		Convey("Then no goal means no progress fields", func() {
			So(board[0].GoalProgressPercent, ShouldBeNil)
			So(board[0].GoalReached, ShouldBeFalse)
			So(board[0].Remaining, ShouldBeNil)
		})

		Convey("Then a limit keeps the top entries", func() {
			top := ranking.BuildLeaderboard(event, workouts, ranking.WithLimit(2))
			So(profileIDs(top), ShouldResemble, []string{"alice", "bob"})
		})

		Convey("Then malformed records are reported but do not stop the build", func() {
			var bad []string
			ranking.BuildLeaderboard(event, workouts, ranking.WithMalformedHook(func(w model.WorkoutSubmission, err error) {
				bad = append(bad, w.ID)
			}))
			So(bad, ShouldResemble, []string{"w5"})
		})
	})

	Convey("Given participants with equal totals", t, func() {
		workouts := []model.WorkoutSubmission{
			lift("w1", "zed", 1, 10),
			lift("w2", "amy", 2, 5),
			lift("w3", "max", 5, 2),
		}

		Convey("Then they keep the order they were first seen in", func() {
			board := ranking.BuildLeaderboard(model.Event{}, workouts)
			So(profileIDs(board), ShouldResemble, []string{"zed", "amy", "max"})
			So(board[2].Rank, ShouldEqual, 3)
		})
	})

	Convey("Given an event with a goal of 100", t, func() {
		event := model.Event{Goal: model.Float64(100)}
		workouts := []model.WorkoutSubmission{
			lift("w1", "p40", 4, 10),
			lift("w2", "p120", 12, 10),
		}
		board := ranking.BuildLeaderboard(event, workouts)

		Convey("Then 40 points is 40 percent with 60 remaining", func() {
			e := board[1]
			So(e.Participant.ID, ShouldEqual, "p40")
			So(*e.GoalProgressPercent, ShouldEqual, 40)
			So(e.GoalReached, ShouldBeFalse)
			So(*e.Remaining, ShouldEqual, 60)
		})

		Convey("Then 120 points reaches the goal with nothing remaining", func() {
			e := board[0]
			So(e.GoalReached, ShouldBeTrue)
			So(*e.GoalProgressPercent, ShouldEqual, 120)
			So(e.Remaining, ShouldBeNil)
		})
	})

	Convey("Given a goal of zero", t, func() {
		event := model.Event{Goal: model.Float64(0)}

		Convey("Then no percentage is produced", func() {
			board := ranking.BuildLeaderboard(event, []model.WorkoutSubmission{lift("w1", "p", 1, 1)})
			So(board[0].GoalProgressPercent, ShouldBeNil)
			So(board[0].GoalReached, ShouldBeFalse)
		})
	})

	Convey("Given profiles with privacy settings", t, func() {
		profiles := map[string]model.Profile{
			"p1": {ID: "p1", DisplayName: "Pat", Privacy: privacy.Settings{DisplayName: privacy.Private}},
		}
		workouts := []model.WorkoutSubmission{lift("w1", "p1", 1, 1), lift("w2", "p2", 2, 1)}

		Convey("Then strangers see redacted participants", func() {
			board := ranking.BuildLeaderboard(model.Event{}, workouts,
				ranking.WithProfiles(profiles), ranking.WithViewer(privacy.Stranger))
			So(board[1].Participant.ID, ShouldEqual, "p1")
			So(board[1].Participant.DisplayName, ShouldBeEmpty)
			So(board[0].Participant, ShouldResemble, model.Profile{ID: "p2"})
		})

		Convey("Then the owner view keeps every field", func() {
			board := ranking.BuildLeaderboard(model.Event{}, workouts, ranking.WithProfiles(profiles))
			So(board[1].Participant.DisplayName, ShouldEqual, "Pat")
		})
	})
}

func TestBuildSessionLeaderboard(t *testing.T) {
	Convey("Given several sessions per participant", t, func() {
		workouts := []model.WorkoutSubmission{
			lift("w1", "alice", 10, 5),
			lift("w2", "bob", 10, 8),
			lift("w3", "alice", 10, 9),
			lift("w3", "alice", 10, 9),
		}
		board := ranking.BuildSessionLeaderboard(model.Event{Goal: model.Float64(80)}, workouts)

		Convey("Then each distinct workout gets its own entry", func() {
			So(len(board), ShouldEqual, 3)
			So(board[0].WorkoutID, ShouldEqual, "w3")
			So(board[1].WorkoutID, ShouldEqual, "w2")
			So(board[2].WorkoutID, ShouldEqual, "w1")
			So(profileIDs(board), ShouldResemble, []string{"alice", "bob", "alice"})
		})

		Convey("Then goal progress is computed per session", func() {
			So(board[0].GoalReached, ShouldBeTrue)
			So(*board[2].GoalProgressPercent, ShouldEqual, 63)
			So(*board[2].Remaining, ShouldEqual, 30)
		})
	})
}

func TestAggregate(t *testing.T) {
	Convey("Given repeated submissions", t, func() {
		workouts := []model.WorkoutSubmission{
			lift("w1", "a", 1, 10),
			lift("w1", "a", 1, 10),
			lift("w1", "b", 1, 10),
			lift("w2", "a", 1, 5),
		}

		Convey("Then each submission id counts once per participant", func() {
			agg := ranking.Aggregate(model.Event{}, workouts)
			So(len(agg), ShouldEqual, 2)
			So(agg[0].ProfileID, ShouldEqual, "a")
			So(agg[0].Workouts, ShouldEqual, 2)
			So(agg[0].Total.InexactFloat64(), ShouldEqual, 15)
			So(agg[1].Total.InexactFloat64(), ShouldEqual, 10)
		})

		Convey("Then ParticipantTotal matches the aggregate", func() {
			So(ranking.ParticipantTotal(model.Event{}, workouts, "a"), ShouldEqual, 15)
			So(ranking.ParticipantTotal(model.Event{}, workouts, "nobody"), ShouldEqual, 0)
		})
	})
}

func TestGoalProgress(t *testing.T) {
	Convey("Given totals far beyond the goal", t, func() {
		Convey("Then a huge total saturates the percentage", func() {
			p, reached, left := ranking.GoalProgress(model.Float64(1), 1e20)
			So(*p, ShouldEqual, ranking.MaxGoalPercent)
			So(reached, ShouldBeTrue)
			So(left, ShouldBeNil)
		})

		Convey("Then a tiny goal saturates instead of overflowing", func() {
			p, reached, _ := ranking.GoalProgress(model.Float64(1e-300), 1)
			So(*p, ShouldEqual, ranking.MaxGoalPercent)
			So(reached, ShouldBeTrue)
		})

		Convey("Then an infinite ratio saturates as well", func() {
			p, _, _ := ranking.GoalProgress(model.Float64(1e-300), 1e300)
			So(*p, ShouldEqual, ranking.MaxGoalPercent)
		})
	})

	Convey("Given a zero total", t, func() {
		p, reached, left := ranking.GoalProgress(model.Float64(50), 0)

		Convey("Then progress is zero with the whole goal remaining", func() {
			So(*p, ShouldEqual, 0)
			So(reached, ShouldBeFalse)
			So(*left, ShouldEqual, 50)
		})
	})
}
