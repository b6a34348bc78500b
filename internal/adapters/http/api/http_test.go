package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/liftboard/internal/adapters/http/api"
	"github.com/okian/liftboard/internal/adapters/mq/queue"
	"github.com/okian/liftboard/internal/adapters/repository"
	"github.com/okian/liftboard/internal/domain/dedupe"
	"github.com/okian/liftboard/internal/domain/model"
	"github.com/okian/liftboard/internal/domain/search"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeDeps backs the handlers with a memory store and records enqueues.
type fakeDeps struct {
	dedupe.Deduper
	store       *repository.MemoryStore
	enqueued    []model.Attribution
	enqueueErr  error
	leaderboard []model.LeaderboardEntry
	lastMode    string
	lastLimit   int
	lastTags    []string
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		Deduper: dedupe.NewInMemoryDeduper(),
		store:   repository.NewMemoryStore(),
	}
}

func (f *fakeDeps) Enqueue(_ context.Context, a model.Attribution) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.enqueued = append(f.enqueued, a)
	return nil
}

func (f *fakeDeps) PutEvent(ctx context.Context, e model.Event) (model.Event, error) {
	if err := f.store.PutEvent(ctx, e); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

func (f *fakeDeps) GetEvent(ctx context.Context, id string) (model.Event, error) {
	return f.store.GetEvent(ctx, id)
}

func (f *fakeDeps) SetPointRules(ctx context.Context, id string, rules []model.ExercisePointRule) (model.Event, error) {
	return f.store.SetPointRules(ctx, id, rules)
}

func (f *fakeDeps) Leaderboard(ctx context.Context, eventID, mode string, limit int) ([]model.LeaderboardEntry, error) {
	if _, err := f.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	f.lastMode, f.lastLimit = mode, limit
	return f.leaderboard, nil
}

func (f *fakeDeps) ParticipantPoints(ctx context.Context, eventID, _ string) (float64, error) {
	if _, err := f.store.GetEvent(ctx, eventID); err != nil {
		return 0, err
	}
	return 42.5, nil
}

func (f *fakeDeps) UpsertExercises(ctx context.Context, exercises []model.Exercise) (int, error) {
	return f.store.UpsertExercises(ctx, exercises)
}

func (f *fakeDeps) SearchExercises(ctx context.Context, query string, tags []string, limit int) ([]search.Result, error) {
	f.lastTags, f.lastLimit = tags, limit
	catalog, err := f.store.Exercises(ctx)
	if err != nil {
		return nil, err
	}
	return search.Rank(query, search.FromCatalog(catalog), tags), nil
}

type staticStats map[string]any

func (s staticStats) GetStats() map[string]any { return s }

func newMux(deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, staticStats{"queue_len": 0}, 100).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

const workoutBody = `{
  "submission": {
    "id": "w1",
    "profile_id": "p1",
    "created_at": "2025-03-10T08:00:00Z",
    "workout_data": {"exercises": [{"info": {"id": "squat"}, "sets": [{"reps": 5, "weight": "100"}]}]}
  },
  "event_ids": ["e1", "e2"]
}`

func TestEventsEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newFakeDeps()
		mux := newMux(deps)

		Convey("When an event is created", func() {
			w := do(mux, http.MethodPut, "/events/e1", `{"type":"exercise-points","goal":500,"rep_multiplier":1.5}`)

			Convey("Then it is stored under the path id", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				got := do(mux, http.MethodGet, "/events/e1", "")
				So(got.Code, ShouldEqual, http.StatusOK)
				var e model.Event
				So(json.Unmarshal(got.Body.Bytes(), &e), ShouldBeNil)
				So(e.ID, ShouldEqual, "e1")
				So(*e.Goal, ShouldEqual, 500)
			})

			Convey("And its point rules can be replaced", func() {
				w := do(mux, http.MethodPut, "/events/e1/points", `{"exercise_points":[{"exercise_id":"squat","points":3}]}`)
				So(w.Code, ShouldEqual, http.StatusOK)
				var e model.Event
				So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
				So(e.ExercisePoints[0].Points, ShouldEqual, 3)
			})

			Convey("And negative points are rejected", func() {
				w := do(mux, http.MethodPut, "/events/e1/points", `{"exercise_points":[{"exercise_id":"squat","points":-3}]}`)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body id disagrees with the path", func() {
			w := do(mux, http.MethodPut, "/events/e1", `{"id":"e2"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the window is inverted", func() {
			w := do(mux, http.MethodPut, "/events/e1", `{"start_date":"2025-03-10T00:00:00Z","end_date":"2025-03-01T00:00:00Z"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a multiplier is negative", func() {
			w := do(mux, http.MethodPut, "/events/e1", `{"weight_multiplier":-1}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the event is unknown", func() {
			So(do(mux, http.MethodGet, "/events/nope", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPut, "/events/nope/points", `{"exercise_points":[]}`).Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPut, "/events/e1", `{`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			var resp map[string]string
			So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
			So(resp["code"], ShouldEqual, "bad_request")
		})
	})
}

func TestWorkoutsEndpoint(t *testing.T) {
	Convey("Given the API server", t, func() {
		deps := newFakeDeps()
		mux := newMux(deps)

		Convey("When a workout is submitted", func() {
			w := do(mux, http.MethodPost, "/workouts", workoutBody)

			Convey("Then it is accepted and enqueued for every event", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(len(deps.enqueued), ShouldEqual, 1)
				So(deps.enqueued[0].EventIDs, ShouldResemble, []string{"e1", "e2"})
				So(deps.enqueued[0].Submission.WorkoutData.Exercises[0].Sets[0].Weight.Float(), ShouldEqual, 100)
			})

			Convey("And resubmitting it is a duplicate", func() {
				w := do(mux, http.MethodPost, "/workouts", workoutBody)
				So(w.Code, ShouldEqual, http.StatusOK)
				var ack map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &ack), ShouldBeNil)
				So(ack["duplicate"], ShouldEqual, true)
				So(len(deps.enqueued), ShouldEqual, 1)
			})

			Convey("And adding a new event only enqueues the new pair", func() {
				body := strings.Replace(workoutBody, `["e1", "e2"]`, `["e2", "e3"]`, 1)
				w := do(mux, http.MethodPost, "/workouts", body)
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(deps.enqueued[1].EventIDs, ShouldResemble, []string{"e3"})
			})
		})

		Convey("When the submission has no id", func() {
			body := strings.Replace(workoutBody, `"id": "w1",`, "", 1)
			w := do(mux, http.MethodPost, "/workouts", body)

			Convey("Then the server assigns one", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(deps.enqueued[0].Submission.ID, ShouldHaveLength, 36)
			})
		})

		Convey("When the queue pushes back", func() {
			deps.enqueueErr = queue.ErrFull
			w := do(mux, http.MethodPost, "/workouts", workoutBody)

			Convey("Then the request is refused and can be retried", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(deps.Size(), ShouldEqual, 0)
				deps.enqueueErr = nil
				So(do(mux, http.MethodPost, "/workouts", workoutBody).Code, ShouldEqual, http.StatusAccepted)
			})
		})

		Convey("When ingestion is shutting down", func() {
			deps.enqueueErr = queue.ErrClosed
			w := do(mux, http.MethodPost, "/workouts", workoutBody)

			Convey("Then the request is refused as unavailable and can be retried", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(w.Body.String(), ShouldContainSubstring, `"unavailable"`)
				So(deps.Size(), ShouldEqual, 0)
			})
		})

		Convey("When the service has not started", func() {
			deps.enqueueErr = errors.New("service not started")
			w := do(mux, http.MethodPost, "/workouts", workoutBody)

			Convey("Then the request is refused as unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When required fields are missing", func() {
			for _, body := range []string{
				`{"submission":{"workout_data":{}},"event_ids":["e1"]}`,
				`{"submission":{"profile_id":"p1"},"event_ids":["e1"]}`,
				`{"submission":{"profile_id":"p1","workout_data":{}},"event_ids":[]}`,
				`{"submission":{"profile_id":"p1","workout_data":{}},"event_ids":[" "]}`,
				`not json`,
			} {
				So(do(mux, http.MethodPost, "/workouts", body).Code, ShouldEqual, http.StatusBadRequest)
			}
			So(deps.enqueued, ShouldBeEmpty)
		})
	})
}

func TestLeaderboardEndpoints(t *testing.T) {
	Convey("Given an event with a precomputed leaderboard", t, func() {
		deps := newFakeDeps()
		So(deps.store.PutEvent(context.Background(), model.Event{ID: "e1"}), ShouldBeNil)
		deps.leaderboard = []model.LeaderboardEntry{{Rank: 1, Participant: model.Profile{ID: "p1"}, TotalPoints: 10}}
		mux := newMux(deps)

		Convey("When fetching it without parameters", func() {
			w := do(mux, http.MethodGet, "/events/e1/leaderboard", "")

			Convey("Then cumulative mode with no limit is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastMode, ShouldEqual, api.ModeCumulative)
				So(deps.lastLimit, ShouldEqual, 0)
				var entries []model.LeaderboardEntry
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(entries[0].Participant.ID, ShouldEqual, "p1")
				So(entries[0].GoalProgressPercent, ShouldBeNil)
			})
		})

		Convey("When asking for session mode with a limit", func() {
			w := do(mux, http.MethodGet, "/events/e1/leaderboard?mode=session&limit=5", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.lastMode, ShouldEqual, api.ModeSession)
			So(deps.lastLimit, ShouldEqual, 5)
		})

		Convey("When parameters are invalid", func() {
			So(do(mux, http.MethodGet, "/events/e1/leaderboard?mode=weekly", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/events/e1/leaderboard?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/events/e1/leaderboard?limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/events/e1/leaderboard?limit=101", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the event is unknown", func() {
			So(do(mux, http.MethodGet, "/events/nope/leaderboard", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodGet, "/events/nope/points/p1", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When fetching one participant's points", func() {
			w := do(mux, http.MethodGet, "/events/e1/points/p1", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"points":42.5`)
			So(w.Body.String(), ShouldContainSubstring, `"profile_id":"p1"`)
		})
	})
}

func TestExercisesEndpoints(t *testing.T) {
	Convey("Given a catalog uploaded over the API", t, func() {
		deps := newFakeDeps()
		mux := newMux(deps)
		w := do(mux, http.MethodPut, "/exercises", `[
			{"id":"bench","name":"Bench Press","tags":[{"id":"chest","name":"Chest"}]},
			{"id":"squat","name":"Back Squat","tags":[{"id":"legs","name":"Legs"}]}
		]`)
		So(w.Code, ShouldEqual, http.StatusOK)
		So(w.Body.String(), ShouldContainSubstring, `"exercises":2`)

		Convey("When searching by text", func() {
			w := do(mux, http.MethodGet, "/exercises/search?q=bench", "")
			var results []search.Result
			So(json.Unmarshal(w.Body.Bytes(), &results), ShouldBeNil)

			Convey("Then the best match comes first", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(results[0].Item.ID, ShouldEqual, "bench")
			})
		})

		Convey("When filtering by tag", func() {
			w := do(mux, http.MethodGet, "/exercises/search?tag=legs&limit=10", "")
			var results []search.Result
			So(json.Unmarshal(w.Body.Bytes(), &results), ShouldBeNil)

			Convey("Then exercises without the tag are excluded", func() {
				So(deps.lastTags, ShouldResemble, []string{"legs"})
				So(deps.lastLimit, ShouldEqual, 10)
				for _, r := range results {
					So(r.Item.ID, ShouldNotEqual, "bench")
				}
			})
		})

		Convey("When an exercise has no id", func() {
			So(do(mux, http.MethodPut, "/exercises", `[{"name":"x"}]`).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the API server", t, func() {
		mux := newMux(newFakeDeps())

		Convey("Then /healthz serves Prometheus metrics", func() {
			do(mux, http.MethodGet, "/stats", "")
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "liftboard_core_http_requests_total")
		})

		Convey("Then /stats returns the provider's stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"queue_len":0`)
		})

		Convey("Then unsupported methods are rejected", func() {
			So(do(mux, http.MethodDelete, "/events/e1", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given tagged errors", t, func() {
		cause := fmt.Errorf("boom")

		Convey("Then kinds and causes are both visible to errors.Is", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Then NewKind and Wrap format without the missing part", func() {
			So(api.NewKind("api.op", api.ErrBackpressure).Error(), ShouldEqual, "api.op: backpressure")
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: boom")
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})
	})
}
