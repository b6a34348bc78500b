package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/liftboard/internal/domain/model"
	"github.com/okian/liftboard/pkg/metrics"
)

// MemoryStore is a process-local Store guarded by a single RWMutex.
type MemoryStore struct {
	mu          sync.RWMutex
	events      map[string]model.Event
	submissions map[string][]model.WorkoutSubmission
	profiles    map[string]model.Profile
	exercises   map[string]int // id -> index into catalog
	catalog     []model.Exercise
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:      make(map[string]model.Event),
		submissions: make(map[string][]model.WorkoutSubmission),
		profiles:    make(map[string]model.Profile),
		exercises:   make(map[string]int),
	}
}

func (s *MemoryStore) PutEvent(_ context.Context, event model.Event) (err error) {
	defer func(start time.Time) { observe("put_event", start, err) }(time.Now())
	if err := validateEvent(event); err != nil {
		return err
	}
	event.ExercisePoints = slices.Clone(event.ExercisePoints)

	s.mu.Lock()
	s.events[event.ID] = event
	n := len(s.events)
	s.mu.Unlock()

	metrics.UpdateTrackedEvents(n)
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id string) (event model.Event, err error) {
	defer func(start time.Time) { observe("get_event", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return model.Event{}, fmt.Errorf("event %q: %w", id, ErrNotFound)
	}
	e.ExercisePoints = slices.Clone(e.ExercisePoints)
	return e, nil
}

func (s *MemoryStore) SetPointRules(_ context.Context, eventID string, rules []model.ExercisePointRule) (event model.Event, err error) {
	defer func(start time.Time) { observe("set_point_rules", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[eventID]
	if !ok {
		return model.Event{}, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	e.ExercisePoints = slices.Clone(rules)
	s.events[eventID] = e
	e.ExercisePoints = slices.Clone(rules)
	return e, nil
}

func (s *MemoryStore) CountEvents(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events), nil
}

func (s *MemoryStore) AppendSubmission(_ context.Context, eventID string, w model.WorkoutSubmission) (err error) {
	defer func(start time.Time) { observe("append_submission", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	s.submissions[eventID] = append(s.submissions[eventID], w)
	return nil
}

func (s *MemoryStore) Submissions(_ context.Context, eventID string) (out []model.WorkoutSubmission, err error) {
	defer func(start time.Time) { observe("submissions", start, err) }(time.Now())
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.events[eventID]; !ok {
		return nil, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	return slices.Clone(s.submissions[eventID]), nil
}

func (s *MemoryStore) PutProfile(_ context.Context, p model.Profile) error {
	if p.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	s.mu.Lock()
	s.profiles[p.ID] = p
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Profiles(_ context.Context, ids []string) (map[string]model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.Profile, len(ids))
	for _, id := range ids {
		if p, ok := s.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *MemoryStore) UpsertExercises(_ context.Context, exercises []model.Exercise) (n int, err error) {
	defer func(start time.Time) { observe("upsert_exercises", start, err) }(time.Now())
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ex := range exercises {
		if ex.ID == "" {
			return len(s.catalog), fmt.Errorf("exercise %q: id is required", ex.Name)
		}
		ex.Tags = slices.Clone(ex.Tags)
		if i, ok := s.exercises[ex.ID]; ok {
			s.catalog[i] = ex
			continue
		}
		s.exercises[ex.ID] = len(s.catalog)
		s.catalog = append(s.catalog, ex)
	}
	metrics.UpdateCatalogExercises(len(s.catalog))
	return len(s.catalog), nil
}

func (s *MemoryStore) Exercises(context.Context) ([]model.Exercise, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.catalog), nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
