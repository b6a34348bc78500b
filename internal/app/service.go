// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	eventqueue "github.com/okian/liftboard/internal/adapters/mq/queue"
	workerpool "github.com/okian/liftboard/internal/adapters/mq/worker"
	"github.com/okian/liftboard/internal/adapters/repository"
	"github.com/okian/liftboard/internal/domain/dedupe"
	"github.com/okian/liftboard/internal/domain/model"
	"github.com/okian/liftboard/internal/domain/privacy"
	"github.com/okian/liftboard/internal/domain/ranking"
	"github.com/okian/liftboard/internal/domain/scoring"
	"github.com/okian/liftboard/internal/domain/search"
	"github.com/okian/liftboard/pkg/logger"
	"github.com/okian/liftboard/pkg/metrics"
)

// Leaderboard modes.
const (
	ModeCumulative = "cumulative"
	ModeSession    = "session"
)

// Error constants.
var (
	ErrNotStarted = errors.New("service not started")
	ErrStopped    = errors.New("service stopped")
)

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	eventQueue *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of attribution workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the attribution queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the idempotency set.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore replaces the default in-memory repository.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU() * 2,
		queueSize:   10_000,
		dedupeSize:  100_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	return s
}

// Start creates the worker pool and starts draining the attribution queue.
// A stopped service cannot be restarted.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.eventQueue.IsClosed() {
		return ErrStopped
	}
	s.logger.Info(ctx, "starting liftboard service...")

	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.store,
		workerpool.WithDeduper(s.deduper),
		workerpool.WithLogger(s.logger.Named("worker")),
	)
	s.workerPool.Start(ctx)

	if n, err := s.store.CountEvents(ctx); err == nil {
		metrics.UpdateTrackedEvents(n)
	}

	s.started = true
	s.logger.Info(ctx, "liftboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the worker pool and closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping liftboard service...")

	var errs []error
	if err := s.workerPool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "liftboard service stopped")
	return errors.Join(errs...)
}

func (s *Service) running() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// SeenAndRecord atomically checks if key was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, key string) bool {
	return s.deduper.SeenAndRecord(ctx, key)
}

// Unrecord removes key from the seen set so the pair can be retried.
func (s *Service) Unrecord(ctx context.Context, key string) {
	s.deduper.Unrecord(ctx, key)
}

// Size returns the current number of keys in the deduper.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// Enqueue submits an attribution for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, a model.Attribution) error { //nolint:gocritic // hugeParam: handed to the queue by value
	if err := s.running(); err != nil {
		return err
	}
	s.logger.Debug(ctx, "enqueueing attribution",
		logger.String("submission_id", a.Submission.ID),
		logger.Strings("event_ids", a.EventIDs),
	)
	if err := s.eventQueue.Enqueue(ctx, a); err != nil {
		return err
	}
	metrics.UpdateQueueSize(s.eventQueue.Len(ctx))
	return nil
}

// PutEvent creates or replaces an event.
func (s *Service) PutEvent(ctx context.Context, e model.Event) (model.Event, error) { //nolint:gocritic // hugeParam: stored by value
	if err := s.store.PutEvent(ctx, e); err != nil {
		return model.Event{}, err
	}
	if n, err := s.store.CountEvents(ctx); err == nil {
		metrics.UpdateTrackedEvents(n)
	}
	s.logger.Info(ctx, "event saved", logger.String("event_id", e.ID), logger.String("type", string(e.Type)))
	return s.store.GetEvent(ctx, e.ID)
}

// GetEvent returns the event with id.
func (s *Service) GetEvent(ctx context.Context, id string) (model.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// SetPointRules replaces the exercise point rules of an event. Leaderboards
// pick the new rules up on their next build.
func (s *Service) SetPointRules(ctx context.Context, eventID string, rules []model.ExercisePointRule) (model.Event, error) {
	e, err := s.store.SetPointRules(ctx, eventID, rules)
	if err != nil {
		return model.Event{}, err
	}
	metrics.RecordPointRuleUpdate()
	s.logger.Info(ctx, "point rules updated", logger.String("event_id", eventID), logger.Int("rules", len(rules)))
	return e, nil
}

// PutProfile stores a participant profile used to render leaderboard rows.
func (s *Service) PutProfile(ctx context.Context, p model.Profile) error {
	return s.store.PutProfile(ctx, p)
}

// Leaderboard scores every stored submission of the event and ranks them.
func (s *Service) Leaderboard(ctx context.Context, eventID, mode string, limit int) ([]model.LeaderboardEntry, error) {
	start := time.Now()
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	workouts, err := s.store.Submissions(ctx, eventID)
	if err != nil {
		return nil, err
	}
	profiles, err := s.store.Profiles(ctx, profileIDs(workouts))
	if err != nil {
		return nil, err
	}

	opts := []ranking.Option{
		ranking.WithProfiles(profiles),
		ranking.WithViewer(privacy.Stranger),
		ranking.WithLimit(limit),
		ranking.WithMalformedHook(func(w model.WorkoutSubmission, err error) {
			reason := scoring.Reason(err)
			metrics.RecordMalformedRecord(reason)
			s.logger.Debug(ctx, "malformed workout scored as zero",
				logger.String("event_id", eventID),
				logger.String("submission_id", w.ID),
				logger.String("reason", reason),
			)
		}),
	}

	var entries []model.LeaderboardEntry
	if mode == ModeSession {
		entries = ranking.BuildSessionLeaderboard(event, workouts, opts...)
	} else {
		mode = ModeCumulative
		entries = ranking.BuildLeaderboard(event, workouts, opts...)
	}
	metrics.RecordLeaderboardBuild(mode, float64(time.Since(start).Microseconds())/1000, len(entries))
	return entries, nil
}

// ParticipantPoints returns the cumulative points of one participant.
func (s *Service) ParticipantPoints(ctx context.Context, eventID, profileID string) (float64, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	workouts, err := s.store.Submissions(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return ranking.ParticipantTotal(event, workouts, profileID), nil
}

// UpsertExercises adds or replaces catalog exercises and returns the catalog size.
func (s *Service) UpsertExercises(ctx context.Context, exercises []model.Exercise) (int, error) {
	n, err := s.store.UpsertExercises(ctx, exercises)
	if err != nil {
		return 0, err
	}
	metrics.UpdateCatalogExercises(n)
	return n, nil
}

// SearchExercises ranks catalog exercises and tags against query.
func (s *Service) SearchExercises(ctx context.Context, query string, tags []string, limit int) ([]search.Result, error) {
	catalog, err := s.store.Exercises(ctx)
	if err != nil {
		return nil, err
	}
	results := search.Rank(query, search.FromCatalog(catalog), tags)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	metrics.RecordSearch(len(results))
	return results, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if !s.started {
		return stats
	}

	queueLen := s.eventQueue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["queueCapacity"] = s.eventQueue.Cap()
	stats["dedupeEntries"] = s.deduper.Size()
	stats["processed"] = s.workerPool.Processed()
	if n, err := s.store.CountEvents(ctx); err == nil {
		stats["events"] = n
		metrics.UpdateTrackedEvents(n)
	}

	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateQueueCapacity(s.eventQueue.Cap())
	metrics.UpdateWorkerCount(s.workerPool.Size())
	return stats
}

func profileIDs(workouts []model.WorkoutSubmission) []string {
	seen := make(map[string]struct{}, len(workouts))
	ids := make([]string, 0, len(workouts))
	for _, w := range workouts {
		if _, ok := seen[w.ProfileID]; ok {
			continue
		}
		seen[w.ProfileID] = struct{}{}
		ids = append(ids, w.ProfileID)
	}
	return ids
}
