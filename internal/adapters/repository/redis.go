package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/liftboard/internal/domain/model"
	"github.com/okian/liftboard/pkg/logger"
	"github.com/okian/liftboard/pkg/metrics"
)

// Keys:
//
//	{prefix}:events                  set of event ids
//	{prefix}:event:{id}              event JSON
//	{prefix}:workouts:{id}           list of submission JSON, append order
//	{prefix}:profile:{id}            profile JSON
//	{prefix}:exercises               hash id -> exercise JSON
//	{prefix}:exercises:order         zset id scored by insertion sequence
//	{prefix}:exercises:seq           insertion counter

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string
	log    logger.Logger
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, opts ...Option) *RedisStore {
	s := &RedisStore{
		redis:  client,
		prefix: "liftboard",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Get().Named("redis-store")
	}
	client.AddHook(metricsHook{})
	return s
}

// OpenRedis parses url, connects and pings the server.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) PutEvent(ctx context.Context, event model.Event) error {
	if err := validateEvent(event); err != nil {
		return err
	}
	b, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.eventKey(event.ID), b, 0)
	pipe.SAdd(ctx, s.eventsKey(), event.ID)
	card := pipe.SCard(ctx, s.eventsKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	metrics.UpdateTrackedEvents(int(card.Val()))
	return nil
}

func (s *RedisStore) GetEvent(ctx context.Context, id string) (model.Event, error) {
	return s.getEvent(ctx, s.redis, id)
}

func (s *RedisStore) getEvent(ctx context.Context, c redis.Cmdable, id string) (model.Event, error) {
	b, err := c.Get(ctx, s.eventKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Event{}, fmt.Errorf("event %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("get event: %w", err)
	}
	var e model.Event
	if err := json.Unmarshal(b, &e); err != nil {
		return model.Event{}, fmt.Errorf("decode event %q: %w", id, err)
	}
	return e, nil
}

// SetPointRules rewrites the event under WATCH so concurrent PutEvent calls
// are not lost.
func (s *RedisStore) SetPointRules(ctx context.Context, eventID string, rules []model.ExercisePointRule) (model.Event, error) {
	var out model.Event
	key := s.eventKey(eventID)
	txf := func(tx *redis.Tx) error {
		e, err := s.getEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		e.ExercisePoints = slices.Clone(rules)
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			return nil
		})
		out = e
		return err
	}

	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return out, err
	}
	return model.Event{}, fmt.Errorf("set point rules %q: too much contention", eventID)
}

func (s *RedisStore) CountEvents(ctx context.Context) (int, error) {
	n, err := s.redis.SCard(ctx, s.eventsKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return int(n), nil
}

func (s *RedisStore) AppendSubmission(ctx context.Context, eventID string, w model.WorkoutSubmission) error {
	ok, err := s.redis.Exists(ctx, s.eventKey(eventID)).Result()
	if err != nil {
		return fmt.Errorf("check event: %w", err)
	}
	if ok == 0 {
		return fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	b, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	if err := s.redis.RPush(ctx, s.workoutsKey(eventID), b).Err(); err != nil {
		return fmt.Errorf("append submission: %w", err)
	}
	return nil
}

func (s *RedisStore) Submissions(ctx context.Context, eventID string) ([]model.WorkoutSubmission, error) {
	pipe := s.redis.Pipeline()
	exists := pipe.Exists(ctx, s.eventKey(eventID))
	rng := pipe.LRange(ctx, s.workoutsKey(eventID), 0, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	if exists.Val() == 0 {
		return nil, fmt.Errorf("event %q: %w", eventID, ErrNotFound)
	}
	raw := rng.Val()
	out := make([]model.WorkoutSubmission, 0, len(raw))
	for i, r := range raw {
		var w model.WorkoutSubmission
		if err := json.Unmarshal([]byte(r), &w); err != nil {
			// A corrupt entry is skipped like any malformed record.
			s.log.Warn(ctx, "skipping undecodable submission",
				logger.String("event_id", eventID), logger.Int("index", i), logger.Error(err))
			metrics.RecordMalformedRecord("undecodable")
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *RedisStore) PutProfile(ctx context.Context, p model.Profile) error {
	if p.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return s.redis.Set(ctx, s.profileKey(p.ID), b, 0).Err()
}

func (s *RedisStore) Profiles(ctx context.Context, ids []string) (map[string]model.Profile, error) {
	out := make(map[string]model.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.profileKey(id)
	}
	vals, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get profiles: %w", err)
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var p model.Profile
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			return nil, fmt.Errorf("decode profile %q: %w", ids[i], err)
		}
		out[ids[i]] = p
	}
	return out, nil
}

func (s *RedisStore) UpsertExercises(ctx context.Context, exercises []model.Exercise) (int, error) {
	for _, ex := range exercises {
		if ex.ID == "" {
			return 0, fmt.Errorf("exercise %q: id is required", ex.Name)
		}
		b, err := json.Marshal(ex)
		if err != nil {
			return 0, fmt.Errorf("encode exercise: %w", err)
		}
		seq, err := s.redis.Incr(ctx, s.exercisesKey()+":seq").Result()
		if err != nil {
			return 0, fmt.Errorf("exercise sequence: %w", err)
		}
		pipe := s.redis.TxPipeline()
		pipe.HSet(ctx, s.exercisesKey(), ex.ID, b)
		pipe.ZAddNX(ctx, s.exercisesKey()+":order", redis.Z{Score: float64(seq), Member: ex.ID})
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, fmt.Errorf("upsert exercise %q: %w", ex.ID, err)
		}
	}
	n, err := s.redis.HLen(ctx, s.exercisesKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count exercises: %w", err)
	}
	metrics.UpdateCatalogExercises(int(n))
	return int(n), nil
}

func (s *RedisStore) Exercises(ctx context.Context) ([]model.Exercise, error) {
	ids, err := s.redis.ZRange(ctx, s.exercisesKey()+":order", 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	vals, err := s.redis.HMGet(ctx, s.exercisesKey(), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("get exercises: %w", err)
	}
	out := make([]model.Exercise, 0, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var ex model.Exercise
		if err := json.Unmarshal([]byte(str), &ex); err != nil {
			return nil, fmt.Errorf("decode exercise %q: %w", ids[i], err)
		}
		out = append(out, ex)
	}
	return out, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error { return s.redis.Close() }

func (s *RedisStore) eventsKey() string {
	return fmt.Sprintf("%s:events", s.prefix)
}

func (s *RedisStore) eventKey(id string) string {
	return fmt.Sprintf("%s:event:%s", s.prefix, id)
}

func (s *RedisStore) profileKey(id string) string {
	return fmt.Sprintf("%s:profile:%s", s.prefix, id)
}

func (s *RedisStore) exercisesKey() string {
	return fmt.Sprintf("%s:exercises", s.prefix)
}

func (s *RedisStore) workoutsKey(eventID string) string {
	return fmt.Sprintf("%s:workouts:%s", s.prefix, eventID)
}

// metricsHook reports per-command latency and errors to pkg/metrics.
type metricsHook struct{}

func (metricsHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		record(cmd.Name(), start, err)
		return err
	}
}

func (metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		record("pipeline", start, err)
		return err
	}
}

func record(op string, start time.Time, err error) {
	if errors.Is(err, redis.Nil) {
		err = nil
	}
	observe("redis_"+op, start, err)
}
