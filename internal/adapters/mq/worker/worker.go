// Package worker credits queued workout submissions to their events.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/liftboard/internal/adapters/repository"
	"github.com/okian/liftboard/internal/domain/dedupe"
	"github.com/okian/liftboard/internal/domain/model"
	"github.com/okian/liftboard/pkg/logger"
	"github.com/okian/liftboard/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Attribution outcomes, also used as metric labels.
const (
	OutcomeStored       = "stored"
	OutcomeOutOfWindow  = "out_of_window"
	OutcomeUnknownEvent = "unknown_event"
	OutcomeFailed       = "failed"
)

// Store is the part of the repository a worker writes to.
type Store interface {
	GetEvent(ctx context.Context, id string) (model.Event, error)
	AppendSubmission(ctx context.Context, eventID string, w model.WorkoutSubmission) error
}

// Queue defines how workers receive attributions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Attribution
}

// Worker processes attributions until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker consumes attributions from a Queue and appends each
// submission to every event whose window contains it.
type InMemoryWorker struct {
	queue   Queue
	store   Store
	deduper dedupe.Deduper
	name    string

	// processed is shared with the owning pool.
	processed *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}
	logger   logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		store:     store,
		name:      "worker",
		processed: &atomic.Int64{},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	items := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case a, ok := <-items:
			if !ok {
				return
			}
			if err := w.Process(ctx, a); err != nil {
				w.logger.Error(ctx, "error processing attribution",
					logger.String("submission_id", a.Submission.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Process credits one submission to each listed event. Unknown events and
// events whose window excludes the submission are skipped. Store failures
// are collected and returned together.
func (w *InMemoryWorker) Process(ctx context.Context, a model.Attribution) error { //nolint:gocritic // hugeParam: read straight off the channel
	defer func() {
		w.processed.Add(1)
		metrics.RecordWorkerProcessed()
	}()

	var errs []error
	for _, eventID := range a.EventIDs {
		outcome, err := w.attribute(ctx, eventID, a.Submission)
		metrics.RecordAttribution(outcome)
		if err != nil {
			errs = append(errs, err)
			if w.deduper != nil {
				w.deduper.Unrecord(ctx, dedupe.Key(eventID, a.Submission.ID))
			}
		}
	}
	if len(errs) > 0 {
		metrics.RecordWorkerError()
		return errors.Join(errs...)
	}
	return nil
}

func (w *InMemoryWorker) attribute(ctx context.Context, eventID string, sub model.WorkoutSubmission) (string, error) {
	event, err := w.store.GetEvent(ctx, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		w.logger.Debug(ctx, "skipping unknown event",
			logger.String("event_id", eventID), logger.String("submission_id", sub.ID))
		return OutcomeUnknownEvent, nil
	}
	if err != nil {
		return OutcomeFailed, fmt.Errorf("load event %s: %w", eventID, err)
	}
	if !event.Accepts(sub.CreatedAt) {
		w.logger.Debug(ctx, "submission outside event window",
			logger.String("event_id", eventID), logger.String("submission_id", sub.ID))
		return OutcomeOutOfWindow, nil
	}
	if err := w.store.AppendSubmission(ctx, eventID, sub); err != nil {
		return OutcomeFailed, fmt.Errorf("append to event %s: %w", eventID, err)
	}
	return OutcomeStored, nil
}

// Pool manages multiple workers.
type Pool struct {
	workers   []*InMemoryWorker
	queue     Queue
	processed atomic.Int64
	logger    logger.Logger
}

// NewPool creates a pool of workerCount workers. workerCount < 1 means
// one worker per CPU.
func NewPool(workerCount int, queue Queue, store Store, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(queue, store, wopts...)
		w.processed = &p.processed
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns how many attributions the pool has handled.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
