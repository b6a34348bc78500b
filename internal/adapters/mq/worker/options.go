package worker

import (
	"github.com/okian/liftboard/internal/domain/dedupe"
	"github.com/okian/liftboard/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDeduper lets the worker forget a submission whose store write failed,
// so a client retry is not reported as a duplicate.
func WithDeduper(d dedupe.Deduper) Option {
	return func(w *InMemoryWorker) {
		w.deduper = d
	}
}
