package queue

import "errors"

// Reasons an attribution is refused.
var (
	ErrClosed = errors.New("queue closed")
	ErrFull   = errors.New("queue full")
)
