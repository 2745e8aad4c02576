package filestat

import "errors"

var (
	// ErrInvalidWorkers is returned when the worker pool size is not positive.
	ErrInvalidWorkers = errors.New("worker count must be at least 1")
	// ErrQueueClosed is returned when pushing onto a closed queue.
	ErrQueueClosed = errors.New("push on closed queue")
	// ErrDispatcherReused is returned when Run is called on a dispatcher that already ran.
	ErrDispatcherReused = errors.New("dispatcher already used")
	// ErrUnknownMode is returned for an execution mode other than serial or thread.
	ErrUnknownMode = errors.New("unknown execution mode")
)
