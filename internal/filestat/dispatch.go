package filestat

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
)

// DefaultWorkers is the worker pool size used when none is configured.
const DefaultWorkers = 15

// DefaultPollInterval is the backoff used by polling workers.
const DefaultPollInterval = 5 * time.Millisecond

// State is the lifecycle phase of a Dispatcher.
type State int32

const (
	// StateIdle means Run has not been called.
	StateIdle State = iota
	// StateDispatching means workers are live and input is streaming.
	StateDispatching
	// StateDraining means input is closed and workers are finishing queued work.
	StateDraining
	// StateDone means every worker has returned.
	StateDone
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDispatching:
		return "dispatching"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Source streams input paths in order. Paths calls emit for each path and
// returns when the input is exhausted, emit returns an error, or ctx is done.
// emit is never called concurrently.
type Source interface {
	Paths(ctx context.Context, emit func(path string) error) error
}

// Progress is a point-in-time view of a running analysis.
type Progress struct {
	// Pushed is the number of paths accepted from the input.
	Pushed int64
	// Classified is the number of paths merged into the result.
	Classified int64
	// Bytes is the regular file byte total merged so far.
	Bytes uint64
}

// Dispatcher owns one work queue and one accumulator, and fans the paths of
// a single Source out to a fixed pool of workers.
type Dispatcher struct {
	workers    int
	poll       time.Duration
	classifier Classifier
	log        zerolog.Logger
	queue      *Queue
	acc        *Accumulator
	state      atomic.Int32
}

// NewDispatcher validates the pool size and prepares an idle dispatcher.
// poll > 0 makes workers poll the queue at that interval instead of waiting on it.
func NewDispatcher(workers int, poll time.Duration, classifier Classifier, log zerolog.Logger) (*Dispatcher, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, workers)
	}

	if classifier == nil {
		classifier = FileClassifier{Logger: log}
	}

	return &Dispatcher{
		workers:    workers,
		poll:       poll,
		classifier: classifier,
		log:        log,
		queue:      NewQueue(),
		acc:        &Accumulator{},
	}, nil
}

// State returns the current lifecycle phase.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

func (d *Dispatcher) setState(s State) {
	d.state.Store(int32(s))
	d.log.Debug().Stringer("state", s).Msg("dispatcher state")
}

// Progress reports accumulator and queue counters. The two are read one after
// the other, never under both locks; reading the accumulator first keeps
// Classified <= Pushed.
func (d *Dispatcher) Progress() Progress {
	stats := d.acc.Snapshot()
	_, pushed := d.queue.Progress()

	return Progress{
		Pushed:     int64(pushed),
		Classified: stats.Paths(),
		Bytes:      stats.RegularFileBytes,
	}
}

// Run spawns the workers, streams src into the queue, closes it, and waits for
// every worker to return before reading the result.
// ctx only bounds reading from src; queued paths are always processed.
// An input error is returned together with the statistics of what was read.
// A Dispatcher can be run once.
func (d *Dispatcher) Run(ctx context.Context, src Source) (Stats, error) {
	if !d.state.CompareAndSwap(int32(StateIdle), int32(StateDispatching)) {
		return Stats{}, fmt.Errorf("dispatcher is %s: %w", d.State(), ErrDispatcherReused)
	}

	d.log.Debug().Int("workers", d.workers).Dur("poll", d.poll).Msg("dispatching")

	var wg conc.WaitGroup

	for i := range d.workers {
		w := worker{
			id:         i,
			queue:      d.queue,
			acc:        d.acc,
			classifier: d.classifier,
			poll:       d.poll,
			log:        d.log,
		}
		wg.Go(w.run)
	}

	readErr := d.produce(ctx, src)

	d.setState(StateDraining)
	wg.Wait()
	d.setState(StateDone)

	stats := d.acc.Snapshot()

	if readErr != nil {
		return stats, fmt.Errorf("reading input: %w", readErr)
	}

	return stats, nil
}

// produce pushes every path of src and closes the queue, even if src panics.
func (d *Dispatcher) produce(ctx context.Context, src Source) error {
	defer d.queue.Close()

	return src.Paths(ctx, d.queue.Push)
}

// Serial classifies every path of src on the calling goroutine, in input order.
func Serial(ctx context.Context, src Source, classifier Classifier, acc *Accumulator) error {
	return src.Paths(ctx, func(path string) error {
		if path == "" {
			return nil
		}

		acc.MergeInPlace(classifier.Classify(path))

		return nil
	})
}
