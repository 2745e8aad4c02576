package filestat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/idelchi/filestat/internal/timing"
)

// DefaultProgressInterval is the default interval for progress updates.
const DefaultProgressInterval = 500 * time.Millisecond

// Mode selects how paths are classified.
type Mode string

const (
	// ModeSerial classifies every path on the calling goroutine.
	ModeSerial Mode = "serial"
	// ModeThread classifies paths on a fixed pool of workers.
	ModeThread Mode = "thread"
)

// Options configures an analysis run.
type Options struct {
	// Mode selects serial or threaded execution (empty = serial).
	Mode Mode
	// Workers is the pool size in thread mode.
	Workers int
	// PollInterval makes workers poll the queue at this interval (0 = wait on the queue).
	PollInterval time.Duration
	// MaxRead caps the bytes inspected per regular file (0 = DefaultMaxRead).
	MaxRead uint64
	// ProgressInterval controls progress callback cadence.
	ProgressInterval time.Duration
	// Classifier overrides the filesystem classifier.
	Classifier Classifier
	// Logger receives diagnostics. The zero value discards them.
	Logger zerolog.Logger
}

// Result is the outcome of an analysis run.
type Result struct {
	// Mode is the execution mode used.
	Mode Mode `json:"mode"`
	// Workers is the pool size, zero in serial mode.
	Workers int `json:"workers,omitempty"`
	// Stats holds the aggregate statistics.
	Stats Stats `json:"stats"`
	// Usage is the time spent on the run.
	Usage timing.Usage `json:"usage"`
}

// startProgressReporter invokes hook with the current progress on each tick
// until the returned stop function is called. stop waits for the reporter to exit,
// so hook is never called after stop returns.
func startProgressReporter(progress func() Progress, hook func(Progress), interval time.Duration) (stop func()) {
	if hook == nil {
		return func() {}
	}

	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hook(progress())
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

// Run classifies every path produced by src and returns the aggregate statistics.
//
// In ModeSerial paths are classified one after the other in input order. In
// ModeThread they are fanned out to opt.Workers workers; both modes produce
// the same Stats for the same input.
//
// Configuration errors are returned before any path is read. An error from src
// is returned together with the statistics gathered up to that point.
// Progress updates are sent to progressHook if provided.
func Run(ctx context.Context, opt Options, src Source, progressHook func(Progress)) (*Result, error) {
	log := opt.Logger

	classifier := opt.Classifier
	if classifier == nil {
		classifier = FileClassifier{MaxRead: opt.MaxRead, Logger: log}
	}

	if opt.Mode == "" {
		opt.Mode = ModeSerial
	}

	result := &Result{Mode: opt.Mode}

	var (
		stats Stats
		err   error
	)

	sample := timing.Start()

	switch opt.Mode {
	case ModeSerial:
		acc := &Accumulator{}

		stop := startProgressReporter(func() Progress {
			snapshot := acc.Snapshot()

			return Progress{Pushed: snapshot.Paths(), Classified: snapshot.Paths(), Bytes: snapshot.RegularFileBytes}
		}, progressHook, opt.ProgressInterval)

		err = Serial(ctx, src, classifier, acc)

		stop()

		stats = acc.Snapshot()
		if err != nil {
			err = fmt.Errorf("reading input: %w", err)
		}
	case ModeThread:
		dispatcher, dErr := NewDispatcher(opt.Workers, opt.PollInterval, classifier, log)
		if dErr != nil {
			return nil, dErr
		}

		result.Workers = opt.Workers

		stop := startProgressReporter(dispatcher.Progress, progressHook, opt.ProgressInterval)

		stats, err = dispatcher.Run(ctx, src)

		stop()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, opt.Mode)
	}

	result.Stats = stats
	result.Usage = sample.Stop()

	log.Debug().
		Str("mode", string(result.Mode)).
		Int64("paths", stats.Paths()).
		Dur("wall", result.Usage.Wall).
		Msg("run finished")

	return result, err
}
