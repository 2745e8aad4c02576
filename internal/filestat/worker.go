package filestat

import (
	"time"

	"github.com/rs/zerolog"
)

// worker drains a shared queue, classifying each path and merging the result
// into a shared accumulator. It never holds the queue and accumulator locks
// at the same time.
type worker struct {
	id         int
	queue      *Queue
	acc        *Accumulator
	classifier Classifier
	// poll > 0 selects fixed-interval polling instead of waiting on the queue.
	poll time.Duration
	log  zerolog.Logger
}

// run processes paths until the queue is closed and drained.
func (w worker) run() {
	var processed int

	w.log.Debug().Int("worker", w.id).Msg("worker started")

	for {
		path, ok := w.next()
		if !ok {
			break
		}

		delta := w.classifier.Classify(path)

		w.log.Trace().Int("worker", w.id).Str("path", path).Interface("stats", delta).Msg("classified")

		w.acc.MergeInPlace(delta)
		processed++
	}

	w.log.Debug().Int("worker", w.id).Int("processed", processed).Msg("worker finished")
}

// next returns the next path to classify, or false once no more work will arrive.
func (w worker) next() (string, bool) {
	if w.poll <= 0 {
		return w.queue.Next()
	}

	for !w.queue.Done() {
		if path, ok := w.queue.Pop(); ok {
			return path, true
		}

		time.Sleep(w.poll)
	}

	return "", false
}
