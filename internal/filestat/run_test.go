package filestat_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/filestat/internal/filestat"
)

var zeroLog = zerolog.Nop()

// paths is a Source over a fixed list. An optional error is returned after
// every path has been emitted.
type paths struct {
	items []string
	err   error
}

func (p paths) Paths(ctx context.Context, emit func(string) error) error {
	for _, item := range p.items {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := emit(item); err != nil {
			return err
		}
	}

	return p.err
}

// counting records how often each path is classified.
type counting struct {
	mu    sync.Mutex
	calls map[string]int
	delay time.Duration
}

func (c *counting) Classify(path string) filestat.Stats {
	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.calls == nil {
		c.calls = make(map[string]int)
	}

	c.calls[path]++

	return filestat.Stats{RegularFiles: 1, RegularFileBytes: uint64(len(path))}
}

// fixture builds a mixed tree and returns the list of input paths.
func fixture(t *testing.T) []string {
	t.Helper()

	dir := t.TempDir()
	inputs := []string{dir, "", "/no/such/path-xyz"}

	for i := range 40 {
		sub := filepath.Join(dir, fmt.Sprintf("d%02d", i%5))
		require.NoError(t, os.MkdirAll(sub, 0o755))

		content := []byte(fmt.Sprintf("file %d\n", i))
		if i%3 == 0 {
			content = append(content, 0x00, byte(i))
		}

		path := filepath.Join(sub, fmt.Sprintf("f%02d", i))
		require.NoError(t, os.WriteFile(path, content, 0o600))

		inputs = append(inputs, path, sub, path+".missing", "")
	}

	return append(inputs, os.DevNull)
}

func TestScenario(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	inputs := []string{
		writeFile(t, dir, "text", []byte("0123456789")),
		writeFile(t, dir, "binary", append([]byte("0123456789012345678"), 0x00)),
		dir,
		"/no/such/path-xyz",
	}

	want := filestat.Stats{
		BadFiles:         1,
		Directories:      1,
		RegularFiles:     2,
		SpecialFiles:     0,
		RegularFileBytes: 30,
		TextFiles:        1,
		TextFileBytes:    10,
	}

	for _, opt := range []filestat.Options{
		{Mode: filestat.ModeSerial},
		{Mode: filestat.ModeThread, Workers: 1},
		{Mode: filestat.ModeThread, Workers: filestat.DefaultWorkers},
		{Mode: filestat.ModeThread, Workers: 4, PollInterval: filestat.DefaultPollInterval},
	} {
		result, err := filestat.Run(t.Context(), opt, paths{items: inputs}, nil)
		require.NoError(t, err)
		assert.Equal(t, want, result.Stats, "options %+v", opt)
	}
}

func TestModeEquivalence(t *testing.T) {
	t.Parallel()

	inputs := fixture(t)

	serial, err := filestat.Run(t.Context(), filestat.Options{}, paths{items: inputs}, nil)
	require.NoError(t, err)
	require.Equal(t, filestat.ModeSerial, serial.Mode)
	require.True(t, serial.Stats.Valid())
	require.Equal(t, int64(len(inputs)-41), serial.Stats.Paths(), "empty inputs are not classified")

	for _, workers := range []int{1, 2, 3, 15, 64} {
		for _, poll := range []time.Duration{0, time.Millisecond} {
			for run := range 3 {
				t.Run(fmt.Sprintf("workers=%d/poll=%s/run=%d", workers, poll, run), func(t *testing.T) {
					t.Parallel()

					threaded, err := filestat.Run(t.Context(), filestat.Options{
						Mode:         filestat.ModeThread,
						Workers:      workers,
						PollInterval: poll,
					}, paths{items: inputs}, nil)
					require.NoError(t, err)

					assert.Equal(t, serial.Stats, threaded.Stats)
					assert.Equal(t, workers, threaded.Workers)
				})
			}
		}
	}
}

func TestExactlyOnce(t *testing.T) {
	t.Parallel()

	const n = 2000

	inputs := make([]string, 0, 2*n)
	for i := range n {
		inputs = append(inputs, fmt.Sprintf("path-%d", i), "")
	}

	for _, workers := range []int{1, 7, 32} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			t.Parallel()

			classifier := &counting{}

			dispatcher, err := filestat.NewDispatcher(workers, 0, classifier, zeroLog)
			require.NoError(t, err)

			stats, err := dispatcher.Run(t.Context(), paths{items: inputs})
			require.NoError(t, err)

			assert.Equal(t, int64(n), stats.RegularFiles)
			assert.Len(t, classifier.calls, n)

			for path, calls := range classifier.calls {
				assert.Equal(t, 1, calls, "path %s classified %d times", path, calls)
			}
		})
	}
}

func TestEmptyInputTerminates(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{1, 15} {
		for _, poll := range []time.Duration{0, filestat.DefaultPollInterval} {
			done := make(chan *filestat.Result)

			go func() {
				result, err := filestat.Run(context.Background(), filestat.Options{
					Mode:         filestat.ModeThread,
					Workers:      workers,
					PollInterval: poll,
				}, paths{}, nil)
				assert.NoError(t, err)
				done <- result
			}()

			select {
			case result := <-done:
				assert.Equal(t, filestat.Stats{}, result.Stats)
			case <-time.After(10 * time.Second):
				t.Fatalf("workers=%d poll=%s did not terminate", workers, poll)
			}
		}
	}
}

func TestInvalidWorkers(t *testing.T) {
	t.Parallel()

	for _, workers := range []int{0, -1} {
		var read atomic.Bool

		src := sourceFunc(func(context.Context, func(string) error) error {
			read.Store(true)

			return nil
		})

		classifier := &counting{}

		_, err := filestat.Run(t.Context(), filestat.Options{
			Mode:       filestat.ModeThread,
			Workers:    workers,
			Classifier: classifier,
		}, src, nil)

		require.ErrorIs(t, err, filestat.ErrInvalidWorkers)
		assert.False(t, read.Load(), "input must not be read")
		assert.Empty(t, classifier.calls)
	}
}

func TestUnknownMode(t *testing.T) {
	t.Parallel()

	_, err := filestat.Run(t.Context(), filestat.Options{Mode: "fork"}, paths{}, nil)
	require.ErrorIs(t, err, filestat.ErrUnknownMode)
}

type sourceFunc func(ctx context.Context, emit func(string) error) error

func (f sourceFunc) Paths(ctx context.Context, emit func(string) error) error {
	return f(ctx, emit)
}

func TestDispatcherLifecycle(t *testing.T) {
	t.Parallel()

	regular := filestat.ClassifierFunc(func(string) filestat.Stats {
		return filestat.Stats{RegularFiles: 1}
	})

	dispatcher, err := filestat.NewDispatcher(3, 0, regular, zeroLog)
	require.NoError(t, err)
	assert.Equal(t, filestat.StateIdle, dispatcher.State())

	src := sourceFunc(func(_ context.Context, emit func(string) error) error {
		assert.Equal(t, filestat.StateDispatching, dispatcher.State())

		return emit("a")
	})

	stats, err := dispatcher.Run(t.Context(), src)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.RegularFiles)
	assert.Equal(t, filestat.StateDone, dispatcher.State())
	assert.Equal(t, "done", dispatcher.State().String())

	_, err = dispatcher.Run(t.Context(), src)
	require.ErrorIs(t, err, filestat.ErrDispatcherReused)
}

func TestInputErrorStillDrains(t *testing.T) {
	t.Parallel()

	broken := errors.New("broken pipe")
	inputs := []string{"a", "b", "c"}

	for _, opt := range []filestat.Options{
		{Mode: filestat.ModeSerial},
		{Mode: filestat.ModeThread, Workers: 2},
	} {
		classifier := &counting{delay: time.Millisecond}
		opt.Classifier = classifier

		result, err := filestat.Run(t.Context(), opt, paths{items: inputs, err: broken}, nil)
		require.ErrorIs(t, err, broken)
		require.NotNil(t, result)
		assert.Equal(t, int64(3), result.Stats.RegularFiles, "queued paths are processed")
		assert.Len(t, classifier.calls, 3)
	}
}

func TestProgressHook(t *testing.T) {
	t.Parallel()

	inputs := make([]string, 50)
	for i := range inputs {
		inputs[i] = fmt.Sprintf("p%d", i)
	}

	for _, mode := range []filestat.Mode{filestat.ModeSerial, filestat.ModeThread} {
		var (
			mu      sync.Mutex
			updates []filestat.Progress
		)

		result, err := filestat.Run(t.Context(), filestat.Options{
			Mode:             mode,
			Workers:          2,
			ProgressInterval: time.Millisecond,
			Classifier:       &counting{delay: 2 * time.Millisecond},
		}, paths{items: inputs}, func(p filestat.Progress) {
			mu.Lock()
			defer mu.Unlock()

			updates = append(updates, p)
		})
		require.NoError(t, err)

		mu.Lock()
		got := updates
		mu.Unlock()

		require.NotEmpty(t, got, "mode %s", mode)

		for i, p := range got {
			assert.LessOrEqual(t, p.Classified, p.Pushed)
			assert.LessOrEqual(t, p.Classified, result.Stats.Paths())

			if i > 0 {
				assert.GreaterOrEqual(t, p.Classified, got[i-1].Classified)
			}
		}
	}
}
