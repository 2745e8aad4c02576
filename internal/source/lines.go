package source

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
)

// maxPathLength bounds a single input record.
const maxPathLength = 1 << 20

// Lines streams the records of a reader, one path per record.
// Empty records are skipped. With the default newline delimiter a trailing
// carriage return is dropped.
type Lines struct {
	// Reader is the input, typically os.Stdin.
	Reader io.Reader
	// Delim separates records. NUL is 0, so build Lines with NewLines.
	Delim byte
}

// NewLines returns a Lines source separating records by NUL if null is set,
// by newline otherwise.
func NewLines(r io.Reader, null bool) Lines {
	delim := byte('\n')
	if null {
		delim = 0
	}

	return Lines{Reader: r, Delim: delim}
}

// Paths calls emit for every non-empty record until the reader is exhausted
// or ctx is done. Records are scanned on a separate goroutine so that a
// cancelled ctx returns even while a read is blocked, e.g. on a terminal.
// That goroutine exits once the pending read returns.
func (l Lines) Paths(ctx context.Context, emit func(path string) error) error {
	records := make(chan string)
	scanned := make(chan error, 1)
	done := make(chan struct{})

	defer close(done)

	go func() {
		scanned <- l.scan(records, done)
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case path, ok := <-records:
			if !ok {
				return <-scanned
			}

			if err := emit(path); err != nil {
				return err
			}
		}
	}
}

// scan sends the non-empty records of the reader to records and closes it at
// end of input. It stops early when done is closed.
func (l Lines) scan(records chan<- string, done <-chan struct{}) error {
	defer close(records)

	scanner := bufio.NewScanner(l.Reader)
	scanner.Buffer(make([]byte, 0, 4096), maxPathLength)

	if l.Delim != '\n' {
		scanner.Split(scanDelimited(l.Delim))
	}

	for scanner.Scan() {
		path := scanner.Text()
		if path == "" {
			continue
		}

		select {
		case records <- path:
		case <-done:
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanning input: %w", err)
	}

	return nil
}

// scanDelimited is a bufio.SplitFunc that splits on delim.
func scanDelimited(delim byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}

		if i := bytes.IndexByte(data, delim); i >= 0 {
			return i + 1, data[:i], nil
		}

		if atEOF {
			return len(data), data, nil
		}

		return 0, nil, nil
	}
}
