package filestat

import (
	"errors"
	"io"
	"math"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// DefaultMaxRead is the default number of bytes inspected per regular file.
const DefaultMaxRead uint64 = 4_000_000_000

// readBufferSize is the chunk size used when inspecting file content.
const readBufferSize = 32 * 1024

// Classifier computes the Stats contribution of a single path.
// Implementations must be safe for concurrent use and must not fail:
// a path that cannot be inspected is reported through Stats.BadFiles.
type Classifier interface {
	Classify(path string) Stats
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(path string) Stats

// Classify calls f(path).
func (f ClassifierFunc) Classify(path string) Stats {
	return f(path)
}

// FileClassifier classifies paths on the local filesystem.
// Symbolic links are followed.
type FileClassifier struct {
	// MaxRead caps how many bytes of a regular file are inspected for
	// readability (0 = DefaultMaxRead). Byte totals always use the stat size.
	MaxRead uint64
	// Logger receives per-path diagnostics.
	Logger zerolog.Logger
}

// Classify stats path and, for regular files, inspects the content to decide
// whether it is human-readable text.
func (c FileClassifier) Classify(path string) Stats {
	var stats Stats

	info, err := os.Stat(path)
	if err != nil {
		c.Logger.Debug().Err(err).Str("path", path).Msg("stat failed")

		stats.BadFiles++

		return stats
	}

	switch mode := info.Mode(); {
	case mode.IsRegular():
		stats.RegularFiles++

		file, err := os.Open(path)
		if err != nil {
			// The file exists but its content cannot be inspected: counted, without bytes.
			c.Logger.Debug().Err(err).Str("path", path).Msg("open failed")

			return stats
		}
		defer file.Close()

		size := uint64(info.Size()) //nolint:gosec // Size of a regular file is never negative

		stats.RegularFileBytes += size

		if c.readable(file, path, size) {
			stats.TextFiles++
			stats.TextFileBytes += size
		}
	case mode.IsDir():
		stats.Directories++
	default:
		stats.SpecialFiles++
	}

	return stats
}

// readable reports whether every byte read from r, up to the size limit, is
// printable ASCII or ASCII whitespace.
func (c FileClassifier) readable(r io.Reader, path string, size uint64) bool {
	limit := c.limit()

	if size > limit {
		c.Logger.Warn().
			Str("path", path).
			Str("limit", humanize.Bytes(limit)).
			Msg("file exceeds maximum read size, classifying on its leading bytes")
	}

	limited := io.LimitReader(r, int64(limit)) //nolint:gosec // limit() is at most math.MaxInt64
	buf := make([]byte, readBufferSize)

	for {
		n, err := limited.Read(buf)
		for _, b := range buf[:n] {
			if !isText(b) {
				return false
			}
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.Logger.Debug().Err(err).Str("path", path).Msg("read failed")
			}

			return true
		}
	}
}

// limit is the effective read limit: MaxRead clamped to what io.LimitReader
// accepts, or DefaultMaxRead when unset.
func (c FileClassifier) limit() uint64 {
	switch {
	case c.MaxRead == 0:
		return DefaultMaxRead
	case c.MaxRead > math.MaxInt64:
		return math.MaxInt64
	default:
		return c.MaxRead
	}
}

// isText reports whether b is printable ASCII or ASCII whitespace.
func isText(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}

	return b >= 0x20 && b <= 0x7e
}
