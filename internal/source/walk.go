package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/rs/zerolog"
)

// Walk streams the root directory and every entry below it.
// Symbolic links are reported but not followed.
type Walk struct {
	// Root is the directory to traverse.
	Root string
	// Depth is the maximum traversal depth (0=unlimited).
	Depth int
	// Excludes skips entries whose slash-separated path matches any pattern.
	Excludes []*regexp.Regexp
	// Logger receives debug output about skipped entries.
	Logger zerolog.Logger
}

// CompilePatterns compiles exclusion regexes.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compiling exclusion pattern %q: %w", p, err)
		}

		compiled = append(compiled, re)
	}

	return compiled, nil
}

// calculateDepth returns the depth of a path relative to the root.
func calculateDepth(path, root string) int {
	relPath := strings.TrimPrefix(path, root)

	relPath = strings.TrimPrefix(relPath, string(filepath.Separator))
	if relPath == "" {
		return 0
	}

	return strings.Count(relPath, string(filepath.Separator)) + 1
}

// shouldExcludeByPattern returns the first pattern matching path, or nil.
func shouldExcludeByPattern(path string, patterns []*regexp.Regexp) *regexp.Regexp {
	if len(patterns) == 0 {
		return nil
	}

	fPath := filepath.ToSlash(path)

	for _, re := range patterns {
		if re.MatchString(fPath) {
			return re
		}
	}

	return nil
}

// Paths emits the root, then every entry fastwalk reports below it.
// fastwalk invokes its callback from several goroutines; emit calls are serialized.
//
//nolint:varnamelen // d is standard for DirEntry
func (w Walk) Paths(ctx context.Context, emit func(path string) error) error {
	log := w.Logger
	root := filepath.Clean(w.Root)

	if info, err := os.Stat(root); err != nil {
		return fmt.Errorf("accessing path %q: %w", root, err)
	} else if !info.IsDir() {
		return fmt.Errorf("path %q is not a directory", root)
	}

	if err := emit(root); err != nil {
		return err
	}

	var mu sync.Mutex

	conf := &fastwalk.Config{
		Follow: false, // Don't follow symlinks
	}

	return fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug().Err(err).Str("path", path).Msg("error accessing path")

			return nil // Silently skip errors
		}

		if path == root {
			return nil
		}

		// Check cancellation periodically
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if w.Depth > 0 && calculateDepth(path, root) > w.Depth {
			if d.IsDir() {
				log.Debug().Int("depth", w.Depth).Str("path", path).Msg("skipping directory beyond depth")

				return filepath.SkipDir
			}

			return nil
		}

		if re := shouldExcludeByPattern(path, w.Excludes); re != nil {
			log.Debug().Str("path", filepath.ToSlash(path)).Stringer("regex", re).Msg("excluding path")

			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		mu.Lock()
		defer mu.Unlock()

		return emit(path)
	})
}
