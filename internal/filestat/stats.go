package filestat

import (
	"sync"
)

// Stats holds per-kind path counts and byte totals.
// A value returned by a Classifier describes a single path; merged values
// describe a whole run.
type Stats struct {
	// BadFiles is the number of paths that could not be stat'ed.
	BadFiles int64 `json:"bad_files"`
	// Directories is the number of directories.
	Directories int64 `json:"directories"`
	// RegularFiles is the number of regular files, text files included.
	RegularFiles int64 `json:"regular_files"`
	// SpecialFiles is the number of paths that are neither regular files nor directories.
	SpecialFiles int64 `json:"special_files"`
	// RegularFileBytes is the cumulative size of all regular files.
	RegularFileBytes uint64 `json:"regular_file_bytes"`
	// TextFiles is the number of regular files judged human-readable.
	TextFiles int64 `json:"text_files"`
	// TextFileBytes is the cumulative size of all text files.
	TextFileBytes uint64 `json:"text_file_bytes"`
}

// Merge returns the field-wise sum of s and other.
func (s Stats) Merge(other Stats) Stats {
	return Stats{
		BadFiles:         s.BadFiles + other.BadFiles,
		Directories:      s.Directories + other.Directories,
		RegularFiles:     s.RegularFiles + other.RegularFiles,
		SpecialFiles:     s.SpecialFiles + other.SpecialFiles,
		RegularFileBytes: s.RegularFileBytes + other.RegularFileBytes,
		TextFiles:        s.TextFiles + other.TextFiles,
		TextFileBytes:    s.TextFileBytes + other.TextFileBytes,
	}
}

// Paths returns the number of classified paths the value accounts for.
func (s Stats) Paths() int64 {
	return s.BadFiles + s.Directories + s.RegularFiles + s.SpecialFiles
}

// Valid reports whether every text file is also accounted for as a regular file.
func (s Stats) Valid() bool {
	return s.BadFiles >= 0 &&
		s.Directories >= 0 &&
		s.SpecialFiles >= 0 &&
		s.TextFiles >= 0 &&
		s.TextFiles <= s.RegularFiles &&
		s.TextFileBytes <= s.RegularFileBytes
}

// Accumulator is the shared Stats value workers merge into.
// The zero value is ready to use.
type Accumulator struct {
	mu    sync.Mutex // Protect concurrent merges
	stats Stats
}

// MergeInPlace adds delta to the accumulated value.
// It is the only mutator; the lock is held for the addition only.
func (a *Accumulator) MergeInPlace(delta Stats) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats = a.stats.Merge(delta)
}

// Snapshot returns a copy of the accumulated value.
func (a *Accumulator) Snapshot() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.stats
}
