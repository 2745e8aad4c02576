// Package filestat computes aggregate statistics over a stream of paths.
//
// Each path is classified as a bad path, a directory, a regular file (text or
// binary), or a special file. Paths are classified either serially or by a
// fixed pool of workers draining a shared queue and merging into a shared
// accumulator; both modes yield identical totals.
package filestat
