// Package timing measures the wall-clock and CPU time spent by the process.
package timing

import (
	"time"
)

// Usage is the time spent between Start and Sample.Stop.
type Usage struct {
	// Wall is the elapsed wall-clock time.
	Wall time.Duration `json:"wall"`
	// User is the CPU time spent in user mode.
	User time.Duration `json:"user"`
	// System is the CPU time spent in kernel mode.
	System time.Duration `json:"system"`
}

// Sample is a starting point for a measurement.
type Sample struct {
	start  time.Time
	user   time.Duration
	system time.Duration
}

// Start records the current wall-clock time and process CPU times.
func Start() Sample {
	user, system := cpuTimes()

	return Sample{start: time.Now(), user: user, system: system}
}

// Stop returns the usage accumulated since s was taken.
func (s Sample) Stop() Usage {
	wall := time.Since(s.start)
	user, system := cpuTimes()

	return Usage{
		Wall:   wall,
		User:   user - s.user,
		System: system - s.system,
	}
}
