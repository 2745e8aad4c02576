//go:build !unix

package timing

import "time"

// cpuTimes is not supported on this platform.
func cpuTimes() (user, system time.Duration) {
	return 0, 0
}
