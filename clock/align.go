// Copyright (c) 2025 BVK Chaitanya

package clock

import "time"

// AlignedWait returns the time left till the next multiple of interval
// (counted from the unix epoch). The result is never zero: when now is
// exactly on a boundary the full interval is returned.
func AlignedWait(now time.Time, interval time.Duration) time.Duration {
	ms := interval.Milliseconds()
	if ms <= 0 {
		return interval
	}
	wait := ms - now.UnixMilli()%ms
	if wait == 0 {
		wait = ms
	}
	return time.Duration(wait) * time.Millisecond
}
