package storage

import (
	"sync/atomic"
	"time"
)

var lastMillis int64

// Now returns the current UTC time at millisecond precision. Successive calls return
// strictly increasing values so updatedAt always moves forward.
func Now() time.Time {
	for {
		now := time.Now().UnixMilli()
		last := atomic.LoadInt64(&lastMillis)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastMillis, last, now) {
			return time.UnixMilli(now).UTC()
		}
	}
}
