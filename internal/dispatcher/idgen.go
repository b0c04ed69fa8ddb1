package dispatcher

import (
	"sync/atomic"
	"time"
)

// idClock hands out strictly increasing nanosecond timestamps for
// notification ids. Two callers hitting it in the same instant still get
// distinct values, so ids built from it never collide.
type idClock struct {
	last atomic.Int64
}

func (c *idClock) next() int64 {
	for {
		now := time.Now().UnixNano()
		last := c.last.Load()
		if now <= last {
			now = last + 1
		}
		if c.last.CompareAndSwap(last, now) {
			return now
		}
	}
}
