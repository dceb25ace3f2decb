package chat

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MinMessageInterval is the least time between two accepted messages from
// one connection.
const MinMessageInterval = 500 * time.Millisecond

// limiter keeps one token bucket of size one per connection, so a message
// is accepted only when interval has passed since the last accepted one.
type limiter struct {
	interval time.Duration
	buckets  map[ConnID]*rate.Limiter
	lock     sync.Mutex
}

func newLimiter(interval time.Duration) *limiter {
	return &limiter{interval: interval, buckets: make(map[ConnID]*rate.Limiter)}
}

func (l *limiter) allow(id ConnID, now time.Time) bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	bucket, exists := l.buckets[id]
	if !exists {
		bucket = rate.NewLimiter(rate.Every(l.interval), 1)
		l.buckets[id] = bucket
	}
	return bucket.AllowN(now, 1)
}

func (l *limiter) forget(id ConnID) {
	l.lock.Lock()
	defer l.lock.Unlock()
	delete(l.buckets, id)
}

func (l *limiter) tracked() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.buckets)
}
