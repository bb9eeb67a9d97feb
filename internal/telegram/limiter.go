package telegram

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// chatLimiter applies a per-chat token bucket so one chat flooding files does
// not monopolize transfer slots. Zero or negative perMinute disables limiting.
type chatLimiter struct {
	mu        sync.Mutex
	perMinute int
	buckets   map[int64]*rate.Limiter
}

func newChatLimiter(perMinute int) *chatLimiter {
	return &chatLimiter{
		perMinute: perMinute,
		buckets:   make(map[int64]*rate.Limiter),
	}
}

func (l *chatLimiter) Allow(chatID int64) bool {
	if l.perMinute <= 0 {
		return true
	}
	l.mu.Lock()
	bucket, ok := l.buckets[chatID]
	if !ok {
		bucket = rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute)
		l.buckets[chatID] = bucket
	}
	l.mu.Unlock()
	return bucket.Allow()
}
