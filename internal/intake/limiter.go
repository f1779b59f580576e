package intake

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// cleanupThreshold is the minimum map size before a cleanup pass runs.
	cleanupThreshold = 500
	// maxIdleAge is the duration after which an idle sender entry is eligible for cleanup.
	maxIdleAge = 10 * time.Minute
)

type senderEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SenderLimiter throttles answers per sender and prunes stale entries inline.
type SenderLimiter struct {
	senders map[string]*senderEntry
	mu      sync.Mutex
	r       rate.Limit
	b       int
}

func NewSenderLimiter(perSecond float64, burst int) *SenderLimiter {
	return &SenderLimiter{
		senders: make(map[string]*senderEntry),
		r:       rate.Limit(perSecond),
		b:       burst,
	}
}

// Allow reports whether sender may submit at instant at.
func (l *SenderLimiter) Allow(sender string, at time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.senders) > cleanupThreshold {
		cutoff := at.Add(-maxIdleAge)
		for k, e := range l.senders {
			if e.lastSeen.Before(cutoff) {
				delete(l.senders, k)
			}
		}
	}

	e, ok := l.senders[sender]
	if !ok {
		e = &senderEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.senders[sender] = e
	}
	e.lastSeen = at
	return e.limiter.AllowN(at, 1)
}
