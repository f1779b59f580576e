package app_test

import (
	"sync"
	"time"

	"trivia-bot/internal/app"
)

// manualScheduler is a fake clock whose timers fire synchronously from Advance.
type manualScheduler struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
	// leaky makes Stop a no-op, like a timer that already fired and whose
	// callback is still waiting for the controller lock.
	leaky bool
}

type manualTimer struct {
	s       *manualScheduler
	at      time.Time
	f       func()
	done    bool
	stopped bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{now: time.Date(2024, 11, 22, 20, 0, 0, 0, time.UTC)}
}

func (s *manualScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) app.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{s: s, at: s.now.Add(d), f: f}
	s.timers = append(s.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.s.leaky || t.done || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d, firing due timers in deadline order.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()
	for {
		s.mu.Lock()
		var next *manualTimer
		for _, t := range s.timers {
			if t.done || t.stopped || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		next.done = true
		if next.at.After(s.now) {
			s.now = next.at
		}
		s.mu.Unlock()
		next.f()
	}
}

// Pending counts timers that can still fire.
func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.done && !t.stopped {
			n++
		}
	}
	return n
}
