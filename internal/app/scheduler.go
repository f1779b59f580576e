package app

import "time"

// Timer is a pending scheduled wake.
type Timer interface {
	// Stop cancels the wake; it reports false if it already fired or was stopped.
	Stop() bool
}

// Scheduler arms cancellable wakes. Callbacks run on their own goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallScheduler struct{}

// NewScheduler returns a Scheduler backed by time.AfterFunc.
func NewScheduler() Scheduler {
	return wallScheduler{}
}

func (wallScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
