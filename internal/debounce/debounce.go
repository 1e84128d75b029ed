// Package debounce coalesces rapidly changing input into a single delayed
// emission.
package debounce

import (
	"sync"
	"time"
)

// Scheduler delays a callback until its input has been stable for a period.
// Every Schedule restarts the timer and supersedes the previous value; only
// the last value scheduled before the delay elapses is emitted.
type Scheduler[T any] struct {
	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// New returns an idle Scheduler.
func New[T any]() *Scheduler[T] {
	return &Scheduler[T]{}
}

// Schedule arms the timer for value, cancelling any pending emission. fire
// runs on its own goroutine after delay unless Schedule or Cancel is called
// again first.
func (s *Scheduler[T]) Schedule(value T, delay time.Duration, fire func(T)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.seq++
	seq := s.seq
	s.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if s.seq != seq {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()

		fire(value)
	})
}

// Cancel drops the pending emission, if any. It is safe to call repeatedly
// and on an idle Scheduler.
func (s *Scheduler[T]) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.seq++
}

// Pending reports whether an emission is armed.
func (s *Scheduler[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler[T]) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
