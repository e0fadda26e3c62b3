package runner

import (
	"sync"
	"time"
)

// DeadlineState is the process-wide record of the governed phase's deadline.
// It is created by the first governed invocation and consulted by every
// later one in the same process lifetime; once expired it stays expired.
//
// Governed invocations never run concurrently with each other (the second
// batch is issued only after the first fully returns), but the state is
// mutex-guarded anyway so the discipline is explicit rather than assumed.
type DeadlineState struct {
	mu          sync.Mutex
	initialized bool
	deadline    time.Time
	expired     bool
}

// NewDeadlineState creates an uninitialized deadline state
func NewDeadlineState() *DeadlineState {
	return &DeadlineState{}
}

// EnsureInitialized establishes the deadline on the first call and returns
// it; later calls return the already-established deadline unchanged.
func (s *DeadlineState) EnsureInitialized(now time.Time, window time.Duration) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.deadline = now.Add(window)
		s.initialized = true
	}
	return s.deadline
}

// Initialized reports whether a deadline has been established
func (s *DeadlineState) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Deadline returns the established deadline; zero if uninitialized
func (s *DeadlineState) Deadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deadline
}

// IsExpired reports whether the deadline has elapsed. Observing elapsed
// wall time marks the state expired, so later callers see it without
// re-checking the clock.
func (s *DeadlineState) IsExpired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.expired {
		return true
	}
	if s.initialized && now.After(s.deadline) {
		s.expired = true
		return true
	}
	return false
}

// MarkExpired records that the deadline elapsed. Irreversible.
func (s *DeadlineState) MarkExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = true
}
