package core

import (
	"errors"
	"fmt"
	"sync"
)

// ErrTurnLimit signals that the hard per-exchange turn ceiling was reached.
var ErrTurnLimit = errors.New("turn limit exceeded")

// TurnLimiter enforces a maximum number of agent turns per exchange. The
// count is monotonically non-decreasing; it exists to guarantee termination
// even when the selector never decides to stop.
type TurnLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewTurnLimiter creates a new limiter with a max number of turns.
// If max == 0, unlimited turns are allowed.
func NewTurnLimiter(max int) *TurnLimiter {
	return &TurnLimiter{max: max}
}

// Increment increases the turn counter and returns ErrTurnLimit if the
// ceiling is exceeded.
func (tl *TurnLimiter) Increment() error {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.count++
	if tl.max > 0 && tl.count > tl.max {
		return fmt.Errorf("%w: %d", ErrTurnLimit, tl.max)
	}

	return nil
}

// Count returns the number of turns taken so far.
func (tl *TurnLimiter) Count() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	return tl.count
}

// Remaining returns how many turns are left before hitting the limit, or -1
// when unlimited.
func (tl *TurnLimiter) Remaining() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.max == 0 {
		return -1
	}

	return tl.max - tl.count
}
