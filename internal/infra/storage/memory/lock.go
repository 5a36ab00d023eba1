package memory

import (
	"context"
	"time"

	"docchat-service/internal/domain"
)

// timedMutex is a mutual-exclusion guard whose acquisition gives up after a
// deadline instead of blocking indefinitely. Callers treat a timeout as
// retryable contention, not a fatal fault.
type timedMutex struct {
	ch chan struct{}
}

func newTimedMutex() *timedMutex {
	return &timedMutex{ch: make(chan struct{}, 1)}
}

// Lock acquires the guard, failing with domain.ErrLockTimeout once timeout
// elapses. Context cancellation also aborts the wait.
func (m *timedMutex) Lock(ctx context.Context, timeout time.Duration) error {
	select {
	case m.ch <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case m.ch <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *timedMutex) Unlock() {
	select {
	case <-m.ch:
	default:
		panic("memory: unlock of unlocked timedMutex")
	}
}
