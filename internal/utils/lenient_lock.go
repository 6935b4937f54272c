package utils

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/toyz/mockable/internal/errors"
)

// RecoveryMode controls how a LenientMutex behaves after a holder panicked
type RecoveryMode int

const (
	// RecoveryBestEffort keeps serving the last-committed contents after a panic
	RecoveryBestEffort RecoveryMode = iota
	// RecoveryStrict refuses every later acquisition once the lock is poisoned
	RecoveryStrict
)

// String returns the configuration spelling of the mode
func (m RecoveryMode) String() string {
	if m == RecoveryStrict {
		return "strict"
	}
	return "best-effort"
}

// ParseRecoveryMode converts a configuration value into a RecoveryMode
func ParseRecoveryMode(s string) (RecoveryMode, error) {
	switch s {
	case "", "best-effort":
		return RecoveryBestEffort, nil
	case "strict":
		return RecoveryStrict, nil
	default:
		return RecoveryBestEffort, errors.NewConfigError("lock_recovery", s, "best-effort", "strict")
	}
}

// LenientMutex is a read/write lock that survives panics in its critical section.
//
// A panic while the lock is held is recovered, the lock is released, and the
// mutex is marked poisoned. In best-effort mode later holders proceed with
// whatever state was last committed. In strict mode they get ErrPoisoned.
type LenientMutex struct {
	mu       sync.RWMutex
	poisoned atomic.Bool
	mode     RecoveryMode
}

// NewLenientMutex creates a lock with the given recovery mode
func NewLenientMutex(mode RecoveryMode) *LenientMutex {
	return &LenientMutex{mode: mode}
}

// SetMode changes the recovery mode
func (l *LenientMutex) SetMode(mode RecoveryMode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mode = mode
}

// Poisoned reports whether a holder has panicked
func (l *LenientMutex) Poisoned() bool {
	return l.poisoned.Load()
}

// ClearPoison resets the poisoned flag
func (l *LenientMutex) ClearPoison() {
	l.poisoned.Store(false)
}

// Write runs fn under the exclusive lock
func (l *LenientMutex) Write(fn func() error) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.run(fn)
}

// Read runs fn under the shared lock
func (l *LenientMutex) Read(fn func() error) (err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.run(fn)
}

func (l *LenientMutex) run(fn func() error) (err error) {
	if l.mode == RecoveryStrict && l.poisoned.Load() {
		return errors.New(errors.PoisonedErrorCode, "lock poisoned by an earlier panic").
			WithSuggestion("Use lock_recovery: best-effort to continue with the last committed state")
	}

	defer func() {
		if r := recover(); r != nil {
			l.poisoned.Store(true)
			err = errors.New(errors.PoisonedErrorCode, fmt.Sprintf("panic while holding lock: %v", r)).
				WithContext("panic", r)
		}
	}()

	return fn()
}
