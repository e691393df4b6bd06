package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vsinha/mrpengine/pkg/domain/repositories"
)

type lockHolder struct {
	runID   string
	expires time.Time
}

// RunLock is a process-local scope lock with expiry
type RunLock struct {
	mu      sync.Mutex
	holders map[string]lockHolder
	now     func() time.Time
}

// NewRunLock creates an empty lock table
func NewRunLock() *RunLock {
	return &RunLock{holders: make(map[string]lockHolder), now: time.Now}
}

// Verify interface compliance
var _ repositories.RunLock = (*RunLock)(nil)

// Acquire takes the scope for runID unless another unexpired holder has it.
// A zero ttl never expires.
func (l *RunLock) Acquire(_ context.Context, scope, runID string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if holder, held := l.holders[scope]; held && holder.runID != runID {
		if holder.expires.IsZero() || now.Before(holder.expires) {
			return false, nil
		}
	}

	var expires time.Time
	if ttl > 0 {
		expires = now.Add(ttl)
	}
	l.holders[scope] = lockHolder{runID: runID, expires: expires}
	return true, nil
}

// Release frees the scope if runID still holds it
func (l *RunLock) Release(_ context.Context, scope, runID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if holder, held := l.holders[scope]; held && holder.runID == runID {
		delete(l.holders, scope)
	}
	return nil
}
