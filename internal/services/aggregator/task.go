package aggregator

import (
	"context"
	"sync"
	"time"

	"github.com/vadiminshakov/bazar/internal/domain"
)

// task owns the refresh sequence of one domain.
// Every invocation gets a generation; only the newest generation may touch the store or the status.
type task struct {
	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	status domain.DomainStatus
}

// begin supersedes the running invocation, if any, and marks the domain as updating.
func (t *task) begin(parent context.Context) (context.Context, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	t.gen++
	t.cancel = cancel
	t.status.Updating = true

	return ctx, t.gen
}

// current reports whether gen is still the newest invocation.
func (t *task) current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return gen == t.gen
}

// apply runs fn under the task lock if gen is still current.
func (t *task) apply(gen uint64, fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen {
		return false
	}
	fn()
	return true
}

// succeed runs fn and records a completed refresh if gen is still current.
// The invocation context stays alive until done is called.
func (t *task) succeed(gen uint64, now time.Time, fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen {
		return false
	}
	if fn != nil {
		fn()
	}
	t.status = domain.DomainStatus{Updating: false, Completed: true, LastUpdate: &now}
	return true
}

// done cancels the invocation context of gen unless a newer invocation already owns it.
func (t *task) done(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen {
		return
	}
	t.release()
}

// fail resets the updating flag and keeps completed untouched.
func (t *task) fail(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen {
		return false
	}
	t.status.Updating = false
	t.release()
	return true
}

// skip ends an invocation that had nothing to do.
func (t *task) skip(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen {
		return
	}
	t.status.Updating = false
	t.release()
}

func (t *task) release() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *task) snapshot() domain.DomainStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.status
	if s.LastUpdate != nil {
		ts := *s.LastUpdate
		s.LastUpdate = &ts
	}
	return s
}
