package jobs

import (
	"context"
	"sync"
)

// cancelRegistry tracks the cancel func of every in-flight job.
type cancelRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelCauseFunc
	closed  bool
}

func newCancelRegistry() *cancelRegistry {
	return &cancelRegistry{cancels: make(map[string]context.CancelCauseFunc)}
}

// add registers cancel for jobID. It returns false once cancelAll has run.
func (r *cancelRegistry) add(jobID string, cancel context.CancelCauseFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.cancels[jobID] = cancel
	return true
}

func (r *cancelRegistry) remove(jobID string) {
	r.mu.Lock()
	delete(r.cancels, jobID)
	r.mu.Unlock()
}

// cancel stops jobID with cause and reports whether it was running here.
func (r *cancelRegistry) cancel(jobID string, cause error) bool {
	r.mu.Lock()
	fn, ok := r.cancels[jobID]
	r.mu.Unlock()
	if ok {
		fn(cause)
	}
	return ok
}

func (r *cancelRegistry) cancelAll(cause error) {
	r.mu.Lock()
	r.closed = true
	fns := make([]context.CancelCauseFunc, 0, len(r.cancels))
	for _, fn := range r.cancels {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(cause)
	}
}

func (r *cancelRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}
