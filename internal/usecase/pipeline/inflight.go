package pipeline

import (
	"sync"

	"github.com/google/uuid"
)

// InFlight tracks recording ids currently being processed in this session.
// It is deliberately never persisted: it is rebuilt empty on every process
// start, which is exactly what lets the recovery coordinator re-attempt work
// stranded by a previous session. Owned by whichever component orchestrates
// processing, not hidden global state.
type InFlight struct {
	mu  sync.Mutex
	ids map[uuid.UUID]struct{}
}

// NewInFlight creates an empty in-flight set.
func NewInFlight() *InFlight {
	return &InFlight{ids: make(map[uuid.UUID]struct{})}
}

// TryAcquire marks the id as in flight. Returns false if it already is,
// guaranteeing at most one concurrent Process invocation per recording.
func (f *InFlight) TryAcquire(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ids[id]; ok {
		return false
	}
	f.ids[id] = struct{}{}
	return true
}

// Release removes the id; the recording may be processed again.
func (f *InFlight) Release(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
}

// Has reports whether the id is currently in flight.
func (f *InFlight) Has(id uuid.UUID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.ids[id]
	return ok
}
