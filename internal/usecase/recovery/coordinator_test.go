package recovery

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tablevox/agent/internal/domain/entities"
	"github.com/tablevox/agent/internal/infrastructure/external/remote"
	"github.com/tablevox/agent/internal/usecase/pipeline"
	"github.com/tablevox/agent/pkg/config"
)

type fakeStore struct {
	recs []*entities.Recording
	err  error
}

func (f *fakeStore) NeedingRetry(ctx context.Context, restaurantID string) ([]*entities.Recording, error) {
	return f.recs, f.err
}

type fakeRemote struct {
	records []remote.PendingRecord
	err     error
	calls   int32
}

func (f *fakeRemote) ListPending(ctx context.Context, restaurantID string, olderThan time.Duration, limit int) ([]remote.PendingRecord, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.records, f.err
}

type fakeProcessor struct {
	mu        sync.Mutex
	processed []uuid.UUID
	active    int32
	maxActive int32
	delay     time.Duration
}

func (f *fakeProcessor) Process(ctx context.Context, rec *entities.Recording) pipeline.Result {
	cur := atomic.AddInt32(&f.active, 1)
	for {
		max := atomic.LoadInt32(&f.maxActive)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxActive, max, cur) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	atomic.AddInt32(&f.active, -1)

	f.mu.Lock()
	f.processed = append(f.processed, rec.ID)
	f.mu.Unlock()
	return pipeline.Result{RecordingID: rec.ID, Outcome: pipeline.OutcomeCompleted}
}

func interrupted(n int) []*entities.Recording {
	recs := make([]*entities.Recording, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, &entities.Recording{
			ID:           uuid.New(),
			RestaurantID: "rest-1",
			Status:       entities.RecordingStatusSaved,
		})
	}
	return recs
}

func TestRun_ProcessesInterruptedRecordings(t *testing.T) {
	recs := interrupted(3)
	proc := &fakeProcessor{}
	c := NewCoordinator(&fakeStore{recs: recs}, &fakeRemote{}, proc, pipeline.NewInFlight(),
		config.RecoveryConfig{MaxConcurrency: 2}, "rest-1", nil)

	c.Run(context.Background())

	if len(proc.processed) != 3 {
		t.Fatalf("expected 3 processed, got %d", len(proc.processed))
	}
}

func TestRun_RemoteFailureDoesNotBlockLocalPass(t *testing.T) {
	recs := interrupted(2)
	proc := &fakeProcessor{}
	rem := &fakeRemote{err: errors.New("backend unreachable")}
	c := NewCoordinator(&fakeStore{recs: recs}, rem, proc, pipeline.NewInFlight(),
		config.RecoveryConfig{MaxConcurrency: 2}, "rest-1", nil)

	c.Run(context.Background())

	if atomic.LoadInt32(&rem.calls) != 1 {
		t.Fatalf("expected one remote call, got %d", rem.calls)
	}
	if len(proc.processed) != 2 {
		t.Fatalf("local pass should still run, processed %d", len(proc.processed))
	}
}

func TestRun_SkipsInFlightRecordings(t *testing.T) {
	recs := interrupted(2)
	inflight := pipeline.NewInFlight()
	if !inflight.TryAcquire(recs[0].ID) {
		t.Fatal("acquire failed")
	}

	proc := &fakeProcessor{}
	c := NewCoordinator(&fakeStore{recs: recs}, &fakeRemote{}, proc, inflight,
		config.RecoveryConfig{MaxConcurrency: 2}, "rest-1", nil)

	c.Run(context.Background())

	if len(proc.processed) != 1 {
		t.Fatalf("expected 1 processed, got %d", len(proc.processed))
	}
	if proc.processed[0] != recs[1].ID {
		t.Fatal("processed the in-flight recording instead of skipping it")
	}
	if !inflight.Has(recs[0].ID) {
		t.Fatal("coordinator must not release an id it never acquired")
	}
	if inflight.Has(recs[1].ID) {
		t.Fatal("processed id should be released after the pass")
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	recs := interrupted(6)
	proc := &fakeProcessor{delay: 20 * time.Millisecond}
	c := NewCoordinator(&fakeStore{recs: recs}, &fakeRemote{}, proc, pipeline.NewInFlight(),
		config.RecoveryConfig{MaxConcurrency: 2}, "rest-1", nil)

	c.Run(context.Background())

	if got := atomic.LoadInt32(&proc.maxActive); got > 2 {
		t.Fatalf("expected at most 2 concurrent, saw %d", got)
	}
	if len(proc.processed) != 6 {
		t.Fatalf("expected 6 processed, got %d", len(proc.processed))
	}
}

func TestRun_OnlyOncePerProcess(t *testing.T) {
	recs := interrupted(1)
	proc := &fakeProcessor{}
	rem := &fakeRemote{}
	c := NewCoordinator(&fakeStore{recs: recs}, rem, proc, pipeline.NewInFlight(),
		config.RecoveryConfig{}, "rest-1", nil)

	c.Run(context.Background())
	c.Run(context.Background())

	if atomic.LoadInt32(&rem.calls) != 1 {
		t.Fatalf("expected one remote pass, got %d", rem.calls)
	}
	if len(proc.processed) != 1 {
		t.Fatalf("expected one processing attempt, got %d", len(proc.processed))
	}
}

func TestRun_HonorsInitialDelayCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := &fakeProcessor{}
	rem := &fakeRemote{}
	c := NewCoordinator(&fakeStore{recs: interrupted(1)}, rem, proc, pipeline.NewInFlight(),
		config.RecoveryConfig{InitialDelay: time.Hour}, "rest-1", nil)

	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
	if atomic.LoadInt32(&rem.calls) != 0 || len(proc.processed) != 0 {
		t.Fatal("cancelled run must not execute passes")
	}
}
