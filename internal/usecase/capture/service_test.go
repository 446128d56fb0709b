package capture

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	stdErrors "errors"

	apperrors "github.com/tablevox/agent/errors"
	"github.com/tablevox/agent/internal/domain/entities"
	"github.com/tablevox/agent/internal/usecase/pipeline"

	"github.com/google/uuid"
)

// flakyStore fails the first N creates, then succeeds.
type flakyStore struct {
	failures int32
	creates  int32
}

func (s *flakyStore) Create(ctx context.Context, restaurantID, tableID string, duration int, audioData []byte) (*entities.Recording, error) {
	n := atomic.AddInt32(&s.creates, 1)
	if n <= atomic.LoadInt32(&s.failures) {
		return nil, stdErrors.New("disk full")
	}
	return &entities.Recording{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		TableID:      tableID,
		Duration:     duration,
		AudioData:    audioData,
		Status:       entities.RecordingStatusSaved,
	}, nil
}

type noopProcessor struct{}

func (noopProcessor) Process(ctx context.Context, rec *entities.Recording) pipeline.Result {
	return pipeline.Result{RecordingID: rec.ID, Outcome: pipeline.OutcomeCompleted}
}

func newTestService(t *testing.T, store *flakyStore) *Service {
	t.Helper()
	engine := NewEngine(newFakeDevice(), 10*time.Millisecond, nil)
	t.Cleanup(func() { engine.Close() })
	dispatcher := pipeline.NewDispatcher(noopProcessor{}, pipeline.NewInFlight(), nil)
	return NewService(engine, store, dispatcher, "rest-1", nil)
}

func TestStopAndSave_PersistsAndDispatches(t *testing.T) {
	store := &flakyStore{}
	svc := newTestService(t, store)

	if err := svc.Start(context.Background(), "A3"); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	rec, err := svc.StopAndSave(context.Background())
	if err != nil {
		t.Fatalf("stop and save: %v", err)
	}
	if rec == nil || rec.TableID != "A3" {
		t.Fatalf("expected saved recording for table A3, got %+v", rec)
	}

	// session consumed: the engine is idle and a repeated stop is a no-op
	if state, _ := svc.State(); state != StateIdle {
		t.Fatalf("expected idle after save, got %s", state)
	}
	dup, err := svc.StopAndSave(context.Background())
	if err != nil || dup != nil {
		t.Fatalf("duplicate stop should be a no-op, got rec=%v err=%v", dup, err)
	}
	if atomic.LoadInt32(&store.creates) != 1 {
		t.Fatalf("expected exactly one create, got %d", store.creates)
	}
}

func TestStopAndSave_RetriesAfterPersistenceFailure(t *testing.T) {
	store := &flakyStore{failures: 1}
	svc := newTestService(t, store)

	if err := svc.Start(context.Background(), "A3"); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	// first stop finalizes the payload but the save fails
	rec, err := svc.StopAndSave(context.Background())
	if err == nil {
		t.Fatal("expected persistence failure")
	}
	var appErr apperrors.AppError
	if !stdErrors.As(err, &appErr) || appErr.Code != apperrors.ErrorCode_PERSISTENCE_FAILURE {
		t.Fatalf("expected PERSISTENCE_FAILURE, got %v", err)
	}
	if rec != nil {
		t.Fatal("no recording must be reported when the save failed")
	}

	// the payload survives on the stopped engine; a repeated stop
	// re-attempts the save instead of reporting success
	rec, err = svc.StopAndSave(context.Background())
	if err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if rec == nil || rec.TableID != "A3" {
		t.Fatalf("expected the retained payload to be saved, got %+v", rec)
	}
	if len(rec.AudioData) == 0 {
		t.Fatal("saved recording must carry the captured audio")
	}
	if atomic.LoadInt32(&store.creates) != 2 {
		t.Fatalf("expected two create attempts, got %d", store.creates)
	}
	if state, _ := svc.State(); state != StateIdle {
		t.Fatalf("expected idle after the retried save, got %s", state)
	}
}
