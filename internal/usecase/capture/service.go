package capture

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/tablevox/agent/errors"
	"github.com/tablevox/agent/internal/domain/entities"
	"github.com/tablevox/agent/internal/usecase/pipeline"
)

// Store is the slice of the recording store the capture service writes.
type Store interface {
	Create(ctx context.Context, restaurantID, tableID string, duration int, audioData []byte) (*entities.Recording, error)
}

// Service drives the capture engine and hands finished payloads to the
// store and the background pipeline. One instance per agent process; the
// engine underneath enforces single-session semantics.
type Service struct {
	engine       *Engine
	store        Store
	dispatcher   *pipeline.Dispatcher
	restaurantID string
	logger       *zap.Logger

	saveMu sync.Mutex
}

// NewService creates the capture service.
func NewService(engine *Engine, store Store, dispatcher *pipeline.Dispatcher, restaurantID string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:       engine,
		store:        store,
		dispatcher:   dispatcher,
		restaurantID: restaurantID,
		logger:       logger,
	}
}

// Start begins a capture session for one table.
func (s *Service) Start(ctx context.Context, tableID string) error {
	return s.engine.Start(ctx, tableID)
}

// Pause suspends the running session.
func (s *Service) Pause() {
	s.engine.Pause()
}

// Resume continues a paused session.
func (s *Service) Resume() {
	s.engine.Resume()
}

// State reports the engine state and elapsed recording duration.
func (s *Service) State() (State, int) {
	return s.engine.State(), int(s.engine.Duration().Seconds())
}

// Levels exposes the amplitude sample stream.
func (s *Service) Levels() <-chan float64 {
	return s.engine.Levels()
}

// StopAndSave finalizes the session, persists the recording synchronously
// and dispatches background processing. The create is the durability
// checkpoint: a failure there is returned to the caller and nothing is
// dispatched, while a dispatch miss is invisible because recovery picks
// the saved recording up on the next start. Returns (nil, nil) when a
// concurrent stop already consumed the session.
func (s *Service) StopAndSave(ctx context.Context) (*entities.Recording, error) {
	// Serialized so concurrent stops cannot both claim a retained payload.
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	payload, err := s.engine.Stop(ctx)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		// A failed save leaves the finalized payload on the stopped
		// engine; a repeated stop re-attempts the save rather than
		// reporting the session as already consumed.
		if payload = s.engine.Payload(); payload == nil {
			return nil, nil
		}
	}

	rec, err := s.store.Create(ctx, s.restaurantID, payload.TableID, payload.Duration, payload.Audio)
	if err != nil {
		s.logger.Error("failed to persist captured recording",
			zap.String("table_id", payload.TableID),
			zap.Error(err),
		)
		return nil, errors.ErrPersistenceFailure(err)
	}

	// Session consumed; the engine is free for the next table.
	s.engine.Reset()

	s.logger.Info("recording saved",
		zap.String("recording_id", rec.ID.String()),
		zap.String("table_id", rec.TableID),
		zap.Int("duration_seconds", rec.Duration),
	)

	s.dispatcher.TryDispatch(rec)
	return rec, nil
}

// Reset discards a stopped session without saving.
func (s *Service) Reset() {
	s.engine.Reset()
}
