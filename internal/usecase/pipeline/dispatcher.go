package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/tablevox/agent/internal/domain/entities"
)

// runner lets tests dispatch against a fake processor.
type runner interface {
	Process(ctx context.Context, rec *entities.Recording) Result
}

// Dispatcher starts background processing for one recording at a time per
// id. It owns no queue: a rejected dispatch means the id is already being
// processed, and callers decide whether that is an error or a no-op.
type Dispatcher struct {
	proc     runner
	inflight *InFlight
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over a shared in-flight set. The same
// set must be handed to the recovery coordinator so startup reprocessing
// and live requests cannot double-process a recording.
func NewDispatcher(proc runner, inflight *InFlight, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{proc: proc, inflight: inflight, logger: logger}
}

// InFlight exposes the shared set for components that coordinate with the
// dispatcher rather than through it.
func (d *Dispatcher) InFlight() *InFlight {
	return d.inflight
}

// TryDispatch claims the recording and processes it on a new goroutine.
// Returns false when the id is already in flight. Processing runs on a
// background context: it must survive the request that triggered it.
func (d *Dispatcher) TryDispatch(rec *entities.Recording) bool {
	if !d.inflight.TryAcquire(rec.ID) {
		return false
	}

	go func() {
		defer d.inflight.Release(rec.ID)

		result := d.proc.Process(context.Background(), rec)
		if result.Completed() {
			return
		}
		d.logger.Warn("background processing failed",
			zap.String("recording_id", rec.ID.String()),
			zap.String("stage", string(result.Stage)),
			zap.String("message", result.Message),
		)
	}()
	return true
}
