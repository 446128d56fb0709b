package recovery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tablevox/agent/internal/domain/entities"
	"github.com/tablevox/agent/internal/infrastructure/external/remote"
	"github.com/tablevox/agent/internal/usecase/pipeline"
	"github.com/tablevox/agent/pkg/config"
)

// Store is the slice of the recording store the coordinator reads.
type Store interface {
	NeedingRetry(ctx context.Context, restaurantID string) ([]*entities.Recording, error)
}

// RemoteLister surfaces recordings the remote backend still sees as pending.
type RemoteLister interface {
	ListPending(ctx context.Context, restaurantID string, olderThan time.Duration, limit int) ([]remote.PendingRecord, error)
}

// Processor advances a single recording through the pipeline.
type Processor interface {
	Process(ctx context.Context, rec *entities.Recording) pipeline.Result
}

// Coordinator resumes work interrupted by a previous crash or shutdown.
// It runs exactly once per process start, after an initial delay that
// keeps startup IO away from the first capture. Two passes run in order
// but fail independently: a remote pass that reports backend-side stale
// pending records, and a local pass that reprocesses recordings stranded
// in any non-terminal status, whether the crash hit mid-upload or
// mid-analysis.
type Coordinator struct {
	store     Store
	remote    RemoteLister
	processor Processor
	inflight  *pipeline.InFlight
	cfg       config.RecoveryConfig

	restaurantID string
	logger       *zap.Logger
	once         sync.Once
}

// NewCoordinator creates a recovery coordinator for one restaurant site.
func NewCoordinator(store Store, remoteLister RemoteLister, processor Processor, inflight *pipeline.InFlight, cfg config.RecoveryConfig, restaurantID string, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:        store,
		remote:       remoteLister,
		processor:    processor,
		inflight:     inflight,
		cfg:          cfg,
		restaurantID: restaurantID,
		logger:       logger,
	}
}

// Run waits the configured initial delay and executes both passes.
// Subsequent calls in the same process are no-ops.
func (c *Coordinator) Run(ctx context.Context) {
	c.once.Do(func() {
		if c.cfg.InitialDelay > 0 {
			select {
			case <-time.After(c.cfg.InitialDelay):
			case <-ctx.Done():
				return
			}
		}
		c.remotePass(ctx)
		c.localPass(ctx)
	})
}

// remotePass asks the backend which recordings it still considers
// pending past the staleness window. The agent only reports the count;
// reconciling backend state is the backend's job, but a nonzero count
// here is the first visible symptom of a stuck analysis queue.
func (c *Coordinator) remotePass(ctx context.Context) {
	if c.remote == nil {
		return
	}

	records, err := c.remote.ListPending(ctx, c.restaurantID, c.cfg.PendingMaxAge, c.cfg.PendingLimit)
	if err != nil {
		c.logger.Warn("remote recovery pass failed",
			zap.String("restaurant_id", c.restaurantID),
			zap.Error(err),
		)
		return
	}
	if len(records) == 0 {
		c.logger.Info("remote recovery pass clean", zap.String("restaurant_id", c.restaurantID))
		return
	}

	c.logger.Warn("remote backend reports stale pending recordings",
		zap.String("restaurant_id", c.restaurantID),
		zap.Int("count", len(records)),
		zap.Duration("older_than", c.cfg.PendingMaxAge),
	)
}

// localPass reprocesses recordings the store marks as interrupted.
// Concurrency is bounded by a worker-slot semaphore, and ids already
// claimed by a live request are skipped rather than queued.
func (c *Coordinator) localPass(ctx context.Context) {
	recs, err := c.store.NeedingRetry(ctx, c.restaurantID)
	if err != nil {
		c.logger.Error("local recovery pass failed",
			zap.String("restaurant_id", c.restaurantID),
			zap.Error(err),
		)
		return
	}
	if len(recs) == 0 {
		c.logger.Info("local recovery pass clean", zap.String("restaurant_id", c.restaurantID))
		return
	}

	c.logger.Info("resuming interrupted recordings",
		zap.String("restaurant_id", c.restaurantID),
		zap.Int("count", len(recs)),
	)

	maxConcurrency := c.cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 2
	}
	slots := make(chan struct{}, maxConcurrency)

	var wg sync.WaitGroup
	for _, rec := range recs {
		if ctx.Err() != nil {
			break
		}
		if !c.inflight.TryAcquire(rec.ID) {
			c.logger.Info("skipping recording already in flight", zap.String("recording_id", rec.ID.String()))
			continue
		}

		slots <- struct{}{}
		wg.Add(1)
		go func(rec *entities.Recording) {
			defer wg.Done()
			defer func() { <-slots }()
			defer c.inflight.Release(rec.ID)

			result := c.processor.Process(ctx, rec)
			if result.Completed() {
				c.logger.Info("recovered recording", zap.String("recording_id", rec.ID.String()))
				return
			}
			c.logger.Warn("recovery attempt failed",
				zap.String("recording_id", rec.ID.String()),
				zap.String("stage", string(result.Stage)),
				zap.String("message", result.Message),
			)
		}(rec)
	}
	wg.Wait()
}
