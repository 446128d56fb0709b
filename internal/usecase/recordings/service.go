package recordings

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tablevox/agent/errors"
	"github.com/tablevox/agent/internal/domain/entities"
	"github.com/tablevox/agent/internal/usecase/pipeline"
)

// Store is the slice of the recording store this service needs.
type Store interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Recording, error)
	List(ctx context.Context, restaurantID string) ([]*entities.Recording, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes the recording collection to operators: listing history,
// deleting entries and retrying failed ones. All lookups are scoped to the
// caller's restaurant.
type Service struct {
	store      Store
	dispatcher *pipeline.Dispatcher
	logger     *zap.Logger
}

// NewService creates the recordings service.
func NewService(store Store, dispatcher *pipeline.Dispatcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, dispatcher: dispatcher, logger: logger}
}

// List returns the restaurant's recordings, newest first.
func (s *Service) List(ctx context.Context, restaurantID string) ([]*entities.Recording, error) {
	recs, err := s.store.List(ctx, restaurantID)
	if err != nil {
		return nil, errors.ErrPersistenceFailure(err)
	}
	return recs, nil
}

// Get returns one recording, or RecordingNotFound outside the tenant scope.
func (s *Service) Get(ctx context.Context, restaurantID string, id uuid.UUID) (*entities.Recording, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, errors.ErrPersistenceFailure(err)
	}
	if rec == nil || rec.RestaurantID != restaurantID {
		return nil, errors.ErrRecordingNotFound(id.String())
	}
	return rec, nil
}

// Delete removes a recording permanently. Deletion is always operator
// initiated; the pipeline never deletes on failure.
func (s *Service) Delete(ctx context.Context, restaurantID string, id uuid.UUID) error {
	rec, err := s.Get(ctx, restaurantID, id)
	if err != nil {
		return err
	}
	if s.dispatcher.InFlight().Has(rec.ID) {
		return errors.ErrAlreadyProcessing(rec.ID.String())
	}
	if err := s.store.Delete(ctx, rec.ID); err != nil {
		return errors.ErrPersistenceFailure(err)
	}
	s.logger.Info("recording deleted", zap.String("recording_id", rec.ID.String()))
	return nil
}

// Retry resets a failed recording to the furthest status its persisted
// data supports and dispatches a fresh processing attempt. Audio still
// held resets to saved; a durable URL resets to uploaded so the upload
// stage is skipped.
func (s *Service) Retry(ctx context.Context, restaurantID string, id uuid.UUID) (*entities.Recording, error) {
	rec, err := s.Get(ctx, restaurantID, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != entities.RecordingStatusError {
		return nil, errors.ErrInvalidArgument("only failed recordings can be retried")
	}
	if s.dispatcher.InFlight().Has(rec.ID) {
		return nil, errors.ErrAlreadyProcessing(rec.ID.String())
	}

	retryStatus := rec.RetryStatus()
	if err := s.store.Update(ctx, rec.ID, map[string]interface{}{
		"status":        retryStatus,
		"error_message": nil,
	}); err != nil {
		return nil, errors.ErrPersistenceFailure(err)
	}
	rec.Status = retryStatus
	rec.ErrorMessage = nil

	if !s.dispatcher.TryDispatch(rec) {
		return nil, errors.ErrAlreadyProcessing(rec.ID.String())
	}

	s.logger.Info("recording retry dispatched",
		zap.String("recording_id", rec.ID.String()),
		zap.String("reset_to", string(retryStatus)),
	)
	return rec, nil
}
