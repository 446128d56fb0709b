package pipeline

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/tablevox/agent/errors"
	"github.com/tablevox/agent/internal/domain/entities"
	"github.com/tablevox/agent/internal/usecase/analysis"
)

// Uploader pushes raw audio to the object storage collaborator and returns
// a durable URL.
type Uploader interface {
	UploadAudio(ctx context.Context, restaurantID, recordingID string, data []byte, contentType string) (string, error)
}

// RecordUpserter mirrors a recording to the remote record backend. A record
// keyed by the same id is upserted with status pending at upload time; the
// remote side uses it for its own interrupted-work query.
type RecordUpserter interface {
	UpsertPending(ctx context.Context, rec *entities.Recording, audioURL string) error
}

// RecordingStore is the slice of the local store the processor mutates.
type RecordingStore interface {
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
}

// Processor advances one recording through upload and analysis. Each Process
// invocation is a single best-effort attempt that always terminates in
// completed or error; retries are caller-initiated, never internal. Status
// transitions are persisted through the store before the result is returned,
// so a crash mid-processing is always recoverable on the next load.
type Processor struct {
	store    RecordingStore
	uploader Uploader
	analyzer analysis.Analyzer
	remote   RecordUpserter
	logger   *zap.Logger
}

// NewProcessor creates a background processor.
func NewProcessor(store RecordingStore, uploader Uploader, analyzer analysis.Analyzer, remote RecordUpserter, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		store:    store,
		uploader: uploader,
		analyzer: analyzer,
		remote:   remote,
		logger:   logger,
	}
}

// Process runs the pipeline for one recording. Callers must hold the
// recording's id in an InFlight set for the duration of the call; the
// processor itself never persists "in flight", so interrupted invocations
// look like saved/uploading/processing and are safely retried.
func (p *Processor) Process(ctx context.Context, rec *entities.Recording) Result {
	log := p.logger.With(
		zap.String("recording_id", rec.ID.String()),
		zap.String("restaurant_id", rec.RestaurantID),
		zap.String("table_id", rec.TableID),
	)

	audioURL := ""
	if rec.AudioURL != nil {
		audioURL = *rec.AudioURL
	}

	// Stage 1: upload, skipped when a durable URL already exists
	// (retry after a failed analysis re-enters here and falls through).
	if rec.NeedsUpload() {
		if err := p.store.Update(ctx, rec.ID, map[string]interface{}{
			"status":        entities.RecordingStatusUploading,
			"error_message": nil,
		}); err != nil {
			log.Error("failed to persist uploading status", zap.Error(err))
			return failed(rec.ID, StageUpload, apperrors.ErrPersistenceFailure(err).Error())
		}

		url, err := p.uploader.UploadAudio(ctx, rec.RestaurantID, rec.ID.String(), rec.AudioData, "audio/wav")
		if err != nil {
			log.Error("upload failed", zap.Error(err))
			return p.fail(ctx, rec, StageUpload, err)
		}
		audioURL = url

		// Durable URL secured: the local copy of the audio may be dropped.
		if err := p.store.Update(ctx, rec.ID, map[string]interface{}{
			"status":     entities.RecordingStatusUploaded,
			"audio_url":  audioURL,
			"audio_data": nil,
		}); err != nil {
			log.Error("failed to persist uploaded status", zap.Error(err))
			return failed(rec.ID, StageUpload, apperrors.ErrPersistenceFailure(err).Error())
		}
		log.Info("audio uploaded", zap.String("audio_url", audioURL))

		// Mirror to the remote record backend as pending. Best-effort:
		// the remote-interrupted recovery pass covers a miss here.
		if p.remote != nil {
			if err := p.remote.UpsertPending(ctx, rec, audioURL); err != nil {
				log.Warn("remote record upsert failed", zap.Error(err))
			}
		}
	}

	// Stage 2: analysis, a single async call against the durable URL.
	if err := p.store.Update(ctx, rec.ID, map[string]interface{}{
		"status":        entities.RecordingStatusProcessing,
		"error_message": nil,
	}); err != nil {
		log.Error("failed to persist processing status", zap.Error(err))
		return failed(rec.ID, StageAnalysis, apperrors.ErrPersistenceFailure(err).Error())
	}

	result, err := p.analyzer.Analyze(ctx, analysis.Request{
		AudioURL:     audioURL,
		RestaurantID: rec.RestaurantID,
		TableID:      rec.TableID,
	})
	if err != nil {
		log.Error("analysis failed", zap.Error(err))
		return p.fail(ctx, rec, StageAnalysis, err)
	}

	keywords, err := analysis.MarshalKeywords(result.Keywords)
	if err != nil {
		log.Error("keyword encoding failed", zap.Error(err))
		return p.fail(ctx, rec, StageAnalysis, err)
	}

	if err := p.store.Update(ctx, rec.ID, map[string]interface{}{
		"status":        entities.RecordingStatusCompleted,
		"summary":       result.Summary,
		"sentiment":     result.Sentiment,
		"keywords":      keywords,
		"error_message": nil,
	}); err != nil {
		log.Error("failed to persist completed status", zap.Error(err))
		return failed(rec.ID, StageAnalysis, apperrors.ErrPersistenceFailure(err).Error())
	}

	log.Info("recording completed", zap.Float64("sentiment", result.Sentiment))
	return completed(rec.ID)
}

// fail records the classified error on the entity and returns the failed
// result. The entity is never deleted; the error becomes a retry affordance.
func (p *Processor) fail(ctx context.Context, rec *entities.Recording, stage Stage, cause error) Result {
	message := classify(stage, cause).Error()
	if err := p.store.Update(ctx, rec.ID, map[string]interface{}{
		"status":        entities.RecordingStatusError,
		"error_message": message,
	}); err != nil {
		p.logger.Error("failed to persist error status",
			zap.String("recording_id", rec.ID.String()),
			zap.Error(err),
		)
	}
	return failed(rec.ID, stage, message)
}

// classify maps a stage failure onto the application error taxonomy.
// Causes already carrying a class, like the storage and remote clients
// produce, keep it.
func classify(stage Stage, cause error) apperrors.AppError {
	var appErr apperrors.AppError
	if stdErrors.As(cause, &appErr) {
		return appErr
	}
	if stage == StageUpload {
		return apperrors.ErrUploadFailed(cause)
	}
	return apperrors.ErrAnalysisFailed(cause)
}
