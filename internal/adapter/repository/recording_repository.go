package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tablevox/agent/internal/domain/entities"
)

// RecordingRepository is the local recording store: the single source of
// truth for what has been captured on this device and what state it is in.
type RecordingRepository struct {
	db *gorm.DB
}

// NewRecordingRepository creates a new recording repository
func NewRecordingRepository(db *gorm.DB) *RecordingRepository {
	return &RecordingRepository{db: db}
}

// Create persists a freshly captured recording synchronously. This is the
// durability checkpoint: once it returns nil the recording survives a process
// restart even if nothing else ever runs.
func (r *RecordingRepository) Create(ctx context.Context, restaurantID, tableID string, duration int, audioData []byte) (*entities.Recording, error) {
	rec := &entities.Recording{
		ID:           uuid.New(),
		RestaurantID: restaurantID,
		TableID:      tableID,
		Timestamp:    r.db.NowFunc(),
		Duration:     duration,
		AudioData:    audioData,
		Status:       entities.RecordingStatusSaved,
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// FindByID retrieves a recording by ID
func (r *RecordingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Recording, error) {
	var rec entities.Recording
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// List retrieves all recordings for a restaurant, newest first
func (r *RecordingRepository) List(ctx context.Context, restaurantID string) ([]*entities.Recording, error) {
	var recs []*entities.Recording
	if err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("timestamp DESC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// NeedingRetry returns recordings a previous run left in a non-terminal
// status: captured but never confirmed uploaded, or uploaded with the
// analysis never confirmed finished. Completed and error stay out; error
// is a retry affordance for the operator, not for recovery.
func (r *RecordingRepository) NeedingRetry(ctx context.Context, restaurantID string) ([]*entities.Recording, error) {
	var recs []*entities.Recording
	if err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Where("status IN ?", []entities.RecordingStatus{
			entities.RecordingStatusSaved,
			entities.RecordingStatusUploading,
			entities.RecordingStatusUploaded,
			entities.RecordingStatusProcessing,
		}).
		Order("timestamp ASC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// Update merges the given fields into the stored entity. Used by the
// background processor and the recovery coordinator to advance status and
// attach results or errors.
func (r *RecordingRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Recording{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the entity permanently. Recordings are never deleted by the
// pipeline itself, only by explicit operator action.
func (r *RecordingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&entities.Recording{}, "id = ?", id).Error
}
