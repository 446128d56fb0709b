package presenter

import (
	"encoding/json"

	"github.com/tablevox/agent/internal/adapter/dto/recording"
	"github.com/tablevox/agent/internal/domain/entities"
)

// ToRecordingResponse maps a recording entity to its API shape.
func ToRecordingResponse(rec *entities.Recording) *recording.Response {
	resp := &recording.Response{
		ID:              rec.ID.String(),
		TableID:         rec.TableID,
		Timestamp:       rec.Timestamp,
		DurationSeconds: rec.Duration,
		Status:          string(rec.Status),
		AudioURL:        rec.AudioURL,
		ErrorMessage:    rec.ErrorMessage,
		Summary:         rec.Summary,
		Sentiment:       rec.Sentiment,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}

	if len(rec.Keywords) > 0 {
		var keywords []string
		if err := json.Unmarshal(rec.Keywords, &keywords); err == nil {
			resp.Keywords = keywords
		}
	}

	return resp
}

// ToRecordingListResponse maps a recording slice to the list API shape.
func ToRecordingListResponse(recs []*entities.Recording) *recording.ListResponse {
	out := make([]*recording.Response, 0, len(recs))
	for _, rec := range recs {
		out = append(out, ToRecordingResponse(rec))
	}
	return &recording.ListResponse{Recordings: out, Total: len(out)}
}
