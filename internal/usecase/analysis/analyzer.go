package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/tablevox/agent/internal/domain/entities"
)

// Request carries everything the analyzer needs to process one recording.
type Request struct {
	AudioURL     string
	RestaurantID string
	TableID      string
}

// Analyzer turns an uploaded recording into structured feedback.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*entities.AnalysisResult, error)
}

// MarshalKeywords serializes keyword lists for the recordings table.
// A nil slice is stored as an empty array rather than SQL NULL so list
// responses never have to special-case missing keywords.
func MarshalKeywords(keywords []string) (datatypes.JSON, error) {
	if keywords == nil {
		keywords = []string{}
	}
	b, err := json.Marshal(keywords)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal keywords: %w", err)
	}
	return datatypes.JSON(b), nil
}
