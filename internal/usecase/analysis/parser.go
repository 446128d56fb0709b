package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tablevox/agent/internal/domain/entities"
)

// parseFeedbackJSON parses the LLM response into an AnalysisResult. The
// model is asked for bare JSON but sometimes wraps it in markdown code
// blocks, so those are stripped first.
func parseFeedbackJSON(content string) (*entities.AnalysisResult, error) {
	content = extractJSON(content)

	var result entities.AnalysisResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	if result.Summary == "" {
		return nil, fmt.Errorf("missing summary in response")
	}
	if result.Sentiment < -1.0 {
		result.Sentiment = -1.0
	}
	if result.Sentiment > 1.0 {
		result.Sentiment = 1.0
	}

	return &result, nil
}

// extractJSON extracts JSON content from markdown code blocks or plain text
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
