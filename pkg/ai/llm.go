package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/tablevox/agent/pkg/config"
)

// LLMClient is a minimal client for chat-completion style LLM analysis calls
type LLMClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewLLMClient creates an analysis client using values from the provided config.
// Pass a nil config to fall back to environment variables.
func NewLLMClient(cfg *config.AnalysisConfig) *LLMClient {
	var apiKey string
	if cfg != nil {
		apiKey = cfg.APIKey
	}
	if apiKey == "" {
		apiKey = os.Getenv("ANALYSIS_API_KEY")
	}

	var base string
	if cfg != nil && cfg.BaseURL != "" {
		base = cfg.BaseURL
	} else {
		base = os.Getenv("ANALYSIS_API_URL")
		if base == "" {
			base = "https://api.groq.com"
		}
	}

	model := "llama-3.1-70b-versatile"
	if cfg != nil && cfg.Model != "" {
		model = cfg.Model
	}

	timeout := 30 * time.Second
	if cfg != nil && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	return &LLMClient{
		apiKey:  apiKey,
		baseURL: base,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// ChatRequest is the shape for chat completion requests
type ChatRequest struct {
	Model       string      `json:"model,omitempty"`
	Messages    interface{} `json:"messages,omitempty"`
	Temperature float64     `json:"temperature,omitempty"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
}

// ChatResponse is a minimal response shape
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

const feedbackPrompt = `You analyze customer feedback recorded at a restaurant table.
Given the transcript below, respond with a single JSON object and nothing else:
{
  "summary": "two to three sentence summary of the feedback",
  "sentiment": 0.0,
  "keywords": ["..."]
}
sentiment is a number from -1.0 (very negative) to 1.0 (very positive).
keywords are up to eight short phrases naming dishes, staff, or issues mentioned.

Transcript:

%s`

// GenerateFeedbackAnalysis sends the transcript for analysis and returns the
// assistant content, which is expected to contain a JSON object.
func (g *LLMClient) GenerateFeedbackAnalysis(ctx context.Context, transcript string) (string, error) {
	reqBody := ChatRequest{
		Model:       g.model,
		Messages:    []map[string]string{{"role": "user", "content": fmt.Sprintf(feedbackPrompt, transcript)}},
		Temperature: 0.3,
		MaxTokens:   1024,
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := g.baseURL + "/openai/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("analysis backend returned status %d", resp.StatusCode)
	}

	var cr ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty response from analysis backend")
	}
	return cr.Choices[0].Message.Content, nil
}
