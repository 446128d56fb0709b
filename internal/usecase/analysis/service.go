package analysis

import (
	"context"
	"fmt"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/tablevox/agent/internal/domain/entities"
)

// FeedbackLLM generates a structured feedback analysis for a transcript.
// The returned content is expected to contain a JSON object, possibly
// wrapped in a markdown code block.
type FeedbackLLM interface {
	GenerateFeedbackAnalysis(ctx context.Context, transcript string) (string, error)
}

// Service implements Analyzer using AssemblyAI for transcription and an
// LLM backend for summary, sentiment and keyword extraction.
type Service struct {
	asm    *aai.Client
	llm    FeedbackLLM
	logger *zap.Logger
}

// NewService creates the analysis service.
func NewService(asm *aai.Client, llm FeedbackLLM, logger *zap.Logger) *Service {
	return &Service{
		asm:    asm,
		llm:    llm,
		logger: logger,
	}
}

// Analyze transcribes the uploaded audio and derives feedback fields from
// the transcript. TranscribeFromURL blocks until the transcript reaches a
// terminal status, so callers should run Analyze off the request path.
func (s *Service) Analyze(ctx context.Context, req Request) (*entities.AnalysisResult, error) {
	if s.asm == nil {
		return nil, fmt.Errorf("assemblyai client not configured")
	}

	params := &aai.TranscriptOptionalParams{
		LanguageDetection: aai.Bool(true),
	}

	transcript, err := s.asm.Transcripts.TranscribeFromURL(ctx, req.AudioURL, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	if transcript.Status == aai.TranscriptStatusError {
		msg := "unknown transcription error"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return nil, fmt.Errorf("transcription failed: %s", msg)
	}

	var text string
	if transcript.Text != nil {
		text = *transcript.Text
	}
	if text == "" {
		return nil, fmt.Errorf("transcription returned empty text")
	}

	s.logger.Info("transcription completed",
		zap.String("restaurant_id", req.RestaurantID),
		zap.String("table_id", req.TableID),
		zap.Int("transcript_chars", len(text)),
	)

	raw, err := s.llm.GenerateFeedbackAnalysis(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("feedback analysis failed: %w", err)
	}

	result, err := parseFeedbackJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("feedback analysis failed: %w", err)
	}
	result.Transcript = text

	return result, nil
}
