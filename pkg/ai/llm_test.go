package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tablevox/agent/pkg/config"
)

func TestGenerateFeedbackAnalysis_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST got %s", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", auth)
		}
		var payload ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if payload.Model != "test-model" {
			t.Fatalf("unexpected model %q", payload.Model)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": `{"summary":"ok","sentiment":0.2,"keywords":[]}`}},
			},
		})
	}))
	defer ts.Close()

	client := NewLLMClient(&config.AnalysisConfig{
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})

	content, err := client.GenerateFeedbackAnalysis(context.Background(), "the food was fine")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if !strings.Contains(content, `"summary"`) {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestGenerateFeedbackAnalysis_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client := NewLLMClient(&config.AnalysisConfig{APIKey: "k", BaseURL: ts.URL})

	if _, err := client.GenerateFeedbackAnalysis(context.Background(), "x"); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestGenerateFeedbackAnalysis_EmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer ts.Close()

	client := NewLLMClient(&config.AnalysisConfig{APIKey: "k", BaseURL: ts.URL})

	if _, err := client.GenerateFeedbackAnalysis(context.Background(), "x"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}
