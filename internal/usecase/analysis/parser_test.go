package analysis

import (
	"testing"
)

func TestParseFeedbackJSON_Plain(t *testing.T) {
	raw := `{"summary":"Guests loved the ramen but waited too long.","sentiment":0.4,"keywords":["ramen","slow service"]}`

	result, err := parseFeedbackJSON(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Summary == "" {
		t.Fatal("expected summary to be set")
	}
	if result.Sentiment != 0.4 {
		t.Fatalf("unexpected sentiment %v", result.Sentiment)
	}
	if len(result.Keywords) != 2 || result.Keywords[1] != "slow service" {
		t.Fatalf("unexpected keywords %v", result.Keywords)
	}
}

func TestParseFeedbackJSON_MarkdownFenced(t *testing.T) {
	raw := "```json\n{\"summary\":\"Short visit, no complaints.\",\"sentiment\":0.1,\"keywords\":[]}\n```"

	result, err := parseFeedbackJSON(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Summary != "Short visit, no complaints." {
		t.Fatalf("unexpected summary %q", result.Summary)
	}
}

func TestParseFeedbackJSON_ClampsSentiment(t *testing.T) {
	result, err := parseFeedbackJSON(`{"summary":"s","sentiment":3.5,"keywords":[]}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Sentiment != 1.0 {
		t.Fatalf("expected sentiment clamped to 1.0, got %v", result.Sentiment)
	}

	result, err = parseFeedbackJSON(`{"summary":"s","sentiment":-2,"keywords":[]}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Sentiment != -1.0 {
		t.Fatalf("expected sentiment clamped to -1.0, got %v", result.Sentiment)
	}
}

func TestParseFeedbackJSON_MissingSummary(t *testing.T) {
	if _, err := parseFeedbackJSON(`{"sentiment":0,"keywords":["a"]}`); err == nil {
		t.Fatal("expected error for missing summary")
	}
}

func TestMarshalKeywords_NilBecomesEmptyArray(t *testing.T) {
	b, err := MarshalKeywords(nil)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(b) != "[]" {
		t.Fatalf("expected empty array, got %s", string(b))
	}
}

func TestMarshalKeywords_RoundTrip(t *testing.T) {
	b, err := MarshalKeywords([]string{"phở", "friendly staff"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(b) != `["phở","friendly staff"]` {
		t.Fatalf("unexpected JSON %s", string(b))
	}
}
