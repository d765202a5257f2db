package predict

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPredictSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Reviews []string `json:"reviews"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(body.Reviews) != 2 {
			t.Errorf("expected 2 reviews, got %d", len(body.Reviews))
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"text": body.Reviews[0], "sentiment": "negative", "entities": [][]string{{"battery", "PRODUCT"}}},
			{"text": body.Reviews[1], "sentiment": "positive", "entities": [][]string{}},
		})
	}))
	defer srv.Close()

	client := HTTPClient{BaseURL: srv.URL}
	preds, err := client.Predict(context.Background(), []string{"battery died fast", "love it"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(preds))
	}
	if preds[0].Sentiment != "negative" || len(preds[0].Entities) != 1 {
		t.Fatalf("unexpected prediction: %+v", preds[0])
	}
	if preds[0].Entities[0].Text != "battery" || preds[0].Entities[0].Label != "PRODUCT" {
		t.Fatalf("entity pair not decoded: %+v", preds[0].Entities[0])
	}
	if len(preds[1].Entities) != 0 {
		t.Fatalf("expected empty entities, got %+v", preds[1].Entities)
	}
}

func TestPredictNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := HTTPClient{BaseURL: srv.URL}
	_, err := client.Predict(context.Background(), []string{"hi"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", apiErr.Status)
	}
}

func TestPredictMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	client := HTTPClient{BaseURL: srv.URL}
	if _, err := client.Predict(context.Background(), []string{"hi"}); err == nil {
		t.Fatalf("expected error for malformed body")
	}
}

func TestPredictLengthMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := HTTPClient{BaseURL: srv.URL}
	_, err := client.Predict(context.Background(), []string{"hi"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError for length mismatch, got %v", err)
	}
}

func TestPredictBadEntityPair(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"text":"hi","sentiment":"neutral","entities":[["only-text"]]}]`))
	}))
	defer srv.Close()

	client := HTTPClient{BaseURL: srv.URL}
	if _, err := client.Predict(context.Background(), []string{"hi"}); err == nil {
		t.Fatalf("expected error for malformed entity pair")
	}
}

func TestMockDeterministic(t *testing.T) {
	m := MockClient{ModelVersion: "mock-v1"}
	a, err := m.Predict(context.Background(), []string{"the battery is bad"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	b, _ := m.Predict(context.Background(), []string{"the battery is bad"})
	if a[0].Sentiment != b[0].Sentiment || len(a[0].Entities) != len(b[0].Entities) {
		t.Fatalf("mock predictions must be deterministic")
	}
	if a[0].Text != "the battery is bad" {
		t.Fatalf("text must round-trip: %q", a[0].Text)
	}
}
