package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/voicelens/backend/internal/models"
	"github.com/voicelens/backend/internal/observability"
)

// HTTPClient talks to the review-prediction service. On the wire, entities
// arrive as two-element arrays ["text","LABEL"]; they are decoded into
// typed pairs here.
type HTTPClient struct {
	BaseURL string
	Client  *http.Client
}

type requestBody struct {
	Reviews []string `json:"reviews"`
}

type wirePrediction struct {
	Text      string     `json:"text"`
	Sentiment string     `json:"sentiment"`
	Entities  [][]string `json:"entities"`
}

func (h HTTPClient) Predict(ctx context.Context, reviews []string) ([]models.Prediction, error) {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 20 * time.Second}
	}

	b, _ := json.Marshal(requestBody{Reviews: reviews})
	url := strings.TrimRight(h.BaseURL, "/") + "/predict"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.Client.Do(req)
	if err != nil {
		observability.ObserveExternal("predict", "transport_error")
		return nil, &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("predict", strconv.Itoa(resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: "prediction service error"}
	}

	var wire []wirePrediction
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, &APIError{Message: "malformed response body: " + err.Error()}
	}
	if len(wire) != len(reviews) {
		return nil, &APIError{Message: fmt.Sprintf("expected %d predictions, got %d", len(reviews), len(wire))}
	}

	out := make([]models.Prediction, 0, len(wire))
	for _, w := range wire {
		p := models.Prediction{Text: w.Text, Sentiment: w.Sentiment, Entities: []models.EntityPair{}}
		for _, e := range w.Entities {
			if len(e) != 2 {
				return nil, &APIError{Message: fmt.Sprintf("malformed entity pair %v", e)}
			}
			p.Entities = append(p.Entities, models.EntityPair{Text: e[0], Label: e[1]})
		}
		out = append(out, p)
	}
	return out, nil
}
