package predict

import (
	"context"

	"github.com/voicelens/backend/internal/models"
	"github.com/voicelens/backend/internal/utils"
)

// MockClient produces deterministic predictions from a hash of the review
// text. Used when no prediction service is configured.
type MockClient struct {
	ModelVersion string
}

var (
	mockSentiments = []string{"positive", "neutral", "negative"}
	mockEntities   = []models.EntityPair{
		{Text: "battery", Label: "PRODUCT"},
		{Text: "screen", Label: "PRODUCT"},
		{Text: "price", Label: "METRIC"},
		{Text: "support team", Label: "TEAM"},
		{Text: "Acme Corp", Label: "ORG"},
	}
)

func (m MockClient) Predict(ctx context.Context, reviews []string) ([]models.Prediction, error) {
	out := make([]models.Prediction, 0, len(reviews))
	for _, text := range reviews {
		// modulo in uint64 space; a hash with the high bit set would make
		// int(h) negative and the index panic
		h := utils.HashStringToUint64(text)
		p := models.Prediction{
			Text:      text,
			Sentiment: mockSentiments[h%uint64(len(mockSentiments))],
			Entities:  []models.EntityPair{},
		}
		// one or two entities per review, picked by hash
		p.Entities = append(p.Entities, mockEntities[(h/7)%uint64(len(mockEntities))])
		if h%3 == 0 {
			p.Entities = append(p.Entities, mockEntities[(h/13)%uint64(len(mockEntities))])
		}
		out = append(out, p)
	}
	return out, nil
}
