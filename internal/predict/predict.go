package predict

import (
	"context"
	"fmt"

	"github.com/voicelens/backend/internal/models"
)

// Client scores a batch of review texts. The response preserves input order
// and length.
type Client interface {
	Predict(ctx context.Context, reviews []string) ([]models.Prediction, error)
}

// APIError means the prediction service answered with a non-2xx status or a
// body this client cannot parse. It is fatal for the submission that caused
// it and for nothing else.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("predict api: status %d: %s", e.Status, e.Message)
	}
	return "predict api: " + e.Message
}
