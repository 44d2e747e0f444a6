package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
)

type resultRepository struct {
	mu      sync.RWMutex
	results []*model.GenerativeResult
}

func newResultRepository() *resultRepository {
	return &resultRepository{}
}

// copyResult creates a deep copy of a generative result
func copyResult(res *model.GenerativeResult) *model.GenerativeResult {
	copied := *res
	if res.Parsed != nil {
		parsed := *res.Parsed
		if res.Parsed.Object != nil {
			parsed.Object = make(map[string]model.FieldValue, len(res.Parsed.Object))
			for k, v := range res.Parsed.Object {
				parsed.Object[k] = v
			}
		}
		if res.Parsed.Forecast != nil {
			forecast := *res.Parsed.Forecast
			forecast.Points = append([]model.ForecastPoint(nil), res.Parsed.Forecast.Points...)
			parsed.Forecast = &forecast
		}
		copied.Parsed = &parsed
	}
	return &copied
}

func (r *resultRepository) Create(ctx context.Context, result *model.GenerativeResult) (*model.GenerativeResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyResult(result)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	r.results = append(r.results, created)
	return copyResult(created), nil
}

func (r *resultRepository) ListByAttempt(ctx context.Context, attemptID types.AttemptID) ([]*model.GenerativeResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.GenerativeResult
	for _, res := range r.results {
		if res.AttemptID == attemptID {
			result = append(result, copyResult(res))
		}
	}

	return result, nil
}

func (r *resultRepository) ListByDocument(ctx context.Context, id types.DocumentID) ([]*model.GenerativeResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.GenerativeResult
	for _, res := range r.results {
		if res.DocumentID == id {
			result = append(result, copyResult(res))
		}
	}

	return result, nil
}
