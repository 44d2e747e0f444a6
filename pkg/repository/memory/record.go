package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type recordRepository struct {
	mu      sync.RWMutex
	records map[types.DocumentID]*model.DocumentIntelligenceRecord
}

func newRecordRepository() *recordRepository {
	return &recordRepository{
		records: make(map[types.DocumentID]*model.DocumentIntelligenceRecord),
	}
}

// copyRecord creates a deep copy of a record
func copyRecord(rec *model.DocumentIntelligenceRecord) *model.DocumentIntelligenceRecord {
	copied := *rec

	if rec.ExtractedFields != nil {
		copied.ExtractedFields = make(map[string]model.FieldValue, len(rec.ExtractedFields))
		for k, v := range rec.ExtractedFields {
			copied.ExtractedFields[k] = v
		}
	}

	if rec.Forecast != nil {
		forecast := *rec.Forecast
		forecast.Points = append([]model.ForecastPoint(nil), rec.Forecast.Points...)
		copied.Forecast = &forecast
	}

	copied.SimilarDocuments = append([]model.SimilarityResult(nil), rec.SimilarDocuments...)

	if rec.FieldStatus != nil {
		copied.FieldStatus = make(map[types.Operation]types.ResultStatus, len(rec.FieldStatus))
		for k, v := range rec.FieldStatus {
			copied.FieldStatus[k] = v
		}
	}

	return &copied
}

func (r *recordRepository) Put(ctx context.Context, record *model.DocumentIntelligenceRecord) (*model.DocumentIntelligenceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyRecord(record)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	r.records[stored.DocumentID] = stored
	return copyRecord(stored), nil
}

func (r *recordRepository) Get(ctx context.Context, id types.DocumentID) (*model.DocumentIntelligenceRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "record not found",
			goerr.T(types.ErrTagNotFound), goerr.V("id", id))
	}

	return copyRecord(record), nil
}
