package usecase

import (
	"context"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// buildRecord joins the frozen operation results and the similarity
// lookup into a fresh record. Records are always rebuilt whole from one
// attempt; fields from different attempts are never merged.
func (uc *UseCases) buildRecord(doc *model.Document, attempt types.AttemptID, results map[types.Operation]*model.GenerativeResult, similar []model.SimilarityResult, simStatus types.ResultStatus) *model.DocumentIntelligenceRecord {
	record := &model.DocumentIntelligenceRecord{
		DocumentID:       doc.ID,
		AttemptID:        attempt,
		SimilarDocuments: similar,
		SimilarityStatus: simStatus,
		FieldStatus:      make(map[types.Operation]types.ResultStatus, len(results)),
		CreatedAt:        time.Now().UTC(),
	}

	for op, r := range results {
		record.FieldStatus[op] = r.Status
		if !r.Status.Succeeded() || r.Parsed == nil {
			continue
		}

		switch op {
		case types.OperationSummarize:
			record.Summary = r.Parsed.Text
		case types.OperationExtract:
			record.ExtractedFields = r.Parsed.Object
		case types.OperationClassifyUrgency:
			record.IsUrgent = r.Parsed.Bool
			record.UrgencyNote = r.Note
		case types.OperationForecast:
			record.Forecast = r.Parsed.Forecast
		}
	}

	record.Finalize()
	return record
}

// GetRecord retrieves the current record for a document
func (uc *UseCases) GetRecord(ctx context.Context, id types.DocumentID) (*model.DocumentIntelligenceRecord, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	record, err := uc.repo.Record().Get(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(ErrRecordNotFound, "no record for document",
			goerr.T(types.ErrTagNotFound), goerr.V("document_id", id), goerr.V("cause", err.Error()))
	}

	return record, nil
}

// SimilarDocuments returns the k nearest neighbors of a stored document
func (uc *UseCases) SimilarDocuments(ctx context.Context, id types.DocumentID, k int) ([]model.SimilarityResult, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if uc.similarity == nil {
		return nil, goerr.New("similarity index is not configured", goerr.T(types.ErrTagService))
	}
	if k <= 0 {
		k = uc.cfg.SimilarCount
	}

	return uc.similarity.NearestToDocument(ctx, id, k)
}

// ClusterDocuments groups the given documents by embedding similarity
func (uc *UseCases) ClusterDocuments(ctx context.Context, ids []types.DocumentID, threshold float64) ([]model.Cluster, error) {
	if uc.similarity == nil {
		return nil, goerr.New("similarity index is not configured", goerr.T(types.ErrTagService))
	}
	if len(ids) == 0 {
		return nil, goerr.Wrap(ErrEmptyBatch, "no documents to cluster",
			goerr.T(types.ErrTagValidation))
	}
	if threshold < 0 || threshold > 1 {
		return nil, goerr.New("cluster threshold must be within [0, 1]",
			goerr.T(types.ErrTagValidation), goerr.V("threshold", threshold))
	}

	return uc.similarity.Cluster(ctx, ids, threshold)
}
