package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func runRecordRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put and Get roundtrip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id := newDocumentID()
		record := &model.DocumentIntelligenceRecord{
			DocumentID: id,
			AttemptID:  newAttemptID(),
			Summary:    "Service agreement between two parties.",
			ExtractedFields: map[string]model.FieldValue{
				"jurisdiction": model.StringField("Delaware"),
			},
			IsUrgent: true,
			Forecast: &model.Forecast{
				Horizon:         6,
				ConfidenceLevel: 0.95,
				Points: []model.ForecastPoint{
					{Timestamp: time.Now().UTC(), PointEstimate: 10},
				},
			},
			SimilarDocuments: []model.SimilarityResult{
				{QueryDocumentID: id, CandidateID: "doc-peer", Distance: 0.2, SimilarityScore: 0.8},
			},
			FieldStatus: map[types.Operation]types.ResultStatus{
				types.OperationSummarize:       types.ResultStatusOK,
				types.OperationExtract:         types.ResultStatusOK,
				types.OperationClassifyUrgency: types.ResultStatusOK,
				types.OperationForecast:        types.ResultStatusOK,
			},
			OverallStatus: types.RecordStatusComplete,
			State:         types.ProcessingStateCompleted,
		}

		stored, err := repo.Record().Put(ctx, record)
		gt.NoError(t, err).Required()
		gt.Bool(t, stored.CreatedAt.IsZero()).False()

		got, err := repo.Record().Get(ctx, id)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Summary).Equal("Service agreement between two parties.")
		gt.Bool(t, got.IsUrgent).True()
		gt.Value(t, got.ExtractedFields["jurisdiction"].Text).Equal("Delaware")
		gt.Value(t, got.OverallStatus).Equal(types.RecordStatusComplete)
		gt.Value(t, got.State).Equal(types.ProcessingStateCompleted)
		gt.Array(t, got.SimilarDocuments).Length(1)
		gt.Value(t, got.SimilarDocuments[0].CandidateID).Equal(types.DocumentID("doc-peer"))
		gt.Number(t, got.Forecast.ConfidenceLevel).Equal(0.95)
	})

	t.Run("Get of unknown record is a not found error", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Record().Get(ctx, newDocumentID())
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagNotFound)).True()
	})

	t.Run("a later attempt replaces the record wholesale", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id := newDocumentID()
		_, err := repo.Record().Put(ctx, &model.DocumentIntelligenceRecord{
			DocumentID: id,
			AttemptID:  newAttemptID(),
			Summary:    "First attempt summary.",
			ExtractedFields: map[string]model.FieldValue{
				"jurisdiction": model.StringField("Texas"),
			},
			FieldStatus: map[types.Operation]types.ResultStatus{
				types.OperationSummarize: types.ResultStatusOK,
				types.OperationExtract:   types.ResultStatusOK,
			},
			OverallStatus: types.RecordStatusComplete,
			State:         types.ProcessingStateCompleted,
		})
		gt.NoError(t, err).Required()

		second := newAttemptID()
		_, err = repo.Record().Put(ctx, &model.DocumentIntelligenceRecord{
			DocumentID: id,
			AttemptID:  second,
			Summary:    "Second attempt summary.",
			FieldStatus: map[types.Operation]types.ResultStatus{
				types.OperationSummarize: types.ResultStatusOK,
				types.OperationExtract:   types.ResultStatusParseError,
			},
			OverallStatus: types.RecordStatusPartial,
			State:         types.ProcessingStatePartialFailure,
		})
		gt.NoError(t, err).Required()

		got, err := repo.Record().Get(ctx, id)
		gt.NoError(t, err).Required()
		gt.Value(t, got.AttemptID).Equal(second)
		gt.Value(t, got.Summary).Equal("Second attempt summary.")
		gt.Value(t, got.OverallStatus).Equal(types.RecordStatusPartial)

		// No field survives from the first attempt
		_, ok := got.ExtractedFields["jurisdiction"]
		gt.Bool(t, ok).False()
	})
}

func TestMemoryRecordRepository(t *testing.T) {
	runRecordRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreRecordRepository(t *testing.T) {
	runRecordRepositoryTest(t, newFirestoreRepository)
}
