package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/lexintel-lab/themis/pkg/utils/errutil"
	"github.com/lexintel-lab/themis/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// ProcessDocument runs one full attempt for a stored document: fans out
// the generative operations and the embedding concurrently, freezes the
// record at the document deadline, and stores results and record. The
// returned error covers pipeline infrastructure only; operation
// failures are contained in the record's field statuses.
func (uc *UseCases) ProcessDocument(ctx context.Context, doc *model.Document, attempt types.AttemptID) (*model.DocumentIntelligenceRecord, error) {
	state := types.ProcessingStatePending

	if !state.CanTransition(types.ProcessingStateDispatched) {
		return nil, goerr.New("invalid state transition",
			goerr.V("from", state), goerr.V("to", types.ProcessingStateDispatched))
	}
	state = types.ProcessingStateDispatched

	logging.From(ctx).Info("attempt dispatched",
		"document_id", doc.ID, "attempt_id", attempt, "state", state)

	docCtx, cancel := context.WithTimeout(ctx, uc.cfg.DocumentDeadline)
	defer cancel()

	results, similar, simStatus := uc.fanOut(docCtx, doc, attempt)

	record := uc.buildRecord(doc, attempt, results, similar, simStatus)

	if !state.CanTransition(record.State) {
		return nil, goerr.New("invalid state transition",
			goerr.V("from", state), goerr.V("to", record.State))
	}
	state = record.State

	// Persistence runs detached from the attempt context: a cancelled
	// attempt still stores its frozen record and completed results
	uc.persist(context.WithoutCancel(ctx), record, results)

	logging.From(ctx).Info("attempt finished",
		"document_id", doc.ID,
		"attempt_id", attempt,
		"state", state,
		"overall_status", record.OverallStatus,
	)

	return record, nil
}

// fanOut runs the generative operations and the embedding under the
// document deadline. When the deadline expires the snapshot is frozen:
// results that arrive later are discarded, outstanding operations are
// recorded as timeouts.
func (uc *UseCases) fanOut(ctx context.Context, doc *model.Document, attempt types.AttemptID) (map[types.Operation]*model.GenerativeResult, []model.SimilarityResult, types.ResultStatus) {
	var mu sync.Mutex
	results := make(map[types.Operation]*model.GenerativeResult, len(types.AllOperations()))

	var similar []model.SimilarityResult
	simStatus := types.ResultStatusOK
	embedded := false

	done := make(chan struct{})
	go func() {
		defer close(done)

		var eg errgroup.Group
		for _, op := range types.AllOperations() {
			eg.Go(func() error {
				r := uc.generative.Run(ctx, doc, op, attempt)
				mu.Lock()
				results[op] = r
				mu.Unlock()
				return nil
			})
		}
		eg.Go(func() error {
			if uc.embedder == nil {
				return nil
			}
			if _, err := uc.embedder.Embed(ctx, doc); err != nil {
				_ = errutil.Handle(ctx, err, "embedding failed")
				return nil
			}
			mu.Lock()
			embedded = true
			mu.Unlock()
			return nil
		})
		// All failures are contained in statuses
		_ = eg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.From(ctx).Warn("document deadline expired, freezing record",
			"document_id", doc.ID, "attempt_id", attempt)
	}

	mu.Lock()
	frozen := make(map[types.Operation]*model.GenerativeResult, len(types.AllOperations()))
	for op, r := range results {
		frozen[op] = r
	}
	didEmbed := embedded
	mu.Unlock()

	for _, op := range types.AllOperations() {
		if frozen[op] != nil {
			continue
		}
		frozen[op] = &model.GenerativeResult{
			DocumentID: doc.ID,
			AttemptID:  attempt,
			Operation:  op,
			Status:     types.ResultStatusTimeout,
			Note:       "document deadline expired before completion",
			CreatedAt:  time.Now().UTC(),
		}
	}

	if uc.cfg.SimilarCount > 0 && uc.similarity != nil {
		if didEmbed {
			// Lookup runs on the parent context: the index query is local
			// and should not be lost to the fan-out deadline
			found, err := uc.similarity.NearestToDocument(context.WithoutCancel(ctx), doc.ID, uc.cfg.SimilarCount)
			if err != nil {
				simStatus = types.StatusForError(err)
				_ = errutil.Handle(ctx, err, "similarity lookup failed")
			} else {
				similar = found
			}
		} else {
			simStatus = types.ResultStatusNotFound
		}
	}

	return frozen, similar, simStatus
}

// persist stores the attempt's results and the rebuilt record.
// Persistence failures are logged, not fatal: the computed record is
// still returned to the caller.
func (uc *UseCases) persist(ctx context.Context, record *model.DocumentIntelligenceRecord, results map[types.Operation]*model.GenerativeResult) {
	for _, op := range types.AllOperations() {
		if _, err := uc.repo.Result().Create(ctx, results[op]); err != nil {
			_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to store operation result",
				goerr.V("document_id", record.DocumentID), goerr.V("operation", op)), "result persistence failed")
		}
	}

	if _, err := uc.repo.Record().Put(ctx, record); err != nil {
		_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to store record",
			goerr.V("document_id", record.DocumentID)), "record persistence failed")
	}
}
