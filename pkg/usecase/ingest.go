package usecase

import (
	"context"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/lexintel-lab/themis/pkg/utils/async"
	"github.com/lexintel-lab/themis/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Handle tracks one dispatched processing attempt. The caller can wait
// for the frozen record or cancel the attempt; cancellation keeps the
// sub-results that already completed.
type Handle struct {
	DocumentID types.DocumentID
	AttemptID  types.AttemptID

	done   chan struct{}
	cancel context.CancelFunc

	record *model.DocumentIntelligenceRecord
	err    error
}

// Wait blocks until the attempt reaches a terminal state or ctx expires
func (h *Handle) Wait(ctx context.Context) (*model.DocumentIntelligenceRecord, error) {
	select {
	case <-h.done:
		return h.record, h.err
	case <-ctx.Done():
		return nil, goerr.Wrap(ctx.Err(), "cancelled while waiting for attempt",
			goerr.T(types.ErrTagTimeout),
			goerr.V("document_id", h.DocumentID),
			goerr.V("attempt_id", h.AttemptID))
	}
}

// Cancel aborts outstanding operations of the attempt. The record is
// still frozen and stored with whatever completed before cancellation.
func (h *Handle) Cancel() {
	h.cancel()
}

// Ingest validates and stores a document, then dispatches a processing
// attempt asynchronously. Validation failures are fatal to this
// document only and nothing is stored or dispatched for it.
func (uc *UseCases) Ingest(ctx context.Context, doc *model.Document) (*Handle, error) {
	if doc == nil {
		return nil, goerr.New("document is required", goerr.T(types.ErrTagValidation))
	}

	if err := doc.Validate(uc.cfg.MaxContentSize); err != nil {
		return nil, goerr.Wrap(err, "document rejected at ingestion")
	}

	doc.Flag()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	if doc.TypeFlagged {
		logging.From(ctx).Warn("document type outside known set, accepting flagged",
			"document_id", doc.ID, "document_type", doc.Type)
	}

	stored, err := uc.repo.Document().Put(ctx, doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store document",
			goerr.V("document_id", doc.ID))
	}

	return uc.dispatch(ctx, stored), nil
}

// dispatch starts a fresh attempt for a stored document. Every attempt
// gets its own state machine instance; a prior terminal state never
// blocks reprocessing.
func (uc *UseCases) dispatch(ctx context.Context, doc *model.Document) *Handle {
	attemptCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	h := &Handle{
		DocumentID: doc.ID,
		AttemptID:  types.NewAttemptID(),
		done:       make(chan struct{}),
		cancel:     cancel,
	}

	async.Dispatch(ctx, func(bgCtx context.Context) error {
		defer close(h.done)
		defer cancel()

		// Attempt lifetime is governed by attemptCtx (caller cancel),
		// not by the request context that triggered the ingestion
		runCtx := logging.With(attemptCtx, logging.From(bgCtx))

		h.record, h.err = uc.ProcessDocument(runCtx, doc, h.AttemptID)
		return h.err
	})

	return h
}
