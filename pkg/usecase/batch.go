package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/lexintel-lab/themis/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// Outcome is the per-document result of a batch run
type Outcome struct {
	DocumentID types.DocumentID
	AttemptID  types.AttemptID
	Status     types.RecordStatus
	State      types.ProcessingState

	// Rejected marks documents that never entered the pipeline, with
	// Err carrying the validation failure
	Rejected bool
	Err      error
}

// Report summarizes one batch run
type Report struct {
	Outcomes []Outcome
	Complete int
	Partial  int
	Failed   int
	Rejected int
}

// Usable reports whether the run produced at least one record with
// usable content. A false value means every document either failed
// outright or was rejected, which is the only condition treated as a
// process-level failure.
func (r *Report) Usable() bool {
	return r.Complete > 0 || r.Partial > 0
}

// RunBatch processes documents through the full pipeline with a bounded
// worker pool. One document's failure never aborts the rest; a
// duplicate ID within the batch rejects the later occurrence.
func (uc *UseCases) RunBatch(ctx context.Context, docs []*model.Document) (*Report, error) {
	if len(docs) == 0 {
		return nil, goerr.Wrap(ErrEmptyBatch, "nothing to process", goerr.T(types.ErrTagValidation))
	}

	report := &Report{}

	seen := make(map[types.DocumentID]bool, len(docs))
	accepted := make([]*model.Document, 0, len(docs))
	for _, doc := range docs {
		if doc != nil && seen[doc.ID] {
			report.Outcomes = append(report.Outcomes, Outcome{
				DocumentID: doc.ID,
				Rejected:   true,
				Err: goerr.Wrap(ErrDuplicateDocument, "rejected duplicate",
					goerr.T(types.ErrTagValidation), goerr.V("document_id", doc.ID)),
			})
			continue
		}
		if doc != nil {
			seen[doc.ID] = true
		}
		accepted = append(accepted, doc)
	}

	var mu sync.Mutex
	outcomes := make([]Outcome, 0, len(accepted))

	var eg errgroup.Group
	eg.SetLimit(uc.cfg.Workers)

	for _, doc := range accepted {
		eg.Go(func() error {
			outcome := uc.runOne(ctx, doc)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			return nil
		})
	}
	// Per-document failures live in outcomes
	_ = eg.Wait()

	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].DocumentID < outcomes[j].DocumentID
	})
	report.Outcomes = append(report.Outcomes, outcomes...)

	for _, o := range report.Outcomes {
		switch {
		case o.Rejected:
			report.Rejected++
		case o.Status == types.RecordStatusComplete:
			report.Complete++
		case o.Status == types.RecordStatusPartial:
			report.Partial++
		default:
			report.Failed++
		}
	}

	logging.From(ctx).Info("batch run finished",
		"documents", len(docs),
		"complete", report.Complete,
		"partial", report.Partial,
		"failed", report.Failed,
		"rejected", report.Rejected,
	)

	return report, nil
}

func (uc *UseCases) runOne(ctx context.Context, doc *model.Document) Outcome {
	handle, err := uc.Ingest(ctx, doc)
	if err != nil {
		var id types.DocumentID
		if doc != nil {
			id = doc.ID
		}
		return Outcome{DocumentID: id, Rejected: true, Err: err}
	}

	record, err := handle.Wait(ctx)
	if err != nil {
		return Outcome{
			DocumentID: handle.DocumentID,
			AttemptID:  handle.AttemptID,
			Status:     types.RecordStatusFailed,
			State:      types.ProcessingStateFailed,
			Err:        err,
		}
	}

	return Outcome{
		DocumentID: record.DocumentID,
		AttemptID:  record.AttemptID,
		Status:     record.OverallStatus,
		State:      record.State,
	}
}
