package model

import (
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/types"
)

// DocumentIntelligenceRecord is the unified per-document output joining
// generative and similarity results. Rebuilt whole whenever any
// constituent result changes; never patched field by field. Every field
// carries an entry in FieldStatus, so an absent value is always paired
// with a status explaining why.
type DocumentIntelligenceRecord struct {
	DocumentID       types.DocumentID
	AttemptID        types.AttemptID
	Summary          string
	ExtractedFields  map[string]FieldValue
	IsUrgent         bool
	UrgencyNote      string
	Forecast         *Forecast
	SimilarDocuments []SimilarityResult

	// SimilarityStatus explains an empty SimilarDocuments list: ok when
	// similarity was not requested or succeeded, not_found when the
	// document has no stored embedding to query with.
	SimilarityStatus types.ResultStatus

	FieldStatus   map[types.Operation]types.ResultStatus
	OverallStatus types.RecordStatus
	State         types.ProcessingState
	CreatedAt     time.Time
}

// Finalize derives the overall status and terminal state from the
// per-field statuses. Must be called exactly once when the aggregation
// pass freezes the record.
func (r *DocumentIntelligenceRecord) Finalize() {
	r.OverallStatus = types.DeriveRecordStatus(r.FieldStatus)
	r.State = types.StateForRecordStatus(r.OverallStatus)
}
