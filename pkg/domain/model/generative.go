package model

import (
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/types"
)

// GenerativeResult records one attempt of a generative operation for a
// document. Immutable once written; reprocessing appends a new attempt.
// RawOutput is preserved verbatim for audit even when parsing failed.
type GenerativeResult struct {
	DocumentID types.DocumentID
	AttemptID  types.AttemptID
	Operation  types.Operation
	RawOutput  string
	Parsed     *Value
	Status     types.ResultStatus
	Latency    time.Duration

	// Note carries non-fatal observations, e.g. the low-confidence note
	// attached when urgency classification saw an unrecognized token.
	Note string

	CreatedAt time.Time
}
