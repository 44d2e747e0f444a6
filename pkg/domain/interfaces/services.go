package interfaces

import (
	"context"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
)

// Forecaster is the contract of the external time-series forecast service
type Forecaster interface {
	// Forecast returns horizon ordered points at the given confidence
	// level (e.g. 0.95).
	Forecast(ctx context.Context, horizon int, confidenceLevel float64) ([]model.ForecastPoint, error)
}

// Archiver preserves raw model output for audit. Implementations must be
// nil-safe to disable archiving; archive failures never degrade records.
type Archiver interface {
	ArchiveRawOutput(ctx context.Context, id types.DocumentID, op types.Operation, attempt types.AttemptID, raw string) error
}
