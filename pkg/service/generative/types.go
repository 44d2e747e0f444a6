package generative

import (
	"context"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
)

// Service issues the generative operations for a document. Run never
// returns an error: every failure is contained in the result's status
// so one operation can never abort its siblings.
type Service interface {
	// Run executes a single operation with its own timeout and retry
	// budget, recording status and latency under the given attempt.
	Run(ctx context.Context, doc *model.Document, op types.Operation, attempt types.AttemptID) *model.GenerativeResult

	// RunAll fans out all operations concurrently and joins the results
	RunAll(ctx context.Context, doc *model.Document, attempt types.AttemptID) map[types.Operation]*model.GenerativeResult
}

// Config bounds the generative operations
type Config struct {
	// OperationTimeout applies to each operation attempt independently
	OperationTimeout time.Duration

	// ForecastHorizon is the number of steps requested from the
	// time-series service
	ForecastHorizon int

	// ForecastConfidence is the confidence level for forecast intervals
	ForecastConfidence float64

	// MaxSummaryLength caps the summary prompt's requested output, in
	// words, as passed to the generation service
	MaxSummaryLength int
}

// DefaultConfig returns the bounds used when configuration is absent
func DefaultConfig() Config {
	return Config{
		OperationTimeout:   30 * time.Second,
		ForecastHorizon:    12,
		ForecastConfidence: 0.95,
		MaxSummaryLength:   200,
	}
}
