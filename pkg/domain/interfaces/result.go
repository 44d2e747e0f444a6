package interfaces

import (
	"context"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
)

// ResultRepository defines persistence for generative operation attempts
type ResultRepository interface {
	// Create appends a new attempt result. Results are immutable.
	Create(ctx context.Context, result *model.GenerativeResult) (*model.GenerativeResult, error)

	// ListByAttempt retrieves all results recorded under one attempt
	ListByAttempt(ctx context.Context, attemptID types.AttemptID) ([]*model.GenerativeResult, error)

	// ListByDocument retrieves all results for a document across attempts
	ListByDocument(ctx context.Context, id types.DocumentID) ([]*model.GenerativeResult, error)
}
