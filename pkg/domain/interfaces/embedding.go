package interfaces

import (
	"context"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
)

// EmbeddingRepository defines the persistent similarity index layout:
// one current vector per (document_id, model_name).
type EmbeddingRepository interface {
	// Upsert stores the embedding, replacing any prior embedding for the
	// same (document_id, model_name). Writes for the same key are
	// serialized by the implementation.
	Upsert(ctx context.Context, embedding *model.Embedding) (*model.Embedding, error)

	// Get retrieves the current embedding for a document under a model
	Get(ctx context.Context, id types.DocumentID, modelName string) (*model.Embedding, error)

	// ListByModel retrieves all current embeddings stored under a model
	ListByModel(ctx context.Context, modelName string) ([]*model.Embedding, error)
}
