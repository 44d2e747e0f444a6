package model

import (
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/types"
)

// DefaultEmbeddingDimension is the dimension used when the pipeline
// configuration does not override it. Gemini text-embedding-004 uses 768.
const DefaultEmbeddingDimension = 768

// DefaultEmbeddingModel is the embedding model name used by default
const DefaultEmbeddingModel = "text-embedding-004"

// Embedding is the current vector representation of a document under a
// specific model. Exactly one row exists per (document_id, model_name);
// regeneration replaces it.
type Embedding struct {
	DocumentID types.DocumentID
	Vector     []float32
	ModelName  string
	CreatedAt  time.Time
}
