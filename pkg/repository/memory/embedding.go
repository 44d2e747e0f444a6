package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type embeddingKey struct {
	documentID types.DocumentID
	modelName  string
}

type embeddingRepository struct {
	mu         sync.RWMutex
	embeddings map[embeddingKey]*model.Embedding
}

func newEmbeddingRepository() *embeddingRepository {
	return &embeddingRepository{
		embeddings: make(map[embeddingKey]*model.Embedding),
	}
}

// copyEmbedding creates a deep copy of an embedding
func copyEmbedding(e *model.Embedding) *model.Embedding {
	copied := &model.Embedding{
		DocumentID: e.DocumentID,
		ModelName:  e.ModelName,
		CreatedAt:  e.CreatedAt,
	}

	if e.Vector != nil {
		copied.Vector = make([]float32, len(e.Vector))
		copy(copied.Vector, e.Vector)
	}

	return copied
}

func (r *embeddingRepository) Upsert(ctx context.Context, embedding *model.Embedding) (*model.Embedding, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyEmbedding(embedding)
	stored.CreatedAt = time.Now().UTC()

	key := embeddingKey{documentID: stored.DocumentID, modelName: stored.ModelName}
	r.embeddings[key] = stored

	return copyEmbedding(stored), nil
}

func (r *embeddingRepository) Get(ctx context.Context, id types.DocumentID, modelName string) (*model.Embedding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key := embeddingKey{documentID: id, modelName: modelName}
	embedding, exists := r.embeddings[key]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "embedding not found",
			goerr.T(types.ErrTagNotFound),
			goerr.V("document_id", id),
			goerr.V("model_name", modelName))
	}

	return copyEmbedding(embedding), nil
}

func (r *embeddingRepository) ListByModel(ctx context.Context, modelName string) ([]*model.Embedding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Embedding, 0)
	for key, e := range r.embeddings {
		if key.modelName == modelName {
			result = append(result, copyEmbedding(e))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DocumentID < result[j].DocumentID
	})

	return result, nil
}
