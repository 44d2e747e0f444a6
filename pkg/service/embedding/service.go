package embedding

import (
	"context"

	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/lexintel-lab/themis/pkg/service/retry"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

// Service generates document embeddings and maintains the similarity
// index: one current vector per (document_id, model_name).
type Service interface {
	// Embed requests a vector for the document content, validates its
	// dimension, and stores it, replacing any prior embedding of the
	// same document under the configured model.
	Embed(ctx context.Context, doc *model.Document) (*model.Embedding, error)

	// ModelName returns the configured embedding model name
	ModelName() string

	// Dimension returns the expected vector length
	Dimension() int
}

// client implements Service
type client struct {
	llm       gollem.LLMClient
	repo      interfaces.EmbeddingRepository
	modelName string
	dimension int
	policy    retry.Policy
}

// Option is a functional option for client configuration
type Option func(*client)

// WithRetryPolicy overrides the default retry policy
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *client) {
		c.policy = policy
	}
}

// New creates a new embedding service
func New(llm gollem.LLMClient, repo interfaces.EmbeddingRepository, modelName string, dimension int, opts ...Option) (Service, error) {
	if llm == nil {
		return nil, goerr.New("LLM client is required")
	}
	if repo == nil {
		return nil, goerr.New("embedding repository is required")
	}
	if modelName == "" {
		modelName = model.DefaultEmbeddingModel
	}
	if dimension <= 0 {
		dimension = model.DefaultEmbeddingDimension
	}

	c := &client{
		llm:       llm,
		repo:      repo,
		modelName: modelName,
		dimension: dimension,
		policy:    retry.DefaultPolicy(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) ModelName() string {
	return c.modelName
}

func (c *client) Dimension() int {
	return c.dimension
}

func (c *client) Embed(ctx context.Context, doc *model.Document) (*model.Embedding, error) {
	var vector []float32

	err := c.policy.Do(ctx, "embed", func(ctx context.Context) error {
		embeddings, err := c.llm.GenerateEmbedding(ctx, c.dimension, []string{doc.Content})
		if err != nil {
			return goerr.Wrap(err, "failed to generate embedding",
				goerr.T(types.ErrTagService), goerr.V("document_id", doc.ID))
		}
		if len(embeddings) == 0 {
			return goerr.New("embedding service returned no vector",
				goerr.T(types.ErrTagService), goerr.V("document_id", doc.ID))
		}

		// A mismatched vector is a service error and is never stored
		if len(embeddings[0]) != c.dimension {
			return goerr.New("embedding dimension mismatch",
				goerr.T(types.ErrTagService),
				goerr.V("document_id", doc.ID),
				goerr.V("expected", c.dimension),
				goerr.V("got", len(embeddings[0])))
		}

		vector = make([]float32, len(embeddings[0]))
		for i, v := range embeddings[0] {
			vector[i] = float32(v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stored, err := c.repo.Upsert(ctx, &model.Embedding{
		DocumentID: doc.ID,
		Vector:     vector,
		ModelName:  c.modelName,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store embedding",
			goerr.V("document_id", doc.ID), goerr.V("model_name", c.modelName))
	}

	return stored, nil
}
