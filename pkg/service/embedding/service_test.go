package embedding_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/lexintel-lab/themis/pkg/repository/memory"
	"github.com/lexintel-lab/themis/pkg/service/embedding"
	"github.com/lexintel-lab/themis/pkg/service/retry"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
)

// mockEmbeddingClient is a mock gollem LLMClient exposing only the
// embedding call used by this service
type mockEmbeddingClient struct {
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (c *mockEmbeddingClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, goerr.New("not implemented")
}

func (c *mockEmbeddingClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	if c.generateEmbeddingFn != nil {
		return c.generateEmbeddingFn(ctx, dimension, input)
	}
	return nil, nil
}

func constantVector(dimension int, fill float64) *mockEmbeddingClient {
	return &mockEmbeddingClient{
		generateEmbeddingFn: func(ctx context.Context, dim int, input []string) ([][]float64, error) {
			v := make([]float64, dimension)
			for i := range v {
				v[i] = fill
			}
			return [][]float64{v}, nil
		},
	}
}

func testDocument() *model.Document {
	return &model.Document{
		ID:      "doc-001",
		Type:    types.DocumentTypeContract,
		Content: "This agreement is entered into by the parties.",
	}
}

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{MaxAttempts: attempts, InitialBackoff: time.Millisecond}
}

func TestEmbed(t *testing.T) {
	ctx := context.Background()

	t.Run("generates and stores the vector", func(t *testing.T) {
		repo := memory.New().Embedding()
		svc, err := embedding.New(constantVector(3, 0.5), repo, "test-model", 3)
		gt.NoError(t, err).Required()

		stored, err := svc.Embed(ctx, testDocument())
		gt.NoError(t, err).Required()
		gt.Value(t, stored.DocumentID).Equal(types.DocumentID("doc-001"))
		gt.Value(t, stored.ModelName).Equal("test-model")
		gt.Array(t, stored.Vector).Equal([]float32{0.5, 0.5, 0.5})

		got, err := repo.Get(ctx, "doc-001", "test-model")
		gt.NoError(t, err).Required()
		gt.Array(t, got.Vector).Length(3)
	})

	t.Run("re-embedding replaces the stored vector", func(t *testing.T) {
		repo := memory.New().Embedding()

		first, err := embedding.New(constantVector(3, 0.1), repo, "test-model", 3)
		gt.NoError(t, err).Required()
		_, err = first.Embed(ctx, testDocument())
		gt.NoError(t, err).Required()

		second, err := embedding.New(constantVector(3, 0.9), repo, "test-model", 3)
		gt.NoError(t, err).Required()
		_, err = second.Embed(ctx, testDocument())
		gt.NoError(t, err).Required()

		got, err := repo.Get(ctx, "doc-001", "test-model")
		gt.NoError(t, err).Required()
		gt.Array(t, got.Vector).Equal([]float32{0.9, 0.9, 0.9})

		all, err := repo.ListByModel(ctx, "test-model")
		gt.NoError(t, err)
		gt.Array(t, all).Length(1)
	})

	t.Run("dimension mismatch is a service error and stores nothing", func(t *testing.T) {
		repo := memory.New().Embedding()
		svc, err := embedding.New(constantVector(5, 0.5), repo, "test-model", 3,
			embedding.WithRetryPolicy(fastPolicy(1)))
		gt.NoError(t, err).Required()

		_, err = svc.Embed(ctx, testDocument())
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagService)).True()

		_, err = repo.Get(ctx, "doc-001", "test-model")
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagNotFound)).True()
	})

	t.Run("empty response is a service error", func(t *testing.T) {
		repo := memory.New().Embedding()
		llm := &mockEmbeddingClient{
			generateEmbeddingFn: func(ctx context.Context, dim int, input []string) ([][]float64, error) {
				return [][]float64{}, nil
			},
		}

		svc, err := embedding.New(llm, repo, "test-model", 3,
			embedding.WithRetryPolicy(fastPolicy(1)))
		gt.NoError(t, err).Required()

		_, err = svc.Embed(ctx, testDocument())
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagService)).True()
	})

	t.Run("transient failures are retried", func(t *testing.T) {
		repo := memory.New().Embedding()
		var calls int32
		llm := &mockEmbeddingClient{
			generateEmbeddingFn: func(ctx context.Context, dim int, input []string) ([][]float64, error) {
				if atomic.AddInt32(&calls, 1) < 3 {
					return nil, goerr.New("backend hiccup")
				}
				return [][]float64{{0.1, 0.2, 0.3}}, nil
			},
		}

		svc, err := embedding.New(llm, repo, "test-model", 3,
			embedding.WithRetryPolicy(fastPolicy(3)))
		gt.NoError(t, err).Required()

		stored, err := svc.Embed(ctx, testDocument())
		gt.NoError(t, err).Required()
		gt.Array(t, stored.Vector).Length(3)
		gt.Number(t, atomic.LoadInt32(&calls)).Equal(3)
	})

	t.Run("defaults apply when model and dimension are unset", func(t *testing.T) {
		repo := memory.New().Embedding()
		svc, err := embedding.New(constantVector(model.DefaultEmbeddingDimension, 0.5), repo, "", 0)
		gt.NoError(t, err).Required()
		gt.Value(t, svc.ModelName()).Equal(model.DefaultEmbeddingModel)
		gt.Number(t, svc.Dimension()).Equal(model.DefaultEmbeddingDimension)
	})
}
