package similarity_test

import (
	"context"
	"testing"

	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/lexintel-lab/themis/pkg/repository/memory"
	"github.com/lexintel-lab/themis/pkg/service/similarity"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

func storeVector(t *testing.T, repo interfaces.EmbeddingRepository, id types.DocumentID, vector []float32) {
	t.Helper()
	_, err := repo.Upsert(context.Background(), &model.Embedding{
		DocumentID: id,
		ModelName:  model.DefaultEmbeddingModel,
		Vector:     vector,
	})
	gt.NoError(t, err).Required()
}

func newService(t *testing.T) (similarity.Service, interfaces.EmbeddingRepository) {
	t.Helper()
	repo := memory.New().Embedding()
	svc, err := similarity.New(repo, model.DefaultEmbeddingModel)
	gt.NoError(t, err).Required()
	return svc, repo
}

func TestCosineDistance(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical vectors", []float32{1, 0, 0}, []float32{1, 0, 0}, 0},
		{"orthogonal vectors", []float32{1, 0}, []float32{0, 1}, 1},
		{"opposite vectors", []float32{1, 0}, []float32{-1, 0}, 2},
		{"scaling does not matter", []float32{2, 0}, []float32{5, 0}, 0},
		{"zero vector has distance one", []float32{0, 0}, []float32{1, 0}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := similarity.CosineDistance(tc.a, tc.b)
			diff := got - tc.want
			if diff < 0 {
				diff = -diff
			}
			gt.Bool(t, diff < 1e-9).True()
		})
	}
}

func TestNearest(t *testing.T) {
	ctx := context.Background()

	t.Run("orders by ascending distance", func(t *testing.T) {
		svc, repo := newService(t)
		storeVector(t, repo, "doc-far", []float32{0, 1})
		storeVector(t, repo, "doc-near", []float32{1, 0.1})
		storeVector(t, repo, "doc-exact", []float32{1, 0})

		results, err := svc.Nearest(ctx, []float32{1, 0}, 3)
		gt.NoError(t, err)
		gt.Array(t, results).Length(3)
		gt.Value(t, results[0].CandidateID).Equal(types.DocumentID("doc-exact"))
		gt.Value(t, results[1].CandidateID).Equal(types.DocumentID("doc-near"))
		gt.Value(t, results[2].CandidateID).Equal(types.DocumentID("doc-far"))
	})

	t.Run("equal distances break ties by document ID", func(t *testing.T) {
		svc, repo := newService(t)
		storeVector(t, repo, "doc-b", []float32{1, 0})
		storeVector(t, repo, "doc-a", []float32{1, 0})

		results, err := svc.Nearest(ctx, []float32{1, 0}, 2)
		gt.NoError(t, err)
		gt.Array(t, results).Length(2)
		gt.Value(t, results[0].CandidateID).Equal(types.DocumentID("doc-a"))
		gt.Value(t, results[1].CandidateID).Equal(types.DocumentID("doc-b"))
	})

	t.Run("k truncates the result", func(t *testing.T) {
		svc, repo := newService(t)
		storeVector(t, repo, "doc-1", []float32{1, 0})
		storeVector(t, repo, "doc-2", []float32{0.9, 0.1})
		storeVector(t, repo, "doc-3", []float32{0, 1})

		results, err := svc.Nearest(ctx, []float32{1, 0}, 2)
		gt.NoError(t, err)
		gt.Array(t, results).Length(2)
	})

	t.Run("empty index yields empty list", func(t *testing.T) {
		svc, _ := newService(t)
		results, err := svc.Nearest(ctx, []float32{1, 0}, 5)
		gt.NoError(t, err)
		gt.Array(t, results).Length(0)
	})

	t.Run("non-positive k yields empty list", func(t *testing.T) {
		svc, repo := newService(t)
		storeVector(t, repo, "doc-1", []float32{1, 0})

		results, err := svc.Nearest(ctx, []float32{1, 0}, 0)
		gt.NoError(t, err)
		gt.Array(t, results).Length(0)
	})

	t.Run("query dimension mismatch is a validation error", func(t *testing.T) {
		svc, repo := newService(t)
		storeVector(t, repo, "doc-1", []float32{1, 0, 0})

		_, err := svc.Nearest(ctx, []float32{1, 0}, 5)
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagValidation)).True()
	})

	t.Run("score derives from distance", func(t *testing.T) {
		svc, repo := newService(t)
		storeVector(t, repo, "doc-1", []float32{1, 1})

		results, err := svc.Nearest(ctx, []float32{1, 0}, 1)
		gt.NoError(t, err)
		gt.Array(t, results).Length(1)
		gt.Number(t, results[0].SimilarityScore).Equal(model.SimilarityScore(results[0].Distance))
	})
}

func TestNearestToDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("excludes the query document itself", func(t *testing.T) {
		svc, repo := newService(t)
		storeVector(t, repo, "doc-query", []float32{1, 0})
		storeVector(t, repo, "doc-other", []float32{0.9, 0.1})

		results, err := svc.NearestToDocument(ctx, "doc-query", 5)
		gt.NoError(t, err)
		gt.Array(t, results).Length(1)
		gt.Value(t, results[0].CandidateID).Equal(types.DocumentID("doc-other"))
		gt.Value(t, results[0].QueryDocumentID).Equal(types.DocumentID("doc-query"))
	})

	t.Run("missing query embedding is a not found error", func(t *testing.T) {
		svc, _ := newService(t)
		_, err := svc.NearestToDocument(ctx, "doc-missing", 5)
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagNotFound)).True()
	})
}

func TestPairwise(t *testing.T) {
	ctx := context.Background()

	t.Run("distance between stored embeddings", func(t *testing.T) {
		svc, repo := newService(t)
		storeVector(t, repo, "doc-a", []float32{1, 0})
		storeVector(t, repo, "doc-b", []float32{0, 1})

		distance, err := svc.Pairwise(ctx, "doc-a", "doc-b")
		gt.NoError(t, err)
		gt.Number(t, distance).Equal(1)
	})

	t.Run("a document compared against itself has zero distance", func(t *testing.T) {
		svc, repo := newService(t)
		storeVector(t, repo, "doc-self", []float32{0.3, 0.2, 0.9})

		distance, err := svc.Pairwise(ctx, "doc-self", "doc-self")
		gt.NoError(t, err)
		gt.Bool(t, distance < 1e-9).True()
		gt.Bool(t, model.SimilarityScore(distance) > 1-1e-9).True()
	})

	t.Run("missing embedding is a not found error", func(t *testing.T) {
		svc, repo := newService(t)
		storeVector(t, repo, "doc-a", []float32{1, 0})

		_, err := svc.Pairwise(ctx, "doc-a", "doc-missing")
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagNotFound)).True()
	})
}

func TestCluster(t *testing.T) {
	ctx := context.Background()

	t.Run("partitions into connected components", func(t *testing.T) {
		svc, repo := newService(t)
		// Two near-duplicates and one orthogonal outlier
		storeVector(t, repo, "doc-a", []float32{1, 0})
		storeVector(t, repo, "doc-b", []float32{1, 0.01})
		storeVector(t, repo, "doc-c", []float32{0, 1})

		clusters, err := svc.Cluster(ctx, []types.DocumentID{"doc-a", "doc-b", "doc-c"}, 0.9)
		gt.NoError(t, err)
		gt.Array(t, clusters).Length(2)

		gt.Array(t, clusters[0].Members).Equal([]types.DocumentID{"doc-a", "doc-b"})
		gt.Array(t, clusters[0].Pairs).Length(1)
		gt.Value(t, clusters[0].Pairs[0].A).Equal(types.DocumentID("doc-a"))
		gt.Value(t, clusters[0].Pairs[0].B).Equal(types.DocumentID("doc-b"))
		gt.Number(t, clusters[0].Pairs[0].Similarity).Equal(model.SimilarityScore(clusters[0].Pairs[0].Distance))

		gt.Array(t, clusters[1].Members).Equal([]types.DocumentID{"doc-c"})
		gt.Array(t, clusters[1].Pairs).Length(0)
	})

	t.Run("zero threshold joins everything", func(t *testing.T) {
		svc, repo := newService(t)
		storeVector(t, repo, "doc-a", []float32{1, 0})
		storeVector(t, repo, "doc-b", []float32{0, 1})

		clusters, err := svc.Cluster(ctx, []types.DocumentID{"doc-a", "doc-b"}, 0)
		gt.NoError(t, err)
		gt.Array(t, clusters).Length(1)
		gt.Array(t, clusters[0].Members).Equal([]types.DocumentID{"doc-a", "doc-b"})
	})

	t.Run("duplicate input IDs are deduplicated", func(t *testing.T) {
		svc, repo := newService(t)
		storeVector(t, repo, "doc-a", []float32{1, 0})

		clusters, err := svc.Cluster(ctx, []types.DocumentID{"doc-a", "doc-a"}, 0.5)
		gt.NoError(t, err)
		gt.Array(t, clusters).Length(1)
		gt.Array(t, clusters[0].Members).Equal([]types.DocumentID{"doc-a"})
	})

	t.Run("missing embedding fails the whole call", func(t *testing.T) {
		svc, repo := newService(t)
		storeVector(t, repo, "doc-a", []float32{1, 0})

		_, err := svc.Cluster(ctx, []types.DocumentID{"doc-a", "doc-missing"}, 0.5)
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagNotFound)).True()
	})
}
