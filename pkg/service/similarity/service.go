package similarity

import (
	"context"
	"math"
	"sort"

	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Service runs similarity queries against the embedding index. All
// scores derive from cosine distance through model.SimilarityScore;
// the two quantities are never computed independently.
type Service interface {
	// Nearest returns up to k candidates ordered by ascending distance,
	// ties broken by document ID lexical order. An empty index yields an
	// empty list, not an error. A query whose dimension differs from a
	// stored vector fails with a validation error.
	Nearest(ctx context.Context, queryVector []float32, k int) ([]model.SimilarityResult, error)

	// NearestToDocument runs Nearest with the document's stored vector
	// as the query, excluding the document itself from candidates.
	// Fails with a not_found error when no embedding is stored.
	NearestToDocument(ctx context.Context, id types.DocumentID, k int) ([]model.SimilarityResult, error)

	// Pairwise returns the cosine distance between two stored
	// embeddings. Fails with a not_found error when either is absent;
	// on-demand embedding generation is the caller's decision.
	Pairwise(ctx context.Context, a, b types.DocumentID) (float64, error)

	// Cluster partitions the given documents into connected components
	// of the pairwise similarity graph, with edges where
	// similarity >= threshold. Each edge is reported with its exact
	// distance and similarity for audit.
	Cluster(ctx context.Context, ids []types.DocumentID, threshold float64) ([]model.Cluster, error)
}

// client implements Service
type client struct {
	repo      interfaces.EmbeddingRepository
	modelName string
}

// New creates a similarity service over the embedding index
func New(repo interfaces.EmbeddingRepository, modelName string) (Service, error) {
	if repo == nil {
		return nil, goerr.New("embedding repository is required")
	}
	if modelName == "" {
		modelName = model.DefaultEmbeddingModel
	}

	return &client{repo: repo, modelName: modelName}, nil
}

// CosineDistance is 1 minus the cosine similarity of the two vectors.
// A zero vector has no direction; distance against it is defined as 1.
func CosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

func (c *client) Nearest(ctx context.Context, queryVector []float32, k int) ([]model.SimilarityResult, error) {
	return c.nearest(ctx, queryVector, k, "")
}

func (c *client) NearestToDocument(ctx context.Context, id types.DocumentID, k int) ([]model.SimilarityResult, error) {
	query, err := c.repo.Get(ctx, id, c.modelName)
	if err != nil {
		return nil, goerr.Wrap(err, "no embedding stored for query document",
			goerr.V("document_id", id))
	}

	results, err := c.nearest(ctx, query.Vector, k, id)
	if err != nil {
		return nil, err
	}

	for i := range results {
		results[i].QueryDocumentID = id
	}
	return results, nil
}

func (c *client) nearest(ctx context.Context, queryVector []float32, k int, exclude types.DocumentID) ([]model.SimilarityResult, error) {
	if k <= 0 {
		return []model.SimilarityResult{}, nil
	}

	embeddings, err := c.repo.ListByModel(ctx, c.modelName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list embeddings",
			goerr.V("model_name", c.modelName))
	}

	results := make([]model.SimilarityResult, 0, len(embeddings))
	for _, e := range embeddings {
		if exclude != "" && e.DocumentID == exclude {
			continue
		}
		if len(e.Vector) != len(queryVector) {
			return nil, goerr.New("query vector dimension mismatch",
				goerr.T(types.ErrTagValidation),
				goerr.V("query_dimension", len(queryVector)),
				goerr.V("stored_dimension", len(e.Vector)),
				goerr.V("document_id", e.DocumentID))
		}
		distance := CosineDistance(queryVector, e.Vector)
		results = append(results, model.SimilarityResult{
			CandidateID:     e.DocumentID,
			Distance:        distance,
			SimilarityScore: model.SimilarityScore(distance),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance == results[j].Distance {
			return results[i].CandidateID < results[j].CandidateID
		}
		return results[i].Distance < results[j].Distance
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (c *client) Pairwise(ctx context.Context, a, b types.DocumentID) (float64, error) {
	embA, err := c.repo.Get(ctx, a, c.modelName)
	if err != nil {
		return 0, goerr.Wrap(err, "no embedding stored for document",
			goerr.V("document_id", a))
	}

	embB, err := c.repo.Get(ctx, b, c.modelName)
	if err != nil {
		return 0, goerr.Wrap(err, "no embedding stored for document",
			goerr.V("document_id", b))
	}

	return CosineDistance(embA.Vector, embB.Vector), nil
}

func (c *client) Cluster(ctx context.Context, ids []types.DocumentID, threshold float64) ([]model.Cluster, error) {
	// Deduplicate while keeping a stable order for determinism
	seen := make(map[types.DocumentID]bool, len(ids))
	members := make([]types.DocumentID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })

	vectors := make(map[types.DocumentID][]float32, len(members))
	for _, id := range members {
		e, err := c.repo.Get(ctx, id, c.modelName)
		if err != nil {
			return nil, goerr.Wrap(err, "no embedding stored for document",
				goerr.V("document_id", id))
		}
		vectors[id] = e.Vector
	}

	parent := make(map[types.DocumentID]types.DocumentID, len(members))
	for _, id := range members {
		parent[id] = id
	}
	var find func(types.DocumentID) types.DocumentID
	find = func(id types.DocumentID) types.DocumentID {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}
		return parent[id]
	}
	union := func(a, b types.DocumentID) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	edges := make(map[types.DocumentID][]model.ClusterPair, len(members))
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			a, b := members[i], members[j]
			distance := CosineDistance(vectors[a], vectors[b])
			similarity := model.SimilarityScore(distance)
			if similarity >= threshold {
				union(a, b)
				edges[a] = append(edges[a], model.ClusterPair{
					A: a, B: b, Distance: distance, Similarity: similarity,
				})
			}
		}
	}

	grouped := make(map[types.DocumentID]*model.Cluster)
	for _, id := range members {
		root := find(id)
		cluster, ok := grouped[root]
		if !ok {
			cluster = &model.Cluster{}
			grouped[root] = cluster
		}
		cluster.Members = append(cluster.Members, id)
	}
	for _, id := range members {
		root := find(id)
		grouped[root].Pairs = append(grouped[root].Pairs, edges[id]...)
	}

	clusters := make([]model.Cluster, 0, len(grouped))
	for _, cluster := range grouped {
		clusters = append(clusters, *cluster)
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Members[0] < clusters[j].Members[0]
	})

	return clusters, nil
}
