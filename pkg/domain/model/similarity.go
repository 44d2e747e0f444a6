package model

import "github.com/lexintel-lab/themis/pkg/domain/types"

// SimilarityResult is one candidate returned by a similarity query.
// Ephemeral: computed on demand, never primary data.
type SimilarityResult struct {
	QueryDocumentID types.DocumentID
	CandidateID     types.DocumentID
	Distance        float64
	SimilarityScore float64
}

// SimilarityScore derives the reported score from a cosine distance.
// It is the single derivation point; the score is never recomputed from
// the vectors independently of the distance. Clamping to [0,1] applies
// only to reporting.
func SimilarityScore(distance float64) float64 {
	score := 1 - distance
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// ClusterPair records one edge of a cluster with its exact distance and
// similarity for auditability.
type ClusterPair struct {
	A          types.DocumentID
	B          types.DocumentID
	Distance   float64
	Similarity float64
}

// Cluster is one connected component of the pairwise similarity graph
type Cluster struct {
	Members []types.DocumentID
	Pairs   []ClusterPair
}
