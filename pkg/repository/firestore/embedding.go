package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// embeddingDoc is the Firestore document representation of model.Embedding.
// Vector is stored as firestore.Vector32 so that vector indexes apply.
type embeddingDoc struct {
	DocumentID string             `firestore:"DocumentID"`
	Vector     firestore.Vector32 `firestore:"Vector"`
	ModelName  string             `firestore:"ModelName"`
	CreatedAt  time.Time          `firestore:"CreatedAt"`
}

func toEmbeddingDoc(e *model.Embedding) *embeddingDoc {
	return &embeddingDoc{
		DocumentID: string(e.DocumentID),
		Vector:     firestore.Vector32(e.Vector),
		ModelName:  e.ModelName,
		CreatedAt:  e.CreatedAt,
	}
}

func fromEmbeddingDoc(d *embeddingDoc) *model.Embedding {
	return &model.Embedding{
		DocumentID: types.DocumentID(d.DocumentID),
		Vector:     []float32(d.Vector),
		ModelName:  d.ModelName,
		CreatedAt:  d.CreatedAt,
	}
}

type embeddingRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newEmbeddingRepository(client *firestore.Client) *embeddingRepository {
	return &embeddingRepository{client: client}
}

func (r *embeddingRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "embeddings")
}

// embeddingKey yields the deterministic document key for one
// (document_id, model_name) pair, so Set is a replace, not an append.
func embeddingKey(id types.DocumentID, modelName string) string {
	return fmt.Sprintf("%s:%s", id, modelName)
}

func (r *embeddingRepository) Upsert(ctx context.Context, embedding *model.Embedding) (*model.Embedding, error) {
	stored := *embedding
	stored.CreatedAt = time.Now().UTC()

	docRef := r.collection().Doc(embeddingKey(stored.DocumentID, stored.ModelName))
	if _, err := docRef.Set(ctx, toEmbeddingDoc(&stored)); err != nil {
		return nil, goerr.Wrap(err, "failed to upsert embedding",
			goerr.V("document_id", stored.DocumentID),
			goerr.V("model_name", stored.ModelName))
	}

	return &stored, nil
}

func (r *embeddingRepository) Get(ctx context.Context, id types.DocumentID, modelName string) (*model.Embedding, error) {
	doc, err := r.collection().Doc(embeddingKey(id, modelName)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "embedding not found",
				goerr.T(types.ErrTagNotFound),
				goerr.V("document_id", id),
				goerr.V("model_name", modelName))
		}
		return nil, goerr.Wrap(err, "failed to get embedding",
			goerr.V("document_id", id), goerr.V("model_name", modelName))
	}

	var d embeddingDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal embedding", goerr.V("document_id", id))
	}

	return fromEmbeddingDoc(&d), nil
}

func (r *embeddingRepository) ListByModel(ctx context.Context, modelName string) ([]*model.Embedding, error) {
	iter := r.collection().
		Where("ModelName", "==", modelName).
		Documents(ctx)
	defer iter.Stop()

	embeddings := make([]*model.Embedding, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate embeddings",
				goerr.V("model_name", modelName))
		}

		var d embeddingDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal embedding")
		}

		embeddings = append(embeddings, fromEmbeddingDoc(&d))
	}

	return embeddings, nil
}
