package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// documentDoc is the Firestore document representation of model.Document
type documentDoc struct {
	ID          string            `firestore:"ID"`
	Type        string            `firestore:"Type"`
	Content     string            `firestore:"Content"`
	Metadata    map[string]string `firestore:"Metadata,omitempty"`
	TypeFlagged bool              `firestore:"TypeFlagged"`
	CreatedAt   time.Time         `firestore:"CreatedAt"`
}

func toDocumentDoc(d *model.Document) *documentDoc {
	return &documentDoc{
		ID:          string(d.ID),
		Type:        string(d.Type),
		Content:     d.Content,
		Metadata:    d.Metadata,
		TypeFlagged: d.TypeFlagged,
		CreatedAt:   d.CreatedAt,
	}
}

func fromDocumentDoc(d *documentDoc) *model.Document {
	return &model.Document{
		ID:          types.DocumentID(d.ID),
		Type:        types.DocumentType(d.Type),
		Content:     d.Content,
		Metadata:    d.Metadata,
		TypeFlagged: d.TypeFlagged,
		CreatedAt:   d.CreatedAt,
	}
}

type documentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newDocumentRepository(client *firestore.Client) *documentRepository {
	return &documentRepository{client: client}
}

func (r *documentRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "documents")
}

func (r *documentRepository) Put(ctx context.Context, doc *model.Document) (*model.Document, error) {
	stored := *doc
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	docRef := r.collection().Doc(string(stored.ID))
	if _, err := docRef.Set(ctx, toDocumentDoc(&stored)); err != nil {
		return nil, goerr.Wrap(err, "failed to put document", goerr.V("id", stored.ID))
	}

	return &stored, nil
}

func (r *documentRepository) Get(ctx context.Context, id types.DocumentID) (*model.Document, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "document not found",
				goerr.T(types.ErrTagNotFound), goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get document", goerr.V("id", id))
	}

	var d documentDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal document", goerr.V("id", id))
	}

	return fromDocumentDoc(&d), nil
}

func (r *documentRepository) List(ctx context.Context, limit int) ([]*model.Document, error) {
	query := r.collection().OrderBy("CreatedAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	documents := make([]*model.Document, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate documents")
		}

		var d documentDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal document")
		}

		documents = append(documents, fromDocumentDoc(&d))
	}

	return documents, nil
}
