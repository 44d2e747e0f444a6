package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Firestore is a Firestore-backed repository. The embeddings collection
// is the persistent similarity index and requires the vector index
// created by the migrate command.
type Firestore struct {
	client    *firestore.Client
	document  *documentRepository
	embedding *embeddingRepository
	result    *resultRepository
	record    *recordRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes all collection names, used to isolate
// test runs against a shared project.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.document.collectionPrefix = prefix
		f.embedding.collectionPrefix = prefix
		f.result.collectionPrefix = prefix
		f.record.collectionPrefix = prefix
	}
}

// New creates a Firestore repository. databaseID may be empty to use the
// default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error

	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:    client,
		document:  newDocumentRepository(client),
		embedding: newEmbeddingRepository(client),
		result:    newResultRepository(client),
		record:    newRecordRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Document() interfaces.DocumentRepository {
	return f.document
}

func (f *Firestore) Embedding() interfaces.EmbeddingRepository {
	return f.embedding
}

func (f *Firestore) Result() interfaces.ResultRepository {
	return f.result
}

func (f *Firestore) Record() interfaces.RecordRepository {
	return f.record
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
