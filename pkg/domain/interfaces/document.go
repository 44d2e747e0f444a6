package interfaces

import (
	"context"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
)

// DocumentRepository defines persistence for ingested documents
type DocumentRepository interface {
	// Put stores a document. Re-ingestion under the same ID supersedes
	// the prior document wholesale.
	Put(ctx context.Context, doc *model.Document) (*model.Document, error)

	// Get retrieves the current document by ID
	Get(ctx context.Context, id types.DocumentID) (*model.Document, error)

	// List retrieves up to limit documents ordered by creation time
	// descending. limit <= 0 returns all documents.
	List(ctx context.Context, limit int) ([]*model.Document, error)
}
