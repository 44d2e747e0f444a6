package interfaces

import (
	"context"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
)

// RecordRepository defines persistence for document intelligence records
type RecordRepository interface {
	// Put stores a record as the complete replacement for the document's
	// current record. The latest attempt always wins; fields from two
	// attempts are never merged.
	Put(ctx context.Context, record *model.DocumentIntelligenceRecord) (*model.DocumentIntelligenceRecord, error)

	// Get retrieves the current record for a document
	Get(ctx context.Context, id types.DocumentID) (*model.DocumentIntelligenceRecord, error)
}
