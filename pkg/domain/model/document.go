package model

import (
	"strings"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultMaxContentSize is the ingestion limit for document content in bytes
const DefaultMaxContentSize = 1 << 20

// Document is a legal document accepted by the ingestion gateway.
// Immutable once ingested; re-ingestion under the same ID supersedes the
// prior document, it never mutates it.
type Document struct {
	ID        types.DocumentID
	Type      types.DocumentType
	Content   string
	Metadata  map[string]string
	CreatedAt time.Time

	// TypeFlagged marks documents ingested with a type outside the known
	// enum. Such documents are accepted for forward compatibility.
	TypeFlagged bool
}

// Validate checks the document against the ingestion rules.
// maxContentSize <= 0 falls back to DefaultMaxContentSize.
func (d *Document) Validate(maxContentSize int) error {
	if maxContentSize <= 0 {
		maxContentSize = DefaultMaxContentSize
	}

	if err := d.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid document ID")
	}

	if strings.TrimSpace(d.Content) == "" {
		return goerr.New("document content is required",
			goerr.T(types.ErrTagValidation),
			goerr.V("document_id", d.ID))
	}

	if len(d.Content) > maxContentSize {
		return goerr.New("document content exceeds maximum size",
			goerr.T(types.ErrTagValidation),
			goerr.V("document_id", d.ID),
			goerr.V("size", len(d.Content)),
			goerr.V("max", maxContentSize))
	}

	return nil
}

// Flag normalizes the document type and marks unknown types
func (d *Document) Flag() {
	if !d.Type.IsKnown() {
		d.TypeFlagged = true
	}
}
