package usecase

import "errors"

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrDocumentNotFound = errors.New("document not found")
	ErrRecordNotFound   = errors.New("record not found")

	// Ingestion errors
	ErrDuplicateDocument = errors.New("duplicate document ID in batch")
	ErrEmptyBatch        = errors.New("batch contains no documents")
)
