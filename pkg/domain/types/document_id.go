package types

import (
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// DocumentID is the caller-assigned unique identifier of a document
type DocumentID string

// Validate checks if the document ID is usable as a key
func (d DocumentID) Validate() error {
	if d == "" {
		return goerr.New("document ID is required", goerr.T(ErrTagValidation))
	}
	return nil
}

// String returns the string representation of the document ID
func (d DocumentID) String() string {
	return string(d)
}

// AttemptID identifies a single processing attempt of a document
type AttemptID string

// NewAttemptID generates a new time-ordered AttemptID
func NewAttemptID() AttemptID {
	return AttemptID(uuid.Must(uuid.NewV7()).String())
}

// String returns the string representation of the attempt ID
func (a AttemptID) String() string {
	return string(a)
}
