package memory

import (
	"errors"

	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Memory is an in-memory repository for development and testing
type Memory struct {
	document  *documentRepository
	embedding *embeddingRepository
	result    *resultRepository
	record    *recordRepository
}

var _ interfaces.Repository = &Memory{}

// New creates a new in-memory repository
func New() *Memory {
	return &Memory{
		document:  newDocumentRepository(),
		embedding: newEmbeddingRepository(),
		result:    newResultRepository(),
		record:    newRecordRepository(),
	}
}

func (m *Memory) Document() interfaces.DocumentRepository {
	return m.document
}

func (m *Memory) Embedding() interfaces.EmbeddingRepository {
	return m.embedding
}

func (m *Memory) Result() interfaces.ResultRepository {
	return m.result
}

func (m *Memory) Record() interfaces.RecordRepository {
	return m.record
}

func (m *Memory) Close() error {
	return nil
}
