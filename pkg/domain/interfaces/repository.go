package interfaces

// Repository provides access to all entity repositories
type Repository interface {
	Document() DocumentRepository
	Embedding() EmbeddingRepository
	Result() ResultRepository
	Record() RecordRepository

	// Close releases all resources held by the repository
	Close() error
}
