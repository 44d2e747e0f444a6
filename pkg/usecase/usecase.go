package usecase

import (
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/service/embedding"
	"github.com/lexintel-lab/themis/pkg/service/generative"
	"github.com/lexintel-lab/themis/pkg/service/similarity"
)

// Config bounds the per-document pipeline and the batch runner
type Config struct {
	// MaxContentSize is the ingestion limit in bytes; <= 0 uses the
	// model default
	MaxContentSize int

	// DocumentDeadline bounds the whole fan-out for one document. When
	// it expires the record is frozen; outstanding operations are
	// recorded as timeouts.
	DocumentDeadline time.Duration

	// SimilarCount is the number of similar documents attached to each
	// record; 0 disables the similarity lookup
	SimilarCount int

	// Workers limits concurrent documents in a batch run
	Workers int
}

// DefaultConfig returns the bounds used when configuration is absent
func DefaultConfig() Config {
	return Config{
		MaxContentSize:   model.DefaultMaxContentSize,
		DocumentDeadline: 2 * time.Minute,
		SimilarCount:     5,
		Workers:          4,
	}
}

// UseCases wires the document intelligence pipeline: ingestion,
// per-document processing, aggregation and batch runs.
type UseCases struct {
	repo       interfaces.Repository
	generative generative.Service
	embedder   embedding.Service
	similarity similarity.Service
	cfg        Config
}

type Option func(*UseCases)

// WithConfig overrides the default pipeline bounds
func WithConfig(cfg Config) Option {
	return func(uc *UseCases) {
		uc.cfg = cfg
	}
}

func New(repo interfaces.Repository, generativeSvc generative.Service, embedder embedding.Service, similaritySvc similarity.Service, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:       repo,
		generative: generativeSvc,
		embedder:   embedder,
		similarity: similaritySvc,
		cfg:        DefaultConfig(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.cfg.DocumentDeadline <= 0 {
		uc.cfg.DocumentDeadline = DefaultConfig().DocumentDeadline
	}
	if uc.cfg.Workers <= 0 {
		uc.cfg.Workers = DefaultConfig().Workers
	}

	return uc
}

// Repository exposes the underlying repository for controllers
func (uc *UseCases) Repository() interfaces.Repository {
	return uc.repo
}
