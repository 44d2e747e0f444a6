package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/service/generative"
	"github.com/lexintel-lab/themis/pkg/service/retry"
	"github.com/lexintel-lab/themis/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Pipeline holds CLI flags bounding the document pipeline, plus an
// optional TOML file declaring the extraction schema.
type Pipeline struct {
	schemaPath         string
	operationTimeout   time.Duration
	documentDeadline   time.Duration
	retryMaxAttempts   int
	rateLimit          float64
	workers            int
	similarCount       int
	maxContentSize     int
	embeddingModel     string
	embeddingDimension int
	forecastHorizon    int
	forecastConfidence float64
	summaryMaxWords    int
}

// Flags returns CLI flags for pipeline configuration
func (p *Pipeline) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "extraction-schema",
			Usage:       "Path to TOML file declaring the extraction field allow-list",
			Sources:     cli.EnvVars("THEMIS_EXTRACTION_SCHEMA"),
			Destination: &p.schemaPath,
		},
		&cli.DurationFlag{
			Name:        "operation-timeout",
			Usage:       "Timeout applied to each generative operation",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("THEMIS_OPERATION_TIMEOUT"),
			Destination: &p.operationTimeout,
		},
		&cli.DurationFlag{
			Name:        "document-deadline",
			Usage:       "Deadline for the whole fan-out of one document",
			Value:       2 * time.Minute,
			Sources:     cli.EnvVars("THEMIS_DOCUMENT_DEADLINE"),
			Destination: &p.documentDeadline,
		},
		&cli.IntFlag{
			Name:        "retry-max-attempts",
			Usage:       "Maximum attempts per external call",
			Value:       3,
			Sources:     cli.EnvVars("THEMIS_RETRY_MAX_ATTEMPTS"),
			Destination: &p.retryMaxAttempts,
		},
		&cli.FloatFlag{
			Name:        "rate-limit",
			Usage:       "External call rate limit in requests per second (0 disables)",
			Value:       0,
			Sources:     cli.EnvVars("THEMIS_RATE_LIMIT"),
			Destination: &p.rateLimit,
		},
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "Concurrent documents in a batch run",
			Value:       4,
			Sources:     cli.EnvVars("THEMIS_WORKERS"),
			Destination: &p.workers,
		},
		&cli.IntFlag{
			Name:        "similar-count",
			Usage:       "Similar documents attached to each record (0 disables)",
			Value:       5,
			Sources:     cli.EnvVars("THEMIS_SIMILAR_COUNT"),
			Destination: &p.similarCount,
		},
		&cli.IntFlag{
			Name:        "max-content-size",
			Usage:       "Maximum document content size in bytes",
			Value:       model.DefaultMaxContentSize,
			Sources:     cli.EnvVars("THEMIS_MAX_CONTENT_SIZE"),
			Destination: &p.maxContentSize,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Embedding model name",
			Value:       model.DefaultEmbeddingModel,
			Sources:     cli.EnvVars("THEMIS_EMBEDDING_MODEL"),
			Destination: &p.embeddingModel,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Embedding vector dimension",
			Value:       model.DefaultEmbeddingDimension,
			Sources:     cli.EnvVars("THEMIS_EMBEDDING_DIMENSION"),
			Destination: &p.embeddingDimension,
		},
		&cli.IntFlag{
			Name:        "forecast-horizon",
			Usage:       "Number of forecast steps requested",
			Value:       12,
			Sources:     cli.EnvVars("THEMIS_FORECAST_HORIZON"),
			Destination: &p.forecastHorizon,
		},
		&cli.FloatFlag{
			Name:        "forecast-confidence",
			Usage:       "Confidence level for forecast intervals",
			Value:       0.95,
			Sources:     cli.EnvVars("THEMIS_FORECAST_CONFIDENCE"),
			Destination: &p.forecastConfidence,
		},
		&cli.IntFlag{
			Name:        "summary-max-words",
			Usage:       "Requested maximum summary length in words",
			Value:       200,
			Sources:     cli.EnvVars("THEMIS_SUMMARY_MAX_WORDS"),
			Destination: &p.summaryMaxWords,
		},
	}
}

// LogAttrs returns log attributes for the pipeline configuration
func (p *Pipeline) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("extraction_schema", p.schemaPath),
		slog.Duration("operation_timeout", p.operationTimeout),
		slog.Duration("document_deadline", p.documentDeadline),
		slog.Int("retry_max_attempts", p.retryMaxAttempts),
		slog.Float64("rate_limit", p.rateLimit),
		slog.Int("workers", p.workers),
		slog.Int("similar_count", p.similarCount),
		slog.String("embedding_model", p.embeddingModel),
		slog.Int("embedding_dimension", p.embeddingDimension),
	}
}

// schemaFile is the TOML layout of the extraction schema file
type schemaFile struct {
	Fields []schemaField `toml:"field"`
}

type schemaField struct {
	Name        string `toml:"name"`
	Kind        string `toml:"kind"`
	Description string `toml:"description"`
}

// Schema loads the extraction schema from the configured TOML file,
// falling back to the default allow-list when no file is given.
func (p *Pipeline) Schema() (*model.ExtractionSchema, error) {
	if p.schemaPath == "" {
		return model.DefaultExtractionSchema(), nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(p.schemaPath)
	if err != nil {
		return nil, goerr.Wrap(ErrConfigNotFound, "failed to read extraction schema",
			goerr.V("path", p.schemaPath), goerr.V("cause", err.Error()))
	}

	var file schemaFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse extraction schema TOML",
			goerr.V("path", p.schemaPath))
	}

	schema := &model.ExtractionSchema{
		Fields: make([]model.ExtractionField, len(file.Fields)),
	}
	for i, f := range file.Fields {
		kind := model.FieldKind(f.Kind)
		if f.Kind == "" {
			kind = model.FieldKindString
		}
		schema.Fields[i] = model.ExtractionField{
			Name:        f.Name,
			Kind:        kind,
			Description: f.Description,
		}
	}

	if err := schema.Validate(); err != nil {
		return nil, goerr.Wrap(err, "extraction schema validation failed",
			goerr.V("path", p.schemaPath))
	}

	return schema, nil
}

// RetryPolicy builds the shared retry policy. The rate limiter, when
// enabled, is shared by every external call of the process.
func (p *Pipeline) RetryPolicy() retry.Policy {
	policy := retry.DefaultPolicy()
	if p.retryMaxAttempts > 0 {
		policy.MaxAttempts = p.retryMaxAttempts
	}
	if p.rateLimit > 0 {
		policy.Limiter = rate.NewLimiter(rate.Limit(p.rateLimit), 1)
	}
	return policy
}

// GenerativeConfig builds the generative service bounds
func (p *Pipeline) GenerativeConfig() generative.Config {
	cfg := generative.DefaultConfig()
	if p.operationTimeout > 0 {
		cfg.OperationTimeout = p.operationTimeout
	}
	if p.forecastHorizon > 0 {
		cfg.ForecastHorizon = p.forecastHorizon
	}
	if p.forecastConfidence > 0 {
		cfg.ForecastConfidence = p.forecastConfidence
	}
	if p.summaryMaxWords > 0 {
		cfg.MaxSummaryLength = p.summaryMaxWords
	}
	return cfg
}

// UsecaseConfig builds the pipeline bounds for the use case layer
func (p *Pipeline) UsecaseConfig() usecase.Config {
	cfg := usecase.DefaultConfig()
	if p.maxContentSize > 0 {
		cfg.MaxContentSize = p.maxContentSize
	}
	if p.documentDeadline > 0 {
		cfg.DocumentDeadline = p.documentDeadline
	}
	cfg.SimilarCount = p.similarCount
	if p.workers > 0 {
		cfg.Workers = p.workers
	}
	return cfg
}

// EmbeddingModel returns the configured embedding model name
func (p *Pipeline) EmbeddingModel() string {
	return p.embeddingModel
}

// EmbeddingDimension returns the configured embedding vector dimension
func (p *Pipeline) EmbeddingDimension() int {
	return p.embeddingDimension
}
