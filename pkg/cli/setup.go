package cli

import (
	"context"

	"github.com/lexintel-lab/themis/pkg/cli/config"
	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
	"github.com/lexintel-lab/themis/pkg/service/embedding"
	"github.com/lexintel-lab/themis/pkg/service/generative"
	"github.com/lexintel-lab/themis/pkg/service/similarity"
	"github.com/lexintel-lab/themis/pkg/usecase"
	"github.com/lexintel-lab/themis/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// pipelineConfigs groups the shared configuration of the commands that
// run the full pipeline (serve and process).
type pipelineConfigs struct {
	gemini   config.Gemini
	repo     config.Repository
	pipeline config.Pipeline
	forecast config.Forecast
	audit    config.Audit
}

func (p *pipelineConfigs) flags() []cli.Flag {
	flags := p.gemini.Flags()
	flags = append(flags, p.repo.Flags()...)
	flags = append(flags, p.pipeline.Flags()...)
	flags = append(flags, p.forecast.Flags()...)
	flags = append(flags, p.audit.Flags()...)
	return flags
}

// configure wires the repository, services and use cases. The returned
// repository must be closed by the caller.
func (p *pipelineConfigs) configure(ctx context.Context) (*usecase.UseCases, interfaces.Repository, error) {
	repo, err := p.repo.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}

	llm, err := p.gemini.Configure(ctx)
	if err != nil {
		repo.Close() //nolint:errcheck // already failing
		return nil, nil, goerr.Wrap(err, "failed to configure Gemini client")
	}

	forecaster, err := p.forecast.Configure()
	if err != nil {
		repo.Close() //nolint:errcheck // already failing
		return nil, nil, goerr.Wrap(err, "failed to configure forecast client")
	}
	if forecaster == nil {
		logging.Default().Info("Forecast endpoint not configured, forecast operation will report service errors")
	}

	archiver, err := p.audit.Configure(ctx)
	if err != nil {
		repo.Close() //nolint:errcheck // already failing
		return nil, nil, goerr.Wrap(err, "failed to configure audit archiver")
	}
	if archiver != nil {
		logging.Default().Info("Raw output archiving enabled")
	}

	schema, err := p.pipeline.Schema()
	if err != nil {
		repo.Close() //nolint:errcheck // already failing
		return nil, nil, goerr.Wrap(err, "failed to load extraction schema")
	}

	policy := p.pipeline.RetryPolicy()

	genOpts := []generative.Option{generative.WithRetryPolicy(policy)}
	if archiver != nil {
		genOpts = append(genOpts, generative.WithArchiver(archiver))
	}
	generativeSvc, err := generative.New(llm, forecaster, schema, p.pipeline.GenerativeConfig(), genOpts...)
	if err != nil {
		repo.Close() //nolint:errcheck // already failing
		return nil, nil, goerr.Wrap(err, "failed to create generative service")
	}

	embedder, err := embedding.New(llm, repo.Embedding(),
		p.pipeline.EmbeddingModel(), p.pipeline.EmbeddingDimension(),
		embedding.WithRetryPolicy(policy))
	if err != nil {
		repo.Close() //nolint:errcheck // already failing
		return nil, nil, goerr.Wrap(err, "failed to create embedding service")
	}

	similaritySvc, err := similarity.New(repo.Embedding(), p.pipeline.EmbeddingModel())
	if err != nil {
		repo.Close() //nolint:errcheck // already failing
		return nil, nil, goerr.Wrap(err, "failed to create similarity service")
	}

	uc := usecase.New(repo, generativeSvc, embedder, similaritySvc,
		usecase.WithConfig(p.pipeline.UsecaseConfig()))

	return uc, repo, nil
}
