package generative

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"strings"
	"text/template"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/lexintel-lab/themis/pkg/service/retry"
	"github.com/lexintel-lab/themis/pkg/service/sanitize"
	"github.com/lexintel-lab/themis/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"golang.org/x/sync/errgroup"
)

//go:embed prompt/summarize.md
var summarizePromptTmpl string

//go:embed prompt/extract.md
var extractPromptTmpl string

//go:embed prompt/classify.md
var classifyPromptTmpl string

var (
	summarizePrompt = template.Must(template.New("summarize").Parse(summarizePromptTmpl))
	extractPrompt   = template.Must(template.New("extract").Parse(extractPromptTmpl))
	classifyPrompt  = template.Must(template.New("classify").Parse(classifyPromptTmpl))
)

// client implements Service
type client struct {
	llm        gollem.LLMClient
	forecaster interfaces.Forecaster
	archiver   interfaces.Archiver
	schema     *model.ExtractionSchema
	policy     retry.Policy
	cfg        Config
}

// Option is a functional option for client configuration
type Option func(*client)

// WithRetryPolicy overrides the default retry policy
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *client) {
		c.policy = policy
	}
}

// WithArchiver enables raw output archiving
func WithArchiver(archiver interfaces.Archiver) Option {
	return func(c *client) {
		c.archiver = archiver
	}
}

// New creates a new generative service. forecaster may be nil, in which
// case the forecast operation reports a service error.
func New(llm gollem.LLMClient, forecaster interfaces.Forecaster, schema *model.ExtractionSchema, cfg Config, opts ...Option) (Service, error) {
	if llm == nil {
		return nil, goerr.New("LLM client is required")
	}
	if schema == nil {
		schema = model.DefaultExtractionSchema()
	}
	if err := schema.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid extraction schema")
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = DefaultConfig().OperationTimeout
	}

	c := &client{
		llm:        llm,
		forecaster: forecaster,
		schema:     schema,
		policy:     retry.DefaultPolicy(),
		cfg:        cfg,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) RunAll(ctx context.Context, doc *model.Document, attempt types.AttemptID) map[types.Operation]*model.GenerativeResult {
	ops := types.AllOperations()
	results := make([]*model.GenerativeResult, len(ops))

	var eg errgroup.Group
	for i, op := range ops {
		eg.Go(func() error {
			results[i] = c.Run(ctx, doc, op, attempt)
			return nil
		})
	}
	// Run contains all failures in result statuses
	_ = eg.Wait()

	out := make(map[types.Operation]*model.GenerativeResult, len(ops))
	for i, op := range ops {
		out[op] = results[i]
	}
	return out
}

func (c *client) Run(ctx context.Context, doc *model.Document, op types.Operation, attempt types.AttemptID) *model.GenerativeResult {
	opCtx, cancel := context.WithTimeout(ctx, c.cfg.OperationTimeout)
	defer cancel()

	start := time.Now()
	raw, parsed, note, err := c.run(opCtx, doc, op)

	result := &model.GenerativeResult{
		DocumentID: doc.ID,
		AttemptID:  attempt,
		Operation:  op,
		RawOutput:  raw,
		Parsed:     parsed,
		Status:     types.StatusForError(classifyDeadline(opCtx, err)),
		Latency:    time.Since(start),
		Note:       note,
		CreatedAt:  time.Now().UTC(),
	}

	if err != nil {
		logging.From(ctx).Warn("generative operation degraded",
			"document_id", doc.ID,
			"operation", op,
			"status", result.Status,
			"error", err.Error(),
		)
	}

	if c.archiver != nil && raw != "" {
		if archiveErr := c.archiver.ArchiveRawOutput(ctx, doc.ID, op, result.AttemptID, raw); archiveErr != nil {
			logging.From(ctx).Warn("failed to archive raw output",
				"document_id", doc.ID, "operation", op, "error", archiveErr.Error())
		}
	}

	return result
}

// classifyDeadline re-tags an error as a timeout when the operation
// context expired; gollem surfaces deadline expiry as a plain error.
func classifyDeadline(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return goerr.Wrap(err, "operation deadline exceeded", goerr.T(types.ErrTagTimeout))
	}
	return err
}

func (c *client) run(ctx context.Context, doc *model.Document, op types.Operation) (raw string, parsed *model.Value, note string, err error) {
	switch op {
	case types.OperationSummarize:
		return c.summarize(ctx, doc)
	case types.OperationExtract:
		return c.extract(ctx, doc)
	case types.OperationClassifyUrgency:
		return c.classify(ctx, doc)
	case types.OperationForecast:
		return c.forecast(ctx)
	default:
		return "", nil, "", goerr.New("unknown operation",
			goerr.T(types.ErrTagValidation), goerr.V("operation", op))
	}
}

func (c *client) summarize(ctx context.Context, doc *model.Document) (string, *model.Value, string, error) {
	systemPrompt, err := renderTemplate(summarizePrompt, map[string]any{
		"MaxWords": c.cfg.MaxSummaryLength,
	})
	if err != nil {
		return "", nil, "", err
	}

	raw, err := c.generate(ctx, systemPrompt, buildUserPrompt(doc), nil)
	if err != nil {
		return raw, nil, "", err
	}

	text, err := sanitize.PlainText(raw)
	if err != nil {
		return raw, nil, "", err
	}

	return raw, model.TextValue(text), "", nil
}

func (c *client) extract(ctx context.Context, doc *model.Document) (string, *model.Value, string, error) {
	systemPrompt, err := renderTemplate(extractPrompt, map[string]any{
		"Fields": c.schema.Fields,
	})
	if err != nil {
		return "", nil, "", err
	}

	raw, err := c.generate(ctx, systemPrompt, buildUserPrompt(doc), c.responseSchema())
	if err != nil {
		return raw, nil, "", err
	}

	fields, err := sanitize.JSONObject(raw, c.schema)
	if err != nil {
		return raw, nil, "", err
	}

	return raw, model.ObjectValue(fields), "", nil
}

func (c *client) classify(ctx context.Context, doc *model.Document) (string, *model.Value, string, error) {
	systemPrompt, err := renderTemplate(classifyPrompt, nil)
	if err != nil {
		return "", nil, "", err
	}

	raw, err := c.generate(ctx, systemPrompt, buildUserPrompt(doc), nil)
	if err != nil {
		return raw, nil, "", err
	}

	value, note := sanitize.Boolean(raw)
	return raw, model.BoolValue(value), note, nil
}

func (c *client) forecast(ctx context.Context) (string, *model.Value, string, error) {
	if c.forecaster == nil {
		return "", nil, "", goerr.New("forecast service is not configured",
			goerr.T(types.ErrTagService))
	}

	var points []model.ForecastPoint
	err := c.policy.Do(ctx, "forecast", func(ctx context.Context) error {
		var callErr error
		points, callErr = c.forecaster.Forecast(ctx, c.cfg.ForecastHorizon, c.cfg.ForecastConfidence)
		return callErr
	})
	if err != nil {
		return "", nil, "", err
	}

	forecast := &model.Forecast{
		Horizon:         c.cfg.ForecastHorizon,
		ConfidenceLevel: c.cfg.ForecastConfidence,
		Points:          points,
	}

	return "", model.ForecastValue(forecast), "", nil
}

// generate performs one text generation call under the retry policy
func (c *client) generate(ctx context.Context, systemPrompt, userPrompt string, schema *gollem.Parameter) (string, error) {
	var raw string

	err := c.policy.Do(ctx, "generate", func(ctx context.Context) error {
		sessionOpts := []gollem.SessionOption{
			gollem.WithSessionSystemPrompt(systemPrompt),
		}
		if schema != nil {
			sessionOpts = append(sessionOpts,
				gollem.WithSessionContentType(gollem.ContentTypeJSON),
				gollem.WithSessionResponseSchema(schema),
			)
		}

		session, err := c.llm.NewSession(ctx, sessionOpts...)
		if err != nil {
			return goerr.Wrap(err, "failed to create LLM session", goerr.T(types.ErrTagService))
		}

		resp, err := session.GenerateContent(ctx, gollem.Text(userPrompt))
		if err != nil {
			return goerr.Wrap(err, "failed to generate content", goerr.T(types.ErrTagService))
		}
		if len(resp.Texts) == 0 {
			return goerr.New("LLM returned no text", goerr.T(types.ErrTagService))
		}

		raw = strings.Join(resp.Texts, "\n")
		return nil
	})

	return raw, err
}

// responseSchema builds the JSON schema for structured extraction from
// the declared allow-list
func (c *client) responseSchema() *gollem.Parameter {
	properties := make(map[string]*gollem.Parameter, len(c.schema.Fields))
	for _, f := range c.schema.Fields {
		switch f.Kind {
		case model.FieldKindStringList:
			properties[f.Name] = &gollem.Parameter{
				Type:        gollem.TypeArray,
				Description: f.Description,
				Items:       &gollem.Parameter{Type: gollem.TypeString},
			}
		default:
			properties[f.Name] = &gollem.Parameter{
				Type:        gollem.TypeString,
				Description: f.Description,
			}
		}
	}

	return &gollem.Parameter{
		Title:       "DocumentExtraction",
		Description: "Structured fields extracted from a legal document",
		Type:        gollem.TypeObject,
		Properties:  properties,
	}
}

func buildUserPrompt(doc *model.Document) string {
	var sb strings.Builder
	sb.WriteString("## Document\n\n")
	sb.WriteString("**ID:** " + string(doc.ID) + "\n")
	sb.WriteString("**Type:** " + doc.Type.Normalize().String() + "\n\n")
	sb.WriteString("## Content\n\n")
	sb.WriteString(doc.Content)
	sb.WriteString("\n")
	return sb.String()
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", goerr.Wrap(err, "failed to render prompt template")
	}
	return buf.String(), nil
}
