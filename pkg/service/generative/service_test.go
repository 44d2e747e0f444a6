package generative_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/lexintel-lab/themis/pkg/service/generative"
	"github.com/lexintel-lab/themis/pkg/service/retry"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
)

// mockLLMSession is a mock gollem Session for testing
type mockLLMSession struct {
	generateContentFn func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error)
}

func (s *mockLLMSession) Generate(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (*gollem.Response, error) {
	return s.GenerateContent(ctx, input...)
}

func (s *mockLLMSession) Stream(ctx context.Context, input []gollem.Input, opts ...gollem.GenerateOption) (<-chan *gollem.Response, error) {
	return s.GenerateStream(ctx, input...)
}

func (s *mockLLMSession) GenerateContent(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
	if s.generateContentFn != nil {
		return s.generateContentFn(ctx, input...)
	}
	return &gollem.Response{Texts: []string{"mock response"}}, nil
}

func (s *mockLLMSession) GenerateStream(ctx context.Context, input ...gollem.Input) (<-chan *gollem.Response, error) {
	return nil, nil
}

func (s *mockLLMSession) History() (*gollem.History, error) {
	return nil, nil
}

func (s *mockLLMSession) AppendHistory(*gollem.History) error {
	return nil
}

func (s *mockLLMSession) CountToken(ctx context.Context, input ...gollem.Input) (int, error) {
	return 0, nil
}

// mockLLMClient is a mock gollem LLMClient for testing
type mockLLMClient struct {
	newSessionFn func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	if c.newSessionFn != nil {
		return c.newSessionFn(ctx, options...)
	}
	return &mockLLMSession{}, nil
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	return nil, nil
}

// respondWith returns a client whose sessions always answer with text
func respondWith(text string) *mockLLMClient {
	return &mockLLMClient{
		newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
			return &mockLLMSession{
				generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
					return &gollem.Response{Texts: []string{text}}, nil
				},
			}, nil
		},
	}
}

type mockForecaster struct {
	forecastFn func(ctx context.Context, horizon int, confidenceLevel float64) ([]model.ForecastPoint, error)
}

func (m *mockForecaster) Forecast(ctx context.Context, horizon int, confidenceLevel float64) ([]model.ForecastPoint, error) {
	if m.forecastFn != nil {
		return m.forecastFn(ctx, horizon, confidenceLevel)
	}
	return []model.ForecastPoint{
		{Timestamp: time.Now().UTC(), PointEstimate: 10, ConfidenceLow: 8, ConfidenceHigh: 12},
	}, nil
}

func testDocument() *model.Document {
	return &model.Document{
		ID:      "doc-001",
		Type:    types.DocumentTypeContract,
		Content: "This agreement is entered into by Acme Corp and Beta LLC.",
	}
}

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{MaxAttempts: attempts, InitialBackoff: time.Millisecond}
}

func TestRunSummarize(t *testing.T) {
	ctx := context.Background()

	t.Run("successful summary", func(t *testing.T) {
		svc, err := generative.New(respondWith("A short summary of the agreement."), nil, nil, generative.Config{})
		gt.NoError(t, err).Required()

		result := svc.Run(ctx, testDocument(), types.OperationSummarize, "attempt-1")
		gt.Value(t, result.Status).Equal(types.ResultStatusOK)
		gt.Value(t, result.Parsed.Kind).Equal(model.ValueKindText)
		gt.Value(t, result.Parsed.Text).Equal("A short summary of the agreement.")
		gt.Value(t, result.Operation).Equal(types.OperationSummarize)
		gt.Value(t, result.AttemptID).Equal(types.AttemptID("attempt-1"))
	})

	t.Run("empty output is a parse error with raw preserved", func(t *testing.T) {
		svc, err := generative.New(respondWith("   "), nil, nil, generative.Config{})
		gt.NoError(t, err).Required()

		result := svc.Run(ctx, testDocument(), types.OperationSummarize, "attempt-1")
		gt.Value(t, result.Status).Equal(types.ResultStatusParseError)
		gt.Value(t, result.RawOutput).Equal("   ")
	})
}

func TestRunExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("structured fields parse", func(t *testing.T) {
		svc, err := generative.New(
			respondWith(`{"jurisdiction": "Delaware", "parties": ["Acme Corp", "Beta LLC"]}`),
			nil, nil, generative.Config{})
		gt.NoError(t, err).Required()

		result := svc.Run(ctx, testDocument(), types.OperationExtract, "attempt-1")
		gt.Value(t, result.Status).Equal(types.ResultStatusOK)
		gt.Value(t, result.Parsed.Kind).Equal(model.ValueKindObject)
		gt.Value(t, result.Parsed.Object["jurisdiction"].Text).Equal("Delaware")
		gt.Array(t, result.Parsed.Object["parties"].List).Equal([]string{"Acme Corp", "Beta LLC"})
	})

	t.Run("parse failure is not retried", func(t *testing.T) {
		var sessions int32
		llm := &mockLLMClient{
			newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				atomic.AddInt32(&sessions, 1)
				return &mockLLMSession{
					generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
						return &gollem.Response{Texts: []string{"not json at all"}}, nil
					},
				}, nil
			},
		}

		svc, err := generative.New(llm, nil, nil, generative.Config{},
			generative.WithRetryPolicy(fastPolicy(3)))
		gt.NoError(t, err).Required()

		result := svc.Run(ctx, testDocument(), types.OperationExtract, "attempt-1")
		gt.Value(t, result.Status).Equal(types.ResultStatusParseError)
		gt.Value(t, result.RawOutput).Equal("not json at all")
		gt.Number(t, atomic.LoadInt32(&sessions)).Equal(1)
	})
}

func TestRunClassify(t *testing.T) {
	ctx := context.Background()

	t.Run("recognized token", func(t *testing.T) {
		svc, err := generative.New(respondWith("URGENT"), nil, nil, generative.Config{})
		gt.NoError(t, err).Required()

		result := svc.Run(ctx, testDocument(), types.OperationClassifyUrgency, "attempt-1")
		gt.Value(t, result.Status).Equal(types.ResultStatusOK)
		gt.Bool(t, result.Parsed.Bool).True()
		gt.Value(t, result.Note).Equal("")
	})

	t.Run("unrecognized token defaults to false with a note", func(t *testing.T) {
		svc, err := generative.New(respondWith("it depends on the court"), nil, nil, generative.Config{})
		gt.NoError(t, err).Required()

		result := svc.Run(ctx, testDocument(), types.OperationClassifyUrgency, "attempt-1")
		gt.Value(t, result.Status).Equal(types.ResultStatusOK)
		gt.Bool(t, result.Parsed.Bool).False()
		gt.String(t, result.Note).NotEqual("")
	})
}

func TestRunForecast(t *testing.T) {
	ctx := context.Background()

	t.Run("successful forecast", func(t *testing.T) {
		svc, err := generative.New(respondWith("unused"), &mockForecaster{}, nil,
			generative.Config{ForecastHorizon: 6, ForecastConfidence: 0.9})
		gt.NoError(t, err).Required()

		result := svc.Run(ctx, testDocument(), types.OperationForecast, "attempt-1")
		gt.Value(t, result.Status).Equal(types.ResultStatusOK)
		gt.Value(t, result.Parsed.Kind).Equal(model.ValueKindForecast)
		gt.Value(t, result.Parsed.Forecast.Horizon).Equal(6)
		gt.Number(t, result.Parsed.Forecast.ConfidenceLevel).Equal(0.9)
		gt.Array(t, result.Parsed.Forecast.Points).Length(1)
	})

	t.Run("missing forecaster is a service error", func(t *testing.T) {
		svc, err := generative.New(respondWith("unused"), nil, nil, generative.Config{})
		gt.NoError(t, err).Required()

		result := svc.Run(ctx, testDocument(), types.OperationForecast, "attempt-1")
		gt.Value(t, result.Status).Equal(types.ResultStatusServiceError)
	})

	t.Run("transient failures are retried", func(t *testing.T) {
		var calls int32
		forecaster := &mockForecaster{
			forecastFn: func(ctx context.Context, horizon int, confidenceLevel float64) ([]model.ForecastPoint, error) {
				if atomic.AddInt32(&calls, 1) < 3 {
					return nil, goerr.New("upstream hiccup", goerr.T(types.ErrTagService))
				}
				return []model.ForecastPoint{{PointEstimate: 1}}, nil
			},
		}

		svc, err := generative.New(respondWith("unused"), forecaster, nil, generative.Config{},
			generative.WithRetryPolicy(fastPolicy(3)))
		gt.NoError(t, err).Required()

		result := svc.Run(ctx, testDocument(), types.OperationForecast, "attempt-1")
		gt.Value(t, result.Status).Equal(types.ResultStatusOK)
		gt.Number(t, atomic.LoadInt32(&calls)).Equal(3)
	})
}

func TestRunFailureModes(t *testing.T) {
	ctx := context.Background()

	t.Run("LLM failure exhausts retries as a service error", func(t *testing.T) {
		var sessions int32
		llm := &mockLLMClient{
			newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				atomic.AddInt32(&sessions, 1)
				return nil, goerr.New("backend unavailable")
			},
		}

		svc, err := generative.New(llm, nil, nil, generative.Config{},
			generative.WithRetryPolicy(fastPolicy(3)))
		gt.NoError(t, err).Required()

		result := svc.Run(ctx, testDocument(), types.OperationSummarize, "attempt-1")
		gt.Value(t, result.Status).Equal(types.ResultStatusServiceError)
		gt.Number(t, atomic.LoadInt32(&sessions)).Equal(3)
	})

	t.Run("slow generation hits the operation timeout", func(t *testing.T) {
		llm := &mockLLMClient{
			newSessionFn: func(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
				return &mockLLMSession{
					generateContentFn: func(ctx context.Context, input ...gollem.Input) (*gollem.Response, error) {
						select {
						case <-ctx.Done():
							return nil, ctx.Err()
						case <-time.After(time.Second):
							return &gollem.Response{Texts: []string{"too late"}}, nil
						}
					},
				}, nil
			},
		}

		svc, err := generative.New(llm, nil, nil,
			generative.Config{OperationTimeout: 20 * time.Millisecond},
			generative.WithRetryPolicy(fastPolicy(1)))
		gt.NoError(t, err).Required()

		result := svc.Run(ctx, testDocument(), types.OperationSummarize, "attempt-1")
		gt.Value(t, result.Status).Equal(types.ResultStatusTimeout)
	})
}

func TestRunAll(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out every operation and contains failures", func(t *testing.T) {
		// Valid JSON doubles as a non-empty summary; classification of it
		// falls back to false with a note.
		svc, err := generative.New(
			respondWith(`{"jurisdiction": "Delaware"}`),
			&mockForecaster{}, nil, generative.Config{})
		gt.NoError(t, err).Required()

		results := svc.RunAll(ctx, testDocument(), "attempt-1")
		gt.Number(t, len(results)).Equal(len(types.AllOperations()))

		for _, op := range types.AllOperations() {
			gt.Value(t, results[op].Status).Equal(types.ResultStatusOK)
			gt.Value(t, results[op].Operation).Equal(op)
		}
		gt.String(t, results[types.OperationClassifyUrgency].Note).NotEqual("")
	})

	t.Run("one failing operation never aborts its siblings", func(t *testing.T) {
		svc, err := generative.New(respondWith("plain prose, not JSON"), &mockForecaster{}, nil,
			generative.Config{}, generative.WithRetryPolicy(fastPolicy(1)))
		gt.NoError(t, err).Required()

		results := svc.RunAll(ctx, testDocument(), "attempt-1")
		gt.Value(t, results[types.OperationExtract].Status).Equal(types.ResultStatusParseError)
		gt.Value(t, results[types.OperationSummarize].Status).Equal(types.ResultStatusOK)
		gt.Value(t, results[types.OperationForecast].Status).Equal(types.ResultStatusOK)
		gt.Value(t, results[types.OperationClassifyUrgency].Status).Equal(types.ResultStatusOK)
	})
}
