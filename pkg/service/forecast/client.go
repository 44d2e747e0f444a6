package forecast

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/lexintel-lab/themis/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// Client calls the external time-series forecast service over HTTP.
// Every failure mode of the remote call is a service error; the caller
// decides whether to retry.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

var _ interfaces.Forecaster = (*Client)(nil)

// Option is a functional option for Client configuration
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a forecast client for the given endpoint URL
func New(endpoint string, opts ...Option) (*Client, error) {
	if endpoint == "" {
		return nil, goerr.New("forecast endpoint is required")
	}

	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// forecastRequest is the request payload for the forecast API
type forecastRequest struct {
	Horizon         int     `json:"horizon"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// forecastResponse is the response from the forecast API
type forecastResponse struct {
	Points []struct {
		Timestamp      time.Time `json:"timestamp"`
		PointEstimate  float64   `json:"point_estimate"`
		StandardError  float64   `json:"standard_error"`
		ConfidenceLow  float64   `json:"confidence_low"`
		ConfidenceHigh float64   `json:"confidence_high"`
	} `json:"points"`
	Error string `json:"error,omitempty"`
}

// Forecast requests horizon ordered points at the given confidence level
func (c *Client) Forecast(ctx context.Context, horizon int, confidenceLevel float64) ([]model.ForecastPoint, error) {
	if horizon <= 0 {
		return nil, goerr.New("forecast horizon must be positive",
			goerr.T(types.ErrTagValidation), goerr.V("horizon", horizon))
	}

	body, err := json.Marshal(forecastRequest{
		Horizon:         horizon,
		ConfidenceLevel: confidenceLevel,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal forecast request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create forecast request",
			goerr.V("endpoint", c.endpoint))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, goerr.Wrap(err, "forecast request failed",
			goerr.T(types.ErrTagService), goerr.V("endpoint", c.endpoint))
	}
	defer safe.Close(ctx, resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read forecast response",
			goerr.T(types.ErrTagService))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("forecast service returned error status",
			goerr.T(types.ErrTagService),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(respBody)))
	}

	var fr forecastResponse
	if err := json.Unmarshal(respBody, &fr); err != nil {
		return nil, goerr.Wrap(err, "failed to parse forecast response",
			goerr.T(types.ErrTagService), goerr.V("body", string(respBody)))
	}
	if fr.Error != "" {
		return nil, goerr.New("forecast service reported failure",
			goerr.T(types.ErrTagService), goerr.V("message", fr.Error))
	}
	if len(fr.Points) == 0 {
		return nil, goerr.New("forecast service returned no points",
			goerr.T(types.ErrTagService))
	}

	points := make([]model.ForecastPoint, len(fr.Points))
	for i, p := range fr.Points {
		points[i] = model.ForecastPoint{
			Timestamp:      p.Timestamp,
			PointEstimate:  p.PointEstimate,
			StandardError:  p.StandardError,
			ConfidenceLow:  p.ConfidenceLow,
			ConfidenceHigh: p.ConfidenceHigh,
		}
	}

	return points, nil
}
