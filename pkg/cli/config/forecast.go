package config

import (
	"log/slog"

	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
	"github.com/lexintel-lab/themis/pkg/service/forecast"
	"github.com/urfave/cli/v3"
)

// Forecast holds CLI flags for the time-series forecast service
type Forecast struct {
	endpoint string
}

// Flags returns CLI flags for forecast configuration
func (f *Forecast) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "forecast-endpoint",
			Usage:       "Time-series forecast service endpoint URL",
			Sources:     cli.EnvVars("THEMIS_FORECAST_ENDPOINT"),
			Destination: &f.endpoint,
		},
	}
}

// LogAttrs returns log attributes for the forecast configuration
func (f *Forecast) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("endpoint", f.endpoint),
	}
}

// Configure creates the forecast client. Returns nil when no endpoint
// is configured; the forecast operation then reports a service error.
func (f *Forecast) Configure() (interfaces.Forecaster, error) {
	if f.endpoint == "" {
		return nil, nil
	}
	return forecast.New(f.endpoint)
}
