package config

import (
	"context"
	"log/slog"

	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
	"github.com/lexintel-lab/themis/pkg/service/audit"
	"github.com/urfave/cli/v3"
)

// Audit holds CLI flags for the raw output archiver
type Audit struct {
	bucket string
}

// Flags returns CLI flags for audit configuration
func (a *Audit) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "audit-bucket",
			Usage:       "Cloud Storage bucket for raw model output archiving (empty disables)",
			Sources:     cli.EnvVars("THEMIS_AUDIT_BUCKET"),
			Destination: &a.bucket,
		},
	}
}

// LogAttrs returns log attributes for the audit configuration
func (a *Audit) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.Bool("enabled", a.bucket != ""),
		slog.String("bucket", a.bucket),
	}
}

// Configure creates the archiver. Returns nil when no bucket is
// configured; archiving is then disabled.
func (a *Audit) Configure(ctx context.Context) (interfaces.Archiver, error) {
	if a.bucket == "" {
		return nil, nil
	}
	return audit.New(ctx, a.bucket)
}
