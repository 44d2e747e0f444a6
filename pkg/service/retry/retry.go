package retry

import (
	"context"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/lexintel-lab/themis/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"
)

// Policy is the single retry abstraction applied to external calls:
// transient service errors are retried with exponential backoff up to
// MaxAttempts; parse errors and timeouts are never retried. A shared
// rate limiter, when set, gates every attempt across all callers so the
// pipeline respects external service quotas.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Limiter        *rate.Limiter
}

// DefaultPolicy returns the policy used when configuration is absent
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     8 * time.Second,
	}
}

// Retryable reports whether the error kind is worth another attempt.
// Only service errors are transient; retrying a parse error would not
// change a model's phrasing.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if goerr.HasTag(err, types.ErrTagParse) ||
		goerr.HasTag(err, types.ErrTagTimeout) ||
		goerr.HasTag(err, types.ErrTagValidation) ||
		goerr.HasTag(err, types.ErrTagNotFound) {
		return false
	}
	return true
}

// Do runs fn under the policy. The last error is returned when the
// retry budget is exhausted.
func (p Policy) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	backoff := p.InitialBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if p.Limiter != nil {
			if err := p.Limiter.Wait(ctx); err != nil {
				return goerr.Wrap(err, "rate limiter wait cancelled", goerr.V("call", name))
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !Retryable(lastErr) || i == attempts-1 {
			return lastErr
		}

		logging.From(ctx).Warn("retrying after transient failure",
			"call", name,
			"attempt", i+1,
			"backoff", backoff.String(),
			"error", lastErr.Error(),
		)

		select {
		case <-ctx.Done():
			return goerr.Wrap(ctx.Err(), "cancelled during retry backoff",
				goerr.T(types.ErrTagTimeout), goerr.V("call", name))
		case <-time.After(backoff):
		}

		backoff *= 2
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}

	return lastErr
}
