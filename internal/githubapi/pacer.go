package githubapi

import (
	"context"
	"time"

	"github.com/google/go-github/v75/github"
	"go.uber.org/zap"
)

// Pacer decides how long to wait between paginated API calls based on the
// rate-limit state reported by the previous response.
type Pacer struct {
	// MinRemaining is the remaining-request threshold below which the pacer
	// sleeps until the limit window resets.
	MinRemaining int

	// BaseDelay is inserted between consecutive calls regardless of the
	// remaining budget, to spread requests across the window.
	BaseDelay time.Duration

	logger *zap.Logger
}

// NewPacer creates a pacer with defaults suitable for the core REST limit.
func NewPacer(logger *zap.Logger) *Pacer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pacer{
		MinRemaining: 20,
		BaseDelay:    100 * time.Millisecond,
		logger:       logger,
	}
}

// Wait blocks until the next call may proceed. resp is the response from the
// previous call and may be nil for the first call in a sequence.
func (p *Pacer) Wait(ctx context.Context, resp *github.Response) error {
	delay := p.BaseDelay

	if resp != nil && resp.Rate.Remaining <= p.MinRemaining {
		until := time.Until(resp.Rate.Reset.Time)
		if until > delay {
			p.logger.Warn("rate limit nearly exhausted, pausing until reset",
				zap.Int("remaining", resp.Rate.Remaining),
				zap.Time("reset", resp.Rate.Reset.Time),
			)
			delay = until
		}
	}

	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
