package checkin

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fossasia/eventyay-checkin/internal/clock"
	"github.com/fossasia/eventyay-checkin/internal/eventyay"
)

const (
	DefaultPollAttempts = 6
	DefaultPollInterval = time.Second
)

// BadgeFetcher downloads a badge document. It returns an error matching
// eventyay.ErrBadgePending while the badge is still being generated.
type BadgeFetcher interface {
	FetchBadge(ctx context.Context, badgeURL string) ([]byte, error)
}

// BadgeState tags a BadgeOutcome.
type BadgeState int

const (
	BadgePending BadgeState = iota
	BadgeReady
	BadgeFailed
)

// BadgeOutcome is the result of fetching (or polling for) a badge.
type BadgeOutcome struct {
	State    BadgeState
	Document []byte
	Err      error
	// Attempts is the number of fetches performed.
	Attempts int
}

// Poller fetches a badge, retrying at a fixed interval while the server
// is still generating it.
type Poller struct {
	fetch       BadgeFetcher
	clk         clock.Clock
	maxAttempts int
	interval    time.Duration
	log         *zap.Logger
}

func NewPoller(fetch BadgeFetcher, clk clock.Clock, maxAttempts int, interval time.Duration, log *zap.Logger) *Poller {
	if maxAttempts <= 0 {
		maxAttempts = DefaultPollAttempts
	}
	if interval < 0 {
		interval = DefaultPollInterval
	}
	return &Poller{fetch: fetch, clk: clk, maxAttempts: maxAttempts, interval: interval, log: log}
}

func (p *Poller) fetchOnce(ctx context.Context, badgeURL string) BadgeOutcome {
	doc, err := p.fetch.FetchBadge(ctx, badgeURL)
	switch {
	case err == nil:
		return BadgeOutcome{State: BadgeReady, Document: doc}
	case errors.Is(err, eventyay.ErrBadgePending):
		return BadgeOutcome{State: BadgePending}
	default:
		return BadgeOutcome{State: BadgeFailed, Err: &TransportError{Op: "fetch badge", Err: err}}
	}
}

// Poll fetches immediately, then waits interval between further attempts
// while the outcome is pending. The result is never BadgePending: an
// exhausted sequence is BadgeFailed with ErrBadgeTimeout. Any other fetch
// error stops polling at once.
func (p *Poller) Poll(ctx context.Context, badgeURL string) BadgeOutcome {
	var out BadgeOutcome
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-p.clk.After(p.interval):
			case <-ctx.Done():
				return BadgeOutcome{State: BadgeFailed, Err: ctx.Err(), Attempts: attempt - 1}
			}
		}
		out = p.fetchOnce(ctx, badgeURL)
		out.Attempts = attempt
		if out.State != BadgePending {
			return out
		}
		p.log.Debug("badge still generating", zap.Int("attempt", attempt), zap.Int("max_attempts", p.maxAttempts))
	}
	return BadgeOutcome{State: BadgeFailed, Err: ErrBadgeTimeout, Attempts: p.maxAttempts}
}
