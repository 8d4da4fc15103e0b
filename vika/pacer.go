package vika

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Clock is the time source used for pacing and backoff.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pacer enforces a minimum interval between consecutive outbound calls.
// There is no burst: the first call goes through, every following one waits
// for the interval to elapse since the previous one.
type Pacer struct {
	limiter *rate.Limiter
	clock   Clock
}

// NewPacer returns a Pacer spacing calls by interval. A zero interval disables pacing.
func NewPacer(interval time.Duration, clock Clock) *Pacer {
	if clock == nil {
		clock = realClock{}
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{limiter: rate.NewLimiter(limit, 1), clock: clock}
}

// Wait blocks until the next call is permitted.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := p.clock.Now()
	r := p.limiter.ReserveN(now, 1)
	if err := p.clock.Sleep(ctx, r.DelayFrom(now)); err != nil {
		r.CancelAt(p.clock.Now())
		return err
	}
	return nil
}
