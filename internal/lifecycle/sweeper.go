// Sweeper drives the shared re-evaluation tick. One ticker covers every
// pending question; there is no per-question timer state to lose or drift.
package lifecycle

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper periodically re-evaluates pending questions and retries refunds.
type Sweeper struct {
	Manager  *Manager
	Interval time.Duration
}

// NewSweeper builds a sweeper; a non-positive interval defaults to one second,
// matching the countdown granularity clients display.
func NewSweeper(m *Manager, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Second
	}
	return &Sweeper{Manager: m, Interval: interval}
}

// Run blocks until ctx is done, sweeping once per interval. Store errors are
// logged and retried on the next tick; nothing here is fatal to the process.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()

	log.Info().Dur("interval", s.Interval).Msg("lifecycle sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("lifecycle sweeper stopped")
			return
		case <-t.C:
			if err := s.Manager.SweepPending(ctx); err != nil {
				log.Warn().Err(err).Msg("sweep failed; will retry next tick")
			}
			if err := s.Manager.RetryRefunds(ctx); err != nil {
				log.Warn().Err(err).Msg("refund retry pass failed")
			}
		}
	}
}
