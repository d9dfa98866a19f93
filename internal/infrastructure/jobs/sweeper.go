package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/boothfair/exhibitor-portal/internal/api/metrics"
)

const defaultInterval = time.Hour

// ExpiredTokenSweeper is the part of the token service the sweeper drives.
type ExpiredTokenSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// Sweeper periodically deletes expired activation tokens so the token
// collection does not grow without bound.
type Sweeper struct {
	tokens   ExpiredTokenSweeper
	interval time.Duration
	log      zerolog.Logger
	wg       sync.WaitGroup
}

// NewSweeper creates a Sweeper. If interval <= 0, defaultInterval is used.
func NewSweeper(tokens ExpiredTokenSweeper, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sweeper{tokens: tokens, interval: interval, log: log}
}

// Start launches the sweep loop. It runs one sweep immediately and then once
// per interval until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Wait blocks until the loop started by Start has returned.
func (s *Sweeper) Wait() {
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	n, err := s.tokens.SweepExpired(ctx)
	metrics.SweepDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() == nil {
			s.log.Error().Err(err).Msg("token sweep failed")
		}
		return
	}
	if n > 0 {
		s.log.Info().Int64("deleted", n).Msg("expired tokens swept")
	}
}
