package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (c *countingSweeper) SweepExpired(context.Context) (int64, error) {
	c.calls.Add(1)
	return 2, c.err
}

func TestSweeper_RunsImmediatelyAndPeriodically(t *testing.T) {
	tokens := &countingSweeper{}
	s := NewSweeper(tokens, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	require.Eventually(t, func() bool { return tokens.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Wait()

	after := tokens.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, tokens.calls.Load(), "no sweeps after cancellation")
}

func TestSweeper_KeepsRunningAfterError(t *testing.T) {
	tokens := &countingSweeper{err: errors.New("mongo down")}
	s := NewSweeper(tokens, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	require.Eventually(t, func() bool { return tokens.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestNewSweeper_DefaultInterval(t *testing.T) {
	s := NewSweeper(&countingSweeper{}, 0, zerolog.Nop())
	assert.Equal(t, time.Hour, s.interval)
}
