package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"makeitreel/internal/logger"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) CleanupExpired(ctx context.Context) (int64, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestVerificationCleaner_SweepsUntilCancelled(t *testing.T) {
	sweeper := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())

	done := NewVerificationCleaner(sweeper, 5*time.Millisecond, logger.Discard()).Start(ctx)

	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleaner did not stop")
	}
	stopped := sweeper.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, sweeper.calls.Load())
}

func TestVerificationCleaner_KeepsRunningAfterErrors(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("db unavailable")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	NewVerificationCleaner(sweeper, 5*time.Millisecond, logger.Discard()).Start(ctx)

	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 3 }, time.Second, time.Millisecond)
}

func TestVerificationCleaner_Disabled(t *testing.T) {
	sweeper := &countingSweeper{}

	done := NewVerificationCleaner(sweeper, 0, logger.Discard()).Start(context.Background())

	select {
	case <-done:
	default:
		t.Fatal("disabled cleaner should report done immediately")
	}
	assert.Zero(t, sweeper.calls.Load())
}
