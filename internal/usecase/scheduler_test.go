package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/crypto_price_tracker/internal/domain"
	"go.uber.org/zap"
)

func TestScheduler_TicksImmediatelyAndPeriodically(t *testing.T) {
	var ticks atomic.Int32
	s := NewScheduler(20*time.Millisecond, func(ctx context.Context) { ticks.Add(1) }, zap.NewNop())

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, 500*time.Millisecond, time.Millisecond)
	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_SuspendAndResume(t *testing.T) {
	var ticks atomic.Int32
	s := NewScheduler(20*time.Millisecond, func(ctx context.Context) { ticks.Add(1) }, zap.NewNop())

	s.Start(context.Background())
	defer s.Stop()
	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, time.Millisecond)

	s.SetOnline(false)
	assert.False(t, s.Online())
	// let a tick that was already running finish
	time.Sleep(30 * time.Millisecond)
	suspendedAt := ticks.Load()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, suspendedAt, ticks.Load(), "no refresh while offline")

	s.SetOnline(true)
	require.Eventually(t, func() bool { return ticks.Load() > suspendedAt }, time.Second, time.Millisecond)
}

func TestScheduler_StopWaitsForLoop(t *testing.T) {
	var ticks atomic.Int32
	s := NewScheduler(10*time.Millisecond, func(ctx context.Context) { ticks.Add(1) }, zap.NewNop())

	s.Start(context.Background())
	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, time.Millisecond)
	s.Stop()

	stoppedAt := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stoppedAt, ticks.Load())

	// second Stop is a no-op
	s.Stop()
}

func TestRefreshTick_RefreshesTrackedAndComparison(t *testing.T) {
	src := succeeding(domain.SourceBinance, 10)
	f := newTrackerFixture(src)
	compare := NewCompareService(f.tracker.resolver, f.publisher, zap.NewNop())

	tick := RefreshTick(f.tracker, compare, zap.NewNop())
	tick(context.Background())
	assert.Equal(t, 1, src.Calls())

	f.tracker.Session().SetCompare([]string{"ethereum", "solana"})
	tick(context.Background())
	assert.Equal(t, 4, src.Calls())
	assert.Len(t, f.publisher.Events(domain.EventPrice), 4)
}
