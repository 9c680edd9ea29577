package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogdenik/bankcore/internal/scheduler"
)

func TestScheduler_RunsJobPeriodically(t *testing.T) {
	var runs atomic.Int32

	s := scheduler.New("test-job", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, zerolog.Nop())

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return runs.Load() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_StopWaitsForInFlightRun(t *testing.T) {
	entered := make(chan struct{})
	finished := make(chan struct{})

	var finishOnce sync.Once

	s := scheduler.New("test-job", 5*time.Millisecond, func(ctx context.Context) error {
		select {
		case entered <- struct{}{}:
		default:
		}
		time.Sleep(30 * time.Millisecond)
		finishOnce.Do(func() { close(finished) })
		return nil
	}, zerolog.Nop())

	s.Start(context.Background())

	<-entered
	s.Stop()

	select {
	case <-finished:
	default:
		t.Fatal("Stop returned while the job was still running")
	}
}

func TestScheduler_JobErrorDoesNotStopTheLoop(t *testing.T) {
	var runs atomic.Int32

	s := scheduler.New("test-job", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("boom")
	}, zerolog.Nop())

	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		return runs.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_StartIsIdempotent(t *testing.T) {
	var runs atomic.Int32

	s := scheduler.New("test-job", 10*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}, zerolog.Nop())

	s.Start(context.Background())
	s.Start(context.Background())
	defer s.Stop()

	time.Sleep(35 * time.Millisecond)

	// A double Start must not run the job twice per tick.
	assert.LessOrEqual(t, runs.Load(), int32(4))
}

func TestScheduler_StopTwiceIsSafe(t *testing.T) {
	s := scheduler.New("test-job", time.Hour, func(ctx context.Context) error {
		return nil
	}, zerolog.Nop())

	s.Start(context.Background())
	s.Stop()
	s.Stop()
}
