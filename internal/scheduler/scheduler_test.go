package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func runAsync(t *testing.T, s *Scheduler) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel, done
}

func TestDirty_TestAndClear(t *testing.T) {
	d := NewDirty()
	assert.False(t, d.TestAndClear())
	d.Mark()
	d.Mark()
	assert.True(t, d.IsSet())
	assert.True(t, d.TestAndClear())
	assert.False(t, d.IsSet())
	assert.False(t, d.TestAndClear())
}

func TestRun_DrawsInitiallyAndOnDirty(t *testing.T) {
	dirty := NewDirty()
	frames := make(chan struct{}, 8)
	s := New(dirty, time.Hour, func(ctx context.Context) error {
		frames <- struct{}{}
		return nil
	})
	runAsync(t, s)

	waitFrame(t, frames)
	dirty.Mark()
	waitFrame(t, frames)

	assert.Eventually(t, func() bool {
		st := s.Stats()
		return st.Draws[ReasonInitial] == 1 && st.Draws[ReasonDirty] == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRun_HeartbeatRedrawsWithoutChanges(t *testing.T) {
	var n atomic.Int32
	s := New(NewDirty(), 20*time.Millisecond, func(ctx context.Context) error {
		n.Add(1)
		return nil
	})
	runAsync(t, s)

	assert.Eventually(t, func() bool { return n.Load() >= 4 }, 2*time.Second, 5*time.Millisecond)
	st := s.Stats()
	assert.GreaterOrEqual(t, st.Draws[ReasonHeartbeat], int64(3))
	assert.Positive(t, st.Events[EventHeartbeat.String()])
}

func TestRun_ClearsDirtyBeforeDrawing(t *testing.T) {
	dirty := NewDirty()
	dirty.Mark()

	seenDuringDraw := make(chan bool, 1)
	var state atomic.Int32
	var s *Scheduler
	s = New(dirty, time.Hour, func(ctx context.Context) error {
		state.Store(int32(s.State()))
		select {
		case seenDuringDraw <- dirty.IsSet():
		default:
		}
		return nil
	})
	runAsync(t, s)

	select {
	case set := <-seenDuringDraw:
		assert.False(t, set)
	case <-time.After(time.Second):
		t.Fatal("no draw")
	}
	assert.Equal(t, Drawing, State(state.Load()))
	assert.Eventually(t, func() bool { return s.State() == Idle }, time.Second, 5*time.Millisecond)
}

func TestRun_MarkDuringDrawCausesAnotherPass(t *testing.T) {
	dirty := NewDirty()
	var n atomic.Int32
	s := New(dirty, time.Hour, func(ctx context.Context) error {
		if n.Add(1) == 1 {
			dirty.Mark()
		}
		return nil
	})
	runAsync(t, s)

	assert.Eventually(t, func() bool { return n.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.False(t, dirty.IsSet())
}

func TestRun_DrawErrorIsFatal(t *testing.T) {
	boom := errors.New("bus fault")
	dirty := NewDirty()
	var n atomic.Int32
	s := New(dirty, time.Hour, func(ctx context.Context) error {
		if n.Add(1) == 2 {
			return boom
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return n.Load() == 1 }, time.Second, time.Millisecond)
	dirty.Mark()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("Run did not return the draw error")
	}
}

func TestRun_CancelReturnsNil(t *testing.T) {
	s := New(NewDirty(), time.Hour, func(ctx context.Context) error { return nil })
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestNotify_CountsEventsAndNeverBlocks(t *testing.T) {
	s := New(NewDirty(), time.Hour, func(ctx context.Context) error { return nil })
	for i := 0; i < 100; i++ {
		s.Notify(EventIngested)
	}
	s.Notify(EventFetchComplete)

	runAsync(t, s)
	assert.Eventually(t, func() bool {
		return s.Stats().Events[EventIngested.String()] == 16
	}, time.Second, 5*time.Millisecond)
}

func waitFrame(t *testing.T, frames <-chan struct{}) {
	t.Helper()
	select {
	case <-frames:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frame")
	}
}
