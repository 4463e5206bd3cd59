package device

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkaflik/birdcam/internal/kv"
	"github.com/jkaflik/birdcam/internal/settings"
	"github.com/jkaflik/birdcam/internal/shutter"
	"github.com/jkaflik/birdcam/internal/shutter/driver/servo"
)

func runLoop(t *testing.T) *Loop {
	t.Helper()

	s, err := servo.NewServoShutter("test", &servo.Dumb{Name: "test"}, settings.NewStore(kv.NewMemory()))
	require.NoError(t, err)

	l := NewLoop(s, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	require.NoError(t, l.Do(ctx, func(s *servo.Shutter) {
		s.SetValues(2000, 1000, shutter.AbsMaxSpeed)
	}))

	return l
}

func TestLoop(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	t.Run("initial status reflects the servo", func(t *testing.T) {
		l := runLoop(t)

		status := l.Status()
		assert.Equal(t, "test", status.Name)
		assert.Equal(t, shutter.ShutterClosedState, status.State)
		assert.Equal(t, 45, status.ClosedPosition)
		assert.Equal(t, 135, status.OpenPosition)
		assert.Equal(t, 400, status.Speed)
	})

	t.Run("do runs the function before returning", func(t *testing.T) {
		l := runLoop(t)

		var moved bool
		require.NoError(t, l.Do(ctx, func(s *servo.Shutter) {
			s.Open()
			s.WaitUntilIdle()
			moved = s.IsOpen()
		}))
		assert.True(t, moved)
		assert.Equal(t, shutter.ShutterOpenState, l.State())
		assert.Equal(t, uint32(1), l.Status().MoveCount)
	})

	t.Run("open is completed by the ticker", func(t *testing.T) {
		l := runLoop(t)

		require.NoError(t, l.Open(ctx))
		assert.Eventually(t, func() bool {
			return l.State() == shutter.ShutterOpenState
		}, 3*time.Second, 5*time.Millisecond)
		assert.Equal(t, 135, l.Position())

		require.NoError(t, l.Close(ctx))
		assert.Eventually(t, func() bool {
			return l.State() == shutter.ShutterClosedState
		}, 3*time.Second, 5*time.Millisecond)
	})

	t.Run("set position takes degrees", func(t *testing.T) {
		l := runLoop(t)

		require.NoError(t, l.SetPosition(ctx, 90))
		assert.Eventually(t, func() bool {
			return l.State() == shutter.ShutterIdleState
		}, 3*time.Second, 5*time.Millisecond)
		assert.Equal(t, 90, l.Position())
	})

	t.Run("update handlers receive degrees", func(t *testing.T) {
		l := runLoop(t)

		updates := make(chan int, 4)
		l.OnUpdate(func(state shutter.State, position int) {
			if state != shutter.ShutterMovingState {
				updates <- position
			}
		})

		require.NoError(t, l.Open(ctx))
		select {
		case position := <-updates:
			assert.Equal(t, 135, position)
		case <-ctx.Done():
			t.Fatal("no update received")
		}
	})

	t.Run("panicking function is reported and the loop keeps running", func(t *testing.T) {
		l := runLoop(t)

		err := l.Do(ctx, func(s *servo.Shutter) {
			panic("template exploded")
		})
		assert.ErrorIs(t, err, ErrPanicked)
		assert.Contains(t, err.Error(), "template exploded")

		require.NoError(t, l.Open(ctx))
		assert.Eventually(t, func() bool {
			return l.State() == shutter.ShutterOpenState
		}, time.Second, time.Millisecond)
	})

	t.Run("do gives up when the loop is not running", func(t *testing.T) {
		s, err := servo.NewServoShutter("idle", &servo.Dumb{}, settings.NewStore(kv.NewMemory()))
		require.NoError(t, err)
		l := NewLoop(s, 0)

		short, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, l.Do(short, func(s *servo.Shutter) {}), context.DeadlineExceeded)
	})

	t.Run("do fails once the loop has stopped", func(t *testing.T) {
		s, err := servo.NewServoShutter("stopped", &servo.Dumb{}, settings.NewStore(kv.NewMemory()))
		require.NoError(t, err)
		l := NewLoop(s, 0)

		runCtx, stop := context.WithCancel(context.Background())
		stop()
		assert.ErrorIs(t, l.Run(runCtx), context.Canceled)
		assert.ErrorIs(t, l.Do(ctx, func(s *servo.Shutter) {}), ErrStopped)
	})
}
