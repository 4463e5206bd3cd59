// Package device runs the servo shutter on a single goroutine and lets other
// goroutines act on it by submitting functions to that goroutine.
package device

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jkaflik/birdcam/internal/shutter"
	"github.com/jkaflik/birdcam/internal/shutter/driver/servo"
)

// DefaultTickInterval keeps steps close to servo.StepInterval.
const DefaultTickInterval = servo.StepInterval / 4

var _ shutter.Shutter = (*Loop)(nil)

var (
	ErrStopped  = errors.New("control loop stopped")
	ErrPanicked = errors.New("submitted function panicked")
)

// Status is a snapshot of the shutter taken by the loop. Positions and speed
// are in degrees.
type Status struct {
	Name           string        `json:"name"`
	State          shutter.State `json:"state"`
	Position       int           `json:"position"`
	EndPosition    int           `json:"end_position"`
	OpenPosition   int           `json:"open_position"`
	ClosedPosition int           `json:"closed_position"`
	Speed          int           `json:"speed"`
	MoveCount      uint32        `json:"move_count"`
	MovesLeft      int           `json:"moves_left"`
}

type request struct {
	fn   func(s *servo.Shutter)
	err  error
	done chan struct{}
}

type Loop struct {
	servo    *servo.Shutter
	interval time.Duration
	requests chan *request
	stopped  chan struct{}

	mu       sync.RWMutex
	status   Status
	handlers []shutter.ShutterUpdateHandler
}

func NewLoop(s *servo.Shutter, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	l := &Loop{
		servo:    s,
		interval: interval,
		requests: make(chan *request),
		stopped:  make(chan struct{}),
	}
	l.refresh()
	s.OnUpdate(l.onUpdate)

	return l
}

// Run ticks the shutter and runs submitted functions until ctx is done.
// A loop cannot be run again once it has returned.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	defer close(l.stopped)

	logrus.Infof("%s: control loop started", l.servo.Name())

	for {
		select {
		case <-ctx.Done():
			logrus.Infof("%s: control loop stopped", l.servo.Name())
			return ctx.Err()
		case r := <-l.requests:
			l.run(r)
		case now := <-ticker.C:
			l.servo.Tick(now)
			l.refresh()
		}
	}
}

// run executes r.fn, turning a panic into ErrPanicked so the loop keeps going.
func (l *Loop) run(r *request) {
	defer func() {
		if p := recover(); p != nil {
			logrus.Errorf("%s: recovered from panic in submitted function: %v", l.servo.Name(), p)
			r.err = errors.Wrapf(ErrPanicked, "%v", p)
		}
		l.refresh()
		close(r.done)
	}()

	r.fn(l.servo)
}

// Do runs fn on the loop goroutine and waits for it to return. A function
// already accepted by the loop still runs when ctx is done while waiting.
// A panic in fn is reported as ErrPanicked.
func (l *Loop) Do(ctx context.Context, fn func(s *servo.Shutter)) error {
	r := &request{fn: fn, done: make(chan struct{})}

	select {
	case l.requests <- r:
	case <-l.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.status
}

func (l *Loop) Name() string {
	return l.servo.Name()
}

func (l *Loop) Position() int {
	return l.Status().Position
}

func (l *Loop) EndPosition() int {
	return l.Status().EndPosition
}

func (l *Loop) OpenPosition() int {
	return l.Status().OpenPosition
}

func (l *Loop) ClosedPosition() int {
	return l.Status().ClosedPosition
}

func (l *Loop) State() shutter.State {
	return l.Status().State
}

// OnUpdate registers h to be called on the loop goroutine whenever a move
// starts or completes. Handlers must not block.
func (l *Loop) OnUpdate(h shutter.ShutterUpdateHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.handlers = append(l.handlers, h)
}

func (l *Loop) Open(ctx context.Context) error {
	return l.Do(ctx, func(s *servo.Shutter) {
		s.Open()
	})
}

func (l *Loop) Close(ctx context.Context) error {
	return l.Do(ctx, func(s *servo.Shutter) {
		s.Close()
	})
}

// SetPosition starts a move to position degrees.
func (l *Loop) SetPosition(ctx context.Context, position int) error {
	target := shutter.ToUs(position)

	return l.Do(ctx, func(s *servo.Shutter) {
		s.Step(target - s.Position())
	})
}

func (l *Loop) onUpdate(state shutter.State, position int) {
	l.refresh()

	l.mu.RLock()
	handlers := l.handlers
	l.mu.RUnlock()

	for _, h := range handlers {
		h(state, shutter.ToDeg(position))
	}
}

func (l *Loop) refresh() {
	open, closed, speed := l.servo.Values()
	status := Status{
		Name:           l.servo.Name(),
		State:          l.servo.State(),
		Position:       shutter.ToDeg(l.servo.Position()),
		EndPosition:    shutter.ToDeg(l.servo.EndPosition()),
		OpenPosition:   shutter.ToDeg(open),
		ClosedPosition: shutter.ToDeg(closed),
		Speed:          shutter.SpeedToDeg(speed),
		MoveCount:      l.servo.MoveCount(),
		MovesLeft:      l.servo.MovesLeft(),
	}

	l.mu.Lock()
	l.status = status
	l.mu.Unlock()
}
