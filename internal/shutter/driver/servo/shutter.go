package servo

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jkaflik/birdcam/internal/settings"
	"github.com/jkaflik/birdcam/internal/shutter"
)

const (
	// StepInterval is the minimum time between two position updates of a move.
	// It is not the servo PWM period.
	StepInterval = 20 * time.Millisecond
	// MoveInterval is the pause between two moves of a repeated sequence.
	MoveInterval = 100 * time.Millisecond
	// MaxMoves bounds a repeated sequence.
	MaxMoves = 20
)

type Clock func() time.Time

type Option func(s *Shutter)

// WithClock replaces time.Now, mostly for tests.
func WithClock(c Clock) Option {
	return func(s *Shutter) {
		s.now = c
	}
}

// WithPowerGate switches the servo supply on while a move is in progress.
func WithPowerGate(g *PowerGate) Option {
	return func(s *Shutter) {
		s.power = g
	}
}

// Shutter drives a servo between an open and a closed pulse width. All
// methods must be called from a single goroutine; Tick has to be called
// frequently for moves to progress.
type Shutter struct {
	name  string
	out   PulseWriter
	power *PowerGate
	store *settings.Store
	now   Clock

	updateHandler shutter.ShutterUpdateHandler

	openPosition    int
	closedPosition  int
	endPosition     int
	currentPosition int

	state         shutter.State
	moveDirection int
	speed         int // us per second
	absMoveSpeed  int // us per StepInterval, positive
	moveCount     uint32

	pendingMoves int
	sequenceMove bool

	lastTick          time.Time
	moveIntervalStart time.Time
}

func NewServoShutter(name string, out PulseWriter, store *settings.Store, opts ...Option) (*Shutter, error) {
	s := &Shutter{name: name, out: out, store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.out.Attach(); err != nil {
		return nil, errors.Wrapf(err, "%s: servo attach failed", name)
	}

	loaded, matched, err := store.Load()
	if err != nil {
		logrus.Warnf("%s: reading settings failed, running on defaults: %s", name, err)
	}
	s.openPosition = loaded.OpenPosition
	s.closedPosition = loaded.ClosedPosition
	s.endPosition = loaded.EndPosition
	s.moveCount = loaded.MoveCount
	s.setSpeed(loaded.Speed)

	s.currentPosition = s.endPosition
	s.setState()

	// an unreadable store is left alone, only a missing or outdated one is reset
	if !matched && err == nil {
		if err := s.SaveSettings(true); err != nil {
			logrus.Warnf("%s: storing default settings failed: %s", name, err)
		}
	}

	// supply stays on until the first completed move
	s.powerOn()
	s.writePulse(s.currentPosition)

	logrus.Infof("%s: servo ready at %d us, shutter is %s", name, s.currentPosition, s.state)

	return s, nil
}

func (s *Shutter) Name() string {
	return s.name
}

func (s *Shutter) Position() int {
	return s.currentPosition
}

func (s *Shutter) EndPosition() int {
	return s.endPosition
}

func (s *Shutter) State() shutter.State {
	return s.state
}

func (s *Shutter) OpenPosition() int {
	return s.openPosition
}

func (s *Shutter) ClosedPosition() int {
	return s.closedPosition
}

// MoveCount is the number of moves started since the counter was first persisted.
func (s *Shutter) MoveCount() uint32 {
	return s.moveCount
}

// PendingMoves is the number of sequence moves not started yet.
func (s *Shutter) PendingMoves() int {
	return s.pendingMoves
}

// MovesLeft is the number of sequence moves not completed yet, including
// the one in progress.
func (s *Shutter) MovesLeft() int {
	if s.sequenceMove {
		return s.pendingMoves + 1
	}
	return s.pendingMoves
}

func (s *Shutter) OnUpdate(h shutter.ShutterUpdateHandler) {
	s.updateHandler = h
}

func (s *Shutter) Open() {
	logrus.Debugf("%s: open", s.name)
	s.moveTo(s.openPosition)
}

func (s *Shutter) Close() {
	logrus.Debugf("%s: close", s.name)
	s.moveTo(s.closedPosition)
}

// Step moves by delta us relative to the current end position.
func (s *Shutter) Step(delta int) {
	logrus.Debugf("%s: step %d us", s.name, delta)
	s.moveTo(s.endPosition + delta)
}

// MarkOpen takes the current end position as the open position.
func (s *Shutter) MarkOpen() {
	s.openPosition = s.endPosition
	s.refreshState()
}

// MarkClosed takes the current end position as the closed position.
func (s *Shutter) MarkClosed() {
	s.closedPosition = s.endPosition
	s.refreshState()
}

func (s *Shutter) IsMoving() bool {
	return s.state == shutter.ShutterMovingState || s.currentPosition != s.endPosition || s.pendingMoves != 0
}

func (s *Shutter) IsOpen() bool {
	return s.state != shutter.ShutterMovingState && s.currentPosition == s.openPosition && s.pendingMoves == 0
}

func (s *Shutter) IsClosed() bool {
	return s.state != shutter.ShutterMovingState && s.currentPosition == s.closedPosition && s.pendingMoves == 0
}

// Tick advances a move in progress by one step once StepInterval has passed,
// or starts the next move of a repeated sequence when the shutter is at rest.
func (s *Shutter) Tick(now time.Time) {
	if s.state != shutter.ShutterMovingState {
		s.repeatMove(now)
		return
	}

	if now.Sub(s.lastTick) < StepInterval {
		return
	}
	s.lastTick = now

	next := s.currentPosition + s.absMoveSpeed*s.moveDirection
	if (next-s.endPosition)*s.moveDirection < 0 {
		s.currentPosition = next
		s.writePulse(s.currentPosition)
		return
	}

	s.arrive(now)
}

// StartRepeatedMoves alternates between open and closed n times, n clamped
// into [1, MaxMoves]. It is ignored while a sequence is still pending.
func (s *Shutter) StartRepeatedMoves(n int) {
	if s.pendingMoves > 0 {
		logrus.Warnf("%s: %d repeated moves still pending, ignoring new sequence", s.name, s.pendingMoves)
		return
	}

	if n < 1 {
		n = 1
	}
	if n > MaxMoves {
		n = MaxMoves
	}

	logrus.Infof("%s: start %d repeated moves", s.name, n)
	s.pendingMoves = n
	s.repeatMove(s.now())
}

// WaitUntilIdle blocks the caller, ticking the shutter until every move and
// pending sequence move has completed.
func (s *Shutter) WaitUntilIdle() {
	for s.IsMoving() {
		s.Tick(s.now())
	}
}

// Values returns the open and closed positions in us and the speed in us per second.
func (s *Shutter) Values() (int, int, int) {
	return s.openPosition, s.closedPosition, s.speed
}

// SetValues replaces the calibration. An open or closed shutter follows its
// new target position; SetValues returns once the shutter is at rest.
func (s *Shutter) SetValues(openPosition, closedPosition, speed int) {
	wasOpen, wasClosed := s.IsOpen(), s.IsClosed()

	s.openPosition = shutter.ClipPosition(openPosition)
	s.closedPosition = shutter.ClipPosition(closedPosition)
	s.setSpeed(speed)

	if wasOpen {
		s.Open()
	} else if wasClosed {
		s.Close()
	}
	s.refreshState()

	s.WaitUntilIdle()
}

// SaveSettings persists the end position and move counter, plus the
// calibration when all is set.
func (s *Shutter) SaveSettings(all bool) error {
	return s.store.Save(settings.Settings{
		Version:        settings.CurrentVersion,
		OpenPosition:   s.openPosition,
		ClosedPosition: s.closedPosition,
		EndPosition:    s.endPosition,
		Speed:          s.speed,
		MoveCount:      s.moveCount,
	}, all)
}

// RestoreSettings reloads the persisted calibration and moves back to the
// persisted end position. The live move counter is kept since it is never
// behind the persisted one.
func (s *Shutter) RestoreSettings() {
	s.WaitUntilIdle()

	loaded, _, err := s.store.Load()
	if err != nil {
		logrus.Errorf("%s: reading settings failed, keeping current calibration: %s", s.name, err)
		return
	}
	s.openPosition = loaded.OpenPosition
	s.closedPosition = loaded.ClosedPosition
	s.setSpeed(loaded.Speed)

	if !s.moveTo(loaded.EndPosition) {
		s.setState()
	}

	s.WaitUntilIdle()
	logrus.Infof("%s: settings restored, shutter is %s", s.name, s.state)
}

func (s *Shutter) Report() {
	logrus.Infof(
		"%s: open pos = %d, closed pos = %d, cur pos = %d, end pos = %d, move dir = %d, speed = %d, state = %s, moves = %d",
		s.name,
		s.openPosition,
		s.closedPosition,
		s.currentPosition,
		s.endPosition,
		s.moveDirection,
		s.speed,
		s.state,
		s.moveCount,
	)
}

func (s *Shutter) repeatMove(now time.Time) {
	if s.pendingMoves == 0 || s.state == shutter.ShutterMovingState {
		return
	}
	if now.Sub(s.moveIntervalStart) < MoveInterval {
		return
	}

	if s.currentPosition != s.openPosition {
		s.sequenceMove = s.moveTo(s.openPosition)
	} else {
		s.sequenceMove = s.moveTo(s.closedPosition)
	}
	s.moveIntervalStart = now
	s.pendingMoves--
}

// moveTo starts a move unless one is in progress or the shutter is already there.
func (s *Shutter) moveTo(destination int) bool {
	destination = shutter.ClipPosition(destination)
	if s.state == shutter.ShutterMovingState || destination == s.currentPosition {
		return false
	}

	s.endPosition = destination
	s.state = shutter.ShutterMovingState
	s.moveDirection = 1
	if s.endPosition < s.currentPosition {
		s.moveDirection = -1
	}
	s.moveCount++

	logrus.Debugf("%s: move %d -> %d us, move #%d", s.name, s.currentPosition, s.endPosition, s.moveCount)

	s.powerOn()
	s.notify()

	return true
}

func (s *Shutter) arrive(now time.Time) {
	s.currentPosition = s.endPosition
	s.writePulse(s.currentPosition)
	s.setState()
	s.moveIntervalStart = now
	s.sequenceMove = false

	if s.pendingMoves == 0 {
		s.powerOff()
		if err := s.SaveSettings(false); err != nil {
			logrus.Errorf("%s: saving position failed: %s", s.name, err)
		}
		logrus.Infof("%s: move complete, shutter is %s", s.name, s.state)
	}

	s.notify()
}

func (s *Shutter) setSpeed(usPerSecond int) {
	s.speed = shutter.ClipSpeed(usPerSecond)
	s.absMoveSpeed = s.speed * int(StepInterval/time.Millisecond) / 1000
	if s.absMoveSpeed < 1 {
		s.absMoveSpeed = 1
	}
}

func (s *Shutter) setState() shutter.State {
	switch {
	case s.currentPosition != s.endPosition:
		s.state = shutter.ShutterMovingState
	case s.currentPosition == s.openPosition:
		s.state = shutter.ShutterOpenState
	case s.currentPosition == s.closedPosition:
		s.state = shutter.ShutterClosedState
	default:
		s.state = shutter.ShutterIdleState
	}
	return s.state
}

// refreshState recomputes a stationary state after a calibration change.
func (s *Shutter) refreshState() {
	if s.state != shutter.ShutterMovingState {
		s.setState()
	}
}

func (s *Shutter) writePulse(us int) {
	if err := s.out.WritePulse(us); err != nil {
		logrus.Errorf("%s: writing pulse width %d us failed: %s", s.name, us, err)
	}
}

func (s *Shutter) powerOn() {
	if s.power == nil {
		return
	}
	if err := s.power.Enable(); err != nil {
		logrus.Errorf("%s: servo power on failed: %s", s.name, err)
	}
}

func (s *Shutter) powerOff() {
	if s.power == nil {
		return
	}
	if err := s.power.Disable(); err != nil {
		logrus.Errorf("%s: servo power off failed: %s", s.name, err)
	}
}

func (s *Shutter) notify() {
	if s.updateHandler != nil {
		s.updateHandler(s.state, s.currentPosition)
	}
}
