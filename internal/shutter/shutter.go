package shutter

import (
	"context"
)

// State is the stationary or moving condition of a shutter.
type State string

const (
	ShutterClosedState State = "closed"
	ShutterOpenState   State = "open"
	ShutterMovingState State = "moving"
	// ShutterIdleState is a stationary position that is neither open nor closed.
	ShutterIdleState State = "idle"
)

func (s State) String() string {
	return string(s)
}

// ShutterUpdateHandler receives the state and position whenever a move starts
// or completes. The position is in the unit of the Shutter it was registered on.
type ShutterUpdateHandler func(state State, position int)

type Shutter interface {
	Name() string
	OpenPosition() int
	ClosedPosition() int

	Position() int
	// EndPosition is where the shutter rests or the target of the move in progress.
	EndPosition() int
	State() State

	OnUpdate(h ShutterUpdateHandler)

	Open(ctx context.Context) error
	Close(ctx context.Context) error
	SetPosition(ctx context.Context, position int) error
}
