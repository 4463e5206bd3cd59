// Package adjust maps submissions of the servo adjustment form onto the
// shutter.
//
// A repeated-move sequence outlives the request that starts it. Its progress
// page asks the browser to reload it every second, and the Session passed
// between requests tells such a reload apart from a fresh submission.
package adjust

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jkaflik/birdcam/internal/page"
	"github.com/jkaflik/birdcam/internal/query"
	"github.com/jkaflik/birdcam/internal/shutter"
)

var ErrUnknownAction = errors.New("unknown adjust action")

const (
	actionOpen  = "Open"
	actionClose = "Close"
	actionExit  = "Exit"

	exitStart   = "start"
	exitConfirm = "confirm"
	exitCancel  = "cancel"
)

// pollInterval is the reload delay of a progress page, in seconds.
const pollInterval = 1

// Actuator is the part of the servo shutter the form operates.
// Positions are in us and speeds in us per second.
type Actuator interface {
	Open()
	Close()
	WaitUntilIdle()
	IsOpen() bool
	IsClosed() bool
	Values() (int, int, int)
	SetValues(openPosition, closedPosition, speed int)
	SaveSettings(all bool) error
	RestoreSettings()
	StartRepeatedMoves(n int)
	MovesLeft() int
	MoveCount() uint32
}

// Session is the state carried from one form request to the next.
type Session struct {
	AwaitingRefresh bool
}

type Adjuster struct {
	shutter Actuator
}

func New(a Actuator) *Adjuster {
	return &Adjuster{shutter: a}
}

// View renders the form with the current calibration in degrees.
func (a *Adjuster) View(refresh int) page.Page {
	open, closed, speed := a.shutter.Values()

	var status string
	switch {
	case a.shutter.IsOpen():
		status = "The shutter is open"
	case a.shutter.IsClosed():
		status = "The shutter is closed"
	}

	return page.Adjust(page.View{
		Status:         status,
		OpenPosition:   shutter.ToDeg(open),
		ClosedPosition: shutter.ToDeg(closed),
		Speed:          shutter.SpeedToDeg(speed),
		MoveCount:      a.shutter.MoveCount(),
		MovesLeft:      a.shutter.MovesLeft(),
	}, refresh)
}

// Enter closes the shutter before showing the form.
func (a *Adjuster) Enter() page.Page {
	a.shutter.Close()
	a.shutter.WaitUntilIdle()
	return a.View(0)
}

// Submit handles one submission of the form and returns the page to show
// along with the session for the next request.
func (a *Adjuster) Submit(sess Session, values query.Values) (page.Page, Session, error) {
	f := parseForm(values)

	switch {
	case values.Has(actionExit):
		switch exit := values.Get(actionExit); exit {
		case exitStart:
			p, sess := a.continuation(sess, f)
			return p, sess, nil
		case exitConfirm:
			a.apply(f)
			if err := a.shutter.SaveSettings(true); err != nil {
				logrus.Errorf("adjust: saving settings failed: %s", err)
			}
			return a.closeAndLeave(), sess, nil
		case exitCancel:
			a.shutter.RestoreSettings()
			return a.closeAndLeave(), sess, nil
		default:
			return page.Page{}, sess, errors.Wrapf(ErrUnknownAction, "exit %q", exit)
		}
	case values.Has(actionOpen):
		a.apply(f)
		a.shutter.Open()
		a.shutter.WaitUntilIdle()
		return a.View(0), sess, nil
	case values.Has(actionClose):
		a.apply(f)
		a.shutter.Close()
		a.shutter.WaitUntilIdle()
		return a.View(0), sess, nil
	}

	return page.Page{}, sess, ErrUnknownAction
}

// continuation starts a repeated-move sequence or, when the request is a
// reload of a progress page, reports on the running one.
func (a *Adjuster) continuation(sess Session, f form) (page.Page, Session) {
	if !sess.AwaitingRefresh {
		if f.moves == 0 {
			return a.View(0), sess
		}

		a.apply(f)
		a.shutter.StartRepeatedMoves(f.moves)
		return a.View(pollInterval), Session{AwaitingRefresh: true}
	}

	if a.shutter.MovesLeft() > 0 {
		return a.View(pollInterval), sess
	}

	logrus.Info("adjust: repeated moves done")
	return a.View(0), Session{AwaitingRefresh: false}
}

func (a *Adjuster) apply(f form) {
	a.shutter.SetValues(shutter.ToUs(f.open), shutter.ToUs(f.closed), shutter.SpeedToUs(f.speed))
}

func (a *Adjuster) closeAndLeave() page.Page {
	a.shutter.Close()
	a.shutter.WaitUntilIdle()
	return page.Index(a.shutter.IsClosed())
}
