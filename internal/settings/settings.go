// Package settings persists servo calibration and move counters in a
// namespaced key/value store.
//
// Calibration lives in the "servo" namespace and is only trusted when its
// Version matches CurrentVersion. The end position and move counter live in
// "servo.position" so the frequent post-move save does not rewrite calibration.
package settings

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/jkaflik/birdcam/internal/kv"
	"github.com/jkaflik/birdcam/internal/shutter"
)

// CurrentVersion must be bumped whenever the persisted layout changes.
const CurrentVersion = 24

const (
	calibrationNamespace = "servo"
	positionNamespace    = "servo.position"

	keyVersion   = "Version"
	keyOpenPos   = "OpenPos"
	keyClosedPos = "ClosedPos"
	keySpeed     = "Speed"
	keyEndPos    = "EndPos"
	keyMoves     = "ShutterMoves"
)

// fallbackSpeed replaces a stored speed that is beyond the servo's range.
const fallbackSpeed = 400

type Settings struct {
	Version        uint32
	OpenPosition   int
	ClosedPosition int
	EndPosition    int
	Speed          int // us per second
	MoveCount      uint32
}

// Defaults are the compiled-in settings used on first boot and after a
// schema version change.
func Defaults() Settings {
	return Settings{
		Version:        CurrentVersion,
		OpenPosition:   2000,
		ClosedPosition: 1000,
		EndPosition:    1000,
		Speed:          1000,
		MoveCount:      0,
	}
}

type Store struct {
	kv kv.Store
}

func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

// Load returns the persisted settings, or Defaults when nothing is stored or
// the stored version differs from CurrentVersion. The boolean reports whether
// the stored settings were used. A store that cannot be read yields Defaults
// together with the error, so callers can tell it apart from a mismatch.
func (s *Store) Load() (Settings, bool, error) {
	ns, err := s.kv.Open(calibrationNamespace, true)
	if err != nil {
		return Defaults(), false, errors.Wrapf(err, "settings: open %s", calibrationNamespace)
	}
	defer ns.Close()

	version := ns.GetUint(keyVersion, 0)
	if version != CurrentVersion {
		logrus.Infof("settings: stored version %d does not match %d, using defaults", version, CurrentVersion)
		return Defaults(), false, nil
	}

	d := Defaults()
	loaded := Settings{
		Version:        version,
		OpenPosition:   shutter.ClipPosition(int(ns.GetUint(keyOpenPos, uint32(d.OpenPosition)))),
		ClosedPosition: shutter.ClipPosition(int(ns.GetUint(keyClosedPos, uint32(d.ClosedPosition)))),
	}

	speed := int(ns.GetUint(keySpeed, uint32(d.Speed)))
	if speed > shutter.AbsMaxSpeed {
		speed = fallbackSpeed
	}
	loaded.Speed = shutter.ClipSpeed(speed)

	loaded.EndPosition, loaded.MoveCount, err = s.LoadPosition()
	if err != nil {
		return Defaults(), false, err
	}

	return loaded, true, nil
}

// LoadPosition returns only the end position and the move counter.
func (s *Store) LoadPosition() (int, uint32, error) {
	d := Defaults()

	ns, err := s.kv.Open(positionNamespace, true)
	if err != nil {
		return d.EndPosition, d.MoveCount, errors.Wrapf(err, "settings: open %s", positionNamespace)
	}
	defer ns.Close()

	end := shutter.ClipPosition(int(ns.GetUint(keyEndPos, uint32(d.EndPosition))))
	return end, ns.GetUint(keyMoves, d.MoveCount), nil
}

// Save writes the end position and move counter, and the calibration too when
// all is set. The persisted move counter never goes backwards.
func (s *Store) Save(settings Settings, all bool) error {
	if err := s.write(positionNamespace, func(ns kv.Namespace) error {
		if err := ns.PutUint(keyEndPos, uint32(settings.EndPosition)); err != nil {
			return err
		}
		moves := settings.MoveCount
		if stored := ns.GetUint(keyMoves, 0); stored > moves {
			moves = stored
		}
		return ns.PutUint(keyMoves, moves)
	}); err != nil {
		return err
	}

	if !all {
		return nil
	}

	return s.write(calibrationNamespace, func(ns kv.Namespace) error {
		if err := ns.PutUint(keyVersion, CurrentVersion); err != nil {
			return err
		}
		if err := ns.PutUint(keyOpenPos, uint32(settings.OpenPosition)); err != nil {
			return err
		}
		if err := ns.PutUint(keyClosedPos, uint32(settings.ClosedPosition)); err != nil {
			return err
		}
		return ns.PutUint(keySpeed, uint32(settings.Speed))
	})
}

func (s *Store) write(namespace string, fn func(ns kv.Namespace) error) error {
	ns, err := s.kv.Open(namespace, false)
	if err != nil {
		return errors.Wrapf(err, "settings: open %s", namespace)
	}

	if err := fn(ns); err != nil {
		ns.Close()
		return errors.Wrapf(err, "settings: write %s", namespace)
	}

	return errors.Wrapf(ns.Close(), "settings: save %s", namespace)
}
