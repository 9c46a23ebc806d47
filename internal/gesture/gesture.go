// Package gesture defines the pluggable touch gesture strategy objects the
// interaction processor orchestrates, and the built-in recognizers: one
// finger drag, pinch and twist. Recognizers watch unclaimed touches; when
// one starts, the gesture it returns owns its touches until it ends or is
// cancelled.
package gesture

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dshills/inputcore/internal/device"
)

// State is the lifecycle state a gesture reports from AdvanceFrame.
type State uint8

const (
	// Running means the gesture is still in progress.
	Running State = iota
	// Ending means the gesture completed normally this frame.
	Ending
	// Canceled means the gesture aborted this frame.
	Canceled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Ending:
		return "ending"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// Source is the touch data a recognizer reads. *registry.Registry satisfies
// it.
type Source interface {
	IsValidTouch(d device.Type, pad device.TouchpadID, id device.TouchID) bool
	GetTouchLocation(d device.Type, pad device.TouchpadID, id device.TouchID) r2.Vec
	GetTouchGestureOrigin(d device.Type, pad device.TouchpadID, id device.TouchID) r2.Vec
	GetTouchVelocity(d device.Type, pad device.TouchpadID, id device.TouchID) r2.Vec
	GetTouchpadSize(d device.Type, pad device.TouchpadID) (r2.Vec, bool)
}

// Recognizer watches unclaimed touches and decides when a gesture begins.
// Only one-touch and two-touch recognizers are supported.
type Recognizer interface {
	// Name identifies the recognizer in event topics and payloads.
	Name() string

	// NumTouches is the touch arity, 1 or 2.
	NumTouches() int

	// TryStart inspects the candidate touches and returns a new gesture if
	// its start condition is met this frame, or nil.
	TryStart(src Source, d device.Type, pad device.TouchpadID, touches []device.TouchID) Gesture
}

// Gesture is one in-flight recognized gesture. The processor owns its
// lifecycle: Setup once after TryStart, AdvanceFrame each frame until the
// returned state leaves Running, Cancel for forced teardown.
type Gesture interface {
	// Name matches the recognizer that produced the gesture.
	Name() string

	// Setup initializes gesture state after its touches are claimed.
	Setup(src Source)

	// AdvanceFrame integrates one frame of touch movement.
	AdvanceFrame(dt time.Duration, src Source) State

	// Cancel forces the gesture to report Canceled from its next
	// AdvanceFrame.
	Cancel()

	// Touches returns the claimed touch ids.
	Touches() []device.TouchID

	// Values returns the recognizer-specific payload for gesture events,
	// for example accumulated drag displacement or pinch separation.
	Values() map[string]float64
}

// cmDelta converts a normalized touchpad displacement to centimeters using
// the declared pad size. Pads with unknown size fall back to treating
// normalized units as centimeters, which keeps thresholds usable if a
// little arbitrary.
func cmDelta(src Source, d device.Type, pad device.TouchpadID, delta r2.Vec) r2.Vec {
	if size, ok := src.GetTouchpadSize(d, pad); ok {
		return r2.Vec{X: delta.X * size.X, Y: delta.Y * size.Y}
	}
	return delta
}
