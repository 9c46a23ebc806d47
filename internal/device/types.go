// Package device defines the input device vocabulary: device slots, button
// and touch identifiers, capability profiles, the per-frame device state
// snapshot, and the bounded history buffer that presents the current and
// previous snapshots to readers while a third slot receives writes.
package device

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Type identifies one of the fixed input device slots.
type Type uint8

const (
	// HMD is the head-mounted display.
	HMD Type = iota
	// Mouse is the desktop mouse.
	Mouse
	// Keyboard is the desktop keyboard.
	Keyboard
	// Controller is the primary tracked controller.
	Controller
	// Controller2 is the secondary tracked controller.
	Controller2
	// Hand is the tracked hand.
	Hand
	// MaxTypes is the invalid sentinel and the number of device slots.
	MaxTypes
)

// String returns a human-readable device name.
func (t Type) String() string {
	switch t {
	case HMD:
		return "HMD"
	case Mouse:
		return "Mouse"
	case Keyboard:
		return "Keyboard"
	case Controller:
		return "Controller"
	case Controller2:
		return "Controller2"
	case Hand:
		return "Hand"
	default:
		return "Invalid"
	}
}

// Valid reports whether t names a real device slot.
func (t Type) Valid() bool {
	return t < MaxTypes
}

// ButtonID identifies a button on a device.
type ButtonID uint32

// Common mouse button mappings.
const (
	ButtonLeftMouse    ButtonID = 0
	ButtonRightMouse   ButtonID = 1
	ButtonMiddleMouse  ButtonID = 2
	ButtonBackMouse    ButtonID = 3
	ButtonForwardMouse ButtonID = 4
)

// Common controller button mappings. Controllers with more buttons can use
// numeric values directly.
const (
	ButtonPrimary   ButtonID = 0
	ButtonSecondary ButtonID = 1
	ButtonRecenter  ButtonID = 2
)

// InvalidButton marks the absence of a button in event payloads.
const InvalidButton ButtonID = math.MaxUint32

// JoystickID identifies a joystick on a device.
type JoystickID uint32

// Common joystick mappings.
const (
	LeftJoystick   JoystickID = 0
	RightJoystick  JoystickID = 1
	DirectionalPad JoystickID = 2
)

// TouchpadID identifies a touchpad on a device.
type TouchpadID uint32

// TouchID identifies a single touch on a touchpad. IDs are assigned by the
// platform layer and are stable for the lifetime of the touch.
type TouchID uint32

// InvalidTouch is the sentinel touch id, used when a touchpad has no
// primary touch.
const InvalidTouch TouchID = math.MaxUint32

// EyeID identifies an eye on a display device.
type EyeID uint32

// InvalidTouchLocation is the touch position reported while a touchpad is
// not being touched.
var InvalidTouchLocation = r2.Vec{X: -1, Y: -1}

// InvalidSampleTime is the timestamp sentinel for untouched time fields on
// the per-device timeline.
const InvalidSampleTime = time.Duration(math.MinInt64)

// GestureType enumerates platform-reported touchpad gestures.
type GestureType uint8

const (
	// GestureNone indicates no active platform gesture.
	GestureNone GestureType = iota
	// GestureScrollStart begins a scroll gesture.
	GestureScrollStart
	// GestureScrollUpdate continues a scroll gesture.
	GestureScrollUpdate
	// GestureScrollEnd ends a scroll gesture.
	GestureScrollEnd
	// GestureFling is a completed fling.
	GestureFling
)

// String returns a human-readable gesture type name.
func (g GestureType) String() string {
	switch g {
	case GestureScrollStart:
		return "scroll-start"
	case GestureScrollUpdate:
		return "scroll-update"
	case GestureScrollEnd:
		return "scroll-end"
	case GestureFling:
		return "fling"
	default:
		return "none"
	}
}

// GestureDirection enumerates fling directions.
type GestureDirection uint8

const (
	// DirectionNone indicates no direction.
	DirectionNone GestureDirection = iota
	// DirectionLeft is a leftward fling.
	DirectionLeft
	// DirectionRight is a rightward fling.
	DirectionRight
	// DirectionUp is an upward fling.
	DirectionUp
	// DirectionDown is a downward fling.
	DirectionDown
)

// String returns a human-readable direction name.
func (d GestureDirection) String() string {
	switch d {
	case DirectionLeft:
		return "left"
	case DirectionRight:
		return "right"
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "none"
	}
}

// GestureAxis identifies the dominant displacement axis latched at the start
// of a scroll gesture.
type GestureAxis uint8

const (
	// AxisNone indicates no latched axis.
	AxisNone GestureAxis = iota
	// AxisX latches horizontal displacement.
	AxisX
	// AxisY latches vertical displacement.
	AxisY
)

// BatteryState enumerates charging states for devices with a battery.
type BatteryState uint8

const (
	// BatteryUnknown indicates the charging state is not reported.
	BatteryUnknown BatteryState = iota
	// BatteryCharging indicates the device is charging.
	BatteryCharging
	// BatteryDischarging indicates the device is running on battery.
	BatteryDischarging
	// BatteryFull indicates the battery is full.
	BatteryFull
)

// String returns a human-readable battery state name.
func (b BatteryState) String() string {
	switch b {
	case BatteryCharging:
		return "charging"
	case BatteryDischarging:
		return "discharging"
	case BatteryFull:
		return "full"
	default:
		return "unknown"
	}
}
