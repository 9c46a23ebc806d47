package device

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultLongPressTime is the press duration after which a held button is
// considered long-pressed, unless the profile overrides it.
const DefaultLongPressTime = 500 * time.Millisecond

// DofType describes how a degree of freedom is generated. A fake DOF is
// synthesized (for example by an arm model) rather than sensed.
type DofType uint8

const (
	// DofUnavailable means the device does not report this DOF.
	DofUnavailable DofType = iota
	// DofFake means the DOF is synthesized rather than sensed.
	DofFake
	// DofReal means the DOF comes from a physical sensor.
	DofReal
)

// Available reports whether the DOF is present in any form.
func (d DofType) Available() bool {
	return d != DofUnavailable
}

// TouchpadProfile describes one touchpad on a device.
type TouchpadProfile struct {
	// HasGestures is true if the platform reports explicit gestures
	// (scroll, fling) for this touchpad.
	HasGestures bool

	// SizeCm is the physical size of the touchpad in centimeters, or the
	// zero value if unknown. Gesture recognizers use it to make thresholds
	// independent of touchpad size.
	SizeCm r2.Vec
}

// HasSize reports whether the physical size is known.
func (t TouchpadProfile) HasSize() bool {
	return t.SizeCm.X > 0 && t.SizeCm.Y > 0
}

// Profile declares the capabilities of a connected device. It is immutable
// from Connect until Disconnect.
type Profile struct {
	// Name optionally identifies this profile among presets.
	Name string

	// PositionDof and RotationDof describe the device's 6-DOF reporting.
	PositionDof DofType
	RotationDof DofType

	// NumButtons is the number of buttons the device reports.
	NumButtons int

	// NumJoysticks is the number of joysticks the device reports.
	NumJoysticks int

	// NumEyes is the number of eyes for display devices.
	NumEyes int

	// Touchpads describes each touchpad on the device.
	Touchpads []TouchpadProfile

	// HasScroll is true if the device has a scroll wheel.
	HasScroll bool

	// HasBattery is true if the device reports battery status.
	HasBattery bool

	// LongPressTime is the long-press threshold for this device's buttons
	// and touches. Zero means DefaultLongPressTime.
	LongPressTime time.Duration
}

// EffectiveLongPressTime returns the configured long-press threshold,
// falling back to the default.
func (p *Profile) EffectiveLongPressTime() time.Duration {
	if p.LongPressTime <= 0 {
		return DefaultLongPressTime
	}
	return p.LongPressTime
}

// HasTouchpad reports whether the profile declares touchpad pad.
func (p *Profile) HasTouchpad(pad TouchpadID) bool {
	return int(pad) < len(p.Touchpads)
}

// HasButton reports whether the profile declares button id.
func (p *Profile) HasButton(id ButtonID) bool {
	return int(id) < p.NumButtons
}

// HasJoystick reports whether the profile declares joystick id.
func (p *Profile) HasJoystick(id JoystickID) bool {
	return int(id) < p.NumJoysticks
}

// HasEye reports whether the profile declares eye id.
func (p *Profile) HasEye(eye EyeID) bool {
	return int(eye) < p.NumEyes
}
