package registry

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dshills/inputcore/internal/contract"
	"github.com/dshills/inputcore/internal/device"
	"github.com/dshills/inputcore/internal/mathx"
)

// flingVelocity is the minimum primary-touch speed, in normalized touchpad
// units per second, for a release to count as a fling on touchpads without
// platform gesture support.
const flingVelocity = 0.4

// GetButtonState classifies a button's transitions from the two committed
// snapshots. Querying an unknown device or button is a contract violation
// returning zero bits.
func (r *Registry) GetButtonState(d device.Type, id device.ButtonID) device.ButtonBits {
	dev := r.lookup("GetButtonState", d)
	if dev == nil {
		return 0
	}
	if !contract.Expectf(dev.profile.HasButton(id), "GetButtonState: %v has no button %d", d, id) {
		return 0
	}

	curr := dev.buffer.Current()
	prev := dev.buffer.Previous()
	return device.ClassifyButton(
		curr.Buttons[id], prev.Buttons[id], curr.Repeat[id],
		dev.profile.EffectiveLongPressTime(),
		curr.TimeStamp, prev.TimeStamp,
		curr.ButtonPressTimes[id], prev.ButtonPressTimes[id],
	)
}

// GetButtonPressedDuration returns how long a button has been held. While
// pressed it measures against the current snapshot; on the release frame it
// falls back to the previous snapshot so the final duration is readable
// alongside the just-released edge. Zero otherwise.
func (r *Registry) GetButtonPressedDuration(d device.Type, id device.ButtonID) time.Duration {
	dev := r.lookup("GetButtonPressedDuration", d)
	if dev == nil {
		return 0
	}
	if !contract.Expectf(dev.profile.HasButton(id), "GetButtonPressedDuration: %v has no button %d", d, id) {
		return 0
	}

	curr := dev.buffer.Current()
	prev := dev.buffer.Previous()
	if curr.Buttons[id] {
		return curr.TimeStamp - curr.ButtonPressTimes[id]
	}
	if prev.Buttons[id] {
		return prev.TimeStamp - prev.ButtonPressTimes[id]
	}
	return 0
}

// GetJoystickValue returns a joystick's committed value.
func (r *Registry) GetJoystickValue(d device.Type, id device.JoystickID) r2.Vec {
	dev := r.lookup("GetJoystickValue", d)
	if dev == nil {
		return r2.Vec{}
	}
	if !contract.Expectf(dev.profile.HasJoystick(id), "GetJoystickValue: %v has no joystick %d", d, id) {
		return r2.Vec{}
	}
	return dev.buffer.Current().Joysticks[id]
}

// GetJoystickDelta returns the change in a joystick's value since the
// previous frame.
func (r *Registry) GetJoystickDelta(d device.Type, id device.JoystickID) r2.Vec {
	dev := r.lookup("GetJoystickDelta", d)
	if dev == nil {
		return r2.Vec{}
	}
	if !contract.Expectf(dev.profile.HasJoystick(id), "GetJoystickDelta: %v has no joystick %d", d, id) {
		return r2.Vec{}
	}
	return r2.Sub(dev.buffer.Current().Joysticks[id], dev.buffer.Previous().Joysticks[id])
}

// touchpad returns a touchpad's committed current snapshot, enforcing the
// device and pad contracts.
func (r *Registry) touchpad(op string, d device.Type, pad device.TouchpadID) (*connectedDevice, *device.TouchpadState) {
	dev := r.lookup(op, d)
	if dev == nil {
		return nil, nil
	}
	if !contract.Expectf(dev.profile.HasTouchpad(pad), "%s: %v has no touchpad %d", op, d, pad) {
		return nil, nil
	}
	return dev, &dev.buffer.Current().Touchpads[pad]
}

// GetTouches returns the ids of the currently active touches, in press
// order.
func (r *Registry) GetTouches(d device.Type, pad device.TouchpadID) []device.TouchID {
	_, tp := r.touchpad("GetTouches", d, pad)
	if tp == nil {
		return nil
	}
	return append([]device.TouchID(nil), tp.ActiveIDs...)
}

// GetPrimaryTouch returns the touchpad's primary touch id, or InvalidTouch.
func (r *Registry) GetPrimaryTouch(d device.Type, pad device.TouchpadID) device.TouchID {
	_, tp := r.touchpad("GetPrimaryTouch", d, pad)
	if tp == nil {
		return device.InvalidTouch
	}
	return tp.Primary
}

// IsValidTouch reports whether a touch is currently down. A touch id that
// was never tracked, or that has been evicted, is an ordinary false.
func (r *Registry) IsValidTouch(d device.Type, pad device.TouchpadID, id device.TouchID) bool {
	_, tp := r.touchpad("IsValidTouch", d, pad)
	if tp == nil {
		return false
	}
	t, ok := tp.Touches[id]
	return ok && t.Valid
}

// GetTouchLocation returns a touch's committed position, or the invalid
// sentinel if the touch is unknown or released.
func (r *Registry) GetTouchLocation(d device.Type, pad device.TouchpadID, id device.TouchID) r2.Vec {
	_, tp := r.touchpad("GetTouchLocation", d, pad)
	if tp == nil {
		return device.InvalidTouchLocation
	}
	t, ok := tp.Touches[id]
	if !ok {
		return device.InvalidTouchLocation
	}
	return t.Position
}

// GetTouchDelta returns how far a touch moved between the previous and
// current frames, or zero if it was not valid in both.
func (r *Registry) GetTouchDelta(d device.Type, pad device.TouchpadID, id device.TouchID) r2.Vec {
	dev, tp := r.touchpad("GetTouchDelta", d, pad)
	if tp == nil {
		return r2.Vec{}
	}
	curr, ok := tp.Touches[id]
	if !ok || !curr.Valid {
		return r2.Vec{}
	}
	prev, ok := dev.buffer.Previous().Touchpads[pad].Touches[id]
	if !ok || !prev.Valid {
		return r2.Vec{}
	}
	return r2.Sub(curr.Position, prev.Position)
}

// GetTouchVelocity returns a touch's filtered velocity. A released touch
// keeps its final velocity for one frame, so a consumer can read the fling
// speed on the release frame.
func (r *Registry) GetTouchVelocity(d device.Type, pad device.TouchpadID, id device.TouchID) r2.Vec {
	_, tp := r.touchpad("GetTouchVelocity", d, pad)
	if tp == nil {
		return r2.Vec{}
	}
	return tp.Touches[id].Velocity
}

// GetTouchGestureOrigin returns the position a touch's current interaction
// started at, or the invalid sentinel for an unknown touch.
func (r *Registry) GetTouchGestureOrigin(d device.Type, pad device.TouchpadID, id device.TouchID) r2.Vec {
	_, tp := r.touchpad("GetTouchGestureOrigin", d, pad)
	if tp == nil {
		return device.InvalidTouchLocation
	}
	t, ok := tp.Touches[id]
	if !ok {
		return device.InvalidTouchLocation
	}
	return t.GestureOrigin
}

// GetTouchPressedDuration returns how long a touch has been down, with the
// same release-frame fallback as buttons.
func (r *Registry) GetTouchPressedDuration(d device.Type, pad device.TouchpadID, id device.TouchID) time.Duration {
	dev, tp := r.touchpad("GetTouchPressedDuration", d, pad)
	if tp == nil {
		return 0
	}
	curr := dev.buffer.Current()
	prev := dev.buffer.Previous()
	if t, ok := tp.Touches[id]; ok && t.Valid {
		return curr.TimeStamp - t.PressTime
	}
	if t, ok := prev.Touchpads[pad].Touches[id]; ok && t.Valid {
		return prev.TimeStamp - t.PressTime
	}
	return 0
}

// GetTouchState classifies a touch's down/up transitions as button bits,
// using the device long-press threshold. Repeat never applies to touches.
func (r *Registry) GetTouchState(d device.Type, pad device.TouchpadID, id device.TouchID) device.ButtonBits {
	dev, tp := r.touchpad("GetTouchState", d, pad)
	if tp == nil {
		return 0
	}

	curr := dev.buffer.Current()
	prev := dev.buffer.Previous()
	currTouch, currOK := tp.Touches[id]
	prevTouch, prevOK := prev.Touchpads[pad].Touches[id]

	currPress := currTouch.PressTime
	if !currOK || !currTouch.Valid {
		currPress = curr.TimeStamp
	}
	prevPress := prevTouch.PressTime
	if !prevOK || !prevTouch.Valid {
		prevPress = prev.TimeStamp
	}

	return device.ClassifyButton(
		currOK && currTouch.Valid, prevOK && prevTouch.Valid, false,
		dev.profile.EffectiveLongPressTime(),
		curr.TimeStamp, prev.TimeStamp, currPress, prevPress,
	)
}

// GetTouchGestureType returns the touchpad's gesture type. Touchpads without
// platform gesture support synthesize a fling on the frame the primary touch
// is released with sufficient velocity.
func (r *Registry) GetTouchGestureType(d device.Type, pad device.TouchpadID) device.GestureType {
	dev, tp := r.touchpad("GetTouchGestureType", d, pad)
	if tp == nil {
		return device.GestureNone
	}
	if dev.profile.Touchpads[pad].HasGestures {
		return tp.Gesture.Type
	}

	id, vel, released := r.releasedPrimary(dev, pad)
	if released && id != device.InvalidTouch && r2.Norm(vel) >= flingVelocity {
		return device.GestureFling
	}
	return device.GestureNone
}

// GetTouchGestureDirection returns the gesture direction. For touchpads
// without platform gesture support the direction is derived from the
// released primary touch's velocity, split into quadrants at the diagonals.
func (r *Registry) GetTouchGestureDirection(d device.Type, pad device.TouchpadID) device.GestureDirection {
	dev, tp := r.touchpad("GetTouchGestureDirection", d, pad)
	if tp == nil {
		return device.DirectionNone
	}
	if dev.profile.Touchpads[pad].HasGestures {
		return tp.Gesture.Direction
	}

	id, vel, released := r.releasedPrimary(dev, pad)
	if !released || id == device.InvalidTouch || r2.Norm(vel) < flingVelocity {
		return device.DirectionNone
	}
	return flingDirection(vel)
}

// GetTouchGestureDisplacement returns the gesture displacement, or zero for
// touchpads without gesture support.
func (r *Registry) GetTouchGestureDisplacement(d device.Type, pad device.TouchpadID) r2.Vec {
	_, tp := r.touchpad("GetTouchGestureDisplacement", d, pad)
	if tp == nil {
		return r2.Vec{}
	}
	return tp.Gesture.Displacement
}

// GetTouchGestureVelocity returns the gesture velocity, or zero for
// touchpads without gesture support.
func (r *Registry) GetTouchGestureVelocity(d device.Type, pad device.TouchpadID) r2.Vec {
	_, tp := r.touchpad("GetTouchGestureVelocity", d, pad)
	if tp == nil {
		return r2.Vec{}
	}
	return tp.Gesture.Velocity
}

// GetTouchGestureInitialAxis returns the displacement axis latched when the
// current scroll gesture started.
func (r *Registry) GetTouchGestureInitialAxis(d device.Type, pad device.TouchpadID) device.GestureAxis {
	_, tp := r.touchpad("GetTouchGestureInitialAxis", d, pad)
	if tp == nil {
		return device.AxisNone
	}
	return tp.Gesture.InitialAxis
}

// releasedPrimary finds the touch that was primary in the previous frame
// and reports whether it was released this frame, with its final velocity.
func (r *Registry) releasedPrimary(dev *connectedDevice, pad device.TouchpadID) (device.TouchID, r2.Vec, bool) {
	prevPad := &dev.buffer.Previous().Touchpads[pad]
	id := prevPad.Primary
	if id == device.InvalidTouch {
		return device.InvalidTouch, r2.Vec{}, false
	}
	prevTouch, ok := prevPad.Touches[id]
	if !ok || !prevTouch.Valid {
		return device.InvalidTouch, r2.Vec{}, false
	}
	currTouch, ok := dev.buffer.Current().Touchpads[pad].Touches[id]
	if !ok || currTouch.Valid {
		return device.InvalidTouch, r2.Vec{}, false
	}
	return id, currTouch.Velocity, true
}

// flingDirection maps a velocity to a quadrant, with boundaries on the
// diagonals. Touchpad y grows downward, so negative y is up.
func flingDirection(vel r2.Vec) device.GestureDirection {
	deg := math.Atan2(vel.X, -vel.Y) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	switch {
	case deg < 45 || deg >= 315:
		return device.DirectionUp
	case deg < 135:
		return device.DirectionRight
	case deg < 225:
		return device.DirectionDown
	default:
		return device.DirectionLeft
	}
}

// GetDofPosition returns the device's committed position.
func (r *Registry) GetDofPosition(d device.Type) r3.Vec {
	dev := r.lookup("GetDofPosition", d)
	if dev == nil {
		return r3.Vec{}
	}
	if !contract.Expectf(dev.profile.PositionDof.Available(), "GetDofPosition: %v has no position dof", d) {
		return r3.Vec{}
	}
	return dev.buffer.Current().Position[0]
}

// GetDofDelta returns the change in position since the previous frame.
func (r *Registry) GetDofDelta(d device.Type) r3.Vec {
	dev := r.lookup("GetDofDelta", d)
	if dev == nil {
		return r3.Vec{}
	}
	if !contract.Expectf(dev.profile.PositionDof.Available(), "GetDofDelta: %v has no position dof", d) {
		return r3.Vec{}
	}
	return r3.Sub(dev.buffer.Current().Position[0], dev.buffer.Previous().Position[0])
}

// GetDofRotation returns the device's committed rotation.
func (r *Registry) GetDofRotation(d device.Type) quat.Number {
	dev := r.lookup("GetDofRotation", d)
	if dev == nil {
		return mathx.QuatIdentity
	}
	if !contract.Expectf(dev.profile.RotationDof.Available(), "GetDofRotation: %v has no rotation dof", d) {
		return mathx.QuatIdentity
	}
	return dev.buffer.Current().Rotation[0]
}

// GetDofAngularDelta returns the rotation from the previous frame's
// orientation to the current one.
func (r *Registry) GetDofAngularDelta(d device.Type) quat.Number {
	dev := r.lookup("GetDofAngularDelta", d)
	if dev == nil {
		return mathx.QuatIdentity
	}
	if !contract.Expectf(dev.profile.RotationDof.Available(), "GetDofAngularDelta: %v has no rotation dof", d) {
		return mathx.QuatIdentity
	}
	return mathx.AngularDelta(dev.buffer.Previous().Rotation[0], dev.buffer.Current().Rotation[0])
}

// GetDofWorldFromObjectMatrix composes the device pose into a world matrix,
// substituting identity for unavailable degrees of freedom.
func (r *Registry) GetDofWorldFromObjectMatrix(d device.Type) *mat.Dense {
	dev := r.lookup("GetDofWorldFromObjectMatrix", d)
	if dev == nil {
		return mathx.Identity4()
	}

	pos := r3.Vec{}
	if dev.profile.PositionDof.Available() {
		pos = dev.buffer.Current().Position[0]
	}
	rot := mathx.QuatIdentity
	if dev.profile.RotationDof.Available() {
		rot = dev.buffer.Current().Rotation[0]
	}
	return mathx.TransformMatrix(pos, rot)
}

// GetEyeFromHead returns an eye's head-to-eye transform.
func (r *Registry) GetEyeFromHead(d device.Type, eye device.EyeID) *mat.Dense {
	dev := r.lookup("GetEyeFromHead", d)
	if dev == nil {
		return mathx.Identity4()
	}
	if !contract.Expectf(dev.profile.HasEye(eye), "GetEyeFromHead: %v has no eye %d", d, eye) {
		return mathx.Identity4()
	}
	return mat.DenseCopyOf(dev.buffer.Current().EyeFromHead[eye])
}

// GetScreenFromEye returns an eye's projection transform.
func (r *Registry) GetScreenFromEye(d device.Type, eye device.EyeID) *mat.Dense {
	dev := r.lookup("GetScreenFromEye", d)
	if dev == nil {
		return mathx.Identity4()
	}
	if !contract.Expectf(dev.profile.HasEye(eye), "GetScreenFromEye: %v has no eye %d", d, eye) {
		return mathx.Identity4()
	}
	return mat.DenseCopyOf(dev.buffer.Current().ScreenFromEye[eye])
}

// GetEyeFOV returns an eye's field of view.
func (r *Registry) GetEyeFOV(d device.Type, eye device.EyeID) device.FieldOfView {
	dev := r.lookup("GetEyeFOV", d)
	if dev == nil {
		return device.FieldOfView{}
	}
	if !contract.Expectf(dev.profile.HasEye(eye), "GetEyeFOV: %v has no eye %d", d, eye) {
		return device.FieldOfView{}
	}
	return dev.buffer.Current().EyeFOV[eye]
}

// GetEyeViewport returns an eye's viewport.
func (r *Registry) GetEyeViewport(d device.Type, eye device.EyeID) device.Viewport {
	dev := r.lookup("GetEyeViewport", d)
	if dev == nil {
		return device.Viewport{}
	}
	if !contract.Expectf(dev.profile.HasEye(eye), "GetEyeViewport: %v has no eye %d", d, eye) {
		return device.Viewport{}
	}
	return dev.buffer.Current().EyeViewport[eye]
}

// GetScrollDelta returns the scroll movement committed this frame.
func (r *Registry) GetScrollDelta(d device.Type) int {
	dev := r.lookup("GetScrollDelta", d)
	if dev == nil {
		return 0
	}
	if !contract.Expectf(dev.profile.HasScroll, "GetScrollDelta: %v has no scroll wheel", d) {
		return 0
	}
	return dev.buffer.Current().Scroll[0] - dev.buffer.Previous().Scroll[0]
}

// GetBatteryCharge returns the battery level as a fraction in [0, 1].
func (r *Registry) GetBatteryCharge(d device.Type) float64 {
	dev := r.lookup("GetBatteryCharge", d)
	if dev == nil {
		return 0
	}
	if !contract.Expectf(dev.profile.HasBattery, "GetBatteryCharge: %v has no battery", d) {
		return 0
	}
	return dev.buffer.Current().BatteryCharge[0]
}

// GetBatteryState returns the battery charging state.
func (r *Registry) GetBatteryState(d device.Type) device.BatteryState {
	dev := r.lookup("GetBatteryState", d)
	if dev == nil {
		return device.BatteryUnknown
	}
	if !contract.Expectf(dev.profile.HasBattery, "GetBatteryState: %v has no battery", d) {
		return device.BatteryUnknown
	}
	return dev.buffer.Current().BatteryState[0]
}

// GetPressedKeys returns the keys pressed during the committed frame.
func (r *Registry) GetPressedKeys(d device.Type) []string {
	dev := r.lookup("GetPressedKeys", d)
	if dev == nil {
		return nil
	}
	return append([]string(nil), dev.buffer.Current().Keys...)
}

// HasPositionDof reports whether a connected device has a position DOF.
func (r *Registry) HasPositionDof(d device.Type) bool {
	dev := r.peek(d)
	return dev != nil && dev.profile.PositionDof.Available()
}

// HasRotationDof reports whether a connected device has a rotation DOF.
func (r *Registry) HasRotationDof(d device.Type) bool {
	dev := r.peek(d)
	return dev != nil && dev.profile.RotationDof.Available()
}

// HasTouchpad reports whether a connected device has the given touchpad.
func (r *Registry) HasTouchpad(d device.Type, pad device.TouchpadID) bool {
	dev := r.peek(d)
	return dev != nil && dev.profile.HasTouchpad(pad)
}

// HasGestureSupport reports whether a touchpad receives platform gestures.
func (r *Registry) HasGestureSupport(d device.Type, pad device.TouchpadID) bool {
	dev := r.peek(d)
	return dev != nil && dev.profile.HasTouchpad(pad) && dev.profile.Touchpads[pad].HasGestures
}

// GetTouchpadSize returns the physical touchpad size in centimeters, if the
// profile declares one.
func (r *Registry) GetTouchpadSize(d device.Type, pad device.TouchpadID) (r2.Vec, bool) {
	dev := r.peek(d)
	if dev == nil || !dev.profile.HasTouchpad(pad) {
		return r2.Vec{}, false
	}
	tp := dev.profile.Touchpads[pad]
	return tp.SizeCm, tp.HasSize()
}
