package registry

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dshills/inputcore/internal/contract"
	"github.com/dshills/inputcore/internal/device"
	"github.com/dshills/inputcore/internal/mathx"
)

// velocityCutoffHz is the low-pass cutoff for filtered touch velocity.
const velocityCutoffHz = 10.0

// velocityRC is the filter's RC constant, 1/(2*pi*cutoff).
var velocityRC = 1 / (2 * math.Pi * velocityCutoffHz)

// UpdateButton records a button's pressed and repeat flags for the in-flight
// frame. On a false to true transition the press time is stamped with the
// write slot's timestamp, which becomes the committed frame time.
func (r *Registry) UpdateButton(d device.Type, id device.ButtonID, pressed, repeat bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev := r.lookup("UpdateButton", d)
	if dev == nil {
		return
	}
	if !contract.Expectf(dev.profile.HasButton(id), "UpdateButton: %v has no button %d", d, id) {
		return
	}

	write := dev.buffer.Mutable()
	if pressed && !write.Buttons[id] {
		write.ButtonPressTimes[id] = write.TimeStamp
	}
	write.Buttons[id] = pressed
	write.Repeat[id] = repeat
}

// UpdateJoystick records a joystick value. Components outside [-1, 1] are
// clamped and logged as errors.
func (r *Registry) UpdateJoystick(d device.Type, id device.JoystickID, value r2.Vec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev := r.lookup("UpdateJoystick", d)
	if dev == nil {
		return
	}
	if !contract.Expectf(dev.profile.HasJoystick(id), "UpdateJoystick: %v has no joystick %d", d, id) {
		return
	}

	clamped, inRange := mathx.ClampVec2(value, -1, 1)
	if !inRange {
		r.log.Error("joystick %v/%d value (%v, %v) out of range, clamped", d, id, value.X, value.Y)
	}
	dev.buffer.Mutable().Joysticks[id] = clamped
}

// UpdateTouch records one touch sample. A valid sample for an untracked id
// begins a new touch: its gesture origin is the clamped position, velocity
// starts at zero, and it becomes primary if it is the only active touch.
// Subsequent samples advance a 10 Hz low-pass filtered velocity using the
// wall-clock interval between samples. An invalid sample ends the touch: the
// position becomes the invalid sentinel while the last filtered velocity is
// retained, readable for one more frame before eviction.
func (r *Registry) UpdateTouch(d device.Type, pad device.TouchpadID, id device.TouchID, position r2.Vec, valid bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev := r.lookup("UpdateTouch", d)
	if dev == nil {
		return
	}
	if !contract.Expectf(dev.profile.HasTouchpad(pad), "UpdateTouch: %v has no touchpad %d", d, pad) {
		return
	}
	if !contract.Expectf(id != device.InvalidTouch, "UpdateTouch: invalid touch id") {
		return
	}

	write := dev.buffer.Mutable()
	tp := &write.Touchpads[pad]
	touch, tracked := tp.Touches[id]

	if !valid {
		if !tracked || !touch.Valid {
			// Releasing an untracked touch is benign.
			return
		}
		touch.Valid = false
		touch.Position = device.InvalidTouchLocation
		touch.PressTime = device.InvalidSampleTime
		tp.Touches[id] = touch
		tp.RemoveActive(id)
		if tp.Primary == id {
			tp.ReassignPrimary()
		}
		return
	}

	clamped, inRange := mathx.ClampVec2(position, 0, 1)
	if !inRange {
		r.log.Error("touch %v/%d/%d position (%v, %v) out of range, clamped", d, pad, id, position.X, position.Y)
	}
	now := r.now()

	if !tracked || !touch.Valid {
		tp.Touches[id] = device.Touch{
			Position:      clamped,
			GestureOrigin: clamped,
			PressTime:     write.TimeStamp,
			SampleTime:    now,
			Valid:         true,
		}
		tp.ActiveIDs = append(tp.ActiveIDs, id)
		if len(tp.ActiveIDs) == 1 {
			tp.Primary = id
		}
		return
	}

	if dt := now.Sub(touch.SampleTime).Seconds(); dt > 0 {
		instant := r2.Scale(1/dt, r2.Sub(clamped, touch.Position))
		touch.Velocity = mathx.Lerp2(touch.Velocity, instant, dt/(velocityRC+dt))
	}
	touch.Position = clamped
	touch.SampleTime = now
	tp.Touches[id] = touch
}

// UpdateGesture records the platform gesture state for a touchpad. The
// touchpad profile must declare gesture support. The initial displacement
// axis is latched on the transition into a scroll start and cleared when
// the gesture ends.
func (r *Registry) UpdateGesture(d device.Type, pad device.TouchpadID, typ device.GestureType, dir device.GestureDirection, displacement, velocity r2.Vec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev := r.lookup("UpdateGesture", d)
	if dev == nil {
		return
	}
	if !contract.Expectf(dev.profile.HasTouchpad(pad), "UpdateGesture: %v has no touchpad %d", d, pad) {
		return
	}
	if !contract.Expectf(dev.profile.Touchpads[pad].HasGestures, "UpdateGesture: %v touchpad %d has no gesture support", d, pad) {
		return
	}

	tp := &dev.buffer.Mutable().Touchpads[pad]
	g := &tp.Gesture

	switch typ {
	case device.GestureScrollStart:
		if g.Type != device.GestureScrollStart {
			if math.Abs(displacement.X) > math.Abs(displacement.Y) {
				g.InitialAxis = device.AxisX
			} else {
				g.InitialAxis = device.AxisY
			}
		}
	case device.GestureScrollEnd, device.GestureFling:
		g.InitialAxis = device.AxisNone
	}

	g.Type = typ
	g.Direction = dir
	g.Displacement = displacement
	g.Velocity = velocity
}

// ResetTouchGestureOrigin rebases a touch's gesture origin to its committed
// position from the previous frame. The processor calls this when a gesture
// releases ownership of a touch, so slop measurement starts fresh.
func (r *Registry) ResetTouchGestureOrigin(d device.Type, pad device.TouchpadID, id device.TouchID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev := r.lookup("ResetTouchGestureOrigin", d)
	if dev == nil {
		return
	}
	if !contract.Expectf(dev.profile.HasTouchpad(pad), "ResetTouchGestureOrigin: %v has no touchpad %d", d, pad) {
		return
	}

	write := dev.buffer.Mutable()
	tp := &write.Touchpads[pad]
	touch, ok := tp.Touches[id]
	if !ok {
		return
	}

	origin := touch.Position
	if int(pad) < len(dev.buffer.Current().Touchpads) {
		if prev, ok := dev.buffer.Current().Touchpads[pad].Touches[id]; ok && prev.Valid {
			origin = prev.Position
		}
	}
	touch.GestureOrigin = origin
	tp.Touches[id] = touch
}

// UpdatePosition records the device's position. The profile must declare a
// position DOF.
func (r *Registry) UpdatePosition(d device.Type, position r3.Vec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev := r.lookup("UpdatePosition", d)
	if dev == nil {
		return
	}
	if !contract.Expectf(dev.profile.PositionDof.Available(), "UpdatePosition: %v has no position dof", d) {
		return
	}
	dev.buffer.Mutable().Position[0] = position
}

// UpdateRotation records the device's rotation. The profile must declare a
// rotation DOF.
func (r *Registry) UpdateRotation(d device.Type, rotation quat.Number) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev := r.lookup("UpdateRotation", d)
	if dev == nil {
		return
	}
	if !contract.Expectf(dev.profile.RotationDof.Available(), "UpdateRotation: %v has no rotation dof", d) {
		return
	}
	dev.buffer.Mutable().Rotation[0] = rotation
}

// UpdateEye records one eye's transforms, field of view and viewport.
func (r *Registry) UpdateEye(d device.Type, eye device.EyeID, eyeFromHead, screenFromEye *mat.Dense, fov device.FieldOfView, viewport device.Viewport) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev := r.lookup("UpdateEye", d)
	if dev == nil {
		return
	}
	if !contract.Expectf(dev.profile.HasEye(eye), "UpdateEye: %v has no eye %d", d, eye) {
		return
	}

	write := dev.buffer.Mutable()
	if eyeFromHead != nil {
		write.EyeFromHead[eye] = mat.DenseCopyOf(eyeFromHead)
	}
	if screenFromEye != nil {
		write.ScreenFromEye[eye] = mat.DenseCopyOf(screenFromEye)
	}
	write.EyeFOV[eye] = fov
	write.EyeViewport[eye] = viewport
}

// UpdateScroll accumulates scroll wheel movement for the in-flight frame.
func (r *Registry) UpdateScroll(d device.Type, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev := r.lookup("UpdateScroll", d)
	if dev == nil {
		return
	}
	if !contract.Expectf(dev.profile.HasScroll, "UpdateScroll: %v has no scroll wheel", d) {
		return
	}
	dev.buffer.Mutable().Scroll[0] += delta
}

// UpdateBattery records battery charge and charging state. Charge is a
// fraction in [0, 1]; out-of-range values are clamped and logged as errors.
func (r *Registry) UpdateBattery(d device.Type, charge float64, state device.BatteryState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev := r.lookup("UpdateBattery", d)
	if dev == nil {
		return
	}
	if !contract.Expectf(dev.profile.HasBattery, "UpdateBattery: %v has no battery", d) {
		return
	}

	if charge < 0 || charge > 1 {
		r.log.Error("battery charge %v out of range for %v, clamped", charge, d)
		charge = mathx.Clamp(charge, 0, 1)
	}
	write := dev.buffer.Mutable()
	write.BatteryCharge[0] = charge
	write.BatteryState[0] = state
}

// KeyPressed appends a pressed key to the frame's key list. The list is
// cleared on every frame advance.
func (r *Registry) KeyPressed(d device.Type, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev := r.lookup("KeyPressed", d)
	if dev == nil {
		return
	}
	write := dev.buffer.Mutable()
	write.Keys = append(write.Keys, key)
}
