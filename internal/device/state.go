package device

import (
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dshills/inputcore/internal/mathx"
)

// Touch is the state of a single touch on a touchpad.
type Touch struct {
	// Position is the touch location, normalized to [0, 1] per component.
	// InvalidTouchLocation while the touch is not down.
	Position r2.Vec

	// Velocity is the low-pass filtered touch velocity in normalized units
	// per second. It is retained for one frame after release so consumers
	// can read the final fling velocity.
	Velocity r2.Vec

	// GestureOrigin is the position the touch started at, used as the
	// reference point for slop and gesture-start detection. Reset when a
	// gesture releases ownership of the touch.
	GestureOrigin r2.Vec

	// PressTime is the device-timeline stamp of the frame the touch began,
	// or InvalidSampleTime after release.
	PressTime time.Duration

	// SampleTime is the wall-clock time of the last sample, used to derive
	// instantaneous velocity between samples.
	SampleTime time.Time

	// Valid is true while the touch is down.
	Valid bool
}

// TouchGesture is the platform-reported gesture state for a touchpad.
type TouchGesture struct {
	Type         GestureType
	Direction    GestureDirection
	Displacement r2.Vec
	Velocity     r2.Vec

	// InitialAxis is the dominant displacement axis latched when a scroll
	// gesture starts, cleared when it ends.
	InitialAxis GestureAxis
}

// TouchpadState is the per-frame state of one touchpad.
type TouchpadState struct {
	// Touches maps touch id to touch state. Entries for released touches
	// are retained for one extra frame and then evicted on frame advance.
	Touches map[TouchID]Touch

	// ActiveIDs lists the currently-down touch ids in press order.
	ActiveIDs []TouchID

	// Primary is the representative touch id, or InvalidTouch.
	Primary TouchID

	// Gesture is the platform gesture state, if the profile declares
	// gesture support.
	Gesture TouchGesture
}

// newTouchpadState returns an empty touchpad state.
func newTouchpadState() TouchpadState {
	return TouchpadState{
		Touches: make(map[TouchID]Touch),
		Primary: InvalidTouch,
	}
}

// clone deep-copies the touchpad state.
func (tp *TouchpadState) clone() TouchpadState {
	out := TouchpadState{
		Touches: make(map[TouchID]Touch, len(tp.Touches)),
		Primary: tp.Primary,
		Gesture: tp.Gesture,
	}
	for id, t := range tp.Touches {
		out.Touches[id] = t
	}
	if len(tp.ActiveIDs) > 0 {
		out.ActiveIDs = append([]TouchID(nil), tp.ActiveIDs...)
	}
	return out
}

// RemoveActive removes id from the active-touch list if present.
func (tp *TouchpadState) RemoveActive(id TouchID) {
	for i, a := range tp.ActiveIDs {
		if a == id {
			tp.ActiveIDs = append(tp.ActiveIDs[:i], tp.ActiveIDs[i+1:]...)
			return
		}
	}
}

// ReassignPrimary points the primary touch at the first active touch, or
// the invalid sentinel if none remain.
func (tp *TouchpadState) ReassignPrimary() {
	if len(tp.ActiveIDs) > 0 {
		tp.Primary = tp.ActiveIDs[0]
	} else {
		tp.Primary = InvalidTouch
	}
}

// FieldOfView holds the half-angles of an eye frustum in radians.
type FieldOfView struct {
	Left  float64
	Right float64
	Up    float64
	Down  float64
}

// Viewport is an eye's render viewport in pixels.
type Viewport struct {
	X      int
	Y      int
	Width  int
	Height int
}

// State is the complete input snapshot for one device. Slices are sized
// according to the device Profile at connect time. One State occupies each
// slot of a HistoryBuffer.
type State struct {
	// Keys holds the alphanumeric keys pressed this frame. Cleared on
	// every frame advance.
	Keys []string

	Scroll           []int
	Buttons          []bool
	Repeat           []bool
	ButtonPressTimes []time.Duration
	Joysticks        []r2.Vec
	Touchpads        []TouchpadState
	Position         []r3.Vec
	Rotation         []quat.Number
	EyeFromHead      []*mat.Dense
	ScreenFromEye    []*mat.Dense
	EyeFOV           []FieldOfView
	EyeViewport      []Viewport
	BatteryCharge    []float64
	BatteryState     []BatteryState

	// TimeStamp is the device-timeline clock, accumulated from the frame
	// deltas passed to AdvanceFrame.
	TimeStamp time.Duration
}

// NewState returns a reference state sized for the given profile.
func NewState(p *Profile) State {
	s := State{
		Buttons:          make([]bool, p.NumButtons),
		Repeat:           make([]bool, p.NumButtons),
		ButtonPressTimes: make([]time.Duration, p.NumButtons),
		Joysticks:        make([]r2.Vec, p.NumJoysticks),
	}
	if p.HasScroll {
		s.Scroll = make([]int, 1)
	}
	if p.HasBattery {
		s.BatteryCharge = make([]float64, 1)
		s.BatteryState = make([]BatteryState, 1)
	}
	if p.PositionDof.Available() {
		s.Position = make([]r3.Vec, 1)
	}
	if p.RotationDof.Available() {
		s.Rotation = []quat.Number{mathx.QuatIdentity}
	}
	if len(p.Touchpads) > 0 {
		s.Touchpads = make([]TouchpadState, len(p.Touchpads))
		for i := range s.Touchpads {
			s.Touchpads[i] = newTouchpadState()
		}
	}
	if p.NumEyes > 0 {
		s.EyeFromHead = make([]*mat.Dense, p.NumEyes)
		s.ScreenFromEye = make([]*mat.Dense, p.NumEyes)
		s.EyeFOV = make([]FieldOfView, p.NumEyes)
		s.EyeViewport = make([]Viewport, p.NumEyes)
		for i := 0; i < p.NumEyes; i++ {
			s.EyeFromHead[i] = mathx.Identity4()
			s.ScreenFromEye[i] = mathx.Identity4()
		}
	}
	return s
}

// Clone deep-copies the state.
func (s *State) Clone() State {
	out := State{TimeStamp: s.TimeStamp}
	if len(s.Keys) > 0 {
		out.Keys = append([]string(nil), s.Keys...)
	}
	if s.Scroll != nil {
		out.Scroll = append([]int(nil), s.Scroll...)
	}
	if s.Buttons != nil {
		out.Buttons = append([]bool(nil), s.Buttons...)
		out.Repeat = append([]bool(nil), s.Repeat...)
		out.ButtonPressTimes = append([]time.Duration(nil), s.ButtonPressTimes...)
	}
	if s.Joysticks != nil {
		out.Joysticks = append([]r2.Vec(nil), s.Joysticks...)
	}
	if s.Touchpads != nil {
		out.Touchpads = make([]TouchpadState, len(s.Touchpads))
		for i := range s.Touchpads {
			out.Touchpads[i] = s.Touchpads[i].clone()
		}
	}
	if s.Position != nil {
		out.Position = append([]r3.Vec(nil), s.Position...)
	}
	if s.Rotation != nil {
		out.Rotation = append([]quat.Number(nil), s.Rotation...)
	}
	if s.EyeFromHead != nil {
		out.EyeFromHead = make([]*mat.Dense, len(s.EyeFromHead))
		out.ScreenFromEye = make([]*mat.Dense, len(s.ScreenFromEye))
		for i := range s.EyeFromHead {
			out.EyeFromHead[i] = mat.DenseCopyOf(s.EyeFromHead[i])
			out.ScreenFromEye[i] = mat.DenseCopyOf(s.ScreenFromEye[i])
		}
		out.EyeFOV = append([]FieldOfView(nil), s.EyeFOV...)
		out.EyeViewport = append([]Viewport(nil), s.EyeViewport...)
	}
	if s.BatteryCharge != nil {
		out.BatteryCharge = append([]float64(nil), s.BatteryCharge...)
		out.BatteryState = append([]BatteryState(nil), s.BatteryState...)
	}
	return out
}
