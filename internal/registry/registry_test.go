package registry

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dshills/inputcore/internal/contract"
	"github.com/dshills/inputcore/internal/device"
	"github.com/dshills/inputcore/internal/logging"
)

func controllerProfile() device.Profile {
	return device.Profile{
		Name:          "test-controller",
		NumButtons:    1,
		NumJoysticks:  1,
		Touchpads:     []device.TouchpadProfile{{SizeCm: r2.Vec{X: 10, Y: 10}}},
		HasScroll:     true,
		HasBattery:    true,
		PositionDof:   device.DofFake,
		RotationDof:   device.DofReal,
		LongPressTime: 500 * time.Millisecond,
	}
}

// fakeClock is an adjustable wall clock for velocity sampling.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRegistry(t *testing.T) (*Registry, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Unix(0, 0)}
	r := New(WithLogger(logging.NullLogger), WithClock(clk.now))
	r.Connect(device.Controller, controllerProfile())
	return r, clk
}

func TestButtonLifecycle(t *testing.T) {
	r, _ := newTestRegistry(t)
	const btn = device.ButtonPrimary

	r.UpdateButton(device.Controller, btn, true, false)
	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetButtonState(device.Controller, btn); got != device.ButtonPressed|device.ButtonJustPressed {
		t.Fatalf("frame 1 bits = %b, want pressed|just-pressed", got)
	}

	for i := 0; i < 2; i++ {
		r.AdvanceFrame(17 * time.Millisecond)
		if got := r.GetButtonState(device.Controller, btn); got != device.ButtonPressed {
			t.Fatalf("held frame bits = %b, want pressed only", got)
		}
	}

	r.AdvanceFrame(500 * time.Millisecond)
	want := device.ButtonPressed | device.ButtonLongPressed | device.ButtonJustLongPressed
	if got := r.GetButtonState(device.Controller, btn); got != want {
		t.Fatalf("long-press frame bits = %b, want %b", got, want)
	}

	r.UpdateButton(device.Controller, btn, false, false)
	r.AdvanceFrame(17 * time.Millisecond)
	want = device.ButtonReleased | device.ButtonJustReleased | device.ButtonLongPressed
	if got := r.GetButtonState(device.Controller, btn); got != want {
		t.Fatalf("release frame bits = %b, want retroactive long press %b", got, want)
	}

	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetButtonState(device.Controller, btn); got != device.ButtonReleased {
		t.Fatalf("idle frame bits = %b, want released only", got)
	}
}

func TestButtonPressedDuration(t *testing.T) {
	r, _ := newTestRegistry(t)
	const btn = device.ButtonPrimary

	// The press is stamped with the write slot's timestamp, so the first
	// committed frame already carries its own delta as held time.
	r.UpdateButton(device.Controller, btn, true, false)
	r.AdvanceFrame(17 * time.Millisecond)
	r.AdvanceFrame(100 * time.Millisecond)
	if got := r.GetButtonPressedDuration(device.Controller, btn); got != 117*time.Millisecond {
		t.Errorf("held duration = %v, want 117ms", got)
	}

	// On the release frame the duration falls back to the previous
	// snapshot so the final hold time stays readable.
	r.UpdateButton(device.Controller, btn, false, false)
	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetButtonPressedDuration(device.Controller, btn); got != 117*time.Millisecond {
		t.Errorf("release-frame duration = %v, want 117ms", got)
	}

	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetButtonPressedDuration(device.Controller, btn); got != 0 {
		t.Errorf("idle duration = %v, want 0", got)
	}
}

func TestJoystickClampLogsError(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: logging.LevelError, Output: &buf})
	clk := &fakeClock{t: time.Unix(0, 0)}
	r := New(WithLogger(log), WithClock(clk.now))
	r.Connect(device.Controller, controllerProfile())

	r.UpdateJoystick(device.Controller, device.LeftJoystick, r2.Vec{X: 1.5, Y: -2})
	r.AdvanceFrame(17 * time.Millisecond)

	got := r.GetJoystickValue(device.Controller, device.LeftJoystick)
	if got.X != 1 || got.Y != -1 {
		t.Errorf("joystick value = %+v, want clamped (1, -1)", got)
	}
	if !strings.Contains(buf.String(), "out of range") {
		t.Error("expected out-of-range error log")
	}
}

func TestTouchLifecycleAndEviction(t *testing.T) {
	r, clk := newTestRegistry(t)
	const pad, id = device.TouchpadID(0), device.TouchID(3)

	r.UpdateTouch(device.Controller, pad, id, r2.Vec{X: 0.5, Y: 0.5}, true)
	r.AdvanceFrame(17 * time.Millisecond)

	if !r.IsValidTouch(device.Controller, pad, id) {
		t.Fatal("touch not valid after press")
	}
	if got := r.GetPrimaryTouch(device.Controller, pad); got != id {
		t.Fatalf("primary = %d, want %d", got, id)
	}
	if got := r.GetTouchGestureOrigin(device.Controller, pad, id); got != (r2.Vec{X: 0.5, Y: 0.5}) {
		t.Fatalf("gesture origin = %+v", got)
	}

	clk.advance(16 * time.Millisecond)
	r.UpdateTouch(device.Controller, pad, id, r2.Vec{X: 0.6, Y: 0.5}, true)
	r.AdvanceFrame(17 * time.Millisecond)
	vel := r.GetTouchVelocity(device.Controller, pad, id)
	if vel.X <= 0 || vel.Y != 0 {
		t.Fatalf("velocity = %+v, want positive x", vel)
	}

	// Release: sentinel position, last velocity kept for one frame.
	r.UpdateTouch(device.Controller, pad, id, r2.Vec{}, false)
	r.AdvanceFrame(17 * time.Millisecond)
	if r.IsValidTouch(device.Controller, pad, id) {
		t.Fatal("touch valid after release")
	}
	if got := r.GetTouchLocation(device.Controller, pad, id); got != device.InvalidTouchLocation {
		t.Fatalf("released location = %+v, want sentinel", got)
	}
	if got := r.GetTouchVelocity(device.Controller, pad, id); got != vel {
		t.Fatalf("released velocity = %+v, want retained %+v", got, vel)
	}
	if got := r.GetPrimaryTouch(device.Controller, pad); got != device.InvalidTouch {
		t.Fatalf("primary after release = %d, want sentinel", got)
	}

	// One more frame and the touch is gone.
	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetTouchVelocity(device.Controller, pad, id); got != (r2.Vec{}) {
		t.Fatalf("evicted velocity = %+v, want zero", got)
	}
	if got := r.GetTouches(device.Controller, pad); len(got) != 0 {
		t.Fatalf("touches after eviction = %v, want none", got)
	}
}

func TestTouchVelocityFilter(t *testing.T) {
	r, clk := newTestRegistry(t)
	const pad, id = device.TouchpadID(0), device.TouchID(1)

	r.UpdateTouch(device.Controller, pad, id, r2.Vec{X: 0.5, Y: 0.5}, true)
	clk.advance(16 * time.Millisecond)
	r.UpdateTouch(device.Controller, pad, id, r2.Vec{X: 0.52, Y: 0.5}, true)
	r.AdvanceFrame(17 * time.Millisecond)

	dt := 0.016
	rc := 1 / (2 * math.Pi * velocityCutoffHz)
	want := (0.02 / dt) * (dt / (rc + dt))
	got := r.GetTouchVelocity(device.Controller, pad, id)
	if math.Abs(got.X-want) > 1e-9 || got.Y != 0 {
		t.Errorf("velocity = %+v, want x ~ %v", got, want)
	}
}

func TestMultiTouchPrimaryReassignment(t *testing.T) {
	r, _ := newTestRegistry(t)
	const pad = device.TouchpadID(0)

	r.UpdateTouch(device.Controller, pad, 1, r2.Vec{X: 0.2, Y: 0.2}, true)
	r.UpdateTouch(device.Controller, pad, 2, r2.Vec{X: 0.8, Y: 0.8}, true)
	r.AdvanceFrame(17 * time.Millisecond)

	if got := r.GetPrimaryTouch(device.Controller, pad); got != 1 {
		t.Fatalf("primary = %d, want first touch", got)
	}
	if got := r.GetTouches(device.Controller, pad); len(got) != 2 {
		t.Fatalf("touches = %v, want two", got)
	}

	r.UpdateTouch(device.Controller, pad, 1, r2.Vec{}, false)
	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetPrimaryTouch(device.Controller, pad); got != 2 {
		t.Fatalf("primary after release = %d, want 2", got)
	}
}

func TestResetTouchGestureOrigin(t *testing.T) {
	r, clk := newTestRegistry(t)
	const pad, id = device.TouchpadID(0), device.TouchID(1)

	r.UpdateTouch(device.Controller, pad, id, r2.Vec{X: 0.1, Y: 0.1}, true)
	r.AdvanceFrame(17 * time.Millisecond)
	clk.advance(16 * time.Millisecond)
	r.UpdateTouch(device.Controller, pad, id, r2.Vec{X: 0.4, Y: 0.4}, true)
	r.AdvanceFrame(17 * time.Millisecond)

	r.ResetTouchGestureOrigin(device.Controller, pad, id)
	r.AdvanceFrame(17 * time.Millisecond)

	if got := r.GetTouchGestureOrigin(device.Controller, pad, id); got != (r2.Vec{X: 0.4, Y: 0.4}) {
		t.Errorf("origin = %+v, want rebased to last committed position", got)
	}
}

func TestGestureInitialAxisLatch(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	r := New(WithLogger(logging.NullLogger), WithClock(clk.now))
	p := controllerProfile()
	p.Touchpads[0].HasGestures = true
	r.Connect(device.Controller, p)
	const pad = device.TouchpadID(0)

	r.UpdateGesture(device.Controller, pad, device.GestureScrollStart, device.DirectionNone,
		r2.Vec{X: 0.05, Y: 0.2}, r2.Vec{})
	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetTouchGestureInitialAxis(device.Controller, pad); got != device.AxisY {
		t.Fatalf("axis = %v, want Y", got)
	}

	// Updates keep the latched axis even if the dominant axis changes.
	r.UpdateGesture(device.Controller, pad, device.GestureScrollUpdate, device.DirectionNone,
		r2.Vec{X: 0.5, Y: 0.2}, r2.Vec{})
	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetTouchGestureInitialAxis(device.Controller, pad); got != device.AxisY {
		t.Fatalf("axis after update = %v, want latched Y", got)
	}

	r.UpdateGesture(device.Controller, pad, device.GestureScrollEnd, device.DirectionNone, r2.Vec{}, r2.Vec{})
	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetTouchGestureInitialAxis(device.Controller, pad); got != device.AxisNone {
		t.Fatalf("axis after end = %v, want cleared", got)
	}
}

func TestFlingDerivationWithoutGestureSupport(t *testing.T) {
	r, clk := newTestRegistry(t)
	const pad, id = device.TouchpadID(0), device.TouchID(1)

	// Build up a fast leftward-to-rightward swipe, then release.
	r.UpdateTouch(device.Controller, pad, id, r2.Vec{X: 0.1, Y: 0.5}, true)
	for i := 0; i < 10; i++ {
		clk.advance(8 * time.Millisecond)
		x := 0.1 + 0.08*float64(i+1)
		r.UpdateTouch(device.Controller, pad, id, r2.Vec{X: x, Y: 0.5}, true)
	}
	r.AdvanceFrame(17 * time.Millisecond)

	vel := r.GetTouchVelocity(device.Controller, pad, id)
	if vel.X < flingVelocity {
		t.Fatalf("setup failed: velocity %+v below fling threshold", vel)
	}

	r.UpdateTouch(device.Controller, pad, id, r2.Vec{}, false)
	r.AdvanceFrame(17 * time.Millisecond)

	if got := r.GetTouchGestureType(device.Controller, pad); got != device.GestureFling {
		t.Errorf("gesture type = %v, want fling", got)
	}
	if got := r.GetTouchGestureDirection(device.Controller, pad); got != device.DirectionRight {
		t.Errorf("fling direction = %v, want right", got)
	}

	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetTouchGestureType(device.Controller, pad); got != device.GestureNone {
		t.Errorf("gesture type after fling frame = %v, want none", got)
	}
}

func TestFlingDirectionQuadrants(t *testing.T) {
	tests := []struct {
		name string
		vel  r2.Vec
		want device.GestureDirection
	}{
		{"up", r2.Vec{X: 0, Y: -1}, device.DirectionUp},
		{"down", r2.Vec{X: 0, Y: 1}, device.DirectionDown},
		{"left", r2.Vec{X: -1, Y: 0}, device.DirectionLeft},
		{"right", r2.Vec{X: 1, Y: 0}, device.DirectionRight},
		{"up-right diagonal boundary", r2.Vec{X: 1, Y: -1}, device.DirectionRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := flingDirection(tt.vel); got != tt.want {
				t.Errorf("flingDirection(%+v) = %v, want %v", tt.vel, got, tt.want)
			}
		})
	}
}

func TestScrollAndBattery(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(logging.Config{Level: logging.LevelError, Output: &buf})
	r := New(WithLogger(log))
	r.Connect(device.Controller, controllerProfile())

	r.UpdateScroll(device.Controller, 2)
	r.UpdateScroll(device.Controller, 1)
	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetScrollDelta(device.Controller); got != 3 {
		t.Errorf("scroll delta = %d, want coalesced 3", got)
	}
	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetScrollDelta(device.Controller); got != 0 {
		t.Errorf("scroll delta after quiet frame = %d, want 0", got)
	}

	r.UpdateBattery(device.Controller, 1.2, device.BatteryCharging)
	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetBatteryCharge(device.Controller); got != 1 {
		t.Errorf("battery charge = %v, want clamped 1", got)
	}
	if got := r.GetBatteryState(device.Controller); got != device.BatteryCharging {
		t.Errorf("battery state = %v, want charging", got)
	}
	if !strings.Contains(buf.String(), "out of range") {
		t.Error("expected battery clamp error log")
	}
}

func TestKeysClearedEachFrame(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.KeyPressed(device.Controller, "a")
	r.KeyPressed(device.Controller, "b")
	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetPressedKeys(device.Controller); len(got) != 2 {
		t.Fatalf("keys = %v, want [a b]", got)
	}

	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetPressedKeys(device.Controller); len(got) != 0 {
		t.Fatalf("keys after quiet frame = %v, want none", got)
	}
}

func TestPoseQueries(t *testing.T) {
	r, _ := newTestRegistry(t)

	r.UpdatePosition(device.Controller, r3.Vec{X: 1, Y: 2, Z: 3})
	r.AdvanceFrame(17 * time.Millisecond)
	r.UpdatePosition(device.Controller, r3.Vec{X: 1, Y: 2, Z: 5})
	r.AdvanceFrame(17 * time.Millisecond)

	if got := r.GetDofPosition(device.Controller); got != (r3.Vec{X: 1, Y: 2, Z: 5}) {
		t.Errorf("position = %+v", got)
	}
	if got := r.GetDofDelta(device.Controller); got != (r3.Vec{Z: 2}) {
		t.Errorf("delta = %+v, want (0,0,2)", got)
	}

	m := r.GetDofWorldFromObjectMatrix(device.Controller)
	if got := m.At(2, 3); got != 5 {
		t.Errorf("matrix translation z = %v, want 5", got)
	}
}

func TestContractViolationsDegrade(t *testing.T) {
	contract.SetStrict(false)
	contract.SetLogger(logging.NullLogger)
	defer contract.SetLogger(nil)

	r := New(WithLogger(logging.NullLogger))

	// Mutating or querying a disconnected device must not panic and must
	// not mutate anything.
	r.UpdateButton(device.Mouse, device.ButtonLeftMouse, true, false)
	if got := r.GetButtonState(device.Mouse, device.ButtonLeftMouse); got != 0 {
		t.Errorf("disconnected button bits = %b, want 0", got)
	}
	if r.IsConnected(device.MaxTypes) {
		t.Error("invalid device reported connected")
	}

	r.Connect(device.Controller, controllerProfile())
	r.UpdateButton(device.Controller, device.ButtonID(5), true, false)
	r.AdvanceFrame(17 * time.Millisecond)
	if got := r.GetButtonState(device.Controller, device.ButtonPrimary); got != device.ButtonReleased {
		t.Errorf("out-of-range button write leaked: %b", got)
	}

	// Double connect leaves the original connection intact.
	r.Connect(device.Controller, device.Profile{NumButtons: 9})
	p, ok := r.Profile(device.Controller)
	if !ok || p.NumButtons != 1 {
		t.Errorf("profile after double connect = %+v, want original", p)
	}
}

func TestConnectDisconnect(t *testing.T) {
	r, _ := newTestRegistry(t)

	if !r.IsConnected(device.Controller) {
		t.Fatal("controller should be connected")
	}
	r.Disconnect(device.Controller)
	if r.IsConnected(device.Controller) {
		t.Fatal("controller should be disconnected")
	}

	// Reconnect starts from a clean state.
	r.Connect(device.Controller, controllerProfile())
	if got := r.GetButtonState(device.Controller, device.ButtonPrimary); got != device.ButtonReleased {
		t.Errorf("fresh connection bits = %b, want released", got)
	}
}
