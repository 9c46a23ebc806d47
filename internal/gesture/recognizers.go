package gesture

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dshills/inputcore/internal/device"
)

// Start thresholds for the built-in recognizers. Linear thresholds are in
// touchpad centimeters so behavior does not depend on pad size.
const (
	// dragSlopCm is how far a single touch must travel before a drag
	// starts.
	dragSlopCm = 0.254

	// twistSlopRad is how far the vector between two touches must rotate
	// before a twist starts.
	twistSlopRad = 5 * math.Pi / 180

	// pinchSlopCm is how far each touch must travel along the separation
	// axis before a pinch starts.
	pinchSlopCm = 0.127

	// pinchConeCos bounds how far off the separation axis a touch may move
	// and still count toward a pinch, cos(30 degrees).
	pinchConeCos = 0.8660254037844387
)

// angleOf returns the orientation of a 2D vector.
func angleOf(v r2.Vec) float64 {
	return math.Atan2(v.Y, v.X)
}

// wrapAngle normalizes an angle difference to (-pi, pi].
func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// OneFingerDrag recognizes a single touch travelling past the drag slop.
type OneFingerDrag struct{}

// Name implements Recognizer.
func (OneFingerDrag) Name() string { return "one-finger-drag" }

// NumTouches implements Recognizer.
func (OneFingerDrag) NumTouches() int { return 1 }

// TryStart implements Recognizer.
func (g OneFingerDrag) TryStart(src Source, d device.Type, pad device.TouchpadID, touches []device.TouchID) Gesture {
	if len(touches) != 1 {
		return nil
	}
	id := touches[0]
	if !src.IsValidTouch(d, pad, id) {
		return nil
	}

	delta := r2.Sub(src.GetTouchLocation(d, pad, id), src.GetTouchGestureOrigin(d, pad, id))
	if r2.Norm(cmDelta(src, d, pad, delta)) < dragSlopCm {
		return nil
	}
	return &dragGesture{device: d, pad: pad, id: id}
}

type dragGesture struct {
	device   device.Type
	pad      device.TouchpadID
	id       device.TouchID
	last     r2.Vec
	total    r2.Vec
	canceled bool
}

func (g *dragGesture) Name() string { return OneFingerDrag{}.Name() }

func (g *dragGesture) Setup(src Source) {
	g.last = src.GetTouchLocation(g.device, g.pad, g.id)
}

func (g *dragGesture) AdvanceFrame(_ time.Duration, src Source) State {
	if g.canceled {
		return Canceled
	}
	if !src.IsValidTouch(g.device, g.pad, g.id) {
		return Ending
	}
	pos := src.GetTouchLocation(g.device, g.pad, g.id)
	g.total = r2.Add(g.total, cmDelta(src, g.device, g.pad, r2.Sub(pos, g.last)))
	g.last = pos
	return Running
}

func (g *dragGesture) Cancel() { g.canceled = true }

func (g *dragGesture) Touches() []device.TouchID { return []device.TouchID{g.id} }

func (g *dragGesture) Values() map[string]float64 {
	return map[string]float64{
		"displacement_x": g.total.X,
		"displacement_y": g.total.Y,
	}
}

// Twist recognizes two touches rotating around each other.
type Twist struct{}

// Name implements Recognizer.
func (Twist) Name() string { return "twist" }

// NumTouches implements Recognizer.
func (Twist) NumTouches() int { return 2 }

// TryStart implements Recognizer.
func (g Twist) TryStart(src Source, d device.Type, pad device.TouchpadID, touches []device.TouchID) Gesture {
	if len(touches) != 2 {
		return nil
	}
	a, b := touches[0], touches[1]
	if !src.IsValidTouch(d, pad, a) || !src.IsValidTouch(d, pad, b) {
		return nil
	}

	origin := angleOf(r2.Sub(src.GetTouchGestureOrigin(d, pad, b), src.GetTouchGestureOrigin(d, pad, a)))
	now := angleOf(r2.Sub(src.GetTouchLocation(d, pad, b), src.GetTouchLocation(d, pad, a)))
	if math.Abs(wrapAngle(now-origin)) < twistSlopRad {
		return nil
	}
	return &twistGesture{device: d, pad: pad, ids: [2]device.TouchID{a, b}}
}

type twistGesture struct {
	device    device.Type
	pad       device.TouchpadID
	ids       [2]device.TouchID
	prevAngle float64
	rotation  float64
	delta     float64
	canceled  bool
}

func (g *twistGesture) Name() string { return Twist{}.Name() }

func (g *twistGesture) Setup(src Source) {
	g.prevAngle = g.currentAngle(src)
}

func (g *twistGesture) currentAngle(src Source) float64 {
	a := src.GetTouchLocation(g.device, g.pad, g.ids[0])
	b := src.GetTouchLocation(g.device, g.pad, g.ids[1])
	return angleOf(r2.Sub(b, a))
}

func (g *twistGesture) AdvanceFrame(_ time.Duration, src Source) State {
	if g.canceled {
		return Canceled
	}
	if !src.IsValidTouch(g.device, g.pad, g.ids[0]) || !src.IsValidTouch(g.device, g.pad, g.ids[1]) {
		return Ending
	}
	angle := g.currentAngle(src)
	g.delta = wrapAngle(angle - g.prevAngle)
	g.rotation += g.delta
	g.prevAngle = angle
	return Running
}

func (g *twistGesture) Cancel() { g.canceled = true }

func (g *twistGesture) Touches() []device.TouchID { return g.ids[:] }

func (g *twistGesture) Values() map[string]float64 {
	return map[string]float64{
		"rotation": g.rotation,
		"delta":    g.delta,
	}
}

// Pinch recognizes two touches moving toward or away from each other along
// their separation axis.
type Pinch struct{}

// Name implements Recognizer.
func (Pinch) Name() string { return "pinch" }

// NumTouches implements Recognizer.
func (Pinch) NumTouches() int { return 2 }

// TryStart implements Recognizer.
func (g Pinch) TryStart(src Source, d device.Type, pad device.TouchpadID, touches []device.TouchID) Gesture {
	if len(touches) != 2 {
		return nil
	}
	a, b := touches[0], touches[1]
	if !src.IsValidTouch(d, pad, a) || !src.IsValidTouch(d, pad, b) {
		return nil
	}

	originA := src.GetTouchGestureOrigin(d, pad, a)
	originB := src.GetTouchGestureOrigin(d, pad, b)
	axis := cmDelta(src, d, pad, r2.Sub(originB, originA))
	axisLen := r2.Norm(axis)
	if axisLen == 0 {
		return nil
	}
	axis = r2.Scale(1/axisLen, axis)

	moveA := cmDelta(src, d, pad, r2.Sub(src.GetTouchLocation(d, pad, a), originA))
	moveB := cmDelta(src, d, pad, r2.Sub(src.GetTouchLocation(d, pad, b), originB))

	// Each touch must travel far enough, mostly along the axis, and the
	// two must move in opposite senses (both apart or both together).
	alongA := r2.Dot(moveA, axis)
	alongB := r2.Dot(moveB, axis)
	if math.Abs(alongA) < pinchSlopCm || math.Abs(alongB) < pinchSlopCm {
		return nil
	}
	if alongA*alongB >= 0 {
		return nil
	}
	if !withinCone(moveA, axis) || !withinCone(moveB, axis) {
		return nil
	}

	return &pinchGesture{device: d, pad: pad, ids: [2]device.TouchID{a, b}}
}

// withinCone reports whether v lies within the pinch direction cone around
// the axis (in either sense).
func withinCone(v, axis r2.Vec) bool {
	n := r2.Norm(v)
	if n == 0 {
		return false
	}
	return math.Abs(r2.Dot(v, axis))/n >= pinchConeCos
}

type pinchGesture struct {
	device     device.Type
	pad        device.TouchpadID
	ids        [2]device.TouchID
	initialSep float64
	currentSep float64
	canceled   bool
}

func (g *pinchGesture) Name() string { return Pinch{}.Name() }

func (g *pinchGesture) Setup(src Source) {
	g.initialSep = g.separation(src)
	g.currentSep = g.initialSep
}

func (g *pinchGesture) separation(src Source) float64 {
	a := src.GetTouchLocation(g.device, g.pad, g.ids[0])
	b := src.GetTouchLocation(g.device, g.pad, g.ids[1])
	return r2.Norm(cmDelta(src, g.device, g.pad, r2.Sub(b, a)))
}

func (g *pinchGesture) AdvanceFrame(_ time.Duration, src Source) State {
	if g.canceled {
		return Canceled
	}
	if !src.IsValidTouch(g.device, g.pad, g.ids[0]) || !src.IsValidTouch(g.device, g.pad, g.ids[1]) {
		return Ending
	}
	g.currentSep = g.separation(src)
	return Running
}

func (g *pinchGesture) Cancel() { g.canceled = true }

func (g *pinchGesture) Touches() []device.TouchID { return g.ids[:] }

func (g *pinchGesture) Values() map[string]float64 {
	scale := 1.0
	if g.initialSep > 0 {
		scale = g.currentSep / g.initialSep
	}
	return map[string]float64{
		"separation": g.currentSep,
		"scale":      scale,
	}
}
