package gesture

import (
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dshills/inputcore/internal/device"
)

// fakeSource is a hand-fed touch snapshot.
type fakeSource struct {
	size    r2.Vec
	touches map[device.TouchID]fakeTouch
}

type fakeTouch struct {
	pos    r2.Vec
	origin r2.Vec
	valid  bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		size:    r2.Vec{X: 10, Y: 10},
		touches: make(map[device.TouchID]fakeTouch),
	}
}

func (s *fakeSource) set(id device.TouchID, pos, origin r2.Vec) {
	s.touches[id] = fakeTouch{pos: pos, origin: origin, valid: true}
}

func (s *fakeSource) release(id device.TouchID) {
	t := s.touches[id]
	t.valid = false
	s.touches[id] = t
}

func (s *fakeSource) IsValidTouch(_ device.Type, _ device.TouchpadID, id device.TouchID) bool {
	return s.touches[id].valid
}

func (s *fakeSource) GetTouchLocation(_ device.Type, _ device.TouchpadID, id device.TouchID) r2.Vec {
	return s.touches[id].pos
}

func (s *fakeSource) GetTouchGestureOrigin(_ device.Type, _ device.TouchpadID, id device.TouchID) r2.Vec {
	return s.touches[id].origin
}

func (s *fakeSource) GetTouchVelocity(device.Type, device.TouchpadID, device.TouchID) r2.Vec {
	return r2.Vec{}
}

func (s *fakeSource) GetTouchpadSize(device.Type, device.TouchpadID) (r2.Vec, bool) {
	return s.size, true
}

func TestOneFingerDrag(t *testing.T) {
	src := newFakeSource()
	rec := OneFingerDrag{}
	touches := []device.TouchID{1}

	// 0.01 normalized on a 10cm pad is 0.1cm, below the slop.
	src.set(1, r2.Vec{X: 0.51, Y: 0.5}, r2.Vec{X: 0.5, Y: 0.5})
	if g := rec.TryStart(src, device.Controller, 0, touches); g != nil {
		t.Fatal("drag started inside slop")
	}

	// 0.03 normalized is 0.3cm, past the slop.
	src.set(1, r2.Vec{X: 0.53, Y: 0.5}, r2.Vec{X: 0.5, Y: 0.5})
	g := rec.TryStart(src, device.Controller, 0, touches)
	if g == nil {
		t.Fatal("drag did not start past slop")
	}
	g.Setup(src)

	src.set(1, r2.Vec{X: 0.55, Y: 0.5}, r2.Vec{X: 0.5, Y: 0.5})
	if got := g.AdvanceFrame(16*time.Millisecond, src); got != Running {
		t.Fatalf("state = %v, want running", got)
	}
	if got := g.Values()["displacement_x"]; math.Abs(got-0.2) > 1e-9 {
		t.Errorf("displacement_x = %v cm, want 0.2", got)
	}

	src.release(1)
	if got := g.AdvanceFrame(16*time.Millisecond, src); got != Ending {
		t.Fatalf("state after release = %v, want ending", got)
	}
}

func TestTwist(t *testing.T) {
	src := newFakeSource()
	rec := Twist{}
	touches := []device.TouchID{1, 2}

	origin1 := r2.Vec{X: 0.4, Y: 0.5}
	origin2 := r2.Vec{X: 0.6, Y: 0.5}
	src.set(1, origin1, origin1)
	src.set(2, origin2, origin2)
	if g := rec.TryStart(src, device.Controller, 0, touches); g != nil {
		t.Fatal("twist started without rotation")
	}

	// Rotate the pair by 10 degrees around their midpoint.
	rotated := rotatePair(origin1, origin2, 10*math.Pi/180)
	src.set(1, rotated[0], origin1)
	src.set(2, rotated[1], origin2)
	g := rec.TryStart(src, device.Controller, 0, touches)
	if g == nil {
		t.Fatal("twist did not start past 5 degrees")
	}
	g.Setup(src)

	rotated = rotatePair(origin1, origin2, 20*math.Pi/180)
	src.set(1, rotated[0], origin1)
	src.set(2, rotated[1], origin2)
	if got := g.AdvanceFrame(16*time.Millisecond, src); got != Running {
		t.Fatalf("state = %v, want running", got)
	}
	if got := g.Values()["rotation"]; math.Abs(got-10*math.Pi/180) > 1e-9 {
		t.Errorf("rotation = %v rad, want 10 degrees", got)
	}

	src.release(2)
	if got := g.AdvanceFrame(16*time.Millisecond, src); got != Ending {
		t.Fatalf("state after release = %v, want ending", got)
	}
}

// rotatePair rotates two points around their midpoint.
func rotatePair(a, b r2.Vec, angle float64) [2]r2.Vec {
	mid := r2.Scale(0.5, r2.Add(a, b))
	rot := func(p r2.Vec) r2.Vec {
		v := r2.Sub(p, mid)
		s, c := math.Sin(angle), math.Cos(angle)
		return r2.Add(mid, r2.Vec{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c})
	}
	return [2]r2.Vec{rot(a), rot(b)}
}

func TestPinch(t *testing.T) {
	src := newFakeSource()
	rec := Pinch{}
	touches := []device.TouchID{1, 2}

	origin1 := r2.Vec{X: 0.4, Y: 0.5}
	origin2 := r2.Vec{X: 0.6, Y: 0.5}

	tests := []struct {
		name string
		pos1 r2.Vec
		pos2 r2.Vec
		want bool
	}{
		{
			name: "spreading along axis starts",
			pos1: r2.Vec{X: 0.38, Y: 0.5},
			pos2: r2.Vec{X: 0.62, Y: 0.5},
			want: true,
		},
		{
			name: "closing along axis starts",
			pos1: r2.Vec{X: 0.42, Y: 0.5},
			pos2: r2.Vec{X: 0.58, Y: 0.5},
			want: true,
		},
		{
			name: "movement below slop does not start",
			pos1: r2.Vec{X: 0.395, Y: 0.5},
			pos2: r2.Vec{X: 0.605, Y: 0.5},
			want: false,
		},
		{
			name: "parallel movement does not start",
			pos1: r2.Vec{X: 0.42, Y: 0.5},
			pos2: r2.Vec{X: 0.62, Y: 0.5},
			want: false,
		},
		{
			name: "off-axis movement does not start",
			pos1: r2.Vec{X: 0.4, Y: 0.48},
			pos2: r2.Vec{X: 0.6, Y: 0.52},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src.set(1, tt.pos1, origin1)
			src.set(2, tt.pos2, origin2)
			g := rec.TryStart(src, device.Controller, 0, touches)
			if (g != nil) != tt.want {
				t.Errorf("TryStart started=%v, want %v", g != nil, tt.want)
			}
		})
	}
}

func TestPinchScale(t *testing.T) {
	src := newFakeSource()
	rec := Pinch{}

	origin1 := r2.Vec{X: 0.4, Y: 0.5}
	origin2 := r2.Vec{X: 0.6, Y: 0.5}
	src.set(1, r2.Vec{X: 0.38, Y: 0.5}, origin1)
	src.set(2, r2.Vec{X: 0.62, Y: 0.5}, origin2)

	g := rec.TryStart(src, device.Controller, 0, []device.TouchID{1, 2})
	if g == nil {
		t.Fatal("pinch did not start")
	}
	g.Setup(src)

	// Separation 0.24 -> 0.48 normalized doubles the scale.
	src.set(1, r2.Vec{X: 0.26, Y: 0.5}, origin1)
	src.set(2, r2.Vec{X: 0.74, Y: 0.5}, origin2)
	if got := g.AdvanceFrame(16*time.Millisecond, src); got != Running {
		t.Fatalf("state = %v, want running", got)
	}
	if got := g.Values()["scale"]; math.Abs(got-2) > 1e-9 {
		t.Errorf("scale = %v, want 2", got)
	}

	g.Cancel()
	if got := g.AdvanceFrame(16*time.Millisecond, src); got != Canceled {
		t.Fatalf("state after cancel = %v, want canceled", got)
	}
}
