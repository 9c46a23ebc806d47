// Package focus defines the per-device focus data produced by the host's
// ray/pick system and consumed by the interaction processor.
package focus

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dshills/inputcore/internal/device"
	"github.com/dshills/inputcore/internal/entity"
	"github.com/dshills/inputcore/internal/mathx"
)

// Focus describes what a device is pointed at this frame.
type Focus struct {
	// Device is the input device this focus belongs to.
	Device device.Type

	// Target is the entity the device is focused on, or entity.Nil.
	Target entity.ID

	// Interactive reports whether Target accepts interaction events. A
	// non-interactive target behaves as no target for event purposes.
	Interactive bool

	// Draggable reports whether Target supports drag interactions.
	Draggable bool

	// CollisionRay is the world-space selection ray used this frame.
	CollisionRay mathx.Ray

	// CursorPosition is the world-space point the cursor resolved to.
	CursorPosition r3.Vec

	// NoHitCursorPosition is where the cursor would be had the ray hit
	// nothing, used for slop calculations.
	NoHitCursorPosition r3.Vec
}

// InteractiveTarget returns the focus target if it is interactive, or
// entity.Nil otherwise.
func (f *Focus) InteractiveTarget() entity.ID {
	if f.Interactive {
		return f.Target
	}
	return entity.Nil
}

// Pair holds the current and previous frame's focus for a device.
type Pair struct {
	Current  Focus
	Previous Focus
}
