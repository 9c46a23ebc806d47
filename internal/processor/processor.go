// Package processor implements the interaction state machine layered on the
// device registry: once per frame per device it classifies button and touch
// transitions against the device's focus, applies drag and cancel slop, and
// publishes semantic interaction events through a dispatcher. Gesture
// recognizers plug in per touchpad and claim exclusive ownership of their
// touches while active.
package processor

import (
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dshills/inputcore/internal/contract"
	"github.com/dshills/inputcore/internal/device"
	"github.com/dshills/inputcore/internal/entity"
	"github.com/dshills/inputcore/internal/event"
	"github.com/dshills/inputcore/internal/focus"
	"github.com/dshills/inputcore/internal/gesture"
	"github.com/dshills/inputcore/internal/logging"
	"github.com/dshills/inputcore/internal/mathx"
	"github.com/dshills/inputcore/internal/registry"
)

// Mode selects how much of the backward-compatible event surface is
// produced, and in the strongest form substitutes the old update logic.
type Mode uint8

const (
	// NoLegacy runs the current state machine and emits only the current
	// event catalogue.
	NoLegacy Mode = iota
	// LegacyEvents runs the current state machine and additionally emits
	// the legacy-topic events.
	LegacyEvents
	// LegacyEventsAndLogic runs the simplified legacy update logic: no
	// slop tracking, press and release reported directly, with legacy
	// double delivery of release events.
	LegacyEventsAndLogic
	// NoEvents runs the state machines but publishes nothing. Useful for
	// hosts that poll the registry directly.
	NoEvents
)

// Slop thresholds for the ray-based button machine and the linear touch
// machine.
var (
	// rayDragSlopRad is the cursor deflection below which a press stays a
	// potential click, 2 degrees.
	rayDragSlopRad = mathx.Radians(2)

	// rayCancelSlopRad is the deflection past which a press is cancelled
	// outright, 35 degrees.
	rayCancelSlopRad = mathx.Radians(35)
)

// touchCancelSlop is the normalized touchpad distance past which a touch
// stops being click-eligible and becomes a swipe.
const touchCancelSlop = 0.1

// phase is the per-press lifecycle of a button or touch.
type phase uint8

const (
	phaseReleased phase = iota
	phaseInsideSlop
	phasePressedBeforeFocus
	phaseDragging
	phaseCancelled
	phaseTouchMoved
	phaseGesturing
)

type buttonKey struct {
	dev device.Type
	id  device.ButtonID
}

type touchKey struct {
	dev device.Type
	pad device.TouchpadID
	id  device.TouchID
}

// buttonState is the derived per-(device, button) interaction state. It is
// only touched on the frame thread.
type buttonState struct {
	phase         phase
	pressedEntity entity.ID
	focusedEntity entity.ID

	// pressedLocation is the press point in the focused entity's local
	// space, so it tracks the entity if it moves.
	pressedLocation r3.Vec
	sincePress      time.Duration
}

type touchState struct {
	phase         phase
	pressedEntity entity.ID
	sincePress    time.Duration
	dragging      bool
	owner         gesture.Gesture
}

// Processor drives the interaction state machines.
type Processor struct {
	reg        *registry.Registry
	dispatcher event.Dispatcher
	transforms entity.TransformProvider
	log        *logging.Logger

	mode   Mode
	source string

	focusPairs [device.MaxTypes]focus.Pair
	buttons    map[buttonKey]*buttonState
	touches    map[touchKey]*touchState

	// devicePrefixes, buttonPrefixes and touchpadPrefixes name the logical
	// channels events are published under, alongside the always-sent "any"
	// prefix.
	devicePrefixes   map[device.Type]string
	buttonPrefixes   map[buttonKey]string
	touchpadPrefixes map[touchpadKey]string

	recognizers []gesture.Recognizer
	active      map[touchpadKey][]*activeGesture

	primary device.Type
}

type touchpadKey struct {
	dev device.Type
	pad device.TouchpadID
}

// Option configures a Processor.
type Option func(*Processor)

// WithMode selects the legacy compatibility mode.
func WithMode(m Mode) Option {
	return func(p *Processor) { p.mode = m }
}

// WithLogger sets the processor's logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Processor) { p.log = l }
}

// WithTransformProvider supplies entity world transforms for press and drag
// locations. Without one, press locations stay at the origin.
func WithTransformProvider(tp entity.TransformProvider) Option {
	return func(p *Processor) { p.transforms = tp }
}

// WithSource sets the source string stamped into event metadata.
func WithSource(s string) Option {
	return func(p *Processor) { p.source = s }
}

// New builds a processor reading from reg and publishing through d.
func New(reg *registry.Registry, d event.Dispatcher, opts ...Option) *Processor {
	p := &Processor{
		reg:              reg,
		dispatcher:       d,
		log:              logging.Default().WithComponent("processor"),
		source:           "inputcore",
		buttons:          make(map[buttonKey]*buttonState),
		touches:          make(map[touchKey]*touchState),
		devicePrefixes:   make(map[device.Type]string),
		buttonPrefixes:   make(map[buttonKey]string),
		touchpadPrefixes: make(map[touchpadKey]string),
		active:           make(map[touchpadKey][]*activeGesture),
		primary:          device.Controller,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetPrimaryDevice marks the device treated as primary for legacy events.
func (p *Processor) SetPrimaryDevice(d device.Type) {
	if !contract.Expectf(d.Valid(), "SetPrimaryDevice: invalid device %d", d) {
		return
	}
	p.primary = d
}

// PrimaryDevice returns the primary device.
func (p *Processor) PrimaryDevice() device.Type {
	return p.primary
}

// SetDevicePrefix registers the event prefix for a device's button and
// focus events.
func (p *Processor) SetDevicePrefix(d device.Type, prefix string) {
	if !contract.Expectf(d.Valid(), "SetDevicePrefix: invalid device %d", d) {
		return
	}
	p.devicePrefixes[d] = prefix
}

// ClearDevicePrefix removes a device's event prefix; its events then only
// appear under the "any" prefix.
func (p *Processor) ClearDevicePrefix(d device.Type) {
	delete(p.devicePrefixes, d)
}

// SetButtonPrefix overrides the event prefix for one button.
func (p *Processor) SetButtonPrefix(d device.Type, id device.ButtonID, prefix string) {
	if !contract.Expectf(d.Valid(), "SetButtonPrefix: invalid device %d", d) {
		return
	}
	p.buttonPrefixes[buttonKey{d, id}] = prefix
}

// ClearButtonPrefix removes a button's prefix override.
func (p *Processor) ClearButtonPrefix(d device.Type, id device.ButtonID) {
	delete(p.buttonPrefixes, buttonKey{d, id})
}

// SetTouchpadPrefix registers the event prefix for a touchpad's touch,
// swipe and gesture events.
func (p *Processor) SetTouchpadPrefix(d device.Type, pad device.TouchpadID, prefix string) {
	if !contract.Expectf(d.Valid(), "SetTouchpadPrefix: invalid device %d", d) {
		return
	}
	p.touchpadPrefixes[touchpadKey{d, pad}] = prefix
}

// ClearTouchpadPrefix removes a touchpad's event prefix.
func (p *Processor) ClearTouchpadPrefix(d device.Type, pad device.TouchpadID) {
	delete(p.touchpadPrefixes, touchpadKey{d, pad})
}

// buttonPrefix resolves the prefix for a button's events: the button
// override if set, else the device prefix.
func (p *Processor) buttonPrefix(d device.Type, id device.ButtonID) string {
	if prefix, ok := p.buttonPrefixes[buttonKey{d, id}]; ok {
		return prefix
	}
	return p.devicePrefixes[d]
}

func (p *Processor) touchpadPrefix(d device.Type, pad device.TouchpadID) string {
	if prefix, ok := p.touchpadPrefixes[touchpadKey{d, pad}]; ok {
		return prefix
	}
	return p.devicePrefixes[d]
}

// UpdateDevice runs one frame of interaction processing for a device. Call
// it after AdvanceFrame, once per device, with the frame delta and the
// device's focus for this frame. dt only feeds press-duration bookkeeping;
// edge classification uses the registry's committed timestamps.
func (p *Processor) UpdateDevice(dt time.Duration, f focus.Focus) {
	d := f.Device
	if !contract.Expectf(d.Valid(), "UpdateDevice: invalid device %d", d) {
		return
	}
	if !p.reg.IsConnected(d) {
		return
	}

	p.swapFocus(f)

	profile, _ := p.reg.Profile(d)
	for id := device.ButtonID(0); int(id) < profile.NumButtons; id++ {
		p.updateButton(dt, d, id)
	}
	for pad := device.TouchpadID(0); int(pad) < len(profile.Touchpads); pad++ {
		p.updateTouchpad(dt, d, pad)
	}
}

// swapFocus rotates the device's focus pair and emits focus start and stop
// events on interactive-target changes.
func (p *Processor) swapFocus(f focus.Focus) {
	pair := &p.focusPairs[f.Device]
	pair.Previous = pair.Current
	pair.Current = f

	oldTarget := pair.Previous.InteractiveTarget()
	newTarget := pair.Current.InteractiveTarget()
	if oldTarget == newTarget {
		return
	}

	prefix := p.devicePrefixes[f.Device]
	if oldTarget != entity.Nil {
		p.emit(prefix, suffixFocusStop, FocusEvent{Device: f.Device, Target: oldTarget})
		p.emitLegacy(TopicLegacyHoverStop, FocusEvent{Device: f.Device, Target: oldTarget})
	}
	if newTarget != entity.Nil {
		p.emit(prefix, suffixFocusStart, FocusEvent{Device: f.Device, Target: newTarget})
		p.emitLegacy(TopicLegacyHoverStart, FocusEvent{Device: f.Device, Target: newTarget})
	}
}

// Focus returns the focus pair last submitted for a device.
func (p *Processor) Focus(d device.Type) focus.Pair {
	if !d.Valid() {
		return focus.Pair{}
	}
	return p.focusPairs[d]
}

// worldFromEntity resolves an entity transform, treating a missing
// transform as a contract failure with an identity fallback.
func (p *Processor) worldFromEntity(e entity.ID) (*mat.Dense, bool) {
	if p.transforms == nil || e == entity.Nil {
		return nil, false
	}
	m, ok := p.transforms.WorldFromEntity(e)
	if !ok {
		contract.Expectf(false, "no world transform for entity %d", e)
		return nil, false
	}
	return m, true
}
