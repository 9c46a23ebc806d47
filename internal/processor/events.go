package processor

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dshills/inputcore/internal/device"
	"github.com/dshills/inputcore/internal/entity"
	"github.com/dshills/inputcore/internal/event"
)

// Event topic suffixes. Concrete topics are "input.<prefix>.<suffix>" where
// prefix is the name registered for a device, button or touchpad; every
// event is also published under the "any" prefix.
const (
	topicRoot = "input"

	// AnyPrefix is the prefix every event is duplicated under, so a
	// listener can observe all devices without registering names.
	AnyPrefix = "any"

	suffixFocusStart = "focus.start"
	suffixFocusStop  = "focus.stop"

	suffixPress     = "press"
	suffixRelease   = "release"
	suffixClick     = "click"
	suffixLongPress = "longpress"
	suffixLongClick = "longclick"
	suffixCancel    = "cancel"
	suffixDragStart = "drag.start"
	suffixDragStop  = "drag.stop"

	suffixTouchPress     = "touch.press"
	suffixTouchRelease   = "touch.release"
	suffixTouchClick     = "touch.click"
	suffixTouchLongPress = "touch.longpress"
	suffixTouchCancel    = "touch.cancel"
	suffixTouchDragStart = "touch.drag.start"
	suffixTouchDragStop  = "touch.drag.stop"
	suffixSwipeStart     = "swipe.start"
	suffixSwipeStop      = "swipe.stop"

	suffixGestureStart  = "gesture.start"
	suffixGestureStop   = "gesture.stop"
	suffixGestureCancel = "gesture.cancel"
)

// Legacy topics, published only in the legacy-emitting modes. The legacy
// click event fires on press, not release; that shape is preserved for old
// listeners.
const (
	TopicLegacyClick              event.Topic = "input.legacy.click"
	TopicLegacyClickReleased      event.Topic = "input.legacy.click.released"
	TopicLegacyPressedAndReleased event.Topic = "input.legacy.click.pressed_and_released"
	TopicLegacyLongPress          event.Topic = "input.legacy.primary.longpress"
	TopicLegacyHoverStart         event.Topic = "input.legacy.hover.start"
	TopicLegacyHoverStop          event.Topic = "input.legacy.hover.stop"
)

// FocusEvent is the payload for focus start and stop events.
type FocusEvent struct {
	Device device.Type
	Target entity.ID
}

// ButtonEvent is the payload for button interaction events.
type ButtonEvent struct {
	Device device.Type
	Button device.ButtonID
	Target entity.ID

	// Location is the press or drag-start location in the target entity's
	// local space.
	Location r3.Vec

	// Duration is how long the button was held, for click and release
	// events.
	Duration time.Duration
}

// TouchEvent is the payload for touch interaction events.
type TouchEvent struct {
	Device   device.Type
	Touchpad device.TouchpadID
	Touch    device.TouchID
	Target   entity.ID

	// Location is the touch position in normalized touchpad coordinates.
	Location r2.Vec

	// Velocity is the touch's final filtered velocity, for swipe stop
	// events.
	Velocity r2.Vec

	// Duration is how long the touch was down, for click and release
	// events.
	Duration time.Duration
}

// GestureEvent is the payload for gesture lifecycle events.
type GestureEvent struct {
	Device   device.Type
	Touchpad device.TouchpadID

	// Gesture names the recognizer that produced the gesture.
	Gesture string

	// Touches are the claimed touch ids.
	Touches []device.TouchID

	// Values is the recognizer-specific payload.
	Values map[string]float64
}

// send publishes an envelope unless event emission is disabled.
func (p *Processor) send(t event.Topic, payload any) {
	if p.mode == NoEvents || p.dispatcher == nil {
		return
	}
	p.dispatcher.Send(event.NewEnvelope(t, payload, p.source))
}

// emit publishes payload under the given prefix and under the "any" prefix.
// An empty prefix only produces the "any" delivery, which models an
// unregistered notification channel being skipped.
func (p *Processor) emit(prefix, suffix string, payload any) {
	if prefix != "" && prefix != AnyPrefix {
		p.send(event.Join(topicRoot, prefix, suffix), payload)
	}
	p.send(event.Join(topicRoot, AnyPrefix, suffix), payload)
}

// emitLegacy publishes a legacy-topic event in the legacy-emitting modes.
func (p *Processor) emitLegacy(t event.Topic, payload any) {
	if p.mode != LegacyEventsAndLogic && p.mode != LegacyEvents {
		return
	}
	p.send(t, payload)
}
