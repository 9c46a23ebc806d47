package processor

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dshills/inputcore/internal/device"
)

// updateTouchpad runs one frame of touch processing for a touchpad:
// gesture lifecycles first, then the slop machine for unclaimed touches.
func (p *Processor) updateTouchpad(dt time.Duration, d device.Type, pad device.TouchpadID) {
	p.updateGestures(dt, d, pad)

	// Process every touch the registry still reports plus every touch the
	// machine is tracking, so releases and stale touches are observed.
	seen := make(map[device.TouchID]bool)
	for _, id := range p.reg.GetTouches(d, pad) {
		seen[id] = true
		p.updateTouch(dt, d, pad, id)
	}
	for key := range p.touches {
		if key.dev == d && key.pad == pad && !seen[key.id] {
			p.updateTouch(dt, d, pad, key.id)
		}
	}
}

// updateTouch advances the slop machine for one touch.
func (p *Processor) updateTouch(dt time.Duration, d device.Type, pad device.TouchpadID, id device.TouchID) {
	key := touchKey{d, pad, id}
	st := p.touches[key]
	bits := p.reg.GetTouchState(d, pad, id)
	f := p.focusPairs[d].Current
	prefix := p.touchpadPrefix(d, pad)

	if st == nil {
		if !bits.Has(device.ButtonJustPressed) {
			return
		}
		st = &touchState{}
		p.touches[key] = st
	}

	// Touches claimed by a gesture are exempt from slop tracking; the
	// gesture lifecycle owns them until it releases or they lift.
	if st.phase == phaseGesturing {
		if bits.Has(device.ButtonJustReleased) {
			p.emit(prefix, suffixTouchRelease, TouchEvent{
				Device: d, Touchpad: pad, Touch: id, Target: f.InteractiveTarget(),
				Duration: p.reg.GetTouchPressedDuration(d, pad, id),
			})
			delete(p.touches, key)
		}
		return
	}

	switch {
	case bits.Has(device.ButtonJustPressed):
		st.phase = phaseInsideSlop
		st.sincePress = 0
		st.pressedEntity = f.InteractiveTarget()
		p.emit(prefix, suffixTouchPress, TouchEvent{
			Device: d, Touchpad: pad, Touch: id, Target: st.pressedEntity,
			Location: p.reg.GetTouchLocation(d, pad, id),
		})

	case bits.Has(device.ButtonPressed):
		st.sincePress += dt
		p.trackHeldTouch(st, bits, d, pad, id, prefix)
	}

	if bits.Has(device.ButtonJustReleased) {
		p.releaseTouch(st, bits, d, pad, id, prefix)
		delete(p.touches, key)
		return
	}

	// Stale-touch recovery, mirroring the button machine.
	if !bits.Has(device.ButtonPressed) && st.phase != phaseReleased {
		p.emit(prefix, suffixTouchCancel, TouchEvent{
			Device: d, Touchpad: pad, Touch: id, Target: st.pressedEntity,
		})
		delete(p.touches, key)
	}
}

// trackHeldTouch applies the linear cancel slop: a touch leaving the slop
// radius around its gesture origin becomes a swipe and loses click
// eligibility.
func (p *Processor) trackHeldTouch(st *touchState, bits device.ButtonBits, d device.Type, pad device.TouchpadID, id device.TouchID, prefix string) {
	if st.phase == phaseInsideSlop {
		delta := r2.Sub(p.reg.GetTouchLocation(d, pad, id), p.reg.GetTouchGestureOrigin(d, pad, id))
		if r2.Norm(delta) >= touchCancelSlop {
			st.phase = phaseTouchMoved
			loc := p.reg.GetTouchLocation(d, pad, id)
			p.emit(prefix, suffixSwipeStart, TouchEvent{
				Device: d, Touchpad: pad, Touch: id, Target: st.pressedEntity, Location: loc,
			})
			if p.focusPairs[d].Current.Draggable {
				st.dragging = true
				p.emit(prefix, suffixTouchDragStart, TouchEvent{
					Device: d, Touchpad: pad, Touch: id, Target: st.pressedEntity, Location: loc,
				})
			}
		}
	}

	if st.phase == phaseInsideSlop && bits.Has(device.ButtonJustLongPressed) {
		p.emit(prefix, suffixTouchLongPress, TouchEvent{
			Device: d, Touchpad: pad, Touch: id, Target: st.pressedEntity, Duration: st.sincePress,
		})
	}
}

// releaseTouch delivers the release-side events: a moved touch ends its
// swipe, a touch still inside the slop that never went long-pressed is a
// click.
func (p *Processor) releaseTouch(st *touchState, bits device.ButtonBits, d device.Type, pad device.TouchpadID, id device.TouchID, prefix string) {
	duration := p.reg.GetTouchPressedDuration(d, pad, id)
	target := p.focusPairs[d].Current.InteractiveTarget()

	p.emit(prefix, suffixTouchRelease, TouchEvent{
		Device: d, Touchpad: pad, Touch: id, Target: target, Duration: duration,
	})

	switch st.phase {
	case phaseTouchMoved:
		p.emit(prefix, suffixSwipeStop, TouchEvent{
			Device: d, Touchpad: pad, Touch: id, Target: st.pressedEntity, Duration: duration,
			Velocity: p.reg.GetTouchVelocity(d, pad, id),
		})
		if st.dragging {
			p.emit(prefix, suffixTouchDragStop, TouchEvent{
				Device: d, Touchpad: pad, Touch: id, Target: st.pressedEntity, Duration: duration,
			})
		}
	case phaseInsideSlop:
		if !bits.Has(device.ButtonLongPressed) {
			p.emit(prefix, suffixTouchClick, TouchEvent{
				Device: d, Touchpad: pad, Touch: id, Target: st.pressedEntity, Duration: duration,
			})
		}
	}
}
