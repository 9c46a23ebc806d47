package processor

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/dshills/inputcore/internal/device"
	"github.com/dshills/inputcore/internal/entity"
	"github.com/dshills/inputcore/internal/focus"
	"github.com/dshills/inputcore/internal/mathx"
)

// updateButton advances one button's interaction state for this frame.
func (p *Processor) updateButton(dt time.Duration, d device.Type, id device.ButtonID) {
	key := buttonKey{d, id}
	st := p.buttons[key]
	if st == nil {
		st = &buttonState{}
		p.buttons[key] = st
	}

	bits := p.reg.GetButtonState(d, id)
	f := p.focusPairs[d].Current
	prefix := p.buttonPrefix(d, id)

	if p.mode == LegacyEventsAndLogic {
		p.updateButtonLegacy(st, bits, d, id, f, prefix)
		return
	}

	switch {
	case bits.Has(device.ButtonJustPressed):
		st.phase = phaseInsideSlop
		st.sincePress = 0
		st.pressedEntity = f.InteractiveTarget()
		p.setButtonTarget(st, f)
		p.emit(prefix, suffixPress, ButtonEvent{
			Device: d, Button: id, Target: st.pressedEntity, Location: st.pressedLocation,
		})
		p.emitLegacyPress(d, id, st)

	case bits.Has(device.ButtonPressed):
		st.sincePress += dt
		p.trackHeldButton(st, bits, d, id, f, prefix)
	}

	if bits.Has(device.ButtonJustReleased) {
		p.releaseButton(st, bits, d, id, f, prefix)
		return
	}

	// Stale-press recovery: the registry no longer reports the button
	// pressed and no release edge fired, for example across an app pause.
	// Reconcile with a single cancel.
	if !bits.Has(device.ButtonPressed) && st.phase != phaseReleased {
		p.cancelButton(st, d, id, prefix)
		st.phase = phaseReleased
	}
}

// trackHeldButton handles a button held past its press frame: focus-change
// cancellation, then ray slop classification.
func (p *Processor) trackHeldButton(st *buttonState, bits device.ButtonBits, d device.Type, id device.ButtonID, f focus.Focus, prefix string) {
	if f.InteractiveTarget() != st.focusedEntity {
		// Focus moved mid-press. Cancel the interaction on the old target
		// and suppress click/long-press/drag for the rest of this press.
		if st.phase != phaseCancelled {
			p.cancelButton(st, d, id, prefix)
		}
		p.setButtonTarget(st, f)
		st.phase = phasePressedBeforeFocus
	}

	// Classify this frame's deflection. Any phase past the cancel slop
	// cancels; a press that already changed focus tolerates everything up
	// to the cancel slop without regaining click or drag eligibility.
	next := phaseCancelled
	if st.phase != phaseCancelled {
		slop := p.calculateRaySlop(st, f)
		if st.phase == phasePressedBeforeFocus {
			if slop <= rayCancelSlopRad {
				next = phasePressedBeforeFocus
			}
		} else {
			if slop <= rayDragSlopRad {
				next = phaseInsideSlop
			} else if slop <= rayCancelSlopRad {
				if f.Draggable {
					next = phaseDragging
				} else {
					next = phaseInsideSlop
				}
			}
		}
	}

	if next == phaseCancelled && st.phase != phaseCancelled {
		p.cancelButton(st, d, id, prefix)
	}

	// Dragging starts once and persists: a cursor that dips back inside
	// the drag slop stays a drag until release or cancel.
	if next == phaseDragging && st.phase == phaseInsideSlop {
		st.phase = phaseDragging
		p.emit(prefix, suffixDragStart, ButtonEvent{
			Device: d, Button: id, Target: st.focusedEntity,
			Location: p.localCursor(f),
		})
	}

	if st.phase == phaseInsideSlop && bits.Has(device.ButtonJustLongPressed) {
		p.emit(prefix, suffixLongPress, ButtonEvent{
			Device: d, Button: id, Target: st.focusedEntity, Duration: st.sincePress,
		})
		if d == p.primary && id == device.ButtonPrimary {
			p.emitLegacy(TopicLegacyLongPress, ButtonEvent{Device: d, Button: id, Target: st.focusedEntity})
		}
	}
}

// releaseButton delivers release, click and drag-stop events and resets the
// per-press bookkeeping. Release goes to the current focus target and, if
// different, also to the entity the press started on.
func (p *Processor) releaseButton(st *buttonState, bits device.ButtonBits, d device.Type, id device.ButtonID, f focus.Focus, prefix string) {
	target := f.InteractiveTarget()
	duration := p.reg.GetButtonPressedDuration(d, id)

	p.emit(prefix, suffixRelease, ButtonEvent{Device: d, Button: id, Target: target, Duration: duration})
	if st.pressedEntity != entity.Nil && st.pressedEntity != target {
		p.emit(prefix, suffixRelease, ButtonEvent{Device: d, Button: id, Target: st.pressedEntity, Duration: duration})
	}

	if st.phase == phaseDragging {
		p.emit(prefix, suffixDragStop, ButtonEvent{Device: d, Button: id, Target: st.focusedEntity})
	}
	// Click requires the focus to still be on the entity the press tracked;
	// a release landing on the same frame focus moved away is not a click.
	if st.phase == phaseInsideSlop && st.focusedEntity == target {
		if bits.Has(device.ButtonLongPressed) {
			p.emit(prefix, suffixLongClick, ButtonEvent{
				Device: d, Button: id, Target: st.focusedEntity, Duration: duration,
			})
		} else {
			p.emit(prefix, suffixClick, ButtonEvent{
				Device: d, Button: id, Target: st.focusedEntity, Duration: duration,
			})
		}
	}
	p.emitLegacyRelease(d, id, st, bits, target, duration)

	*st = buttonState{}
}

// cancelButton emits a cancel, preceded by a drag stop if a drag was in
// progress.
func (p *Processor) cancelButton(st *buttonState, d device.Type, id device.ButtonID, prefix string) {
	if st.phase == phaseDragging {
		p.emit(prefix, suffixDragStop, ButtonEvent{Device: d, Button: id, Target: st.focusedEntity})
	}
	p.emit(prefix, suffixCancel, ButtonEvent{Device: d, Button: id, Target: st.focusedEntity})
	st.phase = phaseCancelled
}

// setButtonTarget captures the focused entity and the press location in
// that entity's local space.
func (p *Processor) setButtonTarget(st *buttonState, f focus.Focus) {
	st.focusedEntity = f.InteractiveTarget()
	st.pressedLocation = r3.Vec{}
	if st.focusedEntity == entity.Nil {
		return
	}
	if m, ok := p.worldFromEntity(st.focusedEntity); ok {
		if local, ok := mathx.InverseTransformPoint(m, f.CursorPosition); ok {
			st.pressedLocation = local
		}
	}
}

// localCursor converts the current cursor position into the focused
// entity's local space, for drag-start locations.
func (p *Processor) localCursor(f focus.Focus) r3.Vec {
	target := f.InteractiveTarget()
	if target == entity.Nil {
		return r3.Vec{}
	}
	if m, ok := p.worldFromEntity(target); ok {
		if local, ok := mathx.InverseTransformPoint(m, f.CursorPosition); ok {
			return local
		}
	}
	return r3.Vec{}
}

// calculateRaySlop measures how far the cursor has deflected from the
// original press: the angle at the ray origin between the press location
// (tracked in entity space, re-projected to world) and where the cursor
// would be had the ray hit nothing.
func (p *Processor) calculateRaySlop(st *buttonState, f focus.Focus) float64 {
	pressedWorld := st.pressedLocation
	if m, ok := p.worldFromEntity(st.focusedEntity); ok {
		pressedWorld = mathx.TransformPoint(m, st.pressedLocation)
	}
	return mathx.AngleBetween(
		r3.Sub(pressedWorld, f.CollisionRay.Origin),
		r3.Sub(f.NoHitCursorPosition, f.CollisionRay.Origin),
	)
}

// updateButtonLegacy is the simplified legacy update path: no slop or drag
// tracking, click on press, release with double delivery.
func (p *Processor) updateButtonLegacy(st *buttonState, bits device.ButtonBits, d device.Type, id device.ButtonID, f focus.Focus, prefix string) {
	target := f.InteractiveTarget()

	switch {
	case bits.Has(device.ButtonJustPressed):
		st.phase = phaseInsideSlop
		st.pressedEntity = target
		st.focusedEntity = target
		p.emit(prefix, suffixPress, ButtonEvent{Device: d, Button: id, Target: target})
		p.emitLegacy(TopicLegacyClick, ButtonEvent{Device: d, Button: id, Target: target})

	case bits.Has(device.ButtonJustReleased):
		duration := p.reg.GetButtonPressedDuration(d, id)
		p.emit(prefix, suffixRelease, ButtonEvent{Device: d, Button: id, Target: target, Duration: duration})
		p.emitLegacyRelease(d, id, st, bits, target, duration)
		*st = buttonState{}

	case !bits.Has(device.ButtonPressed) && st.phase != phaseReleased:
		p.emit(prefix, suffixCancel, ButtonEvent{Device: d, Button: id, Target: st.focusedEntity})
		st.phase = phaseReleased

	case bits.Has(device.ButtonJustLongPressed) && d == p.primary && id == device.ButtonPrimary:
		p.emitLegacy(TopicLegacyLongPress, ButtonEvent{Device: d, Button: id, Target: target})
	}
}

// emitLegacyPress publishes the legacy click-on-press event.
func (p *Processor) emitLegacyPress(d device.Type, id device.ButtonID, st *buttonState) {
	p.emitLegacy(TopicLegacyClick, ButtonEvent{Device: d, Button: id, Target: st.pressedEntity})
}

// emitLegacyRelease publishes the legacy release events, double-delivered
// to the press target when focus moved mid-press.
func (p *Processor) emitLegacyRelease(d device.Type, id device.ButtonID, st *buttonState, bits device.ButtonBits, target entity.ID, duration time.Duration) {
	p.emitLegacy(TopicLegacyClickReleased, ButtonEvent{Device: d, Button: id, Target: target, Duration: duration})
	if st.pressedEntity != entity.Nil && st.pressedEntity != target {
		p.emitLegacy(TopicLegacyClickReleased, ButtonEvent{Device: d, Button: id, Target: st.pressedEntity, Duration: duration})
	}
	if !bits.Has(device.ButtonLongPressed) && st.pressedEntity != entity.Nil && st.pressedEntity == target {
		p.emitLegacy(TopicLegacyPressedAndReleased, ButtonEvent{Device: d, Button: id, Target: target, Duration: duration})
	}
}
