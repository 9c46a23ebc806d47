package processor

import (
	"time"

	"github.com/dshills/inputcore/internal/contract"
	"github.com/dshills/inputcore/internal/device"
	"github.com/dshills/inputcore/internal/gesture"
)

// activeGesture tracks one in-flight gesture and which touchpad it runs on.
type activeGesture struct {
	g gesture.Gesture
}

// AddRecognizer registers a gesture recognizer. Only one-touch and
// two-touch recognizers are supported.
func (p *Processor) AddRecognizer(rec gesture.Recognizer) {
	n := rec.NumTouches()
	if !contract.Expectf(n == 1 || n == 2, "AddRecognizer: %q has unsupported arity %d", rec.Name(), n) {
		return
	}
	p.recognizers = append(p.recognizers, rec)
}

// RemoveRecognizer unregisters a recognizer by name and cancels any of its
// in-flight gestures.
func (p *Processor) RemoveRecognizer(name string) {
	for i, rec := range p.recognizers {
		if rec.Name() == name {
			p.recognizers = append(p.recognizers[:i], p.recognizers[i+1:]...)
			break
		}
	}
	for key, actives := range p.active {
		keep := actives[:0]
		for _, ag := range actives {
			if ag.g.Name() == name {
				p.cancelGesture(key.dev, key.pad, ag)
			} else {
				keep = append(keep, ag)
			}
		}
		p.active[key] = keep
	}
}

// TouchOwner returns the gesture currently owning a touch, or nil.
func (p *Processor) TouchOwner(d device.Type, pad device.TouchpadID, id device.TouchID) gesture.Gesture {
	if st := p.touches[touchKey{d, pad, id}]; st != nil {
		return st.owner
	}
	return nil
}

// CancelAllGestures forcibly cancels every active gesture on a touchpad,
// used when the recognizer set changes or a device disconnects.
func (p *Processor) CancelAllGestures(d device.Type, pad device.TouchpadID) {
	key := touchpadKey{d, pad}
	for _, ag := range p.active[key] {
		p.cancelGesture(d, pad, ag)
	}
	p.active[key] = nil
}

// updateGestures advances active gestures and offers unclaimed touches to
// the registered recognizers.
func (p *Processor) updateGestures(dt time.Duration, d device.Type, pad device.TouchpadID) {
	key := touchpadKey{d, pad}

	actives := p.active[key]
	keep := actives[:0]
	for _, ag := range actives {
		switch ag.g.AdvanceFrame(dt, p.reg) {
		case gesture.Running:
			keep = append(keep, ag)
		case gesture.Ending:
			p.emit(p.touchpadPrefix(d, pad), suffixGestureStop, p.gestureEvent(d, pad, ag.g))
			p.releaseGestureTouches(d, pad, ag.g)
		case gesture.Canceled:
			p.emit(p.touchpadPrefix(d, pad), suffixGestureCancel, p.gestureEvent(d, pad, ag.g))
			p.releaseGestureTouches(d, pad, ag.g)
		}
	}
	p.active[key] = keep

	if len(p.recognizers) == 0 {
		return
	}

	unclaimed := p.unclaimedTouches(d, pad)
	for _, rec := range p.recognizers {
		switch rec.NumTouches() {
		case 1:
			for i := 0; i < len(unclaimed); {
				id := unclaimed[i]
				if g := rec.TryStart(p.reg, d, pad, []device.TouchID{id}); g != nil {
					p.startGesture(d, pad, g)
					unclaimed = append(unclaimed[:i], unclaimed[i+1:]...)
					continue
				}
				i++
			}
		case 2:
			unclaimed = p.tryStartPairs(rec, d, pad, unclaimed)
		}
	}
}

// tryStartPairs offers every unordered pair of unclaimed touches to a
// two-touch recognizer, removing claimed touches as gestures start.
func (p *Processor) tryStartPairs(rec gesture.Recognizer, d device.Type, pad device.TouchpadID, unclaimed []device.TouchID) []device.TouchID {
	for i := 0; i < len(unclaimed); i++ {
		for j := i + 1; j < len(unclaimed); j++ {
			g := rec.TryStart(p.reg, d, pad, []device.TouchID{unclaimed[i], unclaimed[j]})
			if g == nil {
				continue
			}
			p.startGesture(d, pad, g)
			// Drop both claimed touches and restart pairing.
			rest := make([]device.TouchID, 0, len(unclaimed)-2)
			for k, id := range unclaimed {
				if k != i && k != j {
					rest = append(rest, id)
				}
			}
			return p.tryStartPairsRestart(rec, d, pad, rest)
		}
	}
	return unclaimed
}

func (p *Processor) tryStartPairsRestart(rec gesture.Recognizer, d device.Type, pad device.TouchpadID, unclaimed []device.TouchID) []device.TouchID {
	if len(unclaimed) < 2 {
		return unclaimed
	}
	return p.tryStartPairs(rec, d, pad, unclaimed)
}

// unclaimedTouches lists the valid touches not owned by a gesture and not
// already cancelled.
func (p *Processor) unclaimedTouches(d device.Type, pad device.TouchpadID) []device.TouchID {
	var out []device.TouchID
	for _, id := range p.reg.GetTouches(d, pad) {
		st := p.touches[touchKey{d, pad, id}]
		if st != nil && (st.phase == phaseGesturing || st.phase == phaseCancelled) {
			continue
		}
		out = append(out, id)
	}
	return out
}

// startGesture claims the gesture's touches, initializes it and announces
// it.
func (p *Processor) startGesture(d device.Type, pad device.TouchpadID, g gesture.Gesture) {
	for _, id := range g.Touches() {
		key := touchKey{d, pad, id}
		st := p.touches[key]
		if st == nil {
			st = &touchState{}
			p.touches[key] = st
		}
		st.phase = phaseGesturing
		st.owner = g
	}
	g.Setup(p.reg)
	p.active[touchpadKey{d, pad}] = append(p.active[touchpadKey{d, pad}], &activeGesture{g: g})
	p.emit(p.touchpadPrefix(d, pad), suffixGestureStart, p.gestureEvent(d, pad, g))
}

// cancelGesture cancels one gesture, emits its cancel event and releases
// its touches.
func (p *Processor) cancelGesture(d device.Type, pad device.TouchpadID, ag *activeGesture) {
	ag.g.Cancel()
	p.emit(p.touchpadPrefix(d, pad), suffixGestureCancel, p.gestureEvent(d, pad, ag.g))
	p.releaseGestureTouches(d, pad, ag.g)
}

// releaseGestureTouches returns a gesture's touches to the slop machine
// with a fresh gesture origin, so a follow-on swipe measures from here.
func (p *Processor) releaseGestureTouches(d device.Type, pad device.TouchpadID, g gesture.Gesture) {
	for _, id := range g.Touches() {
		key := touchKey{d, pad, id}
		st := p.touches[key]
		if st == nil || st.owner != g {
			continue
		}
		st.owner = nil
		if p.reg.IsValidTouch(d, pad, id) {
			st.phase = phaseInsideSlop
			p.reg.ResetTouchGestureOrigin(d, pad, id)
		} else {
			delete(p.touches, key)
		}
	}
}

// gestureEvent builds the payload for a gesture lifecycle event.
func (p *Processor) gestureEvent(d device.Type, pad device.TouchpadID, g gesture.Gesture) GestureEvent {
	return GestureEvent{
		Device:   d,
		Touchpad: pad,
		Gesture:  g.Name(),
		Touches:  append([]device.TouchID(nil), g.Touches()...),
		Values:   g.Values(),
	}
}
