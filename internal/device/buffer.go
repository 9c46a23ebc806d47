package device

import "time"

// historySize is the slot count of the history buffer: one write slot plus
// the two committed snapshots readers see.
const historySize = 3

// HistoryBuffer is a fixed three-slot ring of device states. One slot is
// mutable and collects updates for the in-flight frame; the other two are
// the committed current and previous snapshots. Advance rotates the roles
// so a finished write slot becomes the new current snapshot.
type HistoryBuffer struct {
	slots  [historySize]State
	cursor int
}

// NewHistoryBuffer returns a buffer whose slots are all deep copies of the
// reference state.
func NewHistoryBuffer(reference State) *HistoryBuffer {
	b := &HistoryBuffer{}
	for i := range b.slots {
		b.slots[i] = reference.Clone()
	}
	return b
}

// Mutable returns the state receiving updates for the in-flight frame.
func (b *HistoryBuffer) Mutable() *State {
	return &b.slots[b.cursor]
}

// Current returns the most recently committed state.
func (b *HistoryBuffer) Current() *State {
	return &b.slots[(b.cursor+1)%historySize]
}

// Previous returns the state committed before Current.
func (b *HistoryBuffer) Previous() *State {
	return &b.slots[(b.cursor+2)%historySize]
}

// Advance commits the write slot as the new current state and recycles the
// outgoing previous slot as the next write slot, seeded from the newly
// committed state. Touches that were invalid in both of the new committed
// snapshots are evicted, so a released touch stays readable for exactly one
// frame. Per-frame fields such as Keys are cleared in the seeded write slot.
func (b *HistoryBuffer) Advance(dt time.Duration) {
	write := &b.slots[b.cursor]
	write.TimeStamp = b.Current().TimeStamp + dt

	b.cursor = (b.cursor + historySize - 1) % historySize

	b.evictStaleTouches()

	seed := b.Current().Clone()
	seed.Keys = seed.Keys[:0]
	b.slots[b.cursor] = seed
}

// evictStaleTouches removes touches that are invalid in both committed
// snapshots from the current snapshot and repairs the primary touch.
func (b *HistoryBuffer) evictStaleTouches() {
	curr := b.Current()
	prev := b.Previous()
	for pad := range curr.Touchpads {
		tp := &curr.Touchpads[pad]
		for id, t := range tp.Touches {
			if t.Valid {
				continue
			}
			if pad < len(prev.Touchpads) {
				if pt, ok := prev.Touchpads[pad].Touches[id]; ok && pt.Valid {
					continue
				}
			}
			delete(tp.Touches, id)
			tp.RemoveActive(id)
		}
		if _, ok := tp.Touches[tp.Primary]; !ok {
			tp.ReassignPrimary()
		}
	}
}
