package device

import "time"

// ButtonBits is a bitmask describing a button's state and the transitions it
// made on the most recent frame.
type ButtonBits uint32

const (
	// ButtonReleased is set while the button is up.
	ButtonReleased ButtonBits = 1 << iota
	// ButtonPressed is set while the button is down.
	ButtonPressed
	// ButtonLongPressed is set once the press exceeds the long-press
	// threshold, and retroactively on the release frame of a long press.
	ButtonLongPressed
	// ButtonJustReleased is set only on the frame the button came up.
	ButtonJustReleased
	// ButtonJustPressed is set only on the frame the button went down.
	ButtonJustPressed
	// ButtonJustLongPressed is set only on the frame the press crossed the
	// long-press threshold.
	ButtonJustLongPressed
	// ButtonRepeat is set on frames where the platform reported key repeat.
	ButtonRepeat
)

// Has reports whether all bits in mask are set.
func (b ButtonBits) Has(mask ButtonBits) bool {
	return b&mask == mask
}

// ClassifyButton derives the transition bitmask for one button from the two
// committed snapshots. curr and prev are the pressed flags, repeat is the
// current repeat flag, and the time arguments are the snapshot and press
// stamps on the device timeline.
func ClassifyButton(curr, prev, repeat bool, longPress, currTime, prevTime, currPressTime, prevPressTime time.Duration) ButtonBits {
	if curr {
		bits := ButtonPressed
		if !prev {
			bits |= ButtonJustPressed
		}
		if repeat {
			bits |= ButtonRepeat
		}
		if currTime-currPressTime >= longPress {
			bits |= ButtonLongPressed
			// The long-press edge fires on the threshold-crossing frame of a
			// continuous hold, or on the press frame itself when the press is
			// already past the threshold.
			if !prev || prevTime-prevPressTime < longPress {
				bits |= ButtonJustLongPressed
			}
		}
		return bits
	}

	bits := ButtonReleased
	if prev {
		bits |= ButtonJustReleased
		if prevTime-prevPressTime >= longPress {
			bits |= ButtonLongPressed
		}
	}
	return bits
}
