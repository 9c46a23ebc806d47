package device

import (
	"testing"
	"time"
)

func TestClassifyButton(t *testing.T) {
	const long = 500 * time.Millisecond

	tests := []struct {
		name       string
		curr, prev bool
		repeat     bool
		currTime   time.Duration
		prevTime   time.Duration
		currPress  time.Duration
		prevPress  time.Duration
		want       ButtonBits
	}{
		{
			name: "idle",
			want: ButtonReleased,
		},
		{
			name:      "just pressed",
			curr:      true,
			currTime:  100 * time.Millisecond,
			prevTime:  84 * time.Millisecond,
			currPress: 100 * time.Millisecond,
			want:      ButtonPressed | ButtonJustPressed,
		},
		{
			name:      "held below threshold",
			curr:      true,
			prev:      true,
			currTime:  300 * time.Millisecond,
			prevTime:  284 * time.Millisecond,
			currPress: 100 * time.Millisecond,
			prevPress: 100 * time.Millisecond,
			want:      ButtonPressed,
		},
		{
			name:      "crosses long press threshold",
			curr:      true,
			prev:      true,
			currTime:  610 * time.Millisecond,
			prevTime:  594 * time.Millisecond,
			currPress: 100 * time.Millisecond,
			prevPress: 100 * time.Millisecond,
			want:      ButtonPressed | ButtonLongPressed | ButtonJustLongPressed,
		},
		{
			name:      "held past threshold",
			curr:      true,
			prev:      true,
			currTime:  700 * time.Millisecond,
			prevTime:  684 * time.Millisecond,
			currPress: 100 * time.Millisecond,
			prevPress: 100 * time.Millisecond,
			want:      ButtonPressed | ButtonLongPressed,
		},
		{
			name:     "released after short press",
			prev:     true,
			currTime: 300 * time.Millisecond,
			prevTime: 284 * time.Millisecond,
			// prev press stamp from the snapshot the press began in.
			prevPress: 100 * time.Millisecond,
			want:      ButtonReleased | ButtonJustReleased,
		},
		{
			name:      "released after long press reports retroactive long press",
			prev:      true,
			currTime:  700 * time.Millisecond,
			prevTime:  684 * time.Millisecond,
			prevPress: 100 * time.Millisecond,
			want:      ButtonReleased | ButtonJustReleased | ButtonLongPressed,
		},
		{
			// A press frame that already exceeds the threshold (the frame
			// delta was at least the long-press time) carries both edges at
			// once, regardless of how long ago the previous press ended.
			name:      "press frame already past threshold",
			curr:      true,
			currTime:  1700 * time.Millisecond,
			prevTime:  1100 * time.Millisecond,
			currPress: 1100 * time.Millisecond,
			prevPress: 100 * time.Millisecond,
			want:      ButtonPressed | ButtonJustPressed | ButtonLongPressed | ButtonJustLongPressed,
		},
		{
			name:      "repeat while held",
			curr:      true,
			prev:      true,
			repeat:    true,
			currTime:  300 * time.Millisecond,
			prevTime:  284 * time.Millisecond,
			currPress: 100 * time.Millisecond,
			prevPress: 100 * time.Millisecond,
			want:      ButtonPressed | ButtonRepeat,
		},
		{
			name:      "repeat on the release frame is ignored",
			prev:      true,
			repeat:    true,
			currTime:  300 * time.Millisecond,
			prevTime:  284 * time.Millisecond,
			prevPress: 100 * time.Millisecond,
			want:      ButtonReleased | ButtonJustReleased,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyButton(tt.curr, tt.prev, tt.repeat, long,
				tt.currTime, tt.prevTime, tt.currPress, tt.prevPress)
			if got != tt.want {
				t.Errorf("ClassifyButton() = %b, want %b", got, tt.want)
			}
		})
	}
}

func TestClassifyButtonPressedAfterLongGap(t *testing.T) {
	// A fresh press whose previous snapshot still carries an old press
	// stamp must not suppress the eventual just-long-pressed edge, because
	// the press stamp is rewritten on the just-pressed frame.
	const long = 500 * time.Millisecond

	bits := ClassifyButton(true, false, false, long,
		10*time.Second, 10*time.Second-16*time.Millisecond,
		10*time.Second, 2*time.Second)
	if !bits.Has(ButtonJustPressed) {
		t.Fatalf("expected just-pressed, got %b", bits)
	}
	if bits.Has(ButtonLongPressed) {
		t.Fatalf("fresh press misclassified as long press: %b", bits)
	}
}

func TestButtonBitsHas(t *testing.T) {
	bits := ButtonPressed | ButtonJustPressed
	if !bits.Has(ButtonPressed) {
		t.Error("expected Pressed bit")
	}
	if !bits.Has(ButtonPressed | ButtonJustPressed) {
		t.Error("expected combined mask to match")
	}
	if bits.Has(ButtonLongPressed) {
		t.Error("unexpected LongPressed bit")
	}
}
