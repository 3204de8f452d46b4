//go:build linux

package evdev

import "testing"

func setBit(bits []byte, bit uint) {
	bits[bit/8] |= 1 << (bit % 8)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		evBits  func([]byte)
		keyBits func([]byte)
		want    Class
	}{
		{
			name: "keyboard with typing keys",
			evBits: func(b []byte) {
				setBit(b, EV_KEY)
			},
			keyBits: func(b []byte) {
				setBit(b, KEY_A)
				setBit(b, KEY_ENTER)
			},
			want: ClassKeyboard,
		},
		{
			name: "mouse with relative motion",
			evBits: func(b []byte) {
				setBit(b, EV_KEY)
				setBit(b, EV_REL)
			},
			keyBits: func(b []byte) {
				setBit(b, BTN_LEFT)
			},
			want: ClassPointing,
		},
		{
			name: "touchpad with absolute axes",
			evBits: func(b []byte) {
				setBit(b, EV_KEY)
				setBit(b, EV_ABS)
			},
			keyBits: func(b []byte) {
				setBit(b, BTN_TOUCH)
			},
			want: ClassPointing,
		},
		{
			name: "power button is not a keyboard",
			evBits: func(b []byte) {
				setBit(b, EV_KEY)
			},
			keyBits: func(b []byte) {
				setBit(b, 116) // KEY_POWER
			},
			want: ClassUnknown,
		},
		{
			name: "accelerometer without keys",
			evBits: func(b []byte) {
				setBit(b, EV_ABS)
			},
			keyBits: func(_ []byte) {},
			want:    ClassUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evBits := make([]byte, EV_MAX/8+1)
			keyBits := make([]byte, KEY_MAX/8+1)
			tt.evBits(evBits)
			tt.keyBits(keyBits)

			if got := Classify(evBits, keyBits); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasBitOutOfRange(t *testing.T) {
	bits := make([]byte, 2)
	if hasBit(bits, 100) {
		t.Error("hasBit should be false past the end of the bitmap")
	}
}

func TestClassString(t *testing.T) {
	if ClassKeyboard.String() != "keyboard" {
		t.Errorf("ClassKeyboard.String() = %q", ClassKeyboard.String())
	}
	if ClassPointing.String() != "pointing" {
		t.Errorf("ClassPointing.String() = %q", ClassPointing.String())
	}
	if ClassUnknown.String() != "unknown" {
		t.Errorf("ClassUnknown.String() = %q", ClassUnknown.String())
	}
}
