//go:build linux

package evdev

// Class identifies what kind of input device a node is.
type Class int

// Device classes.
const (
	ClassUnknown  Class = 0
	ClassKeyboard Class = 1
	ClassPointing Class = 2
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassKeyboard:
		return "keyboard"
	case ClassPointing:
		return "pointing"
	default:
		return "unknown"
	}
}

// DeviceInfo contains information about an evdev input device node.
type DeviceInfo struct {
	DevicePath string // e.g. /dev/input/event3
	DeviceName string // kernel device name, e.g. "AT Translated Set 2 keyboard"
	Class      Class
}

// Event types from linux/input-event-codes.h.
const (
	EV_SYN = 0x00
	EV_KEY = 0x01
	EV_REL = 0x02
	EV_ABS = 0x03

	EV_MAX = 0x1f
)

// Key and button codes used for device classification.
const (
	KEY_ENTER = 28
	KEY_A     = 30
	BTN_LEFT  = 0x110
	BTN_TOUCH = 0x14a

	KEY_MAX = 0x2ff
)

// Relative axis codes.
const (
	REL_X = 0x00
	REL_Y = 0x01

	REL_MAX = 0x0f
)

// eventSize is the size of struct input_event on 64-bit platforms:
// two 8-byte timeval fields, u16 type, u16 code, s32 value.
const eventSize = 24
