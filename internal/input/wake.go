package input

// WakeKind tags the reason a Wait call returned.
type WakeKind int

// Wake reasons.
const (
	// WakeTimeout means the supplied deadline passed.
	WakeTimeout WakeKind = iota
	// WakeActivity means an input source has a readable event.
	WakeActivity
	// WakeDeviceAdded means a matching device was hot-plugged.
	WakeDeviceAdded
	// WakeDeviceRemoved means a watched device went away.
	WakeDeviceRemoved
	// WakeShutdown means Interrupt was called.
	WakeShutdown
)

// String returns the wake reason name.
func (k WakeKind) String() string {
	switch k {
	case WakeTimeout:
		return "timeout"
	case WakeActivity:
		return "activity"
	case WakeDeviceAdded:
		return "device_added"
	case WakeDeviceRemoved:
		return "device_removed"
	case WakeShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Wake is the tagged result of a Wait call. ID carries the device
// identity for activity and topology wakes.
type Wake struct {
	Kind WakeKind
	ID   string
}
