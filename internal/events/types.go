package events

// Event type constants for kelindar/event.
const (
	TypeStateChanged uint32 = iota + 1
	TypeDeviceDiscovery
	TypeHardwareError
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StateChangedEvent is published when the activity state machine
// transitions between idle and active.
type StateChangedEvent struct {
	Active     bool
	Brightness int
	SourceID   string // device that triggered the transition, empty on timeout
}

// Type returns the event type identifier for StateChangedEvent.
func (e StateChangedEvent) Type() uint32 { return TypeStateChanged }

// DeviceDiscoveryEvent is published when an input device is added to or
// removed from the watched set.
type DeviceDiscoveryEvent struct {
	Action string // "added" or "removed"
	ID     string
	Name   string
}

// Type returns the event type identifier for DeviceDiscoveryEvent.
func (e DeviceDiscoveryEvent) Type() uint32 { return TypeDeviceDiscovery }

// HardwareErrorEvent is published when an embedded controller
// transaction fails. These are transient and absorbed by the daemon.
type HardwareErrorEvent struct {
	Op   string // "set_brightness" or "set_indicator"
	Kind string // "busy" or "timeout"
}

// Type returns the event type identifier for HardwareErrorEvent.
func (e HardwareErrorEvent) Type() uint32 { return TypeHardwareError }
