package metrics

import (
	"github.com/smazurov/keylightd/internal/events"
)

// Observe subscribes the metrics layer to the event bus. The returned
// function unsubscribes all handlers.
func Observe(bus *events.Bus) func() {
	var devices int

	unsubState := bus.Subscribe(func(e events.StateChangedEvent) {
		SetBacklight(e.Active, e.Brightness)
	})
	unsubDiscovery := bus.Subscribe(func(e events.DeviceDiscoveryEvent) {
		RecordDeviceEvent(e.Action)
		switch e.Action {
		case "added":
			devices++
		case "removed":
			if devices > 0 {
				devices--
			}
		}
		SetDeviceCount(devices)
	})
	unsubError := bus.Subscribe(func(e events.HardwareErrorEvent) {
		RecordECError(e.Op, e.Kind)
	})

	return func() {
		unsubState()
		unsubDiscovery()
		unsubError()
	}
}
