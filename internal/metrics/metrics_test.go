package metrics

import (
	"testing"
	"time"

	"github.com/smazurov/keylightd/internal/events"
)

func TestSnapshotTracksTransitions(t *testing.T) {
	Reset()

	SetBacklight(true, 30)
	s := Get()
	if !s.Active {
		t.Error("expected active after on transition")
	}
	if s.Brightness != 30 {
		t.Errorf("Brightness = %d, want 30", s.Brightness)
	}
	if s.Transitions != 1 {
		t.Errorf("Transitions = %d, want 1", s.Transitions)
	}

	SetBacklight(false, 0)
	s = Get()
	if s.Active {
		t.Error("expected idle after off transition")
	}
	if s.Transitions != 2 {
		t.Errorf("Transitions = %d, want 2", s.Transitions)
	}
}

func TestSnapshotDeviceCount(t *testing.T) {
	Reset()

	SetDeviceCount(3)
	if got := Get().Devices; got != 3 {
		t.Errorf("Devices = %d, want 3", got)
	}
}

func TestSnapshotECErrors(t *testing.T) {
	Reset()

	RecordECError("set_brightness", "busy")
	RecordECError("set_brightness", "timeout")
	if got := Get().ECErrors; got != 2 {
		t.Errorf("ECErrors = %d, want 2", got)
	}
}

func TestObserveFeedsSnapshotFromBus(t *testing.T) {
	Reset()

	bus := events.New()
	unsub := Observe(bus)
	defer unsub()

	bus.Publish(events.StateChangedEvent{Active: true, Brightness: 45, SourceID: "/dev/input/event3"})
	bus.Publish(events.DeviceDiscoveryEvent{Action: "added", ID: "/dev/input/event3"})

	// Dispatch is asynchronous, poll until the handlers have run.
	deadline := time.Now().Add(2 * time.Second)
	for {
		s := Get()
		if s.Active && s.Brightness == 45 && s.Devices == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("snapshot never updated from bus events: %+v", s)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
