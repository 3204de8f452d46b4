package events

import (
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan StateChangedEvent, 1)

	unsub := bus.Subscribe(func(e StateChangedEvent) {
		received <- e
	})
	defer unsub()

	event := StateChangedEvent{
		Active:     true,
		Brightness: 30,
		SourceID:   "event3",
	}
	bus.Publish(event)

	got := <-received
	if !got.Active || got.Brightness != 30 {
		t.Errorf("Expected active=true brightness=30, got %+v", got)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan DeviceDiscoveryEvent, 1)
	received2 := make(chan DeviceDiscoveryEvent, 1)

	unsub1 := bus.Subscribe(func(e DeviceDiscoveryEvent) {
		received1 <- e
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(e DeviceDiscoveryEvent) {
		received2 <- e
	})
	defer unsub2()

	bus.Publish(DeviceDiscoveryEvent{Action: "added", ID: "event5"})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan HardwareErrorEvent, 1)

	unsub := bus.Subscribe(func(e HardwareErrorEvent) {
		received <- e
	})
	unsub()

	bus.Publish(HardwareErrorEvent{Op: "set_brightness", Kind: "busy"})

	select {
	case <-received:
		t.Error("Received event after unsubscribe")
	case <-time.After(100 * time.Millisecond):
	}
}
