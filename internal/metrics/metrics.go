// Package metrics provides Prometheus metrics for the backlight daemon.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backlightOn = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "keylightd",
		Subsystem: "backlight",
		Name:      "on",
		Help:      "Whether the keyboard backlight is currently lit (1) or dark (0)",
	})

	backlightBrightness = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "keylightd",
		Subsystem: "backlight",
		Name:      "brightness_percent",
		Help:      "Brightness last written to the embedded controller",
	})

	stateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keylightd",
		Subsystem: "activity",
		Name:      "transitions_total",
		Help:      "State machine transitions by resulting state",
	}, []string{"state"})

	inputDevices = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "keylightd",
		Subsystem: "input",
		Name:      "devices",
		Help:      "Input devices currently in the watched set",
	})

	deviceEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keylightd",
		Subsystem: "input",
		Name:      "device_events_total",
		Help:      "Hot-plug events by action",
	}, []string{"action"})

	ecErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "keylightd",
		Subsystem: "ec",
		Name:      "errors_total",
		Help:      "Failed embedded controller transactions by operation and failure kind",
	}, []string{"op", "kind"})

	// Local cache for status reporting.
	snapshot   Snapshot
	snapshotMu sync.RWMutex
)

// Snapshot holds the current daemon state as seen by the metrics layer.
type Snapshot struct {
	Active      bool
	Brightness  int
	Devices     int
	Transitions uint64
	ECErrors    uint64
}

// SetBacklight records a state machine transition.
func SetBacklight(active bool, brightness int) {
	if active {
		backlightOn.Set(1)
		stateTransitions.WithLabelValues("active").Inc()
	} else {
		backlightOn.Set(0)
		stateTransitions.WithLabelValues("idle").Inc()
	}
	backlightBrightness.Set(float64(brightness))
	updateSnapshot(func(s *Snapshot) {
		s.Active = active
		s.Brightness = brightness
		s.Transitions++
	})
}

// SetDeviceCount records the size of the watched input set.
func SetDeviceCount(n int) {
	inputDevices.Set(float64(n))
	updateSnapshot(func(s *Snapshot) { s.Devices = n })
}

// RecordDeviceEvent counts a hot-plug add or remove.
func RecordDeviceEvent(action string) {
	deviceEvents.WithLabelValues(action).Inc()
}

// RecordECError counts a failed embedded controller transaction.
func RecordECError(op, kind string) {
	ecErrors.WithLabelValues(op, kind).Inc()
	updateSnapshot(func(s *Snapshot) { s.ECErrors++ })
}

// Get returns the current snapshot.
func Get() Snapshot {
	snapshotMu.RLock()
	defer snapshotMu.RUnlock()
	return snapshot
}

// Reset clears the snapshot cache. Intended for tests.
func Reset() {
	snapshotMu.Lock()
	defer snapshotMu.Unlock()
	snapshot = Snapshot{}
}

func updateSnapshot(fn func(*Snapshot)) {
	snapshotMu.Lock()
	defer snapshotMu.Unlock()
	fn(&snapshot)
}
