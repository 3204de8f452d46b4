//go:build linux

// Package input maintains the live set of keyboard and pointing
// devices and provides the daemon's single blocking wait primitive: one
// epoll set multiplexing device readiness, hotplug notifications, the
// idle deadline, and shutdown interruption.
package input

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/smazurov/keylightd/internal/events"
	"github.com/smazurov/keylightd/pkg/linuxinput/evdev"
	"github.com/smazurov/keylightd/pkg/linuxinput/hotplug"
)

// Set owns the mapping from stable device identity (the device node
// path) to an open evdev handle. Only Set mutates the mapping; callers
// see topology changes as Wake values.
type Set struct {
	epfd    int
	wakeFd  int // eventfd, written by Interrupt
	monitor *hotplug.Monitor
	devices map[string]*evdev.Device
	byFd    map[int]string
	pending []Wake
	bus     *events.Bus
	logger  *slog.Logger
}

// NewSet creates the epoll reactor and the hotplug monitor. A failure
// to create the hotplug monitor is downgraded to a warning: the daemon
// then simply cannot pick up devices plugged in later.
func NewSet(bus *events.Bus, logger *slog.Logger) (*Set, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}

	wakeFd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}

	s := &Set{
		epfd:    epfd,
		wakeFd:  wakeFd,
		devices: make(map[string]*evdev.Device),
		byFd:    make(map[int]string),
		bus:     bus,
		logger:  logger,
	}

	if err := s.watch(wakeFd); err != nil {
		s.Close()
		return nil, err
	}

	monitor, err := hotplug.NewMonitor(hotplug.SubsystemInput)
	if err != nil {
		logger.Warn("hotplug monitoring unavailable, devices plugged in later will not be picked up", "error", err)
	} else {
		s.monitor = monitor
		if err := s.watch(monitor.Fd()); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// Discover enumerates input devices and opens every keyboard and
// pointing device. Nodes that fail to open are skipped; having zero
// devices is not an error.
func (s *Set) Discover() error {
	infos, err := evdev.FindDevices()
	if err != nil {
		return err
	}

	for _, info := range infos {
		if err := s.add(info); err != nil {
			s.logger.Debug("skipping input device", "path", info.DevicePath, "error", err)
		}
	}

	s.logger.Info("input devices discovered", "count", len(s.devices))
	return nil
}

// Count returns the number of live input sources.
func (s *Set) Count() int {
	return len(s.devices)
}

// Wait blocks until an input source has a readable event, the device
// topology changes, the deadline passes, or Interrupt is called,
// whichever comes first. A zero deadline blocks indefinitely on
// sources only.
func (s *Set) Wait(deadline time.Time) (Wake, error) {
	if w, ok := s.popPending(); ok {
		return w, nil
	}

	var epollEvents [16]unix.EpollEvent

	for {
		timeoutMs := -1
		if !deadline.IsZero() {
			until := time.Until(deadline)
			if until <= 0 {
				return Wake{Kind: WakeTimeout}, nil
			}
			timeoutMs = epollTimeout(until)
		}

		n, err := unix.EpollWait(s.epfd, epollEvents[:], timeoutMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return Wake{}, fmt.Errorf("epoll_wait: %w", err)
		}

		if n == 0 {
			// The kernel timeout is capped, so re-check the deadline
			// before declaring a timeout.
			continue
		}

		for _, ev := range epollEvents[:n] {
			s.handleEvent(ev)
		}

		if w, ok := s.popPending(); ok {
			return w, nil
		}
		// Everything in the batch was absorbed (e.g. a hotplug event
		// for an unrelated node); go back to waiting.
	}
}

// epollTimeout converts the time remaining until a deadline into an
// epoll timeout in milliseconds, rounding up so the wait never returns
// before the deadline. epoll_wait takes a 32-bit timeout, so distant
// deadlines are capped and Wait re-arms when the capped wait expires.
func epollTimeout(until time.Duration) int {
	ms := int64((until + time.Millisecond - 1) / time.Millisecond)
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}

// Drain consumes and discards all buffered events from the identified
// source. The state machine only needs the fact of activity, and
// draining prevents repeated wake-ups from a backlog of events.
func (s *Set) Drain(id string) {
	dev, ok := s.devices[id]
	if !ok {
		return
	}
	if err := dev.Drain(); err != nil {
		// Read failure means the device is gone.
		s.remove(id)
		s.pending = append(s.pending, Wake{Kind: WakeDeviceRemoved, ID: id})
	}
}

// Interrupt wakes a concurrent Wait call. It is the only method safe
// to call from another goroutine.
func (s *Set) Interrupt() {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(s.wakeFd, buf[:])
}

// Close releases all device handles and the reactor descriptors.
func (s *Set) Close() error {
	for id := range s.devices {
		s.remove(id)
	}
	if s.monitor != nil {
		s.monitor.Close()
	}
	unix.Close(s.wakeFd)
	return unix.Close(s.epfd)
}

func (s *Set) popPending() (Wake, bool) {
	// Shutdown outranks everything else queued in the same batch.
	for _, w := range s.pending {
		if w.Kind == WakeShutdown {
			s.pending = nil
			return w, true
		}
	}
	if len(s.pending) == 0 {
		return Wake{}, false
	}
	w := s.pending[0]
	s.pending = s.pending[1:]
	return w, true
}

func (s *Set) handleEvent(ev unix.EpollEvent) {
	fd := int(ev.Fd)

	switch {
	case fd == s.wakeFd:
		var buf [8]byte
		_, _ = unix.Read(s.wakeFd, buf[:])
		s.pending = append(s.pending, Wake{Kind: WakeShutdown})

	case s.monitor != nil && fd == s.monitor.Fd():
		s.handleHotplug()

	default:
		id, ok := s.byFd[fd]
		if !ok {
			return
		}
		if ev.Events&(unix.EPOLLHUP|unix.EPOLLERR) != 0 {
			s.remove(id)
			s.pending = append(s.pending, Wake{Kind: WakeDeviceRemoved, ID: id})
			return
		}
		s.pending = append(s.pending, Wake{Kind: WakeActivity, ID: id})
	}
}

// handleHotplug drains the netlink socket and applies add/remove events
// for event device nodes.
func (s *Set) handleHotplug() {
	for {
		ev, err := s.monitor.Next()
		if err != nil {
			s.logger.Warn("hotplug monitor read failed", "error", err)
			return
		}
		if ev == nil {
			return
		}

		node := ev.DeviceNode()
		if !strings.HasPrefix(node, "/dev/input/event") {
			continue
		}

		switch ev.Action {
		case hotplug.ActionAdd:
			info, err := evdev.Query(node)
			if err != nil {
				s.logger.Debug("failed to query hot-plugged device", "path", node, "error", err)
				continue
			}
			if info.Class == evdev.ClassUnknown {
				continue
			}
			if err := s.add(info); err != nil {
				s.logger.Debug("failed to open hot-plugged device", "path", node, "error", err)
				continue
			}
			s.pending = append(s.pending, Wake{Kind: WakeDeviceAdded, ID: node})

		case hotplug.ActionRemove:
			if _, ok := s.devices[node]; !ok {
				continue
			}
			s.remove(node)
			s.pending = append(s.pending, Wake{Kind: WakeDeviceRemoved, ID: node})
		}
	}
}

func (s *Set) add(info evdev.DeviceInfo) error {
	if _, exists := s.devices[info.DevicePath]; exists {
		return nil
	}

	dev, err := evdev.Open(info)
	if err != nil {
		return err
	}

	if err := s.watch(dev.Fd()); err != nil {
		dev.Close()
		return err
	}

	s.devices[info.DevicePath] = dev
	s.byFd[dev.Fd()] = info.DevicePath

	s.logger.Info("watching input device",
		"path", info.DevicePath,
		"name", info.DeviceName,
		"class", info.Class.String())
	s.bus.Publish(events.DeviceDiscoveryEvent{
		Action: "added",
		ID:     info.DevicePath,
		Name:   info.DeviceName,
	})
	return nil
}

func (s *Set) remove(id string) {
	dev, ok := s.devices[id]
	if !ok {
		return
	}

	// Removing a closed fd from epoll fails harmlessly; the kernel
	// already dropped it from the interest list.
	_ = unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, dev.Fd(), nil)
	delete(s.byFd, dev.Fd())
	delete(s.devices, id)
	dev.Close()

	s.logger.Info("input device removed", "path", id)
	s.bus.Publish(events.DeviceDiscoveryEvent{
		Action: "removed",
		ID:     id,
		Name:   dev.Info().DeviceName,
	})
}

func (s *Set) watch(fd int) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("epoll_ctl add: %w", err)
	}
	return nil
}
